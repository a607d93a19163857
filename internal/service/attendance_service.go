package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"school-portal/backend/internal/academics"
	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
	"school-portal/backend/internal/repository"
)

// ── 出勤模块业务错误 ──

var (
	ErrAttendanceStudentNotEnrolled = errors.New("存在未选该课程的学生")
	ErrAttendanceDuplicateStudent   = errors.New("同一学生在一次提交中重复出现")
)

// AttendanceService 出勤业务接口
type AttendanceService interface {
	// Mark 任课教师批量标记某日出勤，按 (student, course, date) 覆盖
	Mark(ctx context.Context, courseID string, req *dto.MarkAttendanceRequest, callerID, callerRole string) (*dto.MarkAttendanceResponse, error)
	ListByCourse(ctx context.Context, courseID string, req *dto.AttendanceListRequest, callerID, callerRole string) ([]dto.AttendanceRecordResponse, error)
	// StudentSummary 学生各课程出勤率及是否低于预警阈值
	StudentSummary(ctx context.Context, studentID string, callerID, callerRole string) (*dto.AttendanceSummaryResponse, error)
}

type attendanceService struct {
	repo     *repository.Repository
	settings SystemConfigService
	notifier Notifier
	logger   *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, settings SystemConfigService, notifier Notifier, logger *zap.Logger) AttendanceService {
	return &attendanceService{repo: repo, settings: settings, notifier: notifier, logger: logger}
}

// ────────────────────── Mark ──────────────────────

func (s *attendanceService) Mark(ctx context.Context, courseID string, req *dto.MarkAttendanceRequest, callerID, callerRole string) (*dto.MarkAttendanceResponse, error) {
	course, err := authorizeCourseStaff(ctx, s.repo, courseID, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.repo.Enrollment.ListActiveStudentIDs(ctx, courseID)
	if err != nil {
		s.logger.Error("查询选课学生失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	enrolledSet := make(map[string]bool, len(enrolled))
	for _, id := range enrolled {
		enrolledSet[id] = true
	}

	records := make([]model.AttendanceRecord, 0, len(req.Records))
	seen := make(map[string]bool, len(req.Records))
	for _, m := range req.Records {
		if !enrolledSet[m.StudentID] {
			return nil, ErrAttendanceStudentNotEnrolled
		}
		if seen[m.StudentID] {
			return nil, ErrAttendanceDuplicateStudent
		}
		seen[m.StudentID] = true

		rec := model.AttendanceRecord{
			StudentID:  m.StudentID,
			CourseID:   courseID,
			Date:       datatypes.Date(date),
			Status:     m.Status,
			RecordedBy: callerID,
		}
		rec.CreatedBy = &callerID
		rec.UpdatedBy = &callerID
		records = append(records, rec)
	}

	// 写入前的出勤率，用于判断本次是否跌破阈值
	threshold := s.settings.Settings(ctx).AttendanceWarningThreshold
	before := make(map[string]academics.CourseAttendance, len(records))
	for _, rec := range records {
		ca, err := s.courseAttendance(ctx, rec.StudentID, courseID)
		if err != nil {
			return nil, err
		}
		before[rec.StudentID] = ca
	}

	if err := s.repo.Attendance.Upsert(ctx, records); err != nil {
		s.logger.Error("写入出勤记录失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	var intents []academics.NotificationIntent
	for _, rec := range records {
		after, err := s.courseAttendance(ctx, rec.StudentID, courseID)
		if err != nil {
			s.logger.Warn("重新统计出勤率失败", zap.String("student_id", rec.StudentID), zap.Error(err))
			continue
		}
		prev := before[rec.StudentID]
		if prev.Total > 0 && prev.Percentage < threshold {
			continue
		}
		intent, warn := academics.AttendanceWarning(rec.StudentID, course.Name, after, threshold)
		if !warn {
			continue
		}
		intent.Payload = map[string]interface{}{
			"course_id":  courseID,
			"percentage": after.Percentage,
			"threshold":  threshold,
		}
		intents = append(intents, intent)
	}
	s.notifier.Dispatch(ctx, intents)

	return &dto.MarkAttendanceResponse{
		Date:     date.Format(dateLayout),
		Recorded: len(records),
		Warned:   len(intents),
	}, nil
}

// ────────────────────── ListByCourse ──────────────────────

func (s *attendanceService) ListByCourse(ctx context.Context, courseID string, req *dto.AttendanceListRequest, callerID, callerRole string) ([]dto.AttendanceRecordResponse, error) {
	if _, err := authorizeCourseStaff(ctx, s.repo, courseID, callerID, callerRole); err != nil {
		return nil, err
	}

	var date *time.Time
	if req.Date != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			return nil, err
		}
		date = &d
	}

	records, err := s.repo.Attendance.ListByCourse(ctx, courseID, date)
	if err != nil {
		s.logger.Error("查询课程出勤失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.AttendanceRecordResponse, 0, len(records))
	for _, r := range records {
		result = append(result, dto.AttendanceRecordResponse{
			StudentID:   r.StudentID,
			StudentName: userName(r.Student),
			Date:        time.Time(r.Date).Format(dateLayout),
			Status:      r.Status,
		})
	}
	return result, nil
}

// ────────────────────── StudentSummary ──────────────────────

func (s *attendanceService) StudentSummary(ctx context.Context, studentID string, callerID, callerRole string) (*dto.AttendanceSummaryResponse, error) {
	if !canViewStudent(callerID, callerRole, studentID) {
		return nil, ErrNoPermission
	}

	records, err := s.repo.Attendance.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学生出勤失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	stats := academics.AttendancePercentages(toAttendanceInputs(records))
	threshold := s.settings.Settings(ctx).AttendanceWarningThreshold

	courseIDs := make([]string, 0, len(stats))
	for id := range stats {
		courseIDs = append(courseIDs, id)
	}
	courses, err := courseIndex(ctx, s.repo, courseIDs)
	if err != nil {
		return nil, err
	}

	items := make([]dto.CourseAttendanceItem, 0, len(stats))
	for id, ca := range stats {
		item := dto.CourseAttendanceItem{
			CourseID:       id,
			Present:        ca.Present,
			Total:          ca.Total,
			Percentage:     ca.Percentage,
			BelowThreshold: ca.Percentage < threshold,
		}
		if c, ok := courses[id]; ok {
			item.CourseCode = c.Code
			item.CourseName = c.Name
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CourseCode < items[j].CourseCode })

	return &dto.AttendanceSummaryResponse{
		StudentID: studentID,
		Threshold: threshold,
		Courses:   items,
	}, nil
}

// ── 内部辅助方法 ──

func (s *attendanceService) courseAttendance(ctx context.Context, studentID, courseID string) (academics.CourseAttendance, error) {
	records, err := s.repo.Attendance.ListByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return academics.CourseAttendance{}, err
	}
	return academics.AttendancePercentages(toAttendanceInputs(records))[courseID], nil
}

func toAttendanceInputs(records []model.AttendanceRecord) []academics.AttendanceRecord {
	out := make([]academics.AttendanceRecord, 0, len(records))
	for _, r := range records {
		out = append(out, academics.AttendanceRecord{
			StudentID: r.StudentID,
			Course:    r.CourseID,
			Date:      time.Time(r.Date),
			Status:    r.Status,
		})
	}
	return out
}
