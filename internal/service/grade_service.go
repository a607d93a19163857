package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-portal/backend/internal/academics"
	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
	"school-portal/backend/internal/repository"
)

// ── 成绩模块业务错误 ──

var (
	ErrGradeLetterInvalid      = errors.New("成绩等级不在等级表中")
	ErrGradeStudentNotEnrolled = errors.New("学生未选该课程")
	ErrScaleInputMissing       = errors.New("letter 与 point 必须提供其一")
)

// GradeService 成绩业务接口
type GradeService interface {
	// SubmitGrade 按 (student, course, semester, assignment) 覆盖写入并通知学生
	SubmitGrade(ctx context.Context, req *dto.SubmitGradeRequest, callerID, callerRole string) (*dto.GradeRecordResponse, error)
	ListStudentGrades(ctx context.Context, studentID string, req *dto.GradeListRequest, callerID, callerRole string) ([]dto.GradeRecordResponse, error)
	ListCourseGrades(ctx context.Context, courseID string, callerID, callerRole string) ([]dto.GradeRecordResponse, error)
	// StudentReport 各课程绩点与平均等级，以及全部原始绩点的总平均
	StudentReport(ctx context.Context, studentID string, req *dto.GradeListRequest, callerID, callerRole string) (*dto.GradeReportResponse, error)
	ConvertScale(req *dto.ConvertScaleRequest) (*dto.ConvertScaleResponse, error)
	Scale() []dto.GradeStepResponse
}

type gradeService struct {
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewGradeService 创建 GradeService 实例
func NewGradeService(repo *repository.Repository, notifier Notifier, logger *zap.Logger) GradeService {
	return &gradeService{repo: repo, notifier: notifier, logger: logger}
}

// ────────────────────── SubmitGrade ──────────────────────

func (s *gradeService) SubmitGrade(ctx context.Context, req *dto.SubmitGradeRequest, callerID, callerRole string) (*dto.GradeRecordResponse, error) {
	if !academics.IsValidLetter(req.LetterGrade) {
		return nil, ErrGradeLetterInvalid
	}

	course, err := authorizeCourseStaff(ctx, s.repo, req.CourseID, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.repo.Enrollment.IsActive(ctx, req.CourseID, req.StudentID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrGradeStudentNotEnrolled
	}

	semesterID := req.SemesterID
	if semesterID == "" {
		semesterID = course.SemesterID
	}

	record := &model.GradeRecord{
		StudentID:    req.StudentID,
		CourseID:     req.CourseID,
		SemesterID:   semesterID,
		AssignmentID: req.AssignmentID,
		LetterGrade:  req.LetterGrade,
		Remark:       req.Remark,
		GradedBy:     callerID,
	}
	record.CreatedBy = &callerID
	record.UpdatedBy = &callerID

	if err := s.repo.Grade.Upsert(ctx, record); err != nil {
		s.logger.Error("写入成绩失败",
			zap.String("student_id", req.StudentID), zap.String("course_id", req.CourseID), zap.Error(err))
		return nil, err
	}
	record.Course = course

	s.notifier.Dispatch(ctx, []academics.NotificationIntent{{
		Recipient: req.StudentID,
		Type:      academics.NotifyGrade,
		Title:     "成绩已发布",
		Message:   fmt.Sprintf("课程 %s 的成绩已录入：%s", course.Name, req.LetterGrade),
		Severity:  academics.SeverityInfo,
		Payload: map[string]interface{}{
			"course_id":     req.CourseID,
			"assignment_id": req.AssignmentID,
			"letter_grade":  req.LetterGrade,
		},
	}})

	resp := toGradeRecordResponse(record)
	return &resp, nil
}

// ────────────────────── ListStudentGrades ──────────────────────

func (s *gradeService) ListStudentGrades(ctx context.Context, studentID string, req *dto.GradeListRequest, callerID, callerRole string) ([]dto.GradeRecordResponse, error) {
	if !canViewStudent(callerID, callerRole, studentID) {
		return nil, ErrNoPermission
	}

	records, err := s.repo.Grade.ListByStudent(ctx, studentID, req.SemesterID)
	if err != nil {
		s.logger.Error("查询学生成绩失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.GradeRecordResponse, 0, len(records))
	for i := range records {
		result = append(result, toGradeRecordResponse(&records[i]))
	}
	return result, nil
}

// ────────────────────── ListCourseGrades ──────────────────────

func (s *gradeService) ListCourseGrades(ctx context.Context, courseID string, callerID, callerRole string) ([]dto.GradeRecordResponse, error) {
	course, err := authorizeCourseStaff(ctx, s.repo, courseID, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.Grade.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询课程成绩失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.GradeRecordResponse, 0, len(records))
	for i := range records {
		records[i].Course = course
		result = append(result, toGradeRecordResponse(&records[i]))
	}
	return result, nil
}

// ────────────────────── StudentReport ──────────────────────

func (s *gradeService) StudentReport(ctx context.Context, studentID string, req *dto.GradeListRequest, callerID, callerRole string) (*dto.GradeReportResponse, error) {
	if !canViewStudent(callerID, callerRole, studentID) {
		return nil, ErrNoPermission
	}

	student, err := s.repo.User.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	records, err := s.repo.Grade.ListByStudent(ctx, studentID, req.SemesterID)
	if err != nil {
		s.logger.Error("查询学生成绩失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	return buildGradeReport(student, records), nil
}

// buildGradeReport 汇总成绩单，导出模块复用
func buildGradeReport(student *model.User, records []model.GradeRecord) *dto.GradeReportResponse {
	inputs := make([]academics.GradeRecord, 0, len(records))
	courses := make(map[string]*model.Course)
	for i := range records {
		r := &records[i]
		inputs = append(inputs, academics.GradeRecord{
			StudentID:    r.StudentID,
			Course:       r.CourseID,
			Semester:     r.SemesterID,
			AssignmentID: r.AssignmentID,
			LetterGrade:  r.LetterGrade,
		})
		if r.Course != nil {
			courses[r.CourseID] = r.Course
		}
	}

	report := &dto.GradeReportResponse{
		StudentID:   student.UserID,
		StudentName: student.Name,
		Courses:     make([]dto.CourseGradeItem, 0),
	}

	for courseID, cg := range academics.AggregateGrades(inputs) {
		item := dto.CourseGradeItem{
			CourseID:  courseID,
			RawPoints: cg.RawPoints,
			Mean:      cg.Mean,
			Average:   cg.Average,
		}
		if c, ok := courses[courseID]; ok {
			item.CourseCode = c.Code
			item.CourseName = c.Name
		}
		report.Courses = append(report.Courses, item)
	}
	sort.Slice(report.Courses, func(i, j int) bool {
		return report.Courses[i].CourseCode < report.Courses[j].CourseCode
	})

	if gpa, ok := academics.OverallGPA(inputs); ok {
		report.OverallGPA = &gpa
		report.OverallLetter = academics.PointToLetter(gpa)
	}
	return report
}

// ────────────────────── ConvertScale ──────────────────────

func (s *gradeService) ConvertScale(req *dto.ConvertScaleRequest) (*dto.ConvertScaleResponse, error) {
	switch {
	case req.Letter != "":
		return &dto.ConvertScaleResponse{
			Letter: req.Letter,
			Point:  academics.LetterToPoint(req.Letter),
			Known:  academics.IsValidLetter(req.Letter),
		}, nil
	case req.Point != nil:
		return &dto.ConvertScaleResponse{
			Letter: academics.PointToLetter(*req.Point),
			Point:  *req.Point,
			Known:  true,
		}, nil
	default:
		return nil, ErrScaleInputMissing
	}
}

func (s *gradeService) Scale() []dto.GradeStepResponse {
	steps := academics.Scale()
	result := make([]dto.GradeStepResponse, 0, len(steps))
	for _, st := range steps {
		result = append(result, dto.GradeStepResponse{Letter: st.Letter, Point: st.Point})
	}
	return result
}

// ── 内部辅助方法 ──

func toGradeRecordResponse(r *model.GradeRecord) dto.GradeRecordResponse {
	resp := dto.GradeRecordResponse{
		ID:           r.GradeID,
		StudentID:    r.StudentID,
		CourseID:     r.CourseID,
		SemesterID:   r.SemesterID,
		AssignmentID: r.AssignmentID,
		LetterGrade:  r.LetterGrade,
		Point:        academics.LetterToPoint(r.LetterGrade),
		Remark:       r.Remark,
		UpdatedAt:    formatTime(r.UpdatedAt),
	}
	if r.Course != nil {
		resp.CourseName = r.Course.Name
	}
	return resp
}
