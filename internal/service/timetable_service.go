package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
	"school-portal/backend/internal/repository"
)

// ── 课程表模块业务错误 ──

var (
	ErrTimetableEntryNotFound  = errors.New("课表条目不存在")
	ErrTimetableTimeRange      = errors.New("下课时间必须晚于上课时间")
	ErrTimetableWeekOutOfRange = errors.New("周次超出学期范围")
	ErrTimetableICSParseFailed = errors.New("ICS 文件解析失败")
	ErrTimetableICSEmpty       = errors.New("ICS 文件中未发现有效课程事件")
	ErrTimetableICSFetchFailed = errors.New("ICS 订阅地址获取失败")
)

// ── TimetableService 接口 ──────────────────────────────────
//
//   - 手工条目（source=manual）由教师逐条维护。
//   - ICS 导入按课程全量替换 source=ics 的条目，手工条目不受影响；
//     周次以课程所属学期的开始日期为第 1 周计算。
//   - 导出把调用者的课表渲染为 text/calendar 订阅。
// ─────────────────────────────────────────────────────────────

// TimetableService 课程表业务接口
type TimetableService interface {
	CreateEntry(ctx context.Context, courseID string, req *dto.CreateTimetableEntryRequest, callerID, callerRole string) (*dto.TimetableEntryResponse, error)
	DeleteEntry(ctx context.Context, entryID string, callerID, callerRole string) error
	ListByCourse(ctx context.Context, courseID string, callerID, callerRole string) ([]dto.TimetableEntryResponse, error)
	// ImportICS 解析 ICS 内容并替换课程的导入条目
	ImportICS(ctx context.Context, courseID string, r io.Reader, callerID, callerRole string) (*dto.ImportICSResponse, error)
	// ImportICSFromURL 拉取订阅地址后按 ImportICS 处理
	ImportICSFromURL(ctx context.Context, courseID, url string, callerID, callerRole string) (*dto.ImportICSResponse, error)
	// MyTimetable 学生按已选课程，教师按任教课程
	MyTimetable(ctx context.Context, callerID, callerRole string) ([]dto.TimetableEntryResponse, error)
	// ExportICS 调用者课表的 text/calendar 内容
	ExportICS(ctx context.Context, callerID, callerRole string) ([]byte, error)
}

type timetableService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) TimetableService {
	if loc == nil {
		loc = time.UTC
	}
	return &timetableService{repo: repo, loc: loc, logger: logger}
}

// ────────────────────── 手工条目 ──────────────────────

func (s *timetableService) CreateEntry(ctx context.Context, courseID string, req *dto.CreateTimetableEntryRequest, callerID, callerRole string) (*dto.TimetableEntryResponse, error) {
	course, err := authorizeCourseStaff(ctx, s.repo, courseID, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	start, errStart := time.Parse(clockLayout, req.StartTime)
	end, errEnd := time.Parse(clockLayout, req.EndTime)
	if errStart != nil || errEnd != nil || !end.After(start) {
		return nil, ErrTimetableTimeRange
	}

	weeks := append([]int(nil), req.Weeks...)
	if len(weeks) > 0 {
		window, err := s.window(ctx, course)
		if err != nil {
			return nil, err
		}
		total := window.totalWeeks()
		for _, w := range weeks {
			if w > total {
				return nil, ErrTimetableWeekOutOfRange
			}
		}
		weeks = uniqueSorted(weeks)
	}

	entry := &model.TimetableEntry{
		CourseID:  courseID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Room:      req.Room,
		Weeks:     model.IntArray(weeks),
		Source:    model.TimetableSourceManual,
	}
	entry.CreatedBy = &callerID

	if err := s.repo.Timetable.Create(ctx, entry); err != nil {
		s.logger.Error("创建课表条目失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	entry.Course = course

	resp := toTimetableEntryResponse(entry)
	return &resp, nil
}

func (s *timetableService) DeleteEntry(ctx context.Context, entryID string, callerID, callerRole string) error {
	entry, err := s.repo.Timetable.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTimetableEntryNotFound
		}
		return err
	}
	if _, err := authorizeCourseStaff(ctx, s.repo, entry.CourseID, callerID, callerRole); err != nil {
		return err
	}

	if err := s.repo.Timetable.Delete(ctx, entryID); err != nil {
		s.logger.Error("删除课表条目失败", zap.String("entry_id", entryID), zap.Error(err))
		return err
	}
	return nil
}

func (s *timetableService) ListByCourse(ctx context.Context, courseID string, callerID, callerRole string) ([]dto.TimetableEntryResponse, error) {
	course, err := authorizeCourseMember(ctx, s.repo, courseID, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.Timetable.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询课程课表失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.TimetableEntryResponse, 0, len(entries))
	for i := range entries {
		entries[i].Course = course
		result = append(result, toTimetableEntryResponse(&entries[i]))
	}
	return result, nil
}

// ────────────────────── ICS 导入 ──────────────────────

func (s *timetableService) ImportICS(ctx context.Context, courseID string, r io.Reader, callerID, callerRole string) (*dto.ImportICSResponse, error) {
	course, err := authorizeCourseStaff(ctx, s.repo, courseID, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	window, err := s.window(ctx, course)
	if err != nil {
		return nil, err
	}

	entries, events, err := decodeICS(io.LimitReader(r, icsMaxFileSize), courseID, window, s.loc)
	if err != nil {
		s.logger.Warn("ICS 解析失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, ErrTimetableICSParseFailed
	}
	if len(entries) == 0 {
		return nil, ErrTimetableICSEmpty
	}
	for i := range entries {
		entries[i].CreatedBy = &callerID
	}

	if err := s.repo.Timetable.ReplaceImported(ctx, courseID, entries); err != nil {
		s.logger.Error("替换导入课表失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("ICS 课表导入完成",
		zap.String("course_id", courseID),
		zap.Int("entries", len(entries)),
	)

	resp := &dto.ImportICSResponse{
		ImportedCount: len(entries),
		Events:        make([]dto.ImportedCourseEvent, 0, len(events)),
	}
	for _, e := range events {
		resp.Events = append(resp.Events, dto.ImportedCourseEvent{
			Name:      e.Name,
			DayOfWeek: e.DayOfWeek,
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
			Room:      e.Room,
			Weeks:     e.Weeks,
		})
	}
	return resp, nil
}

func (s *timetableService) ImportICSFromURL(ctx context.Context, courseID, url string, callerID, callerRole string) (*dto.ImportICSResponse, error) {
	// 先鉴权，避免无权限请求触发外部拉取
	if _, err := authorizeCourseStaff(ctx, s.repo, courseID, callerID, callerRole); err != nil {
		return nil, err
	}

	body, err := fetchICS(ctx, url)
	if err != nil {
		s.logger.Warn("拉取 ICS 失败", zap.String("url", url), zap.Error(err))
		return nil, ErrTimetableICSFetchFailed
	}
	defer body.Close()

	return s.ImportICS(ctx, courseID, body, callerID, callerRole)
}

// ────────────────────── 我的课表 / 导出 ──────────────────────

func (s *timetableService) MyTimetable(ctx context.Context, callerID, callerRole string) ([]dto.TimetableEntryResponse, error) {
	entries, err := s.myEntries(ctx, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	result := make([]dto.TimetableEntryResponse, 0, len(entries))
	for i := range entries {
		result = append(result, toTimetableEntryResponse(&entries[i]))
	}
	return result, nil
}

func (s *timetableService) ExportICS(ctx context.Context, callerID, callerRole string) ([]byte, error) {
	entries, err := s.myEntries(ctx, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	windows := make(map[string]semesterWindow)
	slots := make([]icsSlot, 0, len(entries))
	for i := range entries {
		e := entries[i]
		if e.Course == nil {
			continue
		}
		w, ok := windows[e.Course.SemesterID]
		if !ok {
			if w, err = s.window(ctx, e.Course); err != nil {
				return nil, err
			}
			windows[e.Course.SemesterID] = w
		}
		slots = append(slots, icsSlot{entry: e, title: e.Course.Name, window: w})
	}

	return []byte(encodeICS("我的课表", slots, s.loc, time.Now())), nil
}

// ── 内部辅助方法 ──

func (s *timetableService) myEntries(ctx context.Context, callerID, callerRole string) ([]model.TimetableEntry, error) {
	courses, err := coursesOf(ctx, s.repo, callerID, callerRole)
	if err != nil {
		s.logger.Error("查询用户课程失败", zap.String("user_id", callerID), zap.Error(err))
		return nil, err
	}
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.CourseID)
	}

	entries, err := s.repo.Timetable.ListByCourses(ctx, ids)
	if err != nil {
		s.logger.Error("查询课表失败", zap.String("user_id", callerID), zap.Error(err))
		return nil, err
	}
	return entries, nil
}

// window 课程所属学期的起止日期
func (s *timetableService) window(ctx context.Context, course *model.Course) (semesterWindow, error) {
	sem := course.Semester
	if sem == nil {
		var err error
		sem, err = s.repo.Semester.GetByID(ctx, course.SemesterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return semesterWindow{}, ErrSemesterNotFound
			}
			return semesterWindow{}, err
		}
	}
	return semesterWindow{start: sem.StartDate, end: sem.EndDate}, nil
}

func uniqueSorted(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

func toTimetableEntryResponse(e *model.TimetableEntry) dto.TimetableEntryResponse {
	resp := dto.TimetableEntryResponse{
		ID:        e.EntryID,
		CourseID:  e.CourseID,
		DayOfWeek: e.DayOfWeek,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Room:      e.Room,
		Weeks:     []int(e.Weeks),
		Source:    e.Source,
	}
	if resp.Weeks == nil {
		resp.Weeks = []int{}
	}
	if e.Course != nil {
		resp.CourseCode = e.Course.Code
		resp.CourseName = e.Course.Name
	}
	return resp
}
