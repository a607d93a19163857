package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
	"school-portal/backend/internal/repository"
	pkgerrors "school-portal/backend/pkg/errors"
)

// ── 课程/选课模块业务错误 ──

var (
	ErrCourseCodeExists     = errors.New("课程代码已存在")
	ErrCourseTeacherInvalid = errors.New("任课教师不存在或不是教师")
	ErrStudentInvalid       = errors.New("学生不存在或不是学生")
	ErrAlreadyEnrolled      = errors.New("学生已选该课程")
	ErrNotEnrolled          = errors.New("学生未选该课程")
)

// CourseService 课程与选课业务接口
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	List(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID, callerRole string) (*dto.CourseResponse, error)
	Delete(ctx context.Context, id string, callerID string) error

	// Enroll 管理员为学生选课，或学生本人选课；已退课记录重新激活
	Enroll(ctx context.Context, courseID string, req *dto.EnrollRequest, callerID, callerRole string) (*dto.EnrollmentResponse, error)
	Drop(ctx context.Context, courseID, studentID string, callerID, callerRole string) error
	Roster(ctx context.Context, courseID string, callerID, callerRole string) ([]dto.RosterEntry, error)
	// MyCourses 学生返回已选课程，教师返回任教课程
	MyCourses(ctx context.Context, callerID, callerRole string) ([]dto.CourseResponse, error)
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	if _, err := s.repo.Course.GetByCode(ctx, req.Code); err == nil {
		return nil, ErrCourseCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.repo.Department.GetByID(ctx, req.DepartmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	if err := s.ensureTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}
	if err := s.ensureSemester(ctx, req.SemesterID); err != nil {
		return nil, err
	}

	units := req.Units
	if units == 0 {
		units = 1
	}
	course := &model.Course{
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		Units:        units,
		DepartmentID: req.DepartmentID,
		TeacherID:    req.TeacherID,
		SemesterID:   req.SemesterID,
	}
	course.CreatedBy = &callerID
	course.UpdatedBy = &callerID

	if err := s.repo.Course.Create(ctx, course); err != nil {
		if pkgerrors.IsDuplicateKey(err) {
			return nil, ErrCourseCodeExists
		}
		s.logger.Error("创建课程失败", zap.String("code", req.Code), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, course.CourseID)
}

// ────────────────────── GetByID ──────────────────────

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := loadCourse(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	resp := toCourseResponse(course)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *courseService) List(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, int64, error) {
	filter := repository.CourseFilter{
		DepartmentID: req.DepartmentID,
		TeacherID:    req.TeacherID,
		SemesterID:   req.SemesterID,
	}
	courses, total, err := s.repo.Course.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, toCourseResponse(&courses[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID, callerRole string) (*dto.CourseResponse, error) {
	course, err := authorizeCourseStaff(ctx, s.repo, id, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	// 更换任课教师与学期仅限管理员
	if callerRole != model.RoleAdmin && (req.TeacherID != nil || req.SemesterID != nil) {
		return nil, ErrNoPermission
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Units != nil {
		course.Units = *req.Units
	}
	if req.TeacherID != nil {
		if err := s.ensureTeacher(ctx, *req.TeacherID); err != nil {
			return nil, err
		}
		course.TeacherID = *req.TeacherID
	}
	if req.SemesterID != nil {
		if err := s.ensureSemester(ctx, *req.SemesterID); err != nil {
			return nil, err
		}
		course.SemesterID = *req.SemesterID
	}
	course.UpdatedBy = &callerID

	if err := s.repo.Course.Update(ctx, course); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新课程失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *courseService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := loadCourse(ctx, s.repo, id); err != nil {
		return err
	}
	if err := s.repo.Course.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除课程失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Enroll ──────────────────────

func (s *courseService) Enroll(ctx context.Context, courseID string, req *dto.EnrollRequest, callerID, callerRole string) (*dto.EnrollmentResponse, error) {
	studentID := req.StudentID
	switch callerRole {
	case model.RoleAdmin:
		if studentID == "" {
			return nil, ErrStudentInvalid
		}
	case model.RoleStudent:
		if studentID == "" {
			studentID = callerID
		}
		if studentID != callerID {
			return nil, ErrNoPermission
		}
	default:
		return nil, ErrNoPermission
	}

	if _, err := loadCourse(ctx, s.repo, courseID); err != nil {
		return nil, err
	}
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}

	existing, err := s.repo.Enrollment.Get(ctx, courseID, studentID)
	switch {
	case err == nil:
		if existing.Status == model.EnrollmentActive {
			return nil, ErrAlreadyEnrolled
		}
		// 已退课：重新激活原记录
		if err := s.repo.Enrollment.UpdateStatus(ctx, existing.EnrollmentID, model.EnrollmentActive, callerID); err != nil {
			s.logger.Error("恢复选课失败", zap.String("enrollment_id", existing.EnrollmentID), zap.Error(err))
			return nil, err
		}
		existing.Status = model.EnrollmentActive
		return toEnrollmentResponse(existing), nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Error("查询选课记录失败", zap.Error(err))
		return nil, err
	}

	enrollment := &model.Enrollment{
		CourseID:  courseID,
		StudentID: studentID,
		Status:    model.EnrollmentActive,
	}
	enrollment.CreatedBy = &callerID
	enrollment.UpdatedBy = &callerID

	if err := s.repo.Enrollment.Create(ctx, enrollment); err != nil {
		if pkgerrors.IsDuplicateKey(err) {
			return nil, ErrAlreadyEnrolled
		}
		s.logger.Error("选课失败", zap.String("course_id", courseID), zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return toEnrollmentResponse(enrollment), nil
}

// ────────────────────── Drop ──────────────────────

func (s *courseService) Drop(ctx context.Context, courseID, studentID string, callerID, callerRole string) error {
	if callerRole != model.RoleAdmin && callerID != studentID {
		return ErrNoPermission
	}

	enrollment, err := s.repo.Enrollment.Get(ctx, courseID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotEnrolled
		}
		return err
	}
	if enrollment.Status != model.EnrollmentActive {
		return ErrNotEnrolled
	}

	if err := s.repo.Enrollment.UpdateStatus(ctx, enrollment.EnrollmentID, model.EnrollmentDropped, callerID); err != nil {
		s.logger.Error("退课失败", zap.String("enrollment_id", enrollment.EnrollmentID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Roster ──────────────────────

func (s *courseService) Roster(ctx context.Context, courseID string, callerID, callerRole string) ([]dto.RosterEntry, error) {
	if _, err := authorizeCourseStaff(ctx, s.repo, courseID, callerID, callerRole); err != nil {
		return nil, err
	}

	enrollments, err := s.repo.Enrollment.ListActiveByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询课程花名册失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.RosterEntry, 0, len(enrollments))
	for _, e := range enrollments {
		entry := dto.RosterEntry{
			StudentID:  e.StudentID,
			EnrolledAt: formatTime(e.CreatedAt),
		}
		if e.Student != nil {
			entry.Name = e.Student.Name
			entry.Username = e.Student.Username
		}
		result = append(result, entry)
	}
	return result, nil
}

// ────────────────────── MyCourses ──────────────────────

func (s *courseService) MyCourses(ctx context.Context, callerID, callerRole string) ([]dto.CourseResponse, error) {
	courses, err := coursesOf(ctx, s.repo, callerID, callerRole)
	if err != nil {
		s.logger.Error("查询我的课程失败", zap.String("user_id", callerID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, toCourseResponse(&courses[i]))
	}
	return result, nil
}

// ── 内部辅助方法 ──

// coursesOf 学生的有效选课或教师的任教课程
func coursesOf(ctx context.Context, repo *repository.Repository, userID, role string) ([]model.Course, error) {
	if role == model.RoleStudent {
		enrollments, err := repo.Enrollment.ListActiveByStudent(ctx, userID)
		if err != nil {
			return nil, err
		}
		courses := make([]model.Course, 0, len(enrollments))
		for _, e := range enrollments {
			if e.Course != nil {
				courses = append(courses, *e.Course)
			}
		}
		return courses, nil
	}

	courses, _, err := repo.Course.List(ctx, repository.CourseFilter{TeacherID: userID}, 0, -1)
	return courses, err
}

func (s *courseService) ensureTeacher(ctx context.Context, id string) error {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseTeacherInvalid
		}
		return err
	}
	if user.Role != model.RoleTeacher {
		return ErrCourseTeacherInvalid
	}
	return nil
}

func (s *courseService) ensureStudent(ctx context.Context, id string) error {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentInvalid
		}
		return err
	}
	if user.Role != model.RoleStudent {
		return ErrStudentInvalid
	}
	return nil
}

func (s *courseService) ensureSemester(ctx context.Context, id string) error {
	if _, err := s.repo.Semester.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSemesterNotFound
		}
		return err
	}
	return nil
}

func toCourseResponse(c *model.Course) dto.CourseResponse {
	return dto.CourseResponse{
		ID:           c.CourseID,
		Code:         c.Code,
		Name:         c.Name,
		Description:  c.Description,
		Units:        c.Units,
		DepartmentID: c.DepartmentID,
		TeacherID:    c.TeacherID,
		TeacherName:  userName(c.Teacher),
		SemesterID:   c.SemesterID,
	}
}

func toEnrollmentResponse(e *model.Enrollment) *dto.EnrollmentResponse {
	return &dto.EnrollmentResponse{
		ID:        e.EnrollmentID,
		CourseID:  e.CourseID,
		StudentID: e.StudentID,
		Status:    e.Status,
	}
}
