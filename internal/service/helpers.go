package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
	"school-portal/backend/internal/repository"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = time.RFC3339
)

// ── 跨模块通用错误 ──

var (
	ErrNoPermission  = errors.New("无权操作")
	ErrInvalidDate   = errors.New("日期格式错误，应为 YYYY-MM-DD")
	ErrCourseMissing = errors.New("课程不存在")
)

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func isStaff(role string) bool {
	return role == model.RoleAdmin || role == model.RoleTeacher
}

// canViewStudent 教职工可查看任意学生，学生仅可查看本人
func canViewStudent(callerID, callerRole, studentID string) bool {
	return isStaff(callerRole) || callerID == studentID
}

// loadCourse 查询课程，不存在时返回 ErrCourseMissing
func loadCourse(ctx context.Context, repo *repository.Repository, courseID string) (*model.Course, error) {
	course, err := repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseMissing
		}
		return nil, err
	}
	return course, nil
}

// authorizeCourseStaff 管理员或该课程的任课教师
func authorizeCourseStaff(ctx context.Context, repo *repository.Repository, courseID, callerID, callerRole string) (*model.Course, error) {
	course, err := loadCourse(ctx, repo, courseID)
	if err != nil {
		return nil, err
	}
	if callerRole == model.RoleAdmin {
		return course, nil
	}
	if callerRole == model.RoleTeacher && course.TeacherID == callerID {
		return course, nil
	}
	return nil, ErrNoPermission
}

// authorizeCourseMember 课程教职工或已选课学生
func authorizeCourseMember(ctx context.Context, repo *repository.Repository, courseID, callerID, callerRole string) (*model.Course, error) {
	course, err := loadCourse(ctx, repo, courseID)
	if err != nil {
		return nil, err
	}
	if callerRole == model.RoleAdmin || course.TeacherID == callerID {
		return course, nil
	}
	ok, err := repo.Enrollment.IsActive(ctx, courseID, callerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoPermission
	}
	return course, nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:                 u.UserID,
		Name:               u.Name,
		Username:           u.Username,
		Email:              u.Email,
		Role:               u.Role,
		PerformanceCredits: u.PerformanceCredits,
		MustChangePassword: u.MustChangePassword,
	}
	if u.Department != nil {
		resp.Department = &dto.DepartmentResponse{
			ID:   u.Department.DepartmentID,
			Code: u.Department.Code,
			Name: u.Department.Name,
		}
	}
	return resp
}

func userName(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.Name
}

// courseIndex 按 ID 批量加载课程，用于给统计结果补充课程代码与名称
func courseIndex(ctx context.Context, repo *repository.Repository, ids []string) (map[string]model.Course, error) {
	index := make(map[string]model.Course, len(ids))
	if len(ids) == 0 {
		return index, nil
	}
	courses, err := repo.Course.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range courses {
		index[c.CourseID] = c
	}
	return index, nil
}
