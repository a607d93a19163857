package repository

import (
	"context"

	"gorm.io/gorm"

	"school-portal/backend/internal/model"
)

// EnrollmentRepository 选课数据访问接口
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	// Get 按 (course_id, student_id) 查询，含已退课记录
	Get(ctx context.Context, courseID, studentID string) (*model.Enrollment, error)
	UpdateStatus(ctx context.Context, enrollmentID, status, updatedBy string) error
	ListActiveByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error)
	ListActiveStudentIDs(ctx context.Context, courseID string) ([]string, error)
	ListActiveByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error)
	IsActive(ctx context.Context, courseID, studentID string) (bool, error)
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepo) Get(ctx context.Context, courseID, studentID string) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepo) UpdateStatus(ctx context.Context, enrollmentID, status, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("enrollment_id = ?", enrollmentID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *enrollmentRepo) ListActiveByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error) {
	var list []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("course_id = ? AND status = ?", courseID, model.EnrollmentActive).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *enrollmentRepo) ListActiveStudentIDs(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("course_id = ? AND status = ?", courseID, model.EnrollmentActive).
		Pluck("student_id", &ids).Error
	return ids, err
}

func (r *enrollmentRepo) ListActiveByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	var list []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Teacher").
		Where("student_id = ? AND status = ?", studentID, model.EnrollmentActive).
		Find(&list).Error
	return list, err
}

func (r *enrollmentRepo) IsActive(ctx context.Context, courseID, studentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("course_id = ? AND student_id = ? AND status = ?", courseID, studentID, model.EnrollmentActive).
		Count(&count).Error
	return count > 0, err
}
