package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"school-portal/backend/internal/model"
)

// AssignmentRepository 作业数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, a *model.Assignment) error
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Assignment, error)
	Update(ctx context.Context, a *model.Assignment) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, a *model.Assignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	var a model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("assignment_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Assignment, error) {
	var list []model.Assignment
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("due_at ASC").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepo) Update(ctx context.Context, a *model.Assignment) error {
	return r.db.WithContext(ctx).
		Model(a).
		Where("assignment_id = ?", a.AssignmentID).
		Updates(map[string]interface{}{
			"title":          a.Title,
			"description":    a.Description,
			"due_at":         a.DueAt,
			"attachment_url": a.AttachmentURL,
			"updated_by":     a.UpdatedBy,
		}).Error
}

func (r *assignmentRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Where("assignment_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ── 作业提交 ──

// SubmissionRepository 作业提交数据访问接口
type SubmissionRepository interface {
	// Upsert 按 (assignment_id, student_id) 覆盖提交内容
	Upsert(ctx context.Context, s *model.Submission) error
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	Get(ctx context.Context, assignmentID, studentID string) (*model.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error)
	SetGrade(ctx context.Context, s *model.Submission) error
}

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo 创建 SubmissionRepository 实例
func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Upsert(ctx context.Context, s *model.Submission) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "assignment_id"}, {Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "attachment_url", "submitted_at", "updated_at"}),
		}).
		Create(s).Error
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	var s model.Submission
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *submissionRepo) Get(ctx context.Context, assignmentID, studentID string) (*model.Submission, error) {
	var s model.Submission
	err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *submissionRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error) {
	var list []model.Submission
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at ASC").
		Find(&list).Error
	return list, err
}

func (r *submissionRepo) SetGrade(ctx context.Context, s *model.Submission) error {
	return r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("submission_id = ?", s.SubmissionID).
		Updates(map[string]interface{}{
			"letter_grade": s.LetterGrade,
			"graded_at":    s.GradedAt,
			"updated_by":   s.UpdatedBy,
		}).Error
}
