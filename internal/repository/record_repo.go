package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"school-portal/backend/internal/model"
)

// ── 出勤记录 ──

// AttendanceRepository 出勤数据访问接口
type AttendanceRepository interface {
	// Upsert 按自然键 (student_id, course_id, date) 覆盖写入
	Upsert(ctx context.Context, records []model.AttendanceRecord) error
	ListByCourse(ctx context.Context, courseID string, date *time.Time) ([]model.AttendanceRecord, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.AttendanceRecord, error)
	ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]model.AttendanceRecord, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Upsert(ctx context.Context, records []model.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "course_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "recorded_by", "updated_by", "updated_at"}),
		}).
		Create(&records).Error
}

func (r *attendanceRepo) ListByCourse(ctx context.Context, courseID string, date *time.Time) ([]model.AttendanceRecord, error) {
	var list []model.AttendanceRecord
	db := r.db.WithContext(ctx).
		Preload("Student").
		Where("course_id = ?", courseID)
	if date != nil {
		db = db.Where("date = ?", date.Format("2006-01-02"))
	}
	err := db.Order("date ASC, student_id ASC").Find(&list).Error
	return list, err
}

func (r *attendanceRepo) ListByStudent(ctx context.Context, studentID string) ([]model.AttendanceRecord, error) {
	var list []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("date ASC").
		Find(&list).Error
	return list, err
}

func (r *attendanceRepo) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]model.AttendanceRecord, error) {
	var list []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Order("date ASC").
		Find(&list).Error
	return list, err
}

// ── 成绩记录 ──

// GradeRepository 成绩数据访问接口
type GradeRepository interface {
	// Upsert 按自然键 (student_id, course_id, semester_id, assignment_id) 覆盖写入
	Upsert(ctx context.Context, record *model.GradeRecord) error
	ListByStudent(ctx context.Context, studentID, semesterID string) ([]model.GradeRecord, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.GradeRecord, error)
}

type gradeRepo struct {
	db *gorm.DB
}

// NewGradeRepo 创建 GradeRepository 实例
func NewGradeRepo(db *gorm.DB) GradeRepository {
	return &gradeRepo{db: db}
}

func (r *gradeRepo) Upsert(ctx context.Context, record *model.GradeRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "student_id"}, {Name: "course_id"}, {Name: "semester_id"}, {Name: "assignment_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"letter_grade", "remark", "graded_by", "updated_by", "updated_at"}),
		}).
		Create(record).Error
}

func (r *gradeRepo) ListByStudent(ctx context.Context, studentID, semesterID string) ([]model.GradeRecord, error) {
	var list []model.GradeRecord
	db := r.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID)
	if semesterID != "" {
		db = db.Where("semester_id = ?", semesterID)
	}
	err := db.Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *gradeRepo) ListByCourse(ctx context.Context, courseID string) ([]model.GradeRecord, error) {
	var list []model.GradeRecord
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("student_id ASC, created_at ASC").
		Find(&list).Error
	return list, err
}
