package repository

import (
	"context"

	"gorm.io/gorm"

	"school-portal/backend/internal/model"
)

// TimetableRepository 课程表数据访问接口
type TimetableRepository interface {
	Create(ctx context.Context, entry *model.TimetableEntry) error
	GetByID(ctx context.Context, id string) (*model.TimetableEntry, error)
	Delete(ctx context.Context, id string) error
	ListByCourse(ctx context.Context, courseID string) ([]model.TimetableEntry, error)
	ListByCourses(ctx context.Context, courseIDs []string) ([]model.TimetableEntry, error)
	// ReplaceImported 在事务中替换课程的全部 ics 来源条目，手工条目保留
	ReplaceImported(ctx context.Context, courseID string, entries []model.TimetableEntry) error
}

type timetableRepo struct {
	db *gorm.DB
}

// NewTimetableRepo 创建 TimetableRepository 实例
func NewTimetableRepo(db *gorm.DB) TimetableRepository {
	return &timetableRepo{db: db}
}

func (r *timetableRepo) Create(ctx context.Context, entry *model.TimetableEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *timetableRepo) GetByID(ctx context.Context, id string) (*model.TimetableEntry, error) {
	var entry model.TimetableEntry
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("entry_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *timetableRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("entry_id = ?", id).
		Delete(&model.TimetableEntry{}).Error
}

func (r *timetableRepo) ListByCourse(ctx context.Context, courseID string) ([]model.TimetableEntry, error) {
	var list []model.TimetableEntry
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("day_of_week ASC, start_time ASC").
		Find(&list).Error
	return list, err
}

func (r *timetableRepo) ListByCourses(ctx context.Context, courseIDs []string) ([]model.TimetableEntry, error) {
	var list []model.TimetableEntry
	if len(courseIDs) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("course_id IN ?", courseIDs).
		Order("day_of_week ASC, start_time ASC").
		Find(&list).Error
	return list, err
}

func (r *timetableRepo) ReplaceImported(ctx context.Context, courseID string, entries []model.TimetableEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ? AND source = ?", courseID, model.TimetableSourceICS).
			Delete(&model.TimetableEntry{}).Error; err != nil {
			return err
		}
		if len(entries) > 0 {
			if err := tx.Create(&entries).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
