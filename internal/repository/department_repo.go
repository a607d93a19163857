package repository

import (
	"context"

	"gorm.io/gorm"

	pkgerrors "school-portal/backend/pkg/errors"

	"school-portal/backend/internal/model"
)

// DepartmentRepository 院系数据访问接口
type DepartmentRepository interface {
	Create(ctx context.Context, dept *model.Department) error
	GetByID(ctx context.Context, id string) (*model.Department, error)
	GetByCode(ctx context.Context, code string) (*model.Department, error)
	List(ctx context.Context, includeInactive bool) ([]model.Department, error)
	Update(ctx context.Context, dept *model.Department) error
	Delete(ctx context.Context, id string, deletedBy string) error
	CountMembers(ctx context.Context, departmentID string) (int64, error)
	ListMembers(ctx context.Context, departmentID string) ([]model.User, error)
}

// departmentRepo DepartmentRepository 的 GORM 实现
type departmentRepo struct {
	db *gorm.DB
}

// NewDepartmentRepo 创建 DepartmentRepository 实例
func NewDepartmentRepo(db *gorm.DB) DepartmentRepository {
	return &departmentRepo{db: db}
}

func (r *departmentRepo) Create(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *departmentRepo) GetByID(ctx context.Context, id string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("department_id = ?", id).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) GetByCode(ctx context.Context, code string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) List(ctx context.Context, includeInactive bool) ([]model.Department, error) {
	var depts []model.Department
	db := r.db.WithContext(ctx)
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("code ASC").Find(&depts).Error
	return depts, err
}

func (r *departmentRepo) Update(ctx context.Context, dept *model.Department) error {
	oldVersion := dept.Version
	result := r.db.WithContext(ctx).
		Model(dept).
		Where("department_id = ? AND version = ?", dept.DepartmentID, oldVersion).
		Updates(map[string]interface{}{
			"name":        dept.Name,
			"description": dept.Description,
			"is_active":   dept.IsActive,
			"updated_by":  dept.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	dept.Version = oldVersion + 1
	return nil
}

func (r *departmentRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Department{}).
		Where("department_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *departmentRepo) CountMembers(ctx context.Context, departmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("department_id = ? AND deleted_at IS NULL", departmentID).
		Count(&count).Error
	return count, err
}

func (r *departmentRepo) ListMembers(ctx context.Context, departmentID string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Order("role ASC, name ASC").
		Find(&users).Error
	return users, err
}
