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

// ── 院系模块业务错误 ──

var (
	ErrDepartmentCodeExists = errors.New("院系代码已存在")
	ErrDepartmentHasMembers = errors.New("院系下存在成员，无法删除")
)

// DepartmentService 院系业务接口
type DepartmentService interface {
	Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error)
	GetByID(ctx context.Context, id string) (*dto.DepartmentDetailResponse, error)
	List(ctx context.Context, req *dto.DepartmentListRequest) ([]dto.DepartmentDetailResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error)
	// Delete 院系下仍有成员时拒绝
	Delete(ctx context.Context, id string, callerID string) error
	ListMembers(ctx context.Context, departmentID string) ([]dto.DepartmentMemberResponse, error)
}

type departmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDepartmentService 创建 DepartmentService 实例
func NewDepartmentService(repo *repository.Repository, logger *zap.Logger) DepartmentService {
	return &departmentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *departmentService) Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error) {
	if _, err := s.repo.Department.GetByCode(ctx, req.Code); err == nil {
		return nil, ErrDepartmentCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询院系失败", zap.Error(err))
		return nil, err
	}

	dept := &model.Department{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	dept.CreatedBy = &callerID
	dept.UpdatedBy = &callerID

	if err := s.repo.Department.Create(ctx, dept); err != nil {
		if pkgerrors.IsDuplicateKey(err) {
			return nil, ErrDepartmentCodeExists
		}
		s.logger.Error("创建院系失败", zap.Error(err))
		return nil, err
	}

	return toDepartmentDetail(dept, 0), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *departmentService) GetByID(ctx context.Context, id string) (*dto.DepartmentDetailResponse, error) {
	dept, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.Department.CountMembers(ctx, id)
	if err != nil {
		s.logger.Error("统计院系成员失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toDepartmentDetail(dept, count), nil
}

// ────────────────────── List ──────────────────────

func (s *departmentService) List(ctx context.Context, req *dto.DepartmentListRequest) ([]dto.DepartmentDetailResponse, error) {
	depts, err := s.repo.Department.List(ctx, req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出院系失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.DepartmentDetailResponse, 0, len(depts))
	for i := range depts {
		count, err := s.repo.Department.CountMembers(ctx, depts[i].DepartmentID)
		if err != nil {
			return nil, err
		}
		result = append(result, *toDepartmentDetail(&depts[i], count))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *departmentService) Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error) {
	dept, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		dept.Name = *req.Name
	}
	if req.Description != nil {
		dept.Description = *req.Description
	}
	if req.IsActive != nil {
		dept.IsActive = *req.IsActive
	}
	dept.UpdatedBy = &callerID

	if err := s.repo.Department.Update(ctx, dept); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新院系失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *departmentService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.Department.CountMembers(ctx, id)
	if err != nil {
		s.logger.Error("统计院系成员失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrDepartmentHasMembers
	}

	if err := s.repo.Department.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除院系失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ListMembers ──────────────────────

func (s *departmentService) ListMembers(ctx context.Context, departmentID string) ([]dto.DepartmentMemberResponse, error) {
	if _, err := s.load(ctx, departmentID); err != nil {
		return nil, err
	}

	members, err := s.repo.Department.ListMembers(ctx, departmentID)
	if err != nil {
		s.logger.Error("查询院系成员失败", zap.String("department_id", departmentID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.DepartmentMemberResponse, 0, len(members))
	for _, m := range members {
		result = append(result, dto.DepartmentMemberResponse{
			UserID:             m.UserID,
			Name:               m.Name,
			Username:           m.Username,
			Email:              m.Email,
			Role:               m.Role,
			PerformanceCredits: m.PerformanceCredits,
		})
	}
	return result, nil
}

// ── 内部辅助方法 ──

func (s *departmentService) load(ctx context.Context, id string) (*model.Department, error) {
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		s.logger.Error("查询院系失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return dept, nil
}

func toDepartmentDetail(dept *model.Department, memberCount int64) *dto.DepartmentDetailResponse {
	return &dto.DepartmentDetailResponse{
		ID:          dept.DepartmentID,
		Code:        dept.Code,
		Name:        dept.Name,
		Description: dept.Description,
		IsActive:    dept.IsActive,
		MemberCount: memberCount,
		CreatedAt:   formatTime(dept.CreatedAt),
		UpdatedAt:   formatTime(dept.UpdatedAt),
	}
}
