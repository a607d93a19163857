package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-portal/backend/config"
	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/repository"
)

// ── 系统配置模块业务错误 ──

var (
	ErrSystemConfigNotFound = errors.New("系统配置未初始化")
)

// AcademicSettings 业务模块读取的学业参数
type AcademicSettings struct {
	LeaderboardSize            int
	AttendanceWarningThreshold float64
}

// SystemConfigService 系统配置业务接口
type SystemConfigService interface {
	Get(ctx context.Context) (*dto.SystemConfigResponse, error)
	Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, callerID string) (*dto.SystemConfigResponse, error)
	// Settings 读取当前学业参数；配置行缺失或读取失败时回退到配置文件默认值
	Settings(ctx context.Context) AcademicSettings
}

type systemConfigService struct {
	repo     *repository.Repository
	defaults config.AcademicsConfig
	logger   *zap.Logger
}

// NewSystemConfigService 创建 SystemConfigService 实例
func NewSystemConfigService(repo *repository.Repository, defaults config.AcademicsConfig, logger *zap.Logger) SystemConfigService {
	return &systemConfigService{repo: repo, defaults: defaults, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *systemConfigService) Get(ctx context.Context) (*dto.SystemConfigResponse, error) {
	cfg, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSystemConfigNotFound
		}
		s.logger.Error("查询系统配置失败", zap.Error(err))
		return nil, err
	}

	return &dto.SystemConfigResponse{
		LeaderboardSize:            cfg.LeaderboardSize,
		AttendanceWarningThreshold: cfg.AttendanceWarningThreshold,
		UpdatedAt:                  formatTime(cfg.UpdatedAt),
	}, nil
}

// ────────────────────── Update ──────────────────────

func (s *systemConfigService) Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, callerID string) (*dto.SystemConfigResponse, error) {
	cfg, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSystemConfigNotFound
		}
		s.logger.Error("查询系统配置失败", zap.Error(err))
		return nil, err
	}

	if req.LeaderboardSize != nil {
		cfg.LeaderboardSize = *req.LeaderboardSize
	}
	if req.AttendanceWarningThreshold != nil {
		cfg.AttendanceWarningThreshold = *req.AttendanceWarningThreshold
	}
	cfg.UpdatedBy = &callerID

	if err := s.repo.SystemConfig.Update(ctx, cfg); err != nil {
		s.logger.Error("更新系统配置失败", zap.Error(err))
		return nil, err
	}

	return s.Get(ctx)
}

// ────────────────────── Settings ──────────────────────

func (s *systemConfigService) Settings(ctx context.Context) AcademicSettings {
	settings := AcademicSettings{
		LeaderboardSize:            s.defaults.LeaderboardSize,
		AttendanceWarningThreshold: s.defaults.AttendanceWarningThreshold,
	}

	cfg, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("读取系统配置失败，使用默认值", zap.Error(err))
		}
		return settings
	}
	if cfg.LeaderboardSize > 0 {
		settings.LeaderboardSize = cfg.LeaderboardSize
	}
	settings.AttendanceWarningThreshold = cfg.AttendanceWarningThreshold
	return settings
}
