package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-portal/backend/internal/academics"
	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
	"school-portal/backend/internal/repository"
)

// ── 排行榜模块业务错误 ──

var (
	ErrLeaderboardExists        = errors.New("该月份排行榜已发布")
	ErrLeaderboardNotFound      = errors.New("排行榜不存在")
	ErrLeaderboardTooMany       = errors.New("上榜人数超过上限")
	ErrLeaderboardDuplicate     = errors.New("上榜学生重复")
	ErrLeaderboardStudentAbsent = errors.New("上榜名单中存在无效学生")
)

// LeaderboardService 月度排行榜业务接口
type LeaderboardService interface {
	// Publish 同一 (month, year) 只能发布一次；积分累加与条目写入同一事务
	Publish(ctx context.Context, req *dto.PublishLeaderboardRequest, callerID string) (*dto.LeaderboardResponse, error)
	Get(ctx context.Context, month, year int) (*dto.LeaderboardResponse, error)
	List(ctx context.Context, page *dto.PaginationRequest) ([]dto.LeaderboardResponse, int64, error)
}

type leaderboardService struct {
	repo     *repository.Repository
	settings SystemConfigService
	notifier Notifier
	logger   *zap.Logger
}

// NewLeaderboardService 创建 LeaderboardService 实例
func NewLeaderboardService(repo *repository.Repository, settings SystemConfigService, notifier Notifier, logger *zap.Logger) LeaderboardService {
	return &leaderboardService{repo: repo, settings: settings, notifier: notifier, logger: logger}
}

// ────────────────────── Publish ──────────────────────

func (s *leaderboardService) Publish(ctx context.Context, req *dto.PublishLeaderboardRequest, callerID string) (*dto.LeaderboardResponse, error) {
	limit := s.settings.Settings(ctx).LeaderboardSize
	if len(req.StudentIDs) > limit {
		return nil, ErrLeaderboardTooMany
	}

	seen := make(map[string]bool, len(req.StudentIDs))
	for _, id := range req.StudentIDs {
		if seen[id] {
			return nil, ErrLeaderboardDuplicate
		}
		seen[id] = true
	}

	ranked, err := s.rankedStudents(ctx, req.StudentIDs)
	if err != nil {
		return nil, err
	}

	var peers []string
	if req.DepartmentID != "" {
		if _, err := s.repo.Department.GetByID(ctx, req.DepartmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDepartmentNotFound
			}
			return nil, err
		}
		if peers, err = s.repo.User.ListStudentIDsByDepartment(ctx, req.DepartmentID); err != nil {
			s.logger.Error("查询院系学生失败", zap.String("department_id", req.DepartmentID), zap.Error(err))
			return nil, err
		}
	}

	period := academics.Period{Month: req.Month, Year: req.Year}
	plan := academics.PlanPublication(period, ranked, peers)

	board := &model.Leaderboard{
		Month:       req.Month,
		Year:        req.Year,
		PublishedBy: callerID,
		PublishedAt: time.Now(),
	}
	if req.DepartmentID != "" {
		board.DepartmentID = &req.DepartmentID
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		created, err := txRepo.Leaderboard.CreateIfAbsent(ctx, board)
		if err != nil {
			return err
		}
		if !created {
			return ErrLeaderboardExists
		}

		entries := make([]model.LeaderboardEntry, 0, len(plan.Entries))
		for _, e := range plan.Entries {
			entries = append(entries, model.LeaderboardEntry{
				LeaderboardID: board.LeaderboardID,
				StudentID:     e.StudentID,
				Name:          e.Name,
				Position:      e.Position,
				Credits:       e.Credits,
			})
		}
		if err := txRepo.Leaderboard.CreateEntries(ctx, entries); err != nil {
			return err
		}
		board.Entries = entries

		for _, inc := range plan.Increments {
			if err := txRepo.User.IncrementCredits(ctx, inc.StudentID, inc.Delta); err != nil {
				return fmt.Errorf("累加积分失败 %s: %w", inc.StudentID, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLeaderboardExists) {
			return nil, err
		}
		s.logger.Error("发布排行榜失败", zap.String("period", period.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("排行榜已发布",
		zap.String("period", period.String()),
		zap.Int("entries", len(plan.Entries)),
		zap.Int("notifications", len(plan.Notifications)),
	)
	s.notifier.Dispatch(ctx, plan.Notifications)

	return toLeaderboardResponse(board), nil
}

// rankedStudents 按请求顺序返回学生及姓名，任一 ID 不是学生即拒绝
func (s *leaderboardService) rankedStudents(ctx context.Context, ids []string) ([]academics.RankedStudent, error) {
	users, err := s.repo.User.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(users))
	for i := range users {
		byID[users[i].UserID] = &users[i]
	}

	ranked := make([]academics.RankedStudent, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok || u.Role != model.RoleStudent {
			return nil, ErrLeaderboardStudentAbsent
		}
		ranked = append(ranked, academics.RankedStudent{StudentID: id, Name: u.Name})
	}
	return ranked, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *leaderboardService) Get(ctx context.Context, month, year int) (*dto.LeaderboardResponse, error) {
	board, err := s.repo.Leaderboard.GetByPeriod(ctx, month, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaderboardNotFound
		}
		s.logger.Error("查询排行榜失败", zap.Int("month", month), zap.Int("year", year), zap.Error(err))
		return nil, err
	}
	return toLeaderboardResponse(board), nil
}

func (s *leaderboardService) List(ctx context.Context, page *dto.PaginationRequest) ([]dto.LeaderboardResponse, int64, error) {
	boards, total, err := s.repo.Leaderboard.List(ctx, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询排行榜列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.LeaderboardResponse, 0, len(boards))
	for i := range boards {
		result = append(result, *toLeaderboardResponse(&boards[i]))
	}
	return result, total, nil
}

func toLeaderboardResponse(b *model.Leaderboard) *dto.LeaderboardResponse {
	resp := &dto.LeaderboardResponse{
		ID:          b.LeaderboardID,
		Period:      academics.Period{Month: b.Month, Year: b.Year}.String(),
		Month:       b.Month,
		Year:        b.Year,
		PublishedAt: formatTime(b.PublishedAt),
	}
	if b.DepartmentID != nil {
		resp.DepartmentID = *b.DepartmentID
	}
	for _, e := range b.Entries {
		resp.Entries = append(resp.Entries, dto.LeaderboardEntryResponse{
			StudentID: e.StudentID,
			Name:      e.Name,
			Position:  e.Position,
			Credits:   e.Credits,
		})
	}
	return resp
}
