package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"school-portal/backend/internal/model"
)

// LeaderboardRepository 排行榜数据访问接口
type LeaderboardRepository interface {
	// CreateIfAbsent 以 (month, year) 为键插入；该周期已存在时返回 false 且不写入
	CreateIfAbsent(ctx context.Context, board *model.Leaderboard) (bool, error)
	CreateEntries(ctx context.Context, entries []model.LeaderboardEntry) error
	GetByPeriod(ctx context.Context, month, year int) (*model.Leaderboard, error)
	List(ctx context.Context, offset, limit int) ([]model.Leaderboard, int64, error)
}

type leaderboardRepo struct {
	db *gorm.DB
}

// NewLeaderboardRepo 创建 LeaderboardRepository 实例
func NewLeaderboardRepo(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepo{db: db}
}

func (r *leaderboardRepo) CreateIfAbsent(ctx context.Context, board *model.Leaderboard) (bool, error) {
	result := r.db.WithContext(ctx).
		Omit("Entries").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "month"}, {Name: "year"}},
			DoNothing: true,
		}).
		Create(board)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *leaderboardRepo) CreateEntries(ctx context.Context, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *leaderboardRepo) GetByPeriod(ctx context.Context, month, year int) (*model.Leaderboard, error) {
	var board model.Leaderboard
	err := r.db.WithContext(ctx).
		Preload("Entries", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Where("month = ? AND year = ?", month, year).
		First(&board).Error
	if err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *leaderboardRepo) List(ctx context.Context, offset, limit int) ([]model.Leaderboard, int64, error) {
	var boards []model.Leaderboard
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Leaderboard{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).
		Order("year DESC, month DESC").
		Find(&boards).Error; err != nil {
		return nil, 0, err
	}
	return boards, total, nil
}
