package repository

import (
	"context"

	"gorm.io/gorm"

	"school-portal/backend/internal/model"
)

// ChatRepository 私聊消息数据访问接口
type ChatRepository interface {
	Create(ctx context.Context, msg *model.ChatMessage) error
	// Conversation 返回双方往来消息，按时间正序
	Conversation(ctx context.Context, userA, userB string, offset, limit int) ([]model.ChatMessage, int64, error)
	// MarkRead 将 sender → recipient 的未读消息置为已读
	MarkRead(ctx context.Context, senderID, recipientID string) (int64, error)
}

type chatRepo struct {
	db *gorm.DB
}

// NewChatRepo 创建 ChatRepository 实例
func NewChatRepo(db *gorm.DB) ChatRepository {
	return &chatRepo{db: db}
}

func (r *chatRepo) Create(ctx context.Context, msg *model.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *chatRepo) Conversation(ctx context.Context, userA, userB string, offset, limit int) ([]model.ChatMessage, int64, error) {
	var list []model.ChatMessage
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ChatMessage{}).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *chatRepo) MarkRead(ctx context.Context, senderID, recipientID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("sender_id = ? AND recipient_id = ? AND read_at IS NULL", senderID, recipientID).
		Update("read_at", gorm.Expr("NOW()"))
	return result.RowsAffected, result.Error
}
