package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
	"school-portal/backend/internal/repository"
)

var (
	ErrChatSelf             = errors.New("不能给自己发送消息")
	ErrChatRecipientMissing = errors.New("接收人不存在")
)

// ChatService 私聊业务接口
type ChatService interface {
	Send(ctx context.Context, senderID string, req *dto.SendChatRequest) (*dto.ChatMessageResponse, error)
	Conversation(ctx context.Context, callerID, peerID string, page *dto.PaginationRequest) ([]dto.ChatMessageResponse, int64, error)
	MarkRead(ctx context.Context, callerID, peerID string) (*dto.MarkedResponse, error)
}

type chatService struct {
	repo   *repository.Repository
	pusher Pusher
	logger *zap.Logger
}

// NewChatService 创建 ChatService 实例；pusher 为 nil 时只落库
func NewChatService(repo *repository.Repository, pusher Pusher, logger *zap.Logger) ChatService {
	return &chatService{repo: repo, pusher: pusher, logger: logger}
}

// ────────────────────── Send ──────────────────────

func (s *chatService) Send(ctx context.Context, senderID string, req *dto.SendChatRequest) (*dto.ChatMessageResponse, error) {
	if req.RecipientID == senderID {
		return nil, ErrChatSelf
	}
	if _, err := s.repo.User.GetByID(ctx, req.RecipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatRecipientMissing
		}
		return nil, err
	}

	msg := &model.ChatMessage{
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		Content:     req.Content,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Chat.Create(ctx, msg); err != nil {
		s.logger.Error("保存私聊消息失败", zap.String("sender_id", senderID), zap.Error(err))
		return nil, err
	}

	resp := toChatResponse(msg)
	if s.pusher != nil {
		if err := s.pusher.Push(ctx, msg.RecipientID, EventChat, resp); err != nil {
			s.logger.Warn("私聊消息推送失败", zap.String("recipient_id", msg.RecipientID), zap.Error(err))
		}
	}
	return &resp, nil
}

// ────────────────────── Conversation ──────────────────────

func (s *chatService) Conversation(ctx context.Context, callerID, peerID string, page *dto.PaginationRequest) ([]dto.ChatMessageResponse, int64, error) {
	list, total, err := s.repo.Chat.Conversation(ctx, callerID, peerID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询会话失败", zap.String("peer_id", peerID), zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.ChatMessageResponse, 0, len(list))
	for i := range list {
		result = append(result, toChatResponse(&list[i]))
	}
	return result, total, nil
}

// ────────────────────── MarkRead ──────────────────────

func (s *chatService) MarkRead(ctx context.Context, callerID, peerID string) (*dto.MarkedResponse, error) {
	n, err := s.repo.Chat.MarkRead(ctx, peerID, callerID)
	if err != nil {
		s.logger.Error("标记私聊已读失败", zap.String("peer_id", peerID), zap.Error(err))
		return nil, err
	}
	return &dto.MarkedResponse{Updated: n}, nil
}

func toChatResponse(m *model.ChatMessage) dto.ChatMessageResponse {
	return dto.ChatMessageResponse{
		ID:          m.MessageID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		ReadAt:      formatTimePtr(m.ReadAt),
		CreatedAt:   formatTime(m.CreatedAt),
	}
}
