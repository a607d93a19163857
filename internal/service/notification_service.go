package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"school-portal/backend/internal/academics"
	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
	"school-portal/backend/internal/repository"
)

// 实时事件名
const (
	EventNotification = "notification"
	EventChat         = "chat"
)

var (
	ErrNotificationNotFound = errors.New("通知不存在")
)

// Pusher 实时推送通道，realtime.Hub 满足该接口
type Pusher interface {
	Push(ctx context.Context, userID, event string, data interface{}) error
}

// ── Notifier ──────────────────────────────────────────────
//
// 业务模块产生 NotificationIntent，由 Notifier 统一落库并推送。
// 投递失败只记录日志，不影响触发通知的业务写入。
// ─────────────────────────────────────────────────────────────

// Notifier 通知投递接口
type Notifier interface {
	Dispatch(ctx context.Context, intents []academics.NotificationIntent)
}

type notifier struct {
	repo   *repository.Repository
	pusher Pusher
	logger *zap.Logger
}

// NewNotifier 创建 Notifier；pusher 为 nil 时只落库
func NewNotifier(repo *repository.Repository, pusher Pusher, logger *zap.Logger) Notifier {
	return &notifier{repo: repo, pusher: pusher, logger: logger}
}

func (n *notifier) Dispatch(ctx context.Context, intents []academics.NotificationIntent) {
	for _, in := range intents {
		record := &model.Notification{
			UserID:   in.Recipient,
			Type:     in.Type,
			Severity: string(in.Severity),
			Title:    in.Title,
			Content:  in.Message,
		}
		if len(in.Payload) > 0 {
			record.Payload = datatypes.JSONMap(in.Payload)
		}
		if err := n.repo.Notification.Create(ctx, record); err != nil {
			n.logger.Error("通知落库失败",
				zap.String("user_id", in.Recipient), zap.String("type", in.Type), zap.Error(err))
			continue
		}
		if n.pusher == nil {
			continue
		}
		if err := n.pusher.Push(ctx, in.Recipient, EventNotification, toNotificationResponse(record)); err != nil {
			n.logger.Warn("通知推送失败", zap.String("user_id", in.Recipient), zap.Error(err))
		}
	}
}

// ── NotificationService ──

// NotificationService 通知查询接口
type NotificationService interface {
	List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	UnreadCount(ctx context.Context, userID string) (*dto.UnreadCountResponse, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (*dto.MarkedResponse, error)
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	list, total, err := s.repo.Notification.List(ctx, userID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		result = append(result, toNotificationResponse(&list[i]))
	}
	return result, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (*dto.UnreadCountResponse, error) {
	n, err := s.repo.Notification.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("统计未读通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &dto.UnreadCountResponse{Unread: n}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	n, err := s.repo.Notification.MarkRead(ctx, userID, notificationID)
	if err != nil {
		s.logger.Error("标记通知已读失败", zap.String("id", notificationID), zap.Error(err))
		return err
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (*dto.MarkedResponse, error) {
	n, err := s.repo.Notification.MarkAllRead(ctx, userID)
	if err != nil {
		s.logger.Error("全部标记已读失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &dto.MarkedResponse{Updated: n}, nil
}

func toNotificationResponse(n *model.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.NotificationID,
		Type:      n.Type,
		Severity:  n.Severity,
		Title:     n.Title,
		Content:   n.Content,
		Payload:   map[string]interface{}(n.Payload),
		IsRead:    n.IsRead,
		CreatedAt: formatTime(n.CreatedAt),
	}
}
