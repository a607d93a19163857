package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/service"
	"school-portal/backend/pkg/response"
)

// NotificationHandler 站内通知与私聊 HTTP 处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
	chatSvc         service.ChatService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService, chatSvc service.ChatService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc, chatSvc: chatSvc}
}

// List 我的通知
// GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	var req dto.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.notificationSvc.List(c.Request.Context(), userID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// UnreadCount 未读通知数
// GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.notificationSvc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// MarkRead 标记单条已读
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := mustParam(c, "id", "通知ID")
	if !ok {
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.notificationSvc.MarkRead(c.Request.Context(), userID, id); err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, nil)
}

// MarkAllRead 全部标记已读
// PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.notificationSvc.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// ────────────────────── 私聊 ──────────────────────

// SendChat 发送私聊消息
// POST /api/v1/chats
func (h *NotificationHandler) SendChat(c *gin.Context) {
	var req dto.SendChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	msg, err := h.chatSvc.Send(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.Created(c, msg)
}

// Conversation 与某用户的会话记录
// GET /api/v1/chats/:peerId
func (h *NotificationHandler) Conversation(c *gin.Context) {
	peerID, ok := mustParam(c, "peerId", "会话对象ID")
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.chatSvc.Conversation(c.Request.Context(), userID, peerID, &page)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// MarkChatRead 将对方发来的消息标记为已读
// PUT /api/v1/chats/:peerId/read
func (h *NotificationHandler) MarkChatRead(c *gin.Context) {
	peerID, ok := mustParam(c, "peerId", "会话对象ID")
	if !ok {
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.chatSvc.MarkRead(c.Request.Context(), userID, peerID)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *NotificationHandler) handleNotificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotificationNotFound):
		response.NotFound(c, 25001, "通知不存在")
	case errors.Is(err, service.ErrChatSelf):
		response.BadRequest(c, 25101, "不能给自己发送消息")
	case errors.Is(err, service.ErrChatRecipientMissing):
		response.NotFound(c, 25102, "接收人不存在")
	default:
		response.InternalError(c)
	}
}
