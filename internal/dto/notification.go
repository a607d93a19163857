package dto

// ── 通知 ──

// NotificationListRequest 通知列表查询参数
type NotificationListRequest struct {
	PaginationRequest
	UnreadOnly bool `form:"unread_only"`
}

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Severity  string                 `json:"severity"`
	Title     string                 `json:"title"`
	Content   string                 `json:"content"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt string                 `json:"created_at"`
}

// UnreadCountResponse 未读数
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// MarkedResponse 标记已读的条数
type MarkedResponse struct {
	Updated int64 `json:"updated"`
}

// ── 私聊 ──

// SendChatRequest 发送私聊消息
type SendChatRequest struct {
	RecipientID string `json:"recipient_id" binding:"required,uuid"`
	Content     string `json:"content"      binding:"required,max=4000"`
}

// ChatMessageResponse 私聊消息响应
type ChatMessageResponse struct {
	ID          string `json:"id"`
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
	ReadAt      string `json:"read_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}
