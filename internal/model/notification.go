package model

import (
	"time"

	"gorm.io/datatypes"
)

// Notification 通知消息表 — 对应 notifications
type Notification struct {
	NotificationID string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string            `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Type           string            `gorm:"type:varchar(30);not null"                      json:"type"`
	Severity       string            `gorm:"type:varchar(10);not null;default:'info'"       json:"severity"` // info | success | warning
	Title          string            `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string            `gorm:"type:text;not null"                             json:"content"`
	Payload        datatypes.JSONMap `gorm:"type:jsonb"                                     json:"payload,omitempty"`
	IsRead         bool              `gorm:"not null;default:false"                         json:"is_read"`
	ReadAt         *time.Time        `json:"read_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// ChatMessage 私聊消息 — 对应 chat_messages
type ChatMessage struct {
	MessageID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"message_id"`
	SenderID    string     `gorm:"type:uuid;not null;index:idx_chat_pair"         json:"sender_id"`
	RecipientID string     `gorm:"type:uuid;not null;index:idx_chat_pair"         json:"recipient_id"`
	Content     string     `gorm:"type:text;not null"                             json:"content"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ChatMessage) TableName() string { return "chat_messages" }
