package model

import "time"

// LeaveRequest 请假申请 — 对应 leave_requests
type LeaveRequest struct {
	LeaveID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"leave_id"`
	StudentID  string     `gorm:"type:uuid;not null;index"                       json:"student_id"`
	Reason     string     `gorm:"type:text;not null"                             json:"reason"`
	StartDate  time.Time  `gorm:"type:date;not null"                             json:"start_date"`
	EndDate    time.Time  `gorm:"type:date;not null"                             json:"end_date"`
	Status     string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | rejected
	ReviewedBy *string    `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	ReviewNote string     `gorm:"type:varchar(500)"                              json:"review_note,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	BaseModel

	Student *User `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
}

// TableName 指定表名
func (LeaveRequest) TableName() string { return "leave_requests" }

// Complaint 投诉/建议 — 对应 complaints
type Complaint struct {
	ComplaintID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"complaint_id"`
	AuthorID    string     `gorm:"type:uuid;not null;index"                       json:"author_id"`
	Subject     string     `gorm:"type:varchar(200);not null"                     json:"subject"`
	Content     string     `gorm:"type:text;not null"                             json:"content"`
	Status      string     `gorm:"type:varchar(20);not null;default:'open'"       json:"status"` // open | resolved
	Response    string     `gorm:"type:text"                                      json:"response,omitempty"`
	ResolvedBy  *string    `gorm:"type:uuid"                                      json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Complaint) TableName() string { return "complaints" }
