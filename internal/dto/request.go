package dto

// ── 请假 ──

// CreateLeaveRequest 请假申请
type CreateLeaveRequest struct {
	Reason    string `json:"reason"     binding:"required,max=1000"`
	StartDate string `json:"start_date" binding:"required"` // "2026-03-02"
	EndDate   string `json:"end_date"   binding:"required"`
}

// ReviewLeaveRequest 审批请假
type ReviewLeaveRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
	Note   string `json:"note"   binding:"omitempty,max=500"`
}

// LeaveResponse 请假响应
type LeaveResponse struct {
	ID          string `json:"id"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`
	Reason      string `json:"reason"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Status      string `json:"status"`
	ReviewNote  string `json:"review_note,omitempty"`
	ReviewedAt  string `json:"reviewed_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// ── 投诉 ──

// CreateComplaintRequest 投诉请求
type CreateComplaintRequest struct {
	Subject string `json:"subject" binding:"required,min=2,max=200"`
	Content string `json:"content" binding:"required,max=5000"`
}

// ResolveComplaintRequest 处理投诉
type ResolveComplaintRequest struct {
	Response string `json:"response" binding:"required,max=5000"`
}

// ComplaintListRequest 投诉列表查询参数
type ComplaintListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=open resolved"`
}

// ComplaintResponse 投诉响应
type ComplaintResponse struct {
	ID         string `json:"id"`
	AuthorID   string `json:"author_id"`
	Subject    string `json:"subject"`
	Content    string `json:"content"`
	Status     string `json:"status"`
	Response   string `json:"response,omitempty"`
	ResolvedAt string `json:"resolved_at,omitempty"`
	CreatedAt  string `json:"created_at"`
}
