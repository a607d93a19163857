package dto

// ── 作业模块 DTO ──

// CreateAssignmentRequest 布置作业请求
type CreateAssignmentRequest struct {
	Title         string `json:"title"          binding:"required,min=2,max=200"`
	Description   string `json:"description"    binding:"omitempty,max=5000"`
	DueAt         string `json:"due_at"         binding:"required"` // RFC3339
	AttachmentURL string `json:"attachment_url" binding:"omitempty,url,max=500"`
}

// UpdateAssignmentRequest 更新作业请求
type UpdateAssignmentRequest struct {
	Title         *string `json:"title"          binding:"omitempty,min=2,max=200"`
	Description   *string `json:"description"    binding:"omitempty,max=5000"`
	DueAt         *string `json:"due_at"`
	AttachmentURL *string `json:"attachment_url" binding:"omitempty,url,max=500"`
}

// AssignmentResponse 作业响应
type AssignmentResponse struct {
	ID            string `json:"id"`
	CourseID      string `json:"course_id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	DueAt         string `json:"due_at"`
	AttachmentURL string `json:"attachment_url,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// SubmitAssignmentRequest 提交作业请求
type SubmitAssignmentRequest struct {
	Content       string `json:"content"        binding:"required_without=AttachmentURL,max=20000"`
	AttachmentURL string `json:"attachment_url" binding:"omitempty,url,max=500"`
}

// SubmissionResponse 作业提交响应
type SubmissionResponse struct {
	ID            string  `json:"id"`
	AssignmentID  string  `json:"assignment_id"`
	StudentID     string  `json:"student_id"`
	StudentName   string  `json:"student_name,omitempty"`
	Content       string  `json:"content,omitempty"`
	AttachmentURL string  `json:"attachment_url,omitempty"`
	SubmittedAt   string  `json:"submitted_at"`
	LetterGrade   *string `json:"letter_grade,omitempty"`
	GradedAt      string  `json:"graded_at,omitempty"`
}

// GradeSubmissionRequest 批改作业请求
type GradeSubmissionRequest struct {
	LetterGrade string `json:"letter_grade" binding:"required,grade_letter"`
	Remark      string `json:"remark"       binding:"omitempty,max=200"`
}
