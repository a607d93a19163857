package dto

// ── 论坛模块 DTO ──

// CreatePostRequest 发帖请求
type CreatePostRequest struct {
	Title   string `json:"title"   binding:"required,min=2,max=200"`
	Content string `json:"content" binding:"required,max=20000"`
}

// ReplyRequest 回帖请求
type ReplyRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

// PostResponse 帖子响应
type PostResponse struct {
	ID         string `json:"id"`
	CourseID   string `json:"course_id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name,omitempty"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
}

// ReplyResponse 回复响应
type ReplyResponse struct {
	ID         string `json:"id"`
	PostID     string `json:"post_id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name,omitempty"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
}

// PostDetailResponse 帖子详情（含回复）
type PostDetailResponse struct {
	PostResponse
	Replies []ReplyResponse `json:"replies"`
}
