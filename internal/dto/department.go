package dto

// ── 院系模块 DTO ──

// CreateDepartmentRequest 创建院系请求
type CreateDepartmentRequest struct {
	Code        string `json:"code"        binding:"required,min=2,max=20,alphanum"`
	Name        string `json:"name"        binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=200"`
}

// UpdateDepartmentRequest 更新院系请求
type UpdateDepartmentRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=2,max=100"`
	Description *string `json:"description" binding:"omitempty,max=200"`
	IsActive    *bool   `json:"is_active"`
}

// DepartmentListRequest 院系列表查询参数
type DepartmentListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// DepartmentDetailResponse 院系详细信息响应
type DepartmentDetailResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
	MemberCount int64  `json:"member_count"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// DepartmentMemberResponse 院系成员响应
type DepartmentMemberResponse struct {
	UserID             string `json:"user_id"`
	Name               string `json:"name"`
	Username           string `json:"username"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	PerformanceCredits int    `json:"performance_credits"`
}
