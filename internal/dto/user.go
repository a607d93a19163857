package dto

// ── 用户模块 DTO ──

// CreateUserRequest 管理员创建用户请求
type CreateUserRequest struct {
	Name         string `json:"name"          binding:"required,min=2,max=100"`
	Username     string `json:"username"      binding:"required,min=3,max=50,alphanum"`
	Email        string `json:"email"         binding:"required,email"`
	Password     string `json:"password"      binding:"required,min=8,max=20"`
	Role         string `json:"role"          binding:"required,oneof=admin teacher student"`
	DepartmentID string `json:"department_id" binding:"omitempty,uuid"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	Role         string `form:"role"          binding:"omitempty,oneof=admin teacher student"`
	Keyword      string `form:"keyword"       binding:"omitempty,max=50"`
}

// UpdateUserRequest 更新用户信息请求
type UpdateUserRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=2,max=100"`
	Email        *string `json:"email"         binding:"omitempty,email"`
	Role         *string `json:"role"          binding:"omitempty,oneof=admin teacher student"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// CreditsResponse 绩效积分余额
type CreditsResponse struct {
	UserID             string `json:"user_id"`
	Name               string `json:"name"`
	PerformanceCredits int    `json:"performance_credits"`
}

// ImportUserResponse 批量导入结果
type ImportUserResponse struct {
	Total    int               `json:"total"`
	Success  int               `json:"success"`
	Failed   int               `json:"failed"`
	Errors   []ImportUserError `json:"errors,omitempty"`
	Accounts []ImportedAccount `json:"accounts,omitempty"` // 新建账号的临时密码，仅在本次响应中返回
}

// ImportUserError 导入失败的行
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportedAccount 导入成功的账号
type ImportedAccount struct {
	Row          int    `json:"row"`
	Username     string `json:"username"`
	TempPassword string `json:"temp_password"`
}
