package dto

// ── 系统配置模块 DTO ──

// UpdateSystemConfigRequest 更新系统配置请求
type UpdateSystemConfigRequest struct {
	LeaderboardSize            *int     `json:"leaderboard_size"             binding:"omitempty,min=1,max=100"`
	AttendanceWarningThreshold *float64 `json:"attendance_warning_threshold" binding:"omitempty,min=0,max=100"`
}

// SystemConfigResponse 系统配置响应
type SystemConfigResponse struct {
	LeaderboardSize            int     `json:"leaderboard_size"`
	AttendanceWarningThreshold float64 `json:"attendance_warning_threshold"`
	UpdatedAt                  string  `json:"updated_at"`
}
