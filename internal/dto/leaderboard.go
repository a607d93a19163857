package dto

// ── 排行榜模块 DTO ──

// PublishLeaderboardRequest 发布月度排行榜，student_ids 按名次排列
type PublishLeaderboardRequest struct {
	Month        int      `json:"month"         binding:"required,min=1,max=12"`
	Year         int      `json:"year"          binding:"required,min=2000,max=9999"`
	DepartmentID string   `json:"department_id" binding:"omitempty,uuid"`
	StudentIDs   []string `json:"student_ids"   binding:"required,min=1,dive,uuid"`
}

// LeaderboardEntryResponse 排行榜条目
type LeaderboardEntryResponse struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	Credits   int    `json:"credits"`
}

// LeaderboardResponse 排行榜
type LeaderboardResponse struct {
	ID           string                     `json:"id"`
	Period       string                     `json:"period"` // "2026-03"
	Month        int                        `json:"month"`
	Year         int                        `json:"year"`
	DepartmentID string                     `json:"department_id,omitempty"`
	PublishedAt  string                     `json:"published_at"`
	Entries      []LeaderboardEntryResponse `json:"entries,omitempty"`
}
