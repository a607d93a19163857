package model

import "time"

// Leaderboard 月度排行榜 — 对应 leaderboards
// (month, year) 唯一：同一周期只能发布一次，发布后不可修改
type Leaderboard struct {
	LeaderboardID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"leaderboard_id"`
	Month         int       `gorm:"not null;uniqueIndex:uk_leaderboard_period"     json:"month"`
	Year          int       `gorm:"not null;uniqueIndex:uk_leaderboard_period"     json:"year"`
	DepartmentID  *string   `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	PublishedBy   string    `gorm:"type:uuid;not null"                             json:"published_by"`
	PublishedAt   time.Time `gorm:"not null"                                       json:"published_at"`

	Entries []LeaderboardEntry `gorm:"foreignKey:LeaderboardID;references:LeaderboardID" json:"entries,omitempty"`
}

// TableName 指定表名
func (Leaderboard) TableName() string { return "leaderboards" }

// LeaderboardEntry 排行榜条目 — 对应 leaderboard_entries
type LeaderboardEntry struct {
	EntryID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	LeaderboardID string `gorm:"type:uuid;not null;index"                       json:"leaderboard_id"`
	StudentID     string `gorm:"type:uuid;not null"                             json:"student_id"`
	Name          string `gorm:"type:varchar(100);not null"                     json:"name"`
	Position      int    `gorm:"not null"                                       json:"position"`
	Credits       int    `gorm:"not null"                                       json:"credits"`
}

// TableName 指定表名
func (LeaderboardEntry) TableName() string { return "leaderboard_entries" }
