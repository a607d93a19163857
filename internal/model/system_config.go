package model

// SystemConfig 系统配置表 — 对应 system_config（单行强类型）
type SystemConfig struct {
	Singleton                  bool    `gorm:"primaryKey;default:true"            json:"-"`
	LeaderboardSize            int     `gorm:"not null;default:5"                 json:"leaderboard_size"`
	AttendanceWarningThreshold float64 `gorm:"type:numeric(5,2);not null;default:75" json:"attendance_warning_threshold"`
	BaseModel
}

// TableName 指定表名
func (SystemConfig) TableName() string { return "system_config" }
