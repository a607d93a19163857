package model

// User 用户表 — 对应 users
// PerformanceCredits 仅由排行榜发布以原子自增方式修改
type User struct {
	UserID             string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name               string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Username           string  `gorm:"type:varchar(50);not null;uniqueIndex"          json:"username"`
	Email              string  `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash       string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role               string  `gorm:"type:varchar(20);not null;default:'student'"    json:"role"`
	DepartmentID       *string `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	PerformanceCredits int     `gorm:"not null;default:0"                             json:"performance_credits"`
	MustChangePassword bool    `gorm:"not null;default:false"                         json:"must_change_password"`
	VersionedModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
