package model

// TimetableEntry 课程表条目 — 对应 timetable_entries
// Weeks 为上课周次（1-based）；为空表示每周
type TimetableEntry struct {
	EntryID   string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	CourseID  string   `gorm:"type:uuid;not null;index"                       json:"course_id"`
	DayOfWeek int      `gorm:"not null"                                       json:"day_of_week"` // 1=周一 … 7=周日
	StartTime string   `gorm:"type:varchar(5);not null"                       json:"start_time"`  // HH:MM
	EndTime   string   `gorm:"type:varchar(5);not null"                       json:"end_time"`
	Room      string   `gorm:"type:varchar(100)"                              json:"room,omitempty"`
	Weeks     IntArray `gorm:"type:int[]"                                     json:"weeks,omitempty"`
	Source    string   `gorm:"type:varchar(10);not null;default:'manual'"     json:"source"` // manual | ics
	BaseModel

	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (TimetableEntry) TableName() string { return "timetable_entries" }
