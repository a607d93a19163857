package dto

// ── 课程表模块 DTO ──

// CreateTimetableEntryRequest 手工添加课表条目
type CreateTimetableEntryRequest struct {
	DayOfWeek int    `json:"day_of_week" binding:"required,min=1,max=7"`
	StartTime string `json:"start_time"  binding:"required,len=5"` // "08:10"
	EndTime   string `json:"end_time"    binding:"required,len=5"`
	Room      string `json:"room"        binding:"omitempty,max=100"`
	Weeks     []int  `json:"weeks"       binding:"omitempty,dive,min=1,max=30"`
}

// TimetableEntryResponse 课表条目响应
type TimetableEntryResponse struct {
	ID         string `json:"id"`
	CourseID   string `json:"course_id"`
	CourseCode string `json:"course_code,omitempty"`
	CourseName string `json:"course_name,omitempty"`
	DayOfWeek  int    `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Room       string `json:"room,omitempty"`
	Weeks      []int  `json:"weeks"`
	Source     string `json:"source"`
}

// ── ICS 导入 ──

// ImportICSRequest ICS 导入请求（URL 方式；也可直接上传文件）
type ImportICSRequest struct {
	URL string `json:"url" binding:"omitempty,url"`
}

// ImportICSResponse ICS 导入响应
type ImportICSResponse struct {
	ImportedCount int                   `json:"imported_count"`
	Events        []ImportedCourseEvent `json:"events"`
}

// ImportedCourseEvent 导入的课程事件
type ImportedCourseEvent struct {
	Name      string `json:"name"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Room      string `json:"room,omitempty"`
	Weeks     []int  `json:"weeks"`
}
