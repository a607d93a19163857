package dto

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	Code         string `json:"code"          binding:"required,min=2,max=30"`
	Name         string `json:"name"          binding:"required,min=2,max=100"`
	Description  string `json:"description"   binding:"omitempty,max=1000"`
	Units        int    `json:"units"         binding:"omitempty,min=1,max=20"`
	DepartmentID string `json:"department_id" binding:"required,uuid"`
	TeacherID    string `json:"teacher_id"    binding:"required,uuid"`
	SemesterID   string `json:"semester_id"   binding:"required,uuid"`
}

// UpdateCourseRequest 更新课程请求
type UpdateCourseRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=2,max=100"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Units       *int    `json:"units"       binding:"omitempty,min=1,max=20"`
	TeacherID   *string `json:"teacher_id"  binding:"omitempty,uuid"`
	SemesterID  *string `json:"semester_id" binding:"omitempty,uuid"`
}

// CourseListRequest 课程列表查询参数
type CourseListRequest struct {
	PaginationRequest
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	TeacherID    string `form:"teacher_id"    binding:"omitempty,uuid"`
	SemesterID   string `form:"semester_id"   binding:"omitempty,uuid"`
}

// CourseResponse 课程响应
type CourseResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Units        int    `json:"units"`
	DepartmentID string `json:"department_id"`
	TeacherID    string `json:"teacher_id"`
	TeacherName  string `json:"teacher_name,omitempty"`
	SemesterID   string `json:"semester_id"`
}

// ── 选课 ──

// EnrollRequest 选课请求；学生本人选课时 student_id 可省略
type EnrollRequest struct {
	StudentID string `json:"student_id" binding:"omitempty,uuid"`
}

// EnrollmentResponse 选课记录响应
type EnrollmentResponse struct {
	ID        string `json:"id"`
	CourseID  string `json:"course_id"`
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
}

// RosterEntry 课程花名册条目
type RosterEntry struct {
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	Username   string `json:"username"`
	EnrolledAt string `json:"enrolled_at"`
}
