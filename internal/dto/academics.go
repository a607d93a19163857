package dto

// ── 出勤 ──

// AttendanceMark 单个学生的出勤标记
type AttendanceMark struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Status    string `json:"status"     binding:"required,oneof=present absent"`
}

// MarkAttendanceRequest 批量标记出勤请求
type MarkAttendanceRequest struct {
	Date    string           `json:"date"    binding:"required"` // "2026-03-02"
	Records []AttendanceMark `json:"records" binding:"required,min=1,dive"`
}

// MarkAttendanceResponse 批量标记结果
type MarkAttendanceResponse struct {
	Date     string `json:"date"`
	Recorded int    `json:"recorded"`
	Warned   int    `json:"warned"` // 本次跌破阈值而被提醒的学生数
}

// AttendanceListRequest 课程出勤查询参数
type AttendanceListRequest struct {
	Date string `form:"date"` // 可选 "2026-03-02"
}

// AttendanceRecordResponse 出勤记录响应
type AttendanceRecordResponse struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`
	Date        string `json:"date"`
	Status      string `json:"status"`
}

// CourseAttendanceItem 单门课程的出勤汇总
type CourseAttendanceItem struct {
	CourseID       string  `json:"course_id"`
	CourseCode     string  `json:"course_code"`
	CourseName     string  `json:"course_name"`
	Present        int     `json:"present"`
	Total          int     `json:"total"`
	Percentage     float64 `json:"percentage"`
	BelowThreshold bool    `json:"below_threshold"`
}

// AttendanceSummaryResponse 学生出勤汇总
type AttendanceSummaryResponse struct {
	StudentID string                 `json:"student_id"`
	Threshold float64                `json:"threshold"`
	Courses   []CourseAttendanceItem `json:"courses"`
}

// ── 成绩 ──

// SubmitGradeRequest 录入成绩请求；semester_id 缺省为课程所属学期
type SubmitGradeRequest struct {
	StudentID    string `json:"student_id"    binding:"required,uuid"`
	CourseID     string `json:"course_id"     binding:"required,uuid"`
	SemesterID   string `json:"semester_id"   binding:"omitempty,uuid"`
	AssignmentID string `json:"assignment_id" binding:"omitempty,max=64"`
	LetterGrade  string `json:"letter_grade"  binding:"required,grade_letter"`
	Remark       string `json:"remark"        binding:"omitempty,max=200"`
}

// GradeListRequest 成绩查询参数
type GradeListRequest struct {
	SemesterID string `form:"semester_id" binding:"omitempty,uuid"`
}

// GradeRecordResponse 成绩记录响应
type GradeRecordResponse struct {
	ID           string  `json:"id"`
	StudentID    string  `json:"student_id"`
	CourseID     string  `json:"course_id"`
	CourseName   string  `json:"course_name,omitempty"`
	SemesterID   string  `json:"semester_id"`
	AssignmentID string  `json:"assignment_id,omitempty"`
	LetterGrade  string  `json:"letter_grade"`
	Point        float64 `json:"point"`
	Remark       string  `json:"remark,omitempty"`
	UpdatedAt    string  `json:"updated_at"`
}

// CourseGradeItem 单门课程的成绩汇总
type CourseGradeItem struct {
	CourseID   string    `json:"course_id"`
	CourseCode string    `json:"course_code"`
	CourseName string    `json:"course_name"`
	RawPoints  []float64 `json:"raw_points"`
	Mean       float64   `json:"mean"`
	Average    string    `json:"average"`
}

// GradeReportResponse 学生成绩单
type GradeReportResponse struct {
	StudentID     string            `json:"student_id"`
	StudentName   string            `json:"student_name"`
	Courses       []CourseGradeItem `json:"courses"`
	OverallGPA    *float64          `json:"overall_gpa"` // 无成绩时为 null
	OverallLetter string            `json:"overall_letter,omitempty"`
}

// ConvertScaleRequest 成绩换算请求，letter 与 point 二选一
type ConvertScaleRequest struct {
	Letter string   `form:"letter" binding:"omitempty,max=2"`
	Point  *float64 `form:"point"  binding:"omitempty,min=0,max=5"`
}

// ConvertScaleResponse 成绩换算结果
type ConvertScaleResponse struct {
	Letter string  `json:"letter"`
	Point  float64 `json:"point"`
	Known  bool    `json:"known"` // 字母是否在等级表中
}

// GradeStepResponse 等级表条目
type GradeStepResponse struct {
	Letter string  `json:"letter"`
	Point  float64 `json:"point"`
}
