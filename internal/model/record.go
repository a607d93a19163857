package model

import "gorm.io/datatypes"

// AttendanceRecord 出勤记录表 — 对应 attendance_records
// 自然键 (student_id, course_id, date)，重复提交按自然键覆盖
type AttendanceRecord struct {
	AttendanceID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"        json:"attendance_id"`
	StudentID    string         `gorm:"type:uuid;not null;uniqueIndex:uk_attendance_natural" json:"student_id"`
	CourseID     string         `gorm:"type:uuid;not null;uniqueIndex:uk_attendance_natural" json:"course_id"`
	Date         datatypes.Date `gorm:"not null;uniqueIndex:uk_attendance_natural"           json:"date"`
	Status       string         `gorm:"type:varchar(20);not null"                            json:"status"`
	RecordedBy   string         `gorm:"type:uuid;not null"                                   json:"recorded_by"`
	BaseModel

	// 关联
	Student *User `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }

// GradeRecord 成绩表 — 对应 grade_records
// 自然键 (student_id, course_id, semester_id, assignment_id)；assignment_id 为空串表示非作业成绩（如期末）
type GradeRecord struct {
	GradeID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"          json:"grade_id"`
	StudentID    string `gorm:"type:uuid;not null;uniqueIndex:uk_grade_natural"         json:"student_id"`
	CourseID     string `gorm:"type:uuid;not null;uniqueIndex:uk_grade_natural"         json:"course_id"`
	SemesterID   string `gorm:"type:uuid;not null;uniqueIndex:uk_grade_natural"         json:"semester_id"`
	AssignmentID string `gorm:"type:varchar(64);not null;default:'';uniqueIndex:uk_grade_natural" json:"assignment_id"`
	LetterGrade  string `gorm:"type:varchar(2);not null"                                json:"letter_grade"`
	Remark       string `gorm:"type:varchar(200)"                                       json:"remark,omitempty"`
	GradedBy     string `gorm:"type:uuid;not null"                                      json:"graded_by"`
	BaseModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (GradeRecord) TableName() string { return "grade_records" }
