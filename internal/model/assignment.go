package model

import "time"

// Assignment 作业表 — 对应 assignments
type Assignment struct {
	AssignmentID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	CourseID      string    `gorm:"type:uuid;not null;index"                       json:"course_id"`
	Title         string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Description   string    `gorm:"type:text"                                      json:"description,omitempty"`
	DueAt         time.Time `gorm:"not null"                                       json:"due_at"`
	AttachmentURL string    `gorm:"type:varchar(500)"                              json:"attachment_url,omitempty"`
	SoftDeleteModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

// Submission 作业提交表 — 对应 submissions，(assignment_id, student_id) 唯一
type Submission struct {
	SubmissionID  string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"              json:"submission_id"`
	AssignmentID  string     `gorm:"type:uuid;not null;uniqueIndex:uk_submission_assignment_student" json:"assignment_id"`
	StudentID     string     `gorm:"type:uuid;not null;uniqueIndex:uk_submission_assignment_student" json:"student_id"`
	Content       string     `gorm:"type:text"                                                   json:"content,omitempty"`
	AttachmentURL string     `gorm:"type:varchar(500)"                                           json:"attachment_url,omitempty"`
	SubmittedAt   time.Time  `gorm:"not null"                                                    json:"submitted_at"`
	LetterGrade   *string    `gorm:"type:varchar(2)"                                             json:"letter_grade,omitempty"`
	GradedAt      *time.Time `json:"graded_at,omitempty"`
	BaseModel

	// 关联
	Student *User `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
}

// TableName 指定表名
func (Submission) TableName() string { return "submissions" }
