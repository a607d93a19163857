package model

// Course 课程表 — 对应 courses
type Course struct {
	CourseID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Code         string `gorm:"type:varchar(30);not null;uniqueIndex"          json:"code"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Description  string `gorm:"type:text"                                      json:"description,omitempty"`
	Units        int    `gorm:"not null;default:1"                             json:"units"`
	DepartmentID string `gorm:"type:uuid;not null"                             json:"department_id"`
	TeacherID    string `gorm:"type:uuid;not null"                             json:"teacher_id"`
	SemesterID   string `gorm:"type:uuid;not null"                             json:"semester_id"`
	VersionedModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
	Teacher    *User       `gorm:"foreignKey:TeacherID;references:UserID"          json:"teacher,omitempty"`
	Semester   *Semester   `gorm:"foreignKey:SemesterID;references:SemesterID"     json:"semester,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// Enrollment 选课表 — 对应 enrollments，(course_id, student_id) 唯一
type Enrollment struct {
	EnrollmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"          json:"enrollment_id"`
	CourseID     string `gorm:"type:uuid;not null;uniqueIndex:uk_enrollment_course_student" json:"course_id"`
	StudentID    string `gorm:"type:uuid;not null;uniqueIndex:uk_enrollment_course_student" json:"student_id"`
	Status       string `gorm:"type:varchar(20);not null;default:'active'"              json:"status"` // active | dropped
	BaseModel

	// 关联
	Course  *Course `gorm:"foreignKey:CourseID;references:CourseID"  json:"course,omitempty"`
	Student *User   `gorm:"foreignKey:StudentID;references:UserID"  json:"student,omitempty"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }
