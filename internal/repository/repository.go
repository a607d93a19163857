package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User         UserRepository
	Department   DepartmentRepository
	Semester     SemesterRepository
	Course       CourseRepository
	Enrollment   EnrollmentRepository
	Attendance   AttendanceRepository
	Grade        GradeRepository
	Assignment   AssignmentRepository
	Submission   SubmissionRepository
	Forum        ForumRepository
	Leave        LeaveRepository
	Complaint    ComplaintRepository
	Timetable    TimetableRepository
	Leaderboard  LeaderboardRepository
	Notification NotificationRepository
	Chat         ChatRepository
	SystemConfig SystemConfigRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		User:         NewUserRepo(db),
		Department:   NewDepartmentRepo(db),
		Semester:     NewSemesterRepo(db),
		Course:       NewCourseRepo(db),
		Enrollment:   NewEnrollmentRepo(db),
		Attendance:   NewAttendanceRepo(db),
		Grade:        NewGradeRepo(db),
		Assignment:   NewAssignmentRepo(db),
		Submission:   NewSubmissionRepo(db),
		Forum:        NewForumRepo(db),
		Leave:        NewLeaveRepo(db),
		Complaint:    NewComplaintRepo(db),
		Timetable:    NewTimetableRepo(db),
		Leaderboard:  NewLeaderboardRepo(db),
		Notification: NewNotificationRepo(db),
		Chat:         NewChatRepo(db),
		SystemConfig: NewSystemConfigRepo(db),
	}
}

// BeginTx 开启事务，调用方负责 Commit / Rollback
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到指定事务的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在事务中执行 fn，fn 返回错误时整体回滚
// 未绑定数据库连接的聚合（内存实现）直接在自身上执行 fn
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
