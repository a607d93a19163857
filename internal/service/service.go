package service

import (
	"go.uber.org/zap"

	"school-portal/backend/config"
	"school-portal/backend/internal/repository"
	"school-portal/backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Department   DepartmentService
	Semester     SemesterService
	Course       CourseService
	Attendance   AttendanceService
	Grade        GradeService
	Assignment   AssignmentService
	Forum        ForumService
	Leave        LeaveService
	Complaint    ComplaintService
	Timetable    TimetableService
	Leaderboard  LeaderboardService
	Notification NotificationService
	Chat         ChatService
	Export       ExportService
	SystemConfig SystemConfigService
}

// NewService 创建 Service 聚合
// blacklist、pusher 可为 nil：无 Redis 时不做 Token 吊销，无推送通道时通知只落库
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	pusher Pusher,
	logger *zap.Logger,
) *Service {
	notifier := NewNotifier(repo, pusher, logger)
	settings := NewSystemConfigService(repo, cfg.Academics, logger)
	grades := NewGradeService(repo, notifier, logger)

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		User:         NewUserService(repo, logger),
		Department:   NewDepartmentService(repo, logger),
		Semester:     NewSemesterService(repo, logger),
		Course:       NewCourseService(repo, logger),
		Attendance:   NewAttendanceService(repo, settings, notifier, logger),
		Grade:        grades,
		Assignment:   NewAssignmentService(repo, grades, notifier, logger),
		Forum:        NewForumService(repo, notifier, logger),
		Leave:        NewLeaveService(repo, notifier, logger),
		Complaint:    NewComplaintService(repo, notifier, logger),
		Timetable:    NewTimetableService(repo, cfg.Academics.Location(), logger),
		Leaderboard:  NewLeaderboardService(repo, settings, notifier, logger),
		Notification: NewNotificationService(repo, logger),
		Chat:         NewChatService(repo, pusher, logger),
		Export:       NewExportService(repo, logger),
		SystemConfig: settings,
	}
}
