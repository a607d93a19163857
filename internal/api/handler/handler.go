package handler

import (
	"school-portal/backend/internal/service"
	"school-portal/backend/pkg/jwt"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Department   *DepartmentHandler
	Semester     *SemesterHandler
	Course       *CourseHandler
	Attendance   *AttendanceHandler
	Grade        *GradeHandler
	Assignment   *AssignmentHandler
	Forum        *ForumHandler
	Request      *RequestHandler
	Timetable    *TimetableHandler
	Leaderboard  *LeaderboardHandler
	Notification *NotificationHandler
	Export       *ExportHandler
	SystemConfig *SystemConfigHandler
	Realtime     *RealtimeHandler
}

// NewHandler 创建 Handler 聚合
// revoked 为 nil 时 WebSocket 握手不查黑名单；hub 为 nil 时 WebSocket 入口返回 503
func NewHandler(svc *service.Service, jwtMgr *jwt.Manager, revoked RevocationChecker, hub RealtimeHub) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Department:   NewDepartmentHandler(svc.Department),
		Semester:     NewSemesterHandler(svc.Semester),
		Course:       NewCourseHandler(svc.Course),
		Attendance:   NewAttendanceHandler(svc.Attendance),
		Grade:        NewGradeHandler(svc.Grade),
		Assignment:   NewAssignmentHandler(svc.Assignment),
		Forum:        NewForumHandler(svc.Forum),
		Request:      NewRequestHandler(svc.Leave, svc.Complaint),
		Timetable:    NewTimetableHandler(svc.Timetable),
		Leaderboard:  NewLeaderboardHandler(svc.Leaderboard),
		Notification: NewNotificationHandler(svc.Notification, svc.Chat),
		Export:       NewExportHandler(svc.Export),
		SystemConfig: NewSystemConfigHandler(svc.SystemConfig),
		Realtime:     NewRealtimeHandler(jwtMgr, revoked, hub),
	}
}
