package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-portal/backend/config"
	"school-portal/backend/internal/api/handler"
	"school-portal/backend/internal/api/middleware"
	"school-portal/backend/internal/model"
	"school-portal/backend/pkg/jwt"
)

const (
	admin   = model.RoleAdmin
	teacher = model.RoleTeacher
	student = model.RoleStudent
)

// Deps 路由依赖；Revocation、Limiter、DB 均可为 nil
type Deps struct {
	JWT        *jwt.Manager
	Revocation middleware.TokenRevocation
	Limiter    middleware.RateLimiter
	DB         *gorm.DB
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, deps Deps, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if err := handler.RegisterValidators(); err != nil {
		logger.Fatal("注册请求校验器失败", zap.Error(err))
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if deps.DB != nil {
			if sqlDB, err := deps.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证），按 IP 限流
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(deps.Limiter, 10, time.Minute))
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// WebSocket 自行校验查询参数中的 Token
		v1.GET("/ws", h.Realtime.Connect)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(deps.JWT, deps.Revocation))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("", middleware.RoleAuth(admin, teacher), h.User.ListUsers)
				users.POST("", middleware.RoleAuth(admin), h.User.CreateUser)
				users.POST("/import", middleware.RoleAuth(admin), h.User.ImportUsers)
				users.GET("/:id", middleware.RoleAuth(admin, teacher), h.User.GetUser)
				users.PUT("/:id", h.User.UpdateUser) // admin 或本人（Service 层鉴权）
				users.DELETE("/:id", middleware.RoleAuth(admin), h.User.DeleteUser)
				users.POST("/:id/reset-password", middleware.RoleAuth(admin), h.User.ResetPassword)
				users.GET("/:id/credits", h.User.GetCredits)
			}

			// 院系模块
			departments := authorized.Group("/departments")
			{
				departments.GET("", h.Department.ListDepartments)
				departments.GET("/:id", h.Department.GetDepartment)
				departments.POST("", middleware.RoleAuth(admin), h.Department.CreateDepartment)
				departments.PUT("/:id", middleware.RoleAuth(admin), h.Department.UpdateDepartment)
				departments.DELETE("/:id", middleware.RoleAuth(admin), h.Department.DeleteDepartment)
				departments.GET("/:id/members", middleware.RoleAuth(admin, teacher), h.Department.GetMembers)
			}

			// 学期模块
			semesters := authorized.Group("/semesters")
			{
				semesters.GET("", h.Semester.ListSemesters)
				semesters.GET("/current", h.Semester.GetCurrentSemester)
				semesters.GET("/:id", h.Semester.GetSemester)
				semesters.POST("", middleware.RoleAuth(admin), h.Semester.CreateSemester)
				semesters.PUT("/:id", middleware.RoleAuth(admin), h.Semester.UpdateSemester)
				semesters.PUT("/:id/activate", middleware.RoleAuth(admin), h.Semester.ActivateSemester)
				semesters.DELETE("/:id", middleware.RoleAuth(admin), h.Semester.DeleteSemester)
			}

			// 课程模块（课程内资源的细粒度鉴权在 Service 层）
			courses := authorized.Group("/courses")
			{
				courses.GET("", h.Course.ListCourses)
				courses.GET("/my", h.Course.MyCourses)
				courses.POST("", middleware.RoleAuth(admin), h.Course.CreateCourse)
				courses.GET("/:id", h.Course.GetCourse)
				courses.PUT("/:id", middleware.RoleAuth(admin, teacher), h.Course.UpdateCourse)
				courses.DELETE("/:id", middleware.RoleAuth(admin), h.Course.DeleteCourse)

				courses.POST("/:id/enrollments", middleware.RoleAuth(admin, student), h.Course.Enroll)
				courses.DELETE("/:id/enrollments/:studentId", middleware.RoleAuth(admin, student), h.Course.Drop)
				courses.GET("/:id/roster", middleware.RoleAuth(admin, teacher), h.Course.Roster)

				courses.POST("/:id/attendance", middleware.RoleAuth(admin, teacher), h.Attendance.Mark)
				courses.GET("/:id/attendance", middleware.RoleAuth(admin, teacher), h.Attendance.ListByCourse)
				courses.GET("/:id/grades", middleware.RoleAuth(admin, teacher), h.Grade.ListCourseGrades)

				courses.POST("/:id/assignments", middleware.RoleAuth(admin, teacher), h.Assignment.CreateAssignment)
				courses.GET("/:id/assignments", h.Assignment.ListByCourse)

				courses.POST("/:id/posts", h.Forum.CreatePost)
				courses.GET("/:id/posts", h.Forum.ListPosts)

				courses.POST("/:id/timetable", middleware.RoleAuth(admin, teacher), h.Timetable.CreateEntry)
				courses.GET("/:id/timetable", h.Timetable.ListByCourse)
				courses.POST("/:id/timetable/import", middleware.RoleAuth(admin, teacher), h.Timetable.ImportICS)
			}

			// 学生视角（本人、任课教师或管理员，Service 层鉴权）
			students := authorized.Group("/students")
			{
				students.GET("/:id/attendance", h.Attendance.StudentSummary)
				students.GET("/:id/grades", h.Grade.ListStudentGrades)
				students.GET("/:id/report", h.Grade.StudentReport)
			}

			// 成绩模块
			grades := authorized.Group("/grades")
			{
				grades.POST("", middleware.RoleAuth(admin, teacher), h.Grade.SubmitGrade)
				grades.GET("/scale", h.Grade.Scale)
				grades.GET("/convert", h.Grade.ConvertScale)
			}

			// 作业模块
			assignments := authorized.Group("/assignments")
			{
				assignments.GET("/:id", h.Assignment.GetAssignment)
				assignments.PUT("/:id", middleware.RoleAuth(admin, teacher), h.Assignment.UpdateAssignment)
				assignments.DELETE("/:id", middleware.RoleAuth(admin, teacher), h.Assignment.DeleteAssignment)
				assignments.POST("/:id/submissions", middleware.RoleAuth(student), h.Assignment.Submit)
				assignments.GET("/:id/submissions", middleware.RoleAuth(admin, teacher), h.Assignment.ListSubmissions)
			}
			authorized.PUT("/submissions/:id/grade", middleware.RoleAuth(admin, teacher), h.Assignment.GradeSubmission)

			// 论坛模块
			posts := authorized.Group("/posts")
			{
				posts.GET("/:id", h.Forum.GetPost)
				posts.POST("/:id/replies", h.Forum.Reply)
				posts.DELETE("/:id", h.Forum.DeletePost)
			}

			// 请假模块
			leaves := authorized.Group("/leaves")
			{
				leaves.POST("", middleware.RoleAuth(student), h.Request.CreateLeave)
				leaves.GET("/my", h.Request.ListMyLeaves)
				leaves.GET("/pending", middleware.RoleAuth(admin, teacher), h.Request.ListPendingLeaves)
				leaves.PUT("/:id/review", middleware.RoleAuth(admin, teacher), h.Request.ReviewLeave)
			}

			// 投诉模块
			complaints := authorized.Group("/complaints")
			{
				complaints.POST("", h.Request.CreateComplaint)
				complaints.GET("/my", h.Request.ListMyComplaints)
				complaints.GET("", middleware.RoleAuth(admin), h.Request.ListComplaints)
				complaints.PUT("/:id/resolve", middleware.RoleAuth(admin), h.Request.ResolveComplaint)
			}

			// 课程表模块
			timetable := authorized.Group("/timetable")
			{
				timetable.GET("/me", h.Timetable.GetMyTimetable)
				timetable.GET("/me.ics", h.Timetable.ExportICS)
				timetable.DELETE("/entries/:id", middleware.RoleAuth(admin, teacher), h.Timetable.DeleteEntry)
			}

			// 排行榜模块
			leaderboards := authorized.Group("/leaderboards")
			{
				leaderboards.GET("", h.Leaderboard.List)
				leaderboards.GET("/:year/:month", h.Leaderboard.Get)
				leaderboards.POST("", middleware.RoleAuth(admin, teacher), h.Leaderboard.Publish)
			}

			// 通知模块
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
			}

			// 私聊模块
			chats := authorized.Group("/chats")
			chats.Use(middleware.RateLimit(deps.Limiter, 60, time.Minute))
			{
				chats.POST("", h.Notification.SendChat)
				chats.GET("/:peerId", h.Notification.Conversation)
				chats.PUT("/:peerId/read", h.Notification.MarkChatRead)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/students/:id/grades", h.Export.GradeReport)
				export.GET("/courses/:id/attendance", middleware.RoleAuth(admin, teacher), h.Export.AttendanceSheet)
			}

			// 系统配置模块
			systemConfig := authorized.Group("/system-config")
			{
				systemConfig.GET("", h.SystemConfig.GetConfig)
				systemConfig.PUT("", middleware.RoleAuth(admin), h.SystemConfig.UpdateConfig)
			}
		}
	}

	return r
}
