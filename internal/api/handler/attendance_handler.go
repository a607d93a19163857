package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/service"
	"school-portal/backend/pkg/response"
)

// AttendanceHandler 出勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// Mark 批量标记某日出勤
// POST /api/v1/courses/:id/attendance
func (h *AttendanceHandler) Mark(c *gin.Context) {
	courseID, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.Mark(c.Request.Context(), courseID, &req, callerID, callerRole)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// ListByCourse 课程出勤记录
// GET /api/v1/courses/:id/attendance?date=2026-03-02
func (h *AttendanceHandler) ListByCourse(c *gin.Context) {
	courseID, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	var req dto.AttendanceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	records, err := h.attendanceSvc.ListByCourse(c.Request.Context(), courseID, &req, callerID, callerRole)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": records})
}

// StudentSummary 学生各课程出勤率
// GET /api/v1/students/:id/attendance
func (h *AttendanceHandler) StudentSummary(c *gin.Context) {
	studentID, ok := mustParam(c, "id", "学生ID")
	if !ok {
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	summary, err := h.attendanceSvc.StudentSummary(c.Request.Context(), studentID, callerID, callerRole)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, summary)
}

func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrAttendanceStudentNotEnrolled):
		response.BadRequest(c, 18001, "存在未选该课程的学生")
	case errors.Is(err, service.ErrAttendanceDuplicateStudent):
		response.BadRequest(c, 18002, "同一学生在一次提交中重复出现")
	default:
		response.InternalError(c)
	}
}
