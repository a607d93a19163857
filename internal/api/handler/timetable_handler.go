package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/service"
	"school-portal/backend/pkg/response"
)

// TimetableHandler 课程表模块 Handler
type TimetableHandler struct {
	svc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler 实例
func NewTimetableHandler(svc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{svc: svc}
}

// CreateEntry 手工添加课表条目
// POST /api/v1/courses/:id/timetable
func (h *TimetableHandler) CreateEntry(c *gin.Context) {
	courseID, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	var req dto.CreateTimetableEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	entry, err := h.svc.CreateEntry(c.Request.Context(), courseID, &req, callerID, callerRole)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.Created(c, entry)
}

// ListByCourse 课程课表
// GET /api/v1/courses/:id/timetable
func (h *TimetableHandler) ListByCourse(c *gin.Context) {
	courseID, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	entries, err := h.svc.ListByCourse(c.Request.Context(), courseID, callerID, callerRole)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, gin.H{"list": entries})
}

// DeleteEntry 删除课表条目
// DELETE /api/v1/timetable/entries/:id
func (h *TimetableHandler) DeleteEntry(c *gin.Context) {
	id, ok := mustParam(c, "id", "条目ID")
	if !ok {
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteEntry(c.Request.Context(), id, callerID, callerRole); err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, nil)
}

// ImportICS 导入 ICS 课表，替换该课程此前导入的条目
// POST /api/v1/courses/:id/timetable/import
//
// 支持两种方式：
//   - 文件上传: multipart/form-data, field="file"
//   - URL 导入: application/json, body={"url": "..."}
func (h *TimetableHandler) ImportICS(c *gin.Context) {
	courseID, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	// 尝试文件上传方式
	file, _, err := c.Request.FormFile("file")
	if err == nil {
		defer file.Close()
		resp, err := h.svc.ImportICS(c.Request.Context(), courseID, file, callerID, callerRole)
		if err != nil {
			handleTimetableError(c, err)
			return
		}
		response.Created(c, resp)
		return
	}

	// 尝试 URL 方式
	var req dto.ImportICSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 也可能是纯 form 提交
		req.URL = c.PostForm("url")
	}
	if req.URL == "" {
		response.BadRequest(c, 23000, "请上传 ICS 文件或提供 ICS URL")
		return
	}

	resp, err := h.svc.ImportICSFromURL(c.Request.Context(), courseID, req.URL, callerID, callerRole)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, resp)
}

// GetMyTimetable 获取我的课表
// GET /api/v1/timetable/me
func (h *TimetableHandler) GetMyTimetable(c *gin.Context) {
	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	entries, err := h.svc.MyTimetable(c.Request.Context(), callerID, callerRole)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, gin.H{"list": entries})
}

// ExportICS 导出我的课表为 ICS 日历
// GET /api/v1/timetable/me.ics
func (h *TimetableHandler) ExportICS(c *gin.Context) {
	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	data, err := h.svc.ExportICS(c.Request.Context(), callerID, callerRole)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=timetable.ics")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// handleTimetableError 统一课程表模块错误映射
func handleTimetableError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrTimetableEntryNotFound):
		response.NotFound(c, 23001, "课表条目不存在")
	case errors.Is(err, service.ErrTimetableTimeRange):
		response.BadRequest(c, 23002, "下课时间必须晚于上课时间")
	case errors.Is(err, service.ErrTimetableWeekOutOfRange):
		response.BadRequest(c, 23003, "周次超出学期范围")
	case errors.Is(err, service.ErrTimetableICSParseFailed):
		response.BadRequest(c, 23004, "ICS 文件解析失败")
	case errors.Is(err, service.ErrTimetableICSEmpty):
		response.BadRequest(c, 23005, "ICS 文件中无有效课程")
	case errors.Is(err, service.ErrTimetableICSFetchFailed):
		response.BadRequest(c, 23006, "ICS URL 获取失败")
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 23007, "课程所属学期不存在")
	default:
		response.InternalError(c)
	}
}
