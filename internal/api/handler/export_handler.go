package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"school-portal/backend/internal/service"
	"school-portal/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// GradeReport 导出学生成绩单
// GET /api/v1/export/students/:id/grades
func (h *ExportHandler) GradeReport(c *gin.Context) {
	studentID, ok := mustParam(c, "id", "学生ID")
	if !ok {
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.GradeReport(c.Request.Context(), studentID, callerID, callerRole)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeXLSX(c, buf, filename)
}

// AttendanceSheet 导出课程出勤表
// GET /api/v1/export/courses/:id/attendance
func (h *ExportHandler) AttendanceSheet(c *gin.Context) {
	courseID, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.AttendanceSheet(c.Request.Context(), courseID, callerID, callerRole)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeXLSX(c, buf, filename)
}

// writeXLSX 设置下载响应头并写出文件
func writeXLSX(c *gin.Context, buf *bytes.Buffer, filename string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrExportNoRecords):
		response.NotFound(c, 16101, "暂无可导出的记录")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
