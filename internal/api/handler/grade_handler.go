package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/service"
	"school-portal/backend/pkg/response"
)

// GradeHandler 成绩模块 HTTP 处理器
type GradeHandler struct {
	gradeSvc service.GradeService
}

// NewGradeHandler 创建 GradeHandler
func NewGradeHandler(gradeSvc service.GradeService) *GradeHandler {
	return &GradeHandler{gradeSvc: gradeSvc}
}

// SubmitGrade 录入成绩
// POST /api/v1/grades
func (h *GradeHandler) SubmitGrade(c *gin.Context) {
	var req dto.SubmitGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	record, err := h.gradeSvc.SubmitGrade(c.Request.Context(), &req, callerID, callerRole)
	if err != nil {
		h.handleGradeError(c, err)
		return
	}

	response.OK(c, record)
}

// ListStudentGrades 学生成绩记录
// GET /api/v1/students/:id/grades
func (h *GradeHandler) ListStudentGrades(c *gin.Context) {
	studentID, ok := mustParam(c, "id", "学生ID")
	if !ok {
		return
	}

	var req dto.GradeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	records, err := h.gradeSvc.ListStudentGrades(c.Request.Context(), studentID, &req, callerID, callerRole)
	if err != nil {
		h.handleGradeError(c, err)
		return
	}

	response.OK(c, gin.H{"list": records})
}

// StudentReport 学生成绩单（各课程平均等级与总 GPA）
// GET /api/v1/students/:id/report
func (h *GradeHandler) StudentReport(c *gin.Context) {
	studentID, ok := mustParam(c, "id", "学生ID")
	if !ok {
		return
	}

	var req dto.GradeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	report, err := h.gradeSvc.StudentReport(c.Request.Context(), studentID, &req, callerID, callerRole)
	if err != nil {
		h.handleGradeError(c, err)
		return
	}

	response.OK(c, report)
}

// ListCourseGrades 课程全部成绩
// GET /api/v1/courses/:id/grades
func (h *GradeHandler) ListCourseGrades(c *gin.Context) {
	courseID, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	records, err := h.gradeSvc.ListCourseGrades(c.Request.Context(), courseID, callerID, callerRole)
	if err != nil {
		h.handleGradeError(c, err)
		return
	}

	response.OK(c, gin.H{"list": records})
}

// Scale 等级绩点对照表
// GET /api/v1/grades/scale
func (h *GradeHandler) Scale(c *gin.Context) {
	response.OK(c, gin.H{"list": h.gradeSvc.Scale()})
}

// ConvertScale 等级与绩点互转
// GET /api/v1/grades/convert?letter=B%2B  或  ?point=3.4
func (h *GradeHandler) ConvertScale(c *gin.Context) {
	var req dto.ConvertScaleRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.gradeSvc.ConvertScale(&req)
	if err != nil {
		h.handleGradeError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *GradeHandler) handleGradeError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrGradeLetterInvalid):
		response.BadRequest(c, 19001, "成绩等级不在等级表中")
	case errors.Is(err, service.ErrGradeStudentNotEnrolled):
		response.BadRequest(c, 19002, "学生未选该课程")
	case errors.Is(err, service.ErrScaleInputMissing):
		response.BadRequest(c, 19003, "letter 与 point 必须提供其一")
	default:
		response.InternalError(c)
	}
}
