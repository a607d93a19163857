package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/service"
	"school-portal/backend/pkg/response"
)

// AssignmentHandler 作业模块 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// CreateAssignment 布置作业
// POST /api/v1/courses/:id/assignments
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	courseID, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	assignment, err := h.assignmentSvc.Create(c.Request.Context(), courseID, &req, callerID, callerRole)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.Created(c, assignment)
}

// ListByCourse 课程作业列表
// GET /api/v1/courses/:id/assignments
func (h *AssignmentHandler) ListByCourse(c *gin.Context) {
	courseID, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.assignmentSvc.ListByCourse(c.Request.Context(), courseID, callerID, callerRole)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetAssignment 作业详情
// GET /api/v1/assignments/:id
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	id, ok := mustParam(c, "id", "作业ID")
	if !ok {
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	assignment, err := h.assignmentSvc.GetByID(c.Request.Context(), id, callerID, callerRole)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, assignment)
}

// UpdateAssignment 更新作业
// PUT /api/v1/assignments/:id
func (h *AssignmentHandler) UpdateAssignment(c *gin.Context) {
	id, ok := mustParam(c, "id", "作业ID")
	if !ok {
		return
	}

	var req dto.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	assignment, err := h.assignmentSvc.Update(c.Request.Context(), id, &req, callerID, callerRole)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, assignment)
}

// DeleteAssignment 删除作业
// DELETE /api/v1/assignments/:id
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	id, ok := mustParam(c, "id", "作业ID")
	if !ok {
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.assignmentSvc.Delete(c.Request.Context(), id, callerID, callerRole); err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, nil)
}

// Submit 学生提交作业
// POST /api/v1/assignments/:id/submissions
func (h *AssignmentHandler) Submit(c *gin.Context) {
	id, ok := mustParam(c, "id", "作业ID")
	if !ok {
		return
	}

	var req dto.SubmitAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	submission, err := h.assignmentSvc.Submit(c.Request.Context(), id, &req, callerID, callerRole)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, submission)
}

// ListSubmissions 作业提交列表
// GET /api/v1/assignments/:id/submissions
func (h *AssignmentHandler) ListSubmissions(c *gin.Context) {
	id, ok := mustParam(c, "id", "作业ID")
	if !ok {
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.assignmentSvc.ListSubmissions(c.Request.Context(), id, callerID, callerRole)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GradeSubmission 批改作业，同时写入成绩记录
// PUT /api/v1/submissions/:id/grade
func (h *AssignmentHandler) GradeSubmission(c *gin.Context) {
	id, ok := mustParam(c, "id", "提交ID")
	if !ok {
		return
	}

	var req dto.GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	submission, err := h.assignmentSvc.GradeSubmission(c.Request.Context(), id, &req, callerID, callerRole)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, submission)
}

func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 20001, "作业不存在")
	case errors.Is(err, service.ErrAssignmentDueInvalid):
		response.BadRequest(c, 20002, "截止时间格式错误，应为 RFC3339")
	case errors.Is(err, service.ErrSubmissionNotFound):
		response.NotFound(c, 20003, "作业提交不存在")
	case errors.Is(err, service.ErrSubmissionGraded):
		response.Conflict(c, 20004, "作业已批改，不能再次提交")
	case errors.Is(err, service.ErrGradeLetterInvalid):
		response.BadRequest(c, 19001, "成绩等级不在等级表中")
	case errors.Is(err, service.ErrGradeStudentNotEnrolled):
		response.BadRequest(c, 19002, "学生未选该课程")
	default:
		response.InternalError(c)
	}
}
