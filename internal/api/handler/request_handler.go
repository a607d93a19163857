package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/service"
	"school-portal/backend/pkg/response"
)

// RequestHandler 请假与投诉 HTTP 处理器
type RequestHandler struct {
	leaveSvc     service.LeaveService
	complaintSvc service.ComplaintService
}

// NewRequestHandler 创建 RequestHandler
func NewRequestHandler(leaveSvc service.LeaveService, complaintSvc service.ComplaintService) *RequestHandler {
	return &RequestHandler{leaveSvc: leaveSvc, complaintSvc: complaintSvc}
}

// ────────────────────── 请假 ──────────────────────

// CreateLeave 学生提交请假
// POST /api/v1/leaves
func (h *RequestHandler) CreateLeave(c *gin.Context) {
	var req dto.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	leave, err := h.leaveSvc.Create(c.Request.Context(), &req, callerID, callerRole)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.Created(c, leave)
}

// ListMyLeaves 我的请假记录
// GET /api/v1/leaves/my
func (h *RequestHandler) ListMyLeaves(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.leaveSvc.ListMine(c.Request.Context(), callerID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListPendingLeaves 待审批请假
// GET /api/v1/leaves/pending
func (h *RequestHandler) ListPendingLeaves(c *gin.Context) {
	list, err := h.leaveSvc.ListPending(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ReviewLeave 审批请假
// PUT /api/v1/leaves/:id/review
func (h *RequestHandler) ReviewLeave(c *gin.Context) {
	id, ok := mustParam(c, "id", "请假ID")
	if !ok {
		return
	}

	var req dto.ReviewLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	leave, err := h.leaveSvc.Review(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, leave)
}

// ────────────────────── 投诉 ──────────────────────

// CreateComplaint 提交投诉
// POST /api/v1/complaints
func (h *RequestHandler) CreateComplaint(c *gin.Context) {
	var req dto.CreateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	complaint, err := h.complaintSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.Created(c, complaint)
}

// ListMyComplaints 我的投诉
// GET /api/v1/complaints/my
func (h *RequestHandler) ListMyComplaints(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.complaintSvc.ListMine(c.Request.Context(), callerID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListComplaints 投诉列表
// GET /api/v1/complaints
func (h *RequestHandler) ListComplaints(c *gin.Context) {
	var req dto.ComplaintListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.complaintSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ResolveComplaint 处理投诉
// PUT /api/v1/complaints/:id/resolve
func (h *RequestHandler) ResolveComplaint(c *gin.Context) {
	id, ok := mustParam(c, "id", "投诉ID")
	if !ok {
		return
	}

	var req dto.ResolveComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	complaint, err := h.complaintSvc.Resolve(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, complaint)
}

func (h *RequestHandler) handleRequestError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrLeaveNotFound):
		response.NotFound(c, 22001, "请假申请不存在")
	case errors.Is(err, service.ErrLeaveDateRange):
		response.BadRequest(c, 22002, "请假结束日期不能早于开始日期")
	case errors.Is(err, service.ErrLeaveAlreadyReviewed):
		response.Conflict(c, 22003, "请假申请已审批")
	case errors.Is(err, service.ErrComplaintNotFound):
		response.NotFound(c, 22101, "投诉不存在")
	case errors.Is(err, service.ErrComplaintAlreadyClosed):
		response.Conflict(c, 22102, "投诉已处理")
	default:
		response.InternalError(c)
	}
}
