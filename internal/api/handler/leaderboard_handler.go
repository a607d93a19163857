package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/service"
	"school-portal/backend/pkg/response"
)

// LeaderboardHandler 月度排行榜 HTTP 处理器
type LeaderboardHandler struct {
	leaderboardSvc service.LeaderboardService
}

// NewLeaderboardHandler 创建 LeaderboardHandler
func NewLeaderboardHandler(leaderboardSvc service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardSvc: leaderboardSvc}
}

// Publish 发布排行榜并发放积分
// POST /api/v1/leaderboards
func (h *LeaderboardHandler) Publish(c *gin.Context) {
	var req dto.PublishLeaderboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	board, err := h.leaderboardSvc.Publish(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	response.Created(c, board)
}

// List 历史排行榜
// GET /api/v1/leaderboards
func (h *LeaderboardHandler) List(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	boards, total, err := h.leaderboardSvc.List(c.Request.Context(), &page)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, boards, total, page.GetPage(), page.GetPageSize())
}

// Get 指定月份的排行榜
// GET /api/v1/leaderboards/:year/:month
func (h *LeaderboardHandler) Get(c *gin.Context) {
	year, errYear := strconv.Atoi(c.Param("year"))
	month, errMonth := strconv.Atoi(c.Param("month"))
	if errYear != nil || errMonth != nil || month < 1 || month > 12 {
		response.BadRequest(c, 10001, "年份或月份无效")
		return
	}

	board, err := h.leaderboardSvc.Get(c.Request.Context(), month, year)
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	response.OK(c, board)
}

func (h *LeaderboardHandler) handleLeaderboardError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrLeaderboardExists):
		response.Conflict(c, 24001, "该月份排行榜已发布")
	case errors.Is(err, service.ErrLeaderboardNotFound):
		response.NotFound(c, 24002, "排行榜不存在")
	case errors.Is(err, service.ErrLeaderboardTooMany):
		response.BadRequest(c, 24003, "上榜人数超过上限")
	case errors.Is(err, service.ErrLeaderboardDuplicate):
		response.BadRequest(c, 24004, "上榜学生重复")
	case errors.Is(err, service.ErrLeaderboardStudentAbsent):
		response.BadRequest(c, 24005, "上榜名单中存在无效学生")
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.NotFound(c, 24006, "院系不存在")
	default:
		response.InternalError(c)
	}
}
