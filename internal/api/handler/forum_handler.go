package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/service"
	"school-portal/backend/pkg/response"
)

// ForumHandler 课程论坛 HTTP 处理器
type ForumHandler struct {
	forumSvc service.ForumService
}

// NewForumHandler 创建 ForumHandler
func NewForumHandler(forumSvc service.ForumService) *ForumHandler {
	return &ForumHandler{forumSvc: forumSvc}
}

// CreatePost 发帖
// POST /api/v1/courses/:id/posts
func (h *ForumHandler) CreatePost(c *gin.Context) {
	courseID, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	post, err := h.forumSvc.CreatePost(c.Request.Context(), courseID, &req, callerID, callerRole)
	if err != nil {
		h.handleForumError(c, err)
		return
	}

	response.Created(c, post)
}

// ListPosts 课程帖子列表
// GET /api/v1/courses/:id/posts
func (h *ForumHandler) ListPosts(c *gin.Context) {
	courseID, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	posts, total, err := h.forumSvc.ListPosts(c.Request.Context(), courseID, &page, callerID, callerRole)
	if err != nil {
		h.handleForumError(c, err)
		return
	}

	response.OKPage(c, posts, total, page.GetPage(), page.GetPageSize())
}

// GetPost 帖子详情（含回复）
// GET /api/v1/posts/:id
func (h *ForumHandler) GetPost(c *gin.Context) {
	id, ok := mustParam(c, "id", "帖子ID")
	if !ok {
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	post, err := h.forumSvc.GetPost(c.Request.Context(), id, callerID, callerRole)
	if err != nil {
		h.handleForumError(c, err)
		return
	}

	response.OK(c, post)
}

// Reply 回帖
// POST /api/v1/posts/:id/replies
func (h *ForumHandler) Reply(c *gin.Context) {
	id, ok := mustParam(c, "id", "帖子ID")
	if !ok {
		return
	}

	var req dto.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	reply, err := h.forumSvc.Reply(c.Request.Context(), id, &req, callerID, callerRole)
	if err != nil {
		h.handleForumError(c, err)
		return
	}

	response.Created(c, reply)
}

// DeletePost 删除帖子
// DELETE /api/v1/posts/:id
func (h *ForumHandler) DeletePost(c *gin.Context) {
	id, ok := mustParam(c, "id", "帖子ID")
	if !ok {
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.forumSvc.DeletePost(c.Request.Context(), id, callerID, callerRole); err != nil {
		h.handleForumError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *ForumHandler) handleForumError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		response.NotFound(c, 21001, "帖子不存在")
	default:
		response.InternalError(c)
	}
}
