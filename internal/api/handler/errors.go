package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"school-portal/backend/internal/service"
	"school-portal/backend/pkg/response"
)

// handleCommonError 处理跨模块共用的业务错误，未命中时返回 false
func handleCommonError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权操作")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 10001, "日期格式错误，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrCourseMissing):
		response.NotFound(c, 15001, "课程不存在")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	default:
		return false
	}
	return true
}
