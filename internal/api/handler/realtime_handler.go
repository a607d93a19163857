package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"school-portal/backend/pkg/jwt"
	"school-portal/backend/pkg/response"
)

// RealtimeHub WebSocket 连接入口
type RealtimeHub interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string)
}

// RevocationChecker 查询 Access Token 是否已注销
type RevocationChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// RealtimeHandler WebSocket 推送入口
type RealtimeHandler struct {
	jwtMgr  *jwt.Manager
	revoked RevocationChecker
	hub     RealtimeHub
}

// NewRealtimeHandler 创建 RealtimeHandler；revoked 可为 nil
func NewRealtimeHandler(jwtMgr *jwt.Manager, revoked RevocationChecker, hub RealtimeHub) *RealtimeHandler {
	return &RealtimeHandler{jwtMgr: jwtMgr, revoked: revoked, hub: hub}
}

// Connect 建立 WebSocket 连接
// GET /api/v1/ws?token=<access_token>
// 浏览器无法为 WebSocket 设置请求头，Token 通过查询参数传递，也兼容 Authorization 头
func (h *RealtimeHandler) Connect(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, http.StatusServiceUnavailable, 25201, "实时推送未启用")
		return
	}

	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if token == "" {
		response.Unauthorized(c, 10002, "缺少认证 Token")
		return
	}

	claims, err := h.jwtMgr.ParseTyped(token, jwt.TokenTypeAccess)
	if err != nil {
		response.Unauthorized(c, 10002, "Token 无效或已过期")
		return
	}
	if h.revoked != nil {
		if hit, err := h.revoked.IsBlacklisted(c.Request.Context(), claims.ID); err == nil && hit {
			response.Unauthorized(c, 10002, "Token 已注销")
			return
		}
	}

	h.hub.ServeWS(c.Writer, c.Request, claims.UserID)
}
