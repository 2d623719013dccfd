package handlers

import (
	"recipe-chat-gateway/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// EnsureSessionID 從標頭取得會話 ID，缺少時發新的並回寫到回應標頭
// 訪客也會拿到會話 ID，待辦交棒槽與對話狀態才有鍵可用。
func EnsureSessionID(c *gin.Context) string {
	sessionID := c.GetHeader("X-Session-ID")
	if sessionID == "" {
		sessionID = common.GenerateUUID()
	}
	c.Header("X-Session-ID", sessionID)
	return sessionID
}

// RequestID 從標頭取得請求 ID，缺少時發新的並回寫
func RequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = common.GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}
	return requestID
}
