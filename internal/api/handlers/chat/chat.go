package chat

import (
	"net/http"

	"recipe-chat-gateway/internal/api/handlers"
	"recipe-chat-gateway/internal/core/conversation"
	"recipe-chat-gateway/internal/core/generation"
	"recipe-chat-gateway/internal/core/session"
	"recipe-chat-gateway/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MessageRequest 送出訊息的請求
type MessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// CuisineRequest 快速選擇菜系的請求
type CuisineRequest struct {
	Cuisine string `json:"cuisine" binding:"required"`
}

// Handler 對話處理程序
type Handler struct {
	controller *conversation.Controller
	sessions   *session.Manager
	handoff    *generation.Handoff
}

// NewHandler 創建對話處理程序
func NewHandler(controller *conversation.Controller, sessions *session.Manager, handoff *generation.Handoff) *Handler {
	return &Handler{
		controller: controller,
		sessions:   sessions,
		handoff:    handoff,
	}
}

// submit 共用的單輪處理
func (h *Handler) submit(c *gin.Context, text string) {
	requestID := handlers.RequestID(c)
	sessionID := handlers.EnsureSessionID(c)
	userID := h.sessions.ResolveUserID(c.Request.Context(), sessionID)

	outcome, err := h.controller.SubmitMessage(c.Request.Context(), sessionID, userID, text)
	if err != nil {
		if ce, ok := common.AsCustomError(err); ok {
			c.JSON(ce.Status, gin.H{"error": ce.Message, "code": ce.Code})
			return
		}
		common.LogError("對話輪次處理失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": common.ErrInternalError.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"reset":   outcome.Reset,
		"recipes": outcome.Recipes,
		"message": outcome.Message,
	})
}

// HandleMessage 處理使用者輸入的訊息
func (h *Handler) HandleMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	h.submit(c, req.Message)
}

// HandleCuisine 處理菜系快速選擇，等同輸入菜系名稱
func (h *Handler) HandleCuisine(c *gin.Context) {
	var req CuisineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	h.submit(c, req.Cuisine)
}

// HandleReset 使用者離開對話流程，主動清空狀態
func (h *Handler) HandleReset(c *gin.Context) {
	sessionID := handlers.EnsureSessionID(c)
	h.controller.Reset(sessionID)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// HandleMessages 取得目前的顯示訊息
func (h *Handler) HandleMessages(c *gin.Context) {
	sessionID := handlers.EnsureSessionID(c)
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"messages": h.controller.Messages(sessionID),
	})
}

// HandleConfirm 使用者接受「產生食譜」確認控制項
// 已登入：回傳 waiting_for_recipes 交棒內容，由結果頁執行實際產生；
// 訪客：請求存入待辦槽並要求登入。
func (h *Handler) HandleConfirm(c *gin.Context) {
	requestID := handlers.RequestID(c)
	sessionID := handlers.EnsureSessionID(c)

	_, err := h.sessions.Current(c.Request.Context(), sessionID)
	authenticated := err == nil
	userID := common.GuestUserID
	if authenticated {
		userID = h.sessions.ResolveUserID(c.Request.Context(), sessionID)
	}

	history, collected := h.controller.Snapshot(sessionID)
	cc := &generation.ChatContext{
		UserID:        userID,
		Message:       generation.GenerateNowMessage,
		ChatHistory:   history,
		CollectedData: collected,
	}

	result, err := h.handoff.Confirm(c.Request.Context(), sessionID, authenticated, cc)
	if err != nil {
		common.LogError("產生確認處理失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": common.ErrInternalError.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"result": result,
	})
}
