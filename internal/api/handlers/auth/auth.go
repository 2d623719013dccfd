package auth

import (
	"net/http"
	"time"

	"recipe-chat-gateway/internal/api/handlers"
	"recipe-chat-gateway/internal/core/backend"
	"recipe-chat-gateway/internal/core/generation"
	"recipe-chat-gateway/internal/core/session"
	"recipe-chat-gateway/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoginRequest 登入請求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest 註冊請求
type RegisterRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// Handler 身分處理程序
type Handler struct {
	backend  *backend.Client
	sessions *session.Manager
	handoff  *generation.Handoff
}

// NewHandler 創建身分處理程序
func NewHandler(b *backend.Client, sessions *session.Manager, handoff *generation.Handoff) *Handler {
	return &Handler{
		backend:  b,
		sessions: sessions,
		handoff:  handoff,
	}
}

// HandleLogin 代理登入並消費待辦產生請求
// 登入成功後檢查待辦槽：有資料就取出（恰好一次）並補發產生；
// 產生失敗不影響登入結果，只回報 generation_failed。
func (h *Handler) HandleLogin(c *gin.Context) {
	requestID := handlers.RequestID(c)
	sessionID := handlers.EnsureSessionID(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	resp, err := h.backend.Login(c.Request.Context(), &backend.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		common.LogError("登入代理失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(common.ErrBackendUnavailable.Status, gin.H{
			"error": common.ErrBackendUnavailable.Message,
			"code":  "BACKEND_UNAVAILABLE",
		})
		return
	}

	if resp.Status != backend.StatusSuccess {
		c.JSON(http.StatusUnauthorized, gin.H{
			"status":  resp.Status,
			"message": resp.Message,
		})
		return
	}

	// token 與時間戳留在閘道側，前端只拿會話 ID
	if err := h.sessions.Init(c.Request.Context(), sessionID, session.Session{
		UserID:   resp.UserID,
		Username: resp.Username,
		Token:    resp.Token,
		LoginAt:  time.Now(),
	}); err != nil {
		common.LogError("會話建立失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": common.ErrInternalError.Message})
		return
	}

	pending, err := h.handoff.ConsumePending(c.Request.Context(), sessionID, resp.UserID)
	if err != nil {
		common.LogError("待辦產生請求消費失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		// 登入本身已成功，照常回應
		pending = &generation.PendingResult{Found: false}
	}

	body := gin.H{
		"status":     "success",
		"user_id":    resp.UserID,
		"username":   resp.Username,
		"session_id": sessionID,
	}
	if pending.Found {
		if pending.GenerationFailed {
			body["generation_failed"] = true
		} else {
			body["recipes"] = pending.Recipes
		}
	}

	common.LogInfo("登入成功",
		zap.String("user_id", resp.UserID),
		zap.Bool("pending_consumed", pending.Found),
	)
	c.JSON(http.StatusOK, body)
}

// HandleRegister 代理註冊
func (h *Handler) HandleRegister(c *gin.Context) {
	requestID := handlers.RequestID(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	resp, err := h.backend.Register(c.Request.Context(), &backend.RegisterRequest{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		common.LogError("註冊代理失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(common.ErrBackendUnavailable.Status, gin.H{
			"error": common.ErrBackendUnavailable.Message,
			"code":  "BACKEND_UNAVAILABLE",
		})
		return
	}

	status := http.StatusOK
	if resp.Status != backend.StatusSuccess {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"status":  resp.Status,
		"message": resp.Message,
		"user_id": resp.UserID,
	})
}

// HandleLogout 登出並清除會話
func (h *Handler) HandleLogout(c *gin.Context) {
	sessionID := handlers.EnsureSessionID(c)
	if err := h.sessions.Teardown(c.Request.Context(), sessionID); err != nil {
		common.LogError("會話清除失敗", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": common.ErrInternalError.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// HandleSession 查詢會話狀態，供前端輪詢登入是否仍有效
func (h *Handler) HandleSession(c *gin.Context) {
	sessionID := handlers.EnsureSessionID(c)

	sess, err := h.sessions.Current(c.Request.Context(), sessionID)
	if err != nil {
		body := gin.H{
			"authenticated": false,
			"session_id":    sessionID,
		}
		if err == common.ErrSessionExpired {
			body["code"] = "SESSION_EXPIRED"
		}
		c.JSON(http.StatusOK, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"session_id":    sessionID,
		"user_id":       sess.UserID,
		"username":      sess.Username,
		"login_at":      sess.LoginAt,
	})
}
