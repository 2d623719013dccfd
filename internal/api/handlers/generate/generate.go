package generate

import (
	"net/http"

	"recipe-chat-gateway/internal/api/handlers"
	"recipe-chat-gateway/internal/core/generation"
	"recipe-chat-gateway/internal/core/session"
	"recipe-chat-gateway/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DirectRequest 表單路徑的產生請求
type DirectRequest struct {
	Ingredients       []common.IngredientItem `json:"ingredients" binding:"required"`
	CuisinePreference string                  `json:"cuisine_preference" binding:"required"`
	NumberOfPeople    int                     `json:"number_of_people" binding:"required"`
	CookingTime       string                  `json:"cooking_time" binding:"required"`
	CookingPreference string                  `json:"cooking_preference"`
}

// FromChatRequest 結果頁掛載後以 chat context 執行產生的請求
type FromChatRequest struct {
	ChatContext generation.ChatContext `json:"chat_context" binding:"required"`
}

// Handler 產生處理程序
type Handler struct {
	handoff  *generation.Handoff
	sessions *session.Manager
}

// NewHandler 創建產生處理程序
func NewHandler(handoff *generation.Handoff, sessions *session.Manager) *Handler {
	return &Handler{
		handoff:  handoff,
		sessions: sessions,
	}
}

// writeGenerationError 統一映射產生錯誤
// 已儲存衝突回報為提示訊息，其他失敗維持可重試的錯誤語意。
func writeGenerationError(c *gin.Context, err error) {
	if ce, ok := common.AsCustomError(err); ok {
		if ce == common.ErrAlreadySaved {
			c.JSON(ce.Status, gin.H{
				"status":  "info",
				"message": ce.Message,
				"code":    ce.Code,
			})
			return
		}
		c.JSON(ce.Status, gin.H{"error": ce.Message, "code": ce.Code})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": common.ErrGenerationFailed.Message, "code": "GENERATION_FAILED"})
}

// HandleDirect 表單路徑：同步產生
// 訪客觸發時先把表單快照存入待辦槽，登入後由登入流程補發。
func (h *Handler) HandleDirect(c *gin.Context) {
	requestID := handlers.RequestID(c)
	sessionID := handlers.EnsureSessionID(c)

	var req DirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	genReq := &common.GenerationRequest{
		Ingredients:       req.Ingredients,
		CuisinePreference: req.CuisinePreference,
		NumberOfPeople:    req.NumberOfPeople,
		CookingTime:       req.CookingTime,
		CookingPreference: req.CookingPreference,
	}

	if _, err := h.sessions.Current(c.Request.Context(), sessionID); err != nil {
		if err := h.handoff.SaveDirectPending(c.Request.Context(), sessionID, genReq); err != nil {
			common.LogError("表單快照存入失敗",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": common.ErrInternalError.Message})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{
			"status":         "login_required",
			"login_required": true,
		})
		return
	}

	recipes, err := h.handoff.GenerateDirect(c.Request.Context(), genReq)
	if err != nil {
		common.LogError("表單產生失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		writeGenerationError(c, err)
		return
	}

	common.LogInfo("表單產生成功",
		zap.String("request_id", requestID),
		zap.Int("食譜數", len(recipes)),
	)
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"recipes": recipes},
	})
}

// HandleFromChat 結果頁掛載後的實際產生調用
func (h *Handler) HandleFromChat(c *gin.Context) {
	requestID := handlers.RequestID(c)
	sessionID := handlers.EnsureSessionID(c)

	var req FromChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	// 身分以閘道側會話為準
	cc := req.ChatContext
	cc.UserID = h.sessions.ResolveUserID(c.Request.Context(), sessionID)

	recipes, err := h.handoff.GenerateFromChat(c.Request.Context(), &cc)
	if err != nil {
		common.LogError("對話產生失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		writeGenerationError(c, err)
		return
	}

	common.LogInfo("對話產生成功",
		zap.String("request_id", requestID),
		zap.Int("食譜數", len(recipes)),
	)
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"recipes": recipes},
	})
}
