package generation

import (
	"context"
	"strings"

	"recipe-chat-gateway/internal/core/backend"
	"recipe-chat-gateway/internal/core/session"
	"recipe-chat-gateway/internal/pkg/common"

	"go.uber.org/zap"
)

// GenerateNowMessage 對話路徑觸發產生時送出的固定訊息
const GenerateNowMessage = "generate now"

// Backend 產生交棒需要的後端操作
type Backend interface {
	SendTurn(ctx context.Context, req *backend.TurnRequest) (*backend.TurnResponse, error)
	GenerateRecipes(ctx context.Context, req *common.GenerationRequest) (*backend.GenerateResponse, error)
}

// ChatContext 從對話交棒到結果頁的產生請求內容
type ChatContext struct {
	UserID        string               `json:"user_id"`
	Message       string               `json:"message"`
	ChatHistory   []common.Turn        `json:"chat_history"`
	CollectedData common.CollectedData `json:"collected_data"`
}

// ConfirmResult 使用者接受 final-action 後回傳給前端的內容
// 已登入時帶 waiting_for_recipes 與 chat_context，結果頁掛載後再執行實際
// 產生，讀取中狀態因此落在目的頁而不是對話頁；訪客改走登入流程。
type ConfirmResult struct {
	LoginRequired     bool         `json:"login_required,omitempty"`
	WaitingForRecipes bool         `json:"waiting_for_recipes,omitempty"`
	ChatContext       *ChatContext `json:"chat_context,omitempty"`
}

// PendingResult 登入後消費待辦槽的結果
type PendingResult struct {
	Found            bool            `json:"found"`
	Recipes          []common.Recipe `json:"recipes,omitempty"`
	GenerationFailed bool            `json:"generation_failed,omitempty"`
}

// Handoff 產生交棒：表單直送、對話確認、登入後補發
type Handoff struct {
	backend Backend
	outbox  *session.Outbox
}

// NewHandoff 創建產生交棒服務
func NewHandoff(b Backend, outbox *session.Outbox) *Handoff {
	return &Handoff{
		backend: b,
		outbox:  outbox,
	}
}

// GenerateDirect 表單路徑：同步產生，失敗由呼叫端顯示錯誤後重試
func (h *Handoff) GenerateDirect(ctx context.Context, req *common.GenerationRequest) ([]common.Recipe, error) {
	resp, err := h.backend.GenerateRecipes(ctx, req)
	if err != nil {
		return nil, common.NewError("GENERATION_FAILED", "食譜產生失敗", common.ErrGenerationFailed.Status, err)
	}

	if resp.Status != backend.StatusSuccess {
		// 已儲存過的衝突視為提示訊息而非錯誤
		if isConflictMessage(resp.Message) {
			return nil, common.ErrAlreadySaved
		}
		common.LogWarn("產生端點回報失敗",
			zap.String("status", resp.Status),
			zap.String("message", resp.Message),
		)
		return nil, common.ErrGenerationFailed
	}

	recipes := backend.ExtractRecipes(resp.Data)
	if len(recipes) == 0 {
		return nil, common.ErrGenerationFailed
	}
	return recipes, nil
}

// GenerateFromChat 結果頁掛載時以 chat context 執行實際產生
func (h *Handoff) GenerateFromChat(ctx context.Context, cc *ChatContext) ([]common.Recipe, error) {
	if cc.Message == "" {
		cc.Message = GenerateNowMessage
	}

	resp, err := h.backend.SendTurn(ctx, &backend.TurnRequest{
		UserID:        cc.UserID,
		Message:       cc.Message,
		ChatHistory:   cc.ChatHistory,
		CollectedData: cc.CollectedData,
	})
	if err != nil {
		return nil, common.NewError("GENERATION_FAILED", "食譜產生失敗", common.ErrGenerationFailed.Status, err)
	}
	if resp.Status != backend.StatusSuccess {
		return nil, common.ErrGenerationFailed
	}

	recipes := backend.ExtractRecipes(resp.Data)
	if len(recipes) == 0 {
		return nil, common.ErrGenerationFailed
	}
	return recipes, nil
}

// Confirm 使用者接受 final-action 控制項
// 已登入直接交棒；訪客把請求存入待辦槽並要求登入。
func (h *Handoff) Confirm(ctx context.Context, sessionID string, authenticated bool, cc *ChatContext) (*ConfirmResult, error) {
	if cc.Message == "" {
		cc.Message = GenerateNowMessage
	}

	if !authenticated {
		if err := h.outbox.Put(ctx, sessionID, session.SlotChatContext, cc); err != nil {
			return nil, err
		}
		return &ConfirmResult{LoginRequired: true}, nil
	}

	return &ConfirmResult{WaitingForRecipes: true, ChatContext: cc}, nil
}

// SaveDirectPending 訪客在表單路徑觸發產生時，先存快照再要求登入
func (h *Handoff) SaveDirectPending(ctx context.Context, sessionID string, req *common.GenerationRequest) error {
	return h.outbox.Put(ctx, sessionID, session.SlotRecipeData, req)
}

// ConsumePending 登入成功後檢查並消費待辦槽
// 讀取後即刪除，至多執行一次產生；產生失敗仍完成登入，只回報
// generation_failed 提示。兩個槽都空時回傳 Found=false。
func (h *Handoff) ConsumePending(ctx context.Context, sessionID, userID string) (*PendingResult, error) {
	// 對話快照優先
	var cc ChatContext
	found, err := h.outbox.Consume(ctx, sessionID, session.SlotChatContext, &cc)
	if err != nil {
		return nil, err
	}
	if found {
		// 以登入後的身分補發
		cc.UserID = userID
		recipes, genErr := h.GenerateFromChat(ctx, &cc)
		if genErr != nil {
			common.LogWarn("登入後補發產生失敗",
				zap.Error(genErr),
				zap.String("session_id", sessionID),
			)
			return &PendingResult{Found: true, GenerationFailed: true}, nil
		}
		return &PendingResult{Found: true, Recipes: recipes}, nil
	}

	var req common.GenerationRequest
	found, err = h.outbox.Consume(ctx, sessionID, session.SlotRecipeData, &req)
	if err != nil {
		return nil, err
	}
	if found {
		recipes, genErr := h.GenerateDirect(ctx, &req)
		if genErr != nil {
			common.LogWarn("登入後補發產生失敗",
				zap.Error(genErr),
				zap.String("session_id", sessionID),
			)
			return &PendingResult{Found: true, GenerationFailed: true}, nil
		}
		return &PendingResult{Found: true, Recipes: recipes}, nil
	}

	return &PendingResult{Found: false}, nil
}

// isConflictMessage 判斷後端訊息是否屬於「已儲存過」這類衝突
func isConflictMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "already saved") || strings.Contains(lower, "already exists")
}
