package conversation

import (
	"context"
	"strings"

	"recipe-chat-gateway/internal/core/backend"
	"recipe-chat-gateway/internal/pkg/common"

	"go.uber.org/zap"
)

// TurnSender 對話後端的抽象，實際實作為 backend.Client
type TurnSender interface {
	SendTurn(ctx context.Context, req *backend.TurnRequest) (*backend.TurnResponse, error)
}

// TurnOutcome 單輪處理結果
// Recipes 非空代表短路交棒到結果頁，本輪不進 chat_history 也沒有新泡泡。
type TurnOutcome struct {
	Reset   bool            `json:"reset,omitempty"`
	Recipes []common.Recipe `json:"recipes,omitempty"`
	Message *DisplayMessage `json:"message,omitempty"`
}

// Controller 對話狀態機：驅動單輪往返並分類結果
type Controller struct {
	store  *Store
	sender TurnSender
}

// NewController 創建對話控制器
func NewController(store *Store, sender TurnSender) *Controller {
	return &Controller{
		store:  store,
		sender: sender,
	}
}

// SubmitMessage 送出一則使用者訊息並處理助理回覆
// 空白訊息與在途輪次皆為 no-op 錯誤；成功回應依「重置 > 食譜短路 > 意圖
// 分類」的優先序處理；失敗只附加固定道歉泡泡，不汙染 history/collected。
func (c *Controller) SubmitMessage(ctx context.Context, sessionID, userID, text string) (*TurnOutcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, common.ErrEmptyMessage
	}

	// 樂觀附加使用者泡泡並取得快照，同一會話同時只允許一輪在途
	userMsg := NewDisplayMessage(SenderUser, text, IntentText)
	history, collected, err := c.store.BeginTurn(sessionID, userMsg)
	if err != nil {
		return nil, err
	}
	// 短路提前 return 時也必須清旗標
	defer c.store.EndTurn(sessionID)

	resp, err := c.sender.SendTurn(ctx, &backend.TurnRequest{
		UserID:        userID,
		Message:       text,
		ChatHistory:   history,
		CollectedData: collected,
	})
	if err != nil || resp.Status != backend.StatusSuccess {
		if err != nil {
			common.LogError("對話輪次失敗",
				zap.Error(err),
				zap.String("session_id", sessionID),
			)
		} else {
			common.LogWarn("後端回報非成功狀態",
				zap.String("status", resp.Status),
				zap.String("session_id", sessionID),
			)
		}
		fallback := NewDisplayMessage(SenderBot, FallbackReply, IntentText)
		c.store.AppendFailure(sessionID, fallback)
		return &TurnOutcome{Message: &fallback}, nil
	}

	// 重置優先於食譜短路與意圖分類
	if IsReset(resp.Message) {
		fresh := NewDisplayMessage(SenderBot, resp.Message, IntentText)
		c.store.ApplyReset(sessionID, fresh)
		common.LogInfo("對話已重置",
			zap.String("session_id", sessionID),
		)
		return &TurnOutcome{Reset: true, Message: &fresh}, nil
	}

	// 食譜短路：直接交棒到結果頁，本輪不落地
	if recipes := backend.ExtractRecipes(resp.Data); len(recipes) > 0 {
		common.LogInfo("對話輪次附帶食譜，交棒到結果頁",
			zap.String("session_id", sessionID),
			zap.Int("食譜數", len(recipes)),
		)
		return &TurnOutcome{Recipes: recipes}, nil
	}

	intent := Classify(resp.Message, resp.CollectedData)
	botMsg := NewDisplayMessage(SenderBot, resp.Message, intent)
	c.store.ApplyTurn(sessionID,
		common.Turn{Role: common.RoleUser, Content: text},
		common.Turn{Role: common.RoleAssistant, Content: resp.Message},
		botMsg,
		resp.CollectedData,
	)

	return &TurnOutcome{Message: &botMsg}, nil
}

// SelectCuisine 快速選擇菜系，等同使用者直接輸入菜系名稱
func (c *Controller) SelectCuisine(ctx context.Context, sessionID, userID, name string) (*TurnOutcome, error) {
	return c.SubmitMessage(ctx, sessionID, userID, name)
}

// Reset 使用者離開對話流程時的主動清空
func (c *Controller) Reset(sessionID string) {
	c.store.Reset(sessionID)
}

// Messages 取得目前的顯示訊息
func (c *Controller) Messages(sessionID string) []DisplayMessage {
	return c.store.Messages(sessionID)
}

// Snapshot 取得目前的 history 與 collected 副本，供產生交棒使用
func (c *Controller) Snapshot(sessionID string) ([]common.Turn, common.CollectedData) {
	return c.store.Snapshot(sessionID)
}
