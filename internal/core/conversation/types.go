package conversation

import (
	"recipe-chat-gateway/internal/pkg/common"
)

// Intent 顯示訊息對應的 UI 意圖
type Intent string

const (
	IntentText            Intent = "text"             // 一般文字泡泡
	IntentCuisineSelector Intent = "cuisine-selector" // 提供菜系快速選擇按鈕
	IntentFinalAction     Intent = "final-action"     // 提供「產生食譜」確認控制項
	IntentPlanSummary     Intent = "plan-summary"     // 以摘要卡片呈現
)

// 顯示訊息的發送方
const (
	SenderBot  = "bot"
	SenderUser = "user"
)

// DisplayMessage UI 端顯示的訊息投影，僅存在於本地，不會送往後端
type DisplayMessage struct {
	ID      string `json:"id"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
	Intent  Intent `json:"intent"`
}

// NewDisplayMessage 創建顯示訊息
func NewDisplayMessage(sender, content string, intent Intent) DisplayMessage {
	return DisplayMessage{
		ID:      common.GenerateUUID(),
		Sender:  sender,
		Content: content,
		Intent:  intent,
	}
}

// FallbackReply 單輪失敗時的固定道歉回覆
// 失敗的一輪不寫入 chat_history，後端不會看到它沒處理過的輪次。
const FallbackReply = "I'm sorry, something went wrong while processing your message. Please try again."
