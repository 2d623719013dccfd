package session

import (
	"context"
	"fmt"
	"time"

	"recipe-chat-gateway/internal/pkg/common"

	"go.uber.org/zap"
)

// 待辦交棒槽的名稱，每個槽同時最多存放一筆
const (
	SlotRecipeData  = "pending_recipe_data"  // 表單快照，等待登入
	SlotChatContext = "pending_chat_context" // 對話快照，等待登入
)

// Outbox 單筆待辦交棒槽
// 產生動作被登入中斷時寫入，登入成功後讀取並刪除恰好一次；
// 重新整理或重複登入在第二次消費時會找不到資料，不會重放產生請求。
// 刻意不做成佇列，單一具名槽就是正確的模型。
type Outbox struct {
	store Store
	ttl   time.Duration
}

// NewOutbox 創建待辦交棒槽
func NewOutbox(store Store, ttl time.Duration) *Outbox {
	return &Outbox{
		store: store,
		ttl:   ttl,
	}
}

// slotKey 交棒槽在存放區中的鍵
func slotKey(sessionID, slot string) string {
	return fmt.Sprintf("outbox:%s:%s", slot, sessionID)
}

// Put 寫入待辦資料，覆蓋同槽既有內容
func (o *Outbox) Put(ctx context.Context, sessionID, slot string, v interface{}) error {
	data, err := common.ToJSON(v)
	if err != nil {
		return fmt.Errorf("failed to serialize pending request: %w", err)
	}

	if err := o.store.Set(ctx, slotKey(sessionID, slot), data, o.ttl); err != nil {
		return fmt.Errorf("failed to store pending request: %w", err)
	}

	common.LogInfo("待辦產生請求已存入",
		zap.String("session_id", sessionID),
		zap.String("slot", slot),
	)
	return nil
}

// Consume 讀取並刪除待辦資料
// 回傳 false 代表槽是空的；讀取與刪除是單一操作，保證至多消費一次。
func (o *Outbox) Consume(ctx context.Context, sessionID, slot string, v interface{}) (bool, error) {
	data, err := o.store.GetDel(ctx, slotKey(sessionID, slot))
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to consume pending request: %w", err)
	}

	if err := common.ParseJSON(data, v); err != nil {
		return false, fmt.Errorf("failed to parse pending request: %w", err)
	}

	common.LogInfo("待辦產生請求已取出",
		zap.String("session_id", sessionID),
		zap.String("slot", slot),
	)
	return true, nil
}
