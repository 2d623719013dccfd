package conversation

import (
	"sync"
	"time"

	"recipe-chat-gateway/internal/infrastructure/config"
	"recipe-chat-gateway/internal/pkg/common"

	"go.uber.org/zap"
)

// state 單一會話的對話狀態
// History 與 Collected 由控制器在一輪成功後一起更新；Messages 是 UI 投影，
// 失敗輪次只會動 Messages，不會動 History/Collected。
type state struct {
	history       []common.Turn
	collected     common.CollectedData
	messages      []DisplayMessage
	awaitingReply bool
	lastActive    time.Time
}

// storeStats 對話存放區統計
type storeStats struct {
	created int64
	expired int64
	evicted int64
}

// Store 以會話 ID 為鍵的對話存放區
// 單一寫入者由 awaitingReply 旗標保證；閒置對話由清理協程回收，
// 對應「使用者離開畫面後，遲到的回應無人接收」的行為。
type Store struct {
	config *config.Config
	mu     sync.RWMutex
	states map[string]*state
	stats  storeStats
	done   chan struct{}
}

// NewStore 創建對話存放區
func NewStore(cfg *config.Config) *Store {
	s := &Store{
		config: cfg,
		states: make(map[string]*state),
		done:   make(chan struct{}),
	}

	// 啟動清理閒置對話的協程
	go s.startCleanup()

	common.LogInfo("對話存放區已初始化",
		zap.Duration("存活時間", cfg.Conversation.TTL),
		zap.Duration("清理間隔", cfg.Conversation.CleanupInterval),
		zap.Int("最大會話數", cfg.Conversation.MaxConversations),
	)

	return s
}

// get 取得或建立對話狀態，調用端須持有鎖
func (s *Store) get(sessionID string) *state {
	st, ok := s.states[sessionID]
	if !ok {
		st = &state{
			history:   []common.Turn{},
			collected: common.CollectedData{},
		}
		s.states[sessionID] = st
		s.stats.created++
	}
	st.lastActive = time.Now()
	return st
}

// BeginTurn 標記一輪開始並回傳送往後端用的快照
// 同一會話已有在途輪次時回傳 ErrTurnInFlight，這是唯一的併發防護：
// 防止第二次送出覆蓋到前一輪尚未落地的 history/collected。
// 樂觀附加的使用者泡泡也在這裡寫入，先於網路請求完成。
func (s *Store) BeginTurn(sessionID string, userMsg DisplayMessage) ([]common.Turn, common.CollectedData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(sessionID)
	if st.awaitingReply {
		return nil, nil, common.ErrTurnInFlight
	}
	st.awaitingReply = true
	st.messages = append(st.messages, userMsg)

	history := make([]common.Turn, len(st.history))
	copy(history, st.history)
	collected := make(common.CollectedData, len(st.collected))
	for k, v := range st.collected {
		collected[k] = v
	}
	return history, collected, nil
}

// EndTurn 清除在途旗標，成功、短路、失敗路徑都必須執行
func (s *Store) EndTurn(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.states[sessionID]; ok {
		st.awaitingReply = false
	}
}

// ApplyTurn 套用一輪成功的結果
// 使用者與助理兩輪一起進 history；collected 整份取代後端回傳值。
func (s *Store) ApplyTurn(sessionID string, userTurn, assistantTurn common.Turn, assistantMsg DisplayMessage, collected common.CollectedData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(sessionID)
	st.history = append(st.history, userTurn, assistantTurn)
	if collected == nil {
		collected = common.CollectedData{}
	}
	st.collected = collected
	st.messages = append(st.messages, assistantMsg)
}

// ApplyReset 套用後端宣告的重置：清空全部狀態，只留一則新的助理訊息
func (s *Store) ApplyReset(sessionID string, freshMsg DisplayMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(sessionID)
	st.history = []common.Turn{}
	st.collected = common.CollectedData{}
	st.messages = []DisplayMessage{freshMsg}
}

// AppendFailure 失敗輪次只附加固定道歉泡泡，history/collected 不動
func (s *Store) AppendFailure(sessionID string, fallback DisplayMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(sessionID)
	st.messages = append(st.messages, fallback)
}

// Reset 使用者離開對話流程時的主動清空
func (s *Store) Reset(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, sessionID)
}

// Snapshot 取得目前的 history 與 collected 副本
func (s *Store) Snapshot(sessionID string) ([]common.Turn, common.CollectedData) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[sessionID]
	if !ok {
		return []common.Turn{}, common.CollectedData{}
	}
	history := make([]common.Turn, len(st.history))
	copy(history, st.history)
	collected := make(common.CollectedData, len(st.collected))
	for k, v := range st.collected {
		collected[k] = v
	}
	return history, collected
}

// Messages 取得目前的顯示訊息副本
func (s *Store) Messages(sessionID string) []DisplayMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[sessionID]
	if !ok {
		return []DisplayMessage{}
	}
	messages := make([]DisplayMessage, len(st.messages))
	copy(messages, st.messages)
	return messages
}

// startCleanup 啟動清理閒置對話的協程
func (s *Store) startCleanup() {
	ticker := time.NewTicker(s.config.Conversation.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

// cleanup 回收超過 TTL 的閒置對話
func (s *Store) cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	count := 0
	for id, st := range s.states {
		if now.Sub(st.lastActive) > s.config.Conversation.TTL {
			delete(s.states, id)
			count++
			s.stats.expired++
		}
	}

	// 超過上限時淘汰最久未活動的會話
	for len(s.states) > s.config.Conversation.MaxConversations {
		var oldestID string
		var oldest time.Time
		for id, st := range s.states {
			if oldestID == "" || st.lastActive.Before(oldest) {
				oldestID = id
				oldest = st.lastActive
			}
		}
		delete(s.states, oldestID)
		s.stats.evicted++
	}

	if count > 0 {
		common.LogInfo("已回收閒置對話",
			zap.Int("回收數量", count),
			zap.Int("剩餘會話", len(s.states)),
		)
	}

	return count
}

// GetStats 獲取存放區統計信息
func (s *Store) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"active":  len(s.states),
		"created": s.stats.created,
		"expired": s.stats.expired,
		"evicted": s.stats.evicted,
	}
}

// Close 關閉對話存放區
func (s *Store) Close() error {
	close(s.done)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.states = make(map[string]*state)
	common.LogInfo("對話存放區已關閉",
		zap.Int64("累計會話", s.stats.created),
		zap.Int64("逾時回收", s.stats.expired),
	)
	return nil
}
