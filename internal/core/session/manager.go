package session

import (
	"context"
	"fmt"
	"time"

	"recipe-chat-gateway/internal/infrastructure/config"
	"recipe-chat-gateway/internal/pkg/common"

	"go.uber.org/zap"
)

// Session 已登入的會話狀態
type Session struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Token    string    `json:"token"`
	LoginAt  time.Time `json:"login_at"`
}

// Manager 管理 token 會話的生命週期：Init、定期有效性檢查、Teardown
// token 與登入時間戳保存在 Store 中，不暴露給前端；
// 身分解析在沒有有效會話時退回 guest_user。
type Manager struct {
	config *config.Config
	store  Store
}

// NewManager 創建會話管理器
func NewManager(cfg *config.Config, store Store) *Manager {
	return &Manager{
		config: cfg,
		store:  store,
	}
}

// sessionKey 會話在存放區中的鍵
func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Init 登入成功後建立會話
func (m *Manager) Init(ctx context.Context, sessionID string, sess Session) error {
	if sess.LoginAt.IsZero() {
		sess.LoginAt = time.Now()
	}

	data, err := common.ToJSON(sess)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	if err := m.store.Set(ctx, sessionKey(sessionID), data, m.config.Session.TTL); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	common.LogInfo("會話已建立",
		zap.String("session_id", sessionID),
		zap.String("user_id", sess.UserID),
		zap.Duration("有效期", m.config.Session.TTL),
	)
	return nil
}

// Current 取得目前會話
// 除了存放區的 TTL 之外，這裡再依登入時間戳比對一次有效期；
// 超過時強制登出並回傳 ErrSessionExpired。
func (m *Manager) Current(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrNotFound
	}

	data, err := m.store.Get(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := common.ParseJSON(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}

	if time.Since(sess.LoginAt) > m.config.Session.TTL {
		_ = m.Teardown(ctx, sessionID)
		common.LogInfo("會話已過期，強制登出",
			zap.String("session_id", sessionID),
			zap.String("user_id", sess.UserID),
		)
		return nil, common.ErrSessionExpired
	}

	return &sess, nil
}

// ResolveUserID 解析當前身分，沒有有效會話時為 guest_user
func (m *Manager) ResolveUserID(ctx context.Context, sessionID string) string {
	sess, err := m.Current(ctx, sessionID)
	if err != nil {
		return common.GuestUserID
	}
	return sess.UserID
}

// Teardown 登出時清除會話
func (m *Manager) Teardown(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionKey(sessionID))
}
