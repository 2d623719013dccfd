package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"recipe-chat-gateway/internal/infrastructure/config"
	"recipe-chat-gateway/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client 遠端食譜後端的 HTTP 客戶端
// 對上層而言是不透明的請求/回應協作者，端點路徑由設定決定。
type Client struct {
	config *config.Config
	client *resty.Client
}

// NewClient 創建後端客戶端
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.Backend.BaseURL).
		SetTimeout(cfg.Backend.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Client-Name", cfg.App.Name)

	return &Client{
		config: cfg,
		client: client,
	}
}

// post 發送請求並解析回應，非 200 視為傳輸層失敗
func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	start := time.Now()

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)

	common.LogBackendCall(path, time.Since(start), err, "")

	if err != nil {
		return fmt.Errorf("failed to send request to backend: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogError("後端回傳錯誤狀態",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("path", path),
		)
		return fmt.Errorf("backend returned status %d", resp.StatusCode())
	}

	if err := common.ParseJSONBytes(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse backend response: %w", err)
	}

	return nil
}

// SendTurn 送出一輪對話
func (c *Client) SendTurn(ctx context.Context, req *TurnRequest) (*TurnResponse, error) {
	// chat_history 與 collected_data 以 null 送出會被後端當成缺欄位
	if req.ChatHistory == nil {
		req.ChatHistory = []common.Turn{}
	}
	if req.CollectedData == nil {
		req.CollectedData = common.CollectedData{}
	}

	var out TurnResponse
	if err := c.post(ctx, c.config.Backend.ChatPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateRecipes 以表單內容同步產生食譜
func (c *Client) GenerateRecipes(ctx context.Context, req *common.GenerationRequest) (*GenerateResponse, error) {
	var out GenerateResponse
	if err := c.post(ctx, c.config.Backend.GeneratePath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login 代理登入
func (c *Client) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.post(ctx, c.config.Backend.LoginPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register 代理註冊
func (c *Client) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.post(ctx, c.config.Backend.RegisterPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
