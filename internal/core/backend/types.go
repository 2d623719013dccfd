package backend

import (
	"encoding/json"

	"recipe-chat-gateway/internal/pkg/common"
)

// StatusSuccess 後端回應的成功狀態
const StatusSuccess = "success"

// TurnRequest 送往對話端點的單輪請求
type TurnRequest struct {
	UserID        string               `json:"user_id"`
	Message       string               `json:"message"`
	ChatHistory   []common.Turn        `json:"chat_history"`
	CollectedData common.CollectedData `json:"collected_data"`
}

// TurnResponse 對話端點的回應
// data 欄位的巢狀形狀在不同調用點並不一致，保留原始 JSON 交給 ExtractRecipes 處理。
type TurnResponse struct {
	Status        string               `json:"status"`
	Message       string               `json:"message"`
	CollectedData common.CollectedData `json:"collected_data"`
	Data          json.RawMessage      `json:"data,omitempty"`
}

// GenerateResponse 產生端點的回應
type GenerateResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// LoginRequest 登入請求
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse 登入回應
type LoginResponse struct {
	Status   string `json:"status"`
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// RegisterRequest 註冊請求
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// RegisterResponse 註冊回應
type RegisterResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}
