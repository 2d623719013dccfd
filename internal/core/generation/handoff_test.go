package generation

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"recipe-chat-gateway/internal/core/backend"
	"recipe-chat-gateway/internal/core/session"
	"recipe-chat-gateway/internal/pkg/common"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

// fakeBackend 可注入回應的假後端
type fakeBackend struct {
	sendTurn func(ctx context.Context, req *backend.TurnRequest) (*backend.TurnResponse, error)
	generate func(ctx context.Context, req *common.GenerationRequest) (*backend.GenerateResponse, error)
}

func (f *fakeBackend) SendTurn(ctx context.Context, req *backend.TurnRequest) (*backend.TurnResponse, error) {
	return f.sendTurn(ctx, req)
}

func (f *fakeBackend) GenerateRecipes(ctx context.Context, req *common.GenerationRequest) (*backend.GenerateResponse, error) {
	return f.generate(ctx, req)
}

func testOutbox(t *testing.T) *session.Outbox {
	t.Helper()
	store := session.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	return session.NewOutbox(store, time.Hour)
}

func recipePayload() json.RawMessage {
	return json.RawMessage(`{"recipes":[{"menu_name":"蛋炒飯"}]}`)
}

func TestGenerateDirect_Success(t *testing.T) {
	h := NewHandoff(&fakeBackend{
		generate: func(ctx context.Context, req *common.GenerationRequest) (*backend.GenerateResponse, error) {
			return &backend.GenerateResponse{Status: backend.StatusSuccess, Data: recipePayload()}, nil
		},
	}, testOutbox(t))

	recipes, err := h.GenerateDirect(context.Background(), &common.GenerationRequest{CuisinePreference: "Thai"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recipes) != 1 || recipes[0].MenuName != "蛋炒飯" {
		t.Fatalf("unexpected recipes: %+v", recipes)
	}
}

func TestGenerateDirect_AlreadySavedConflict(t *testing.T) {
	h := NewHandoff(&fakeBackend{
		generate: func(ctx context.Context, req *common.GenerationRequest) (*backend.GenerateResponse, error) {
			return &backend.GenerateResponse{Status: "error", Message: "recipe already saved"}, nil
		},
	}, testOutbox(t))

	_, err := h.GenerateDirect(context.Background(), &common.GenerationRequest{})
	if err != common.ErrAlreadySaved {
		t.Fatalf("got %v, want ErrAlreadySaved", err)
	}
}

func TestGenerateDirect_BackendFailure(t *testing.T) {
	h := NewHandoff(&fakeBackend{
		generate: func(ctx context.Context, req *common.GenerationRequest) (*backend.GenerateResponse, error) {
			return nil, errors.New("connection refused")
		},
	}, testOutbox(t))

	_, err := h.GenerateDirect(context.Background(), &common.GenerationRequest{})
	ce, ok := common.AsCustomError(err)
	if !ok || ce.Code != "GENERATION_FAILED" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGenerateFromChat_DefaultsTriggerMessage(t *testing.T) {
	var got *backend.TurnRequest
	h := NewHandoff(&fakeBackend{
		sendTurn: func(ctx context.Context, req *backend.TurnRequest) (*backend.TurnResponse, error) {
			got = req
			return &backend.TurnResponse{Status: backend.StatusSuccess, Data: recipePayload()}, nil
		},
	}, testOutbox(t))

	cc := &ChatContext{
		UserID:      "u1",
		ChatHistory: []common.Turn{{Role: common.RoleUser, Content: "hi"}},
	}
	recipes, err := h.GenerateFromChat(context.Background(), cc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recipes) != 1 {
		t.Fatalf("unexpected recipes: %+v", recipes)
	}
	if got.Message != GenerateNowMessage {
		t.Fatalf("trigger message: got %q, want %q", got.Message, GenerateNowMessage)
	}
	if got.UserID != "u1" || len(got.ChatHistory) != 1 {
		t.Fatalf("chat context not forwarded: %+v", got)
	}
}

func TestConfirm_AuthenticatedHandsOffToResultsView(t *testing.T) {
	h := NewHandoff(&fakeBackend{}, testOutbox(t))

	res, err := h.Confirm(context.Background(), "s1", true, &ChatContext{UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.WaitingForRecipes || res.LoginRequired {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.ChatContext == nil || res.ChatContext.Message != GenerateNowMessage {
		t.Fatalf("chat context not prepared: %+v", res.ChatContext)
	}
}

func TestConfirm_GuestParksRequestAndAsksForLogin(t *testing.T) {
	outbox := testOutbox(t)
	h := NewHandoff(&fakeBackend{}, outbox)
	ctx := context.Background()

	res, err := h.Confirm(ctx, "s1", false, &ChatContext{UserID: common.GuestUserID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.LoginRequired || res.WaitingForRecipes {
		t.Fatalf("unexpected result: %+v", res)
	}

	var parked ChatContext
	found, err := outbox.Consume(ctx, "s1", session.SlotChatContext, &parked)
	if err != nil || !found {
		t.Fatalf("chat context not parked: found=%v err=%v", found, err)
	}
	if parked.Message != GenerateNowMessage {
		t.Fatalf("parked message: got %q", parked.Message)
	}
}

func TestConsumePending_ChatSlotRunsWithLoggedInIdentity(t *testing.T) {
	outbox := testOutbox(t)
	var got *backend.TurnRequest
	h := NewHandoff(&fakeBackend{
		sendTurn: func(ctx context.Context, req *backend.TurnRequest) (*backend.TurnResponse, error) {
			got = req
			return &backend.TurnResponse{Status: backend.StatusSuccess, Data: recipePayload()}, nil
		},
	}, outbox)
	ctx := context.Background()

	// 以訪客身分停放的對話快照
	if _, err := h.Confirm(ctx, "s1", false, &ChatContext{UserID: common.GuestUserID}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	res, err := h.ConsumePending(ctx, "s1", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found || res.GenerationFailed || len(res.Recipes) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got.UserID != "u1" {
		t.Fatalf("pending request ran as %q, want logged-in user", got.UserID)
	}

	// 再次登入不會重放
	res, err = h.ConsumePending(ctx, "s1", "u1")
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if res.Found {
		t.Fatalf("pending request consumed twice")
	}
}

func TestConsumePending_RecipeSlot(t *testing.T) {
	outbox := testOutbox(t)
	h := NewHandoff(&fakeBackend{
		generate: func(ctx context.Context, req *common.GenerationRequest) (*backend.GenerateResponse, error) {
			return &backend.GenerateResponse{Status: backend.StatusSuccess, Data: recipePayload()}, nil
		},
	}, outbox)
	ctx := context.Background()

	if err := h.SaveDirectPending(ctx, "s1", &common.GenerationRequest{CuisinePreference: "Thai"}); err != nil {
		t.Fatalf("save pending: %v", err)
	}

	res, err := h.ConsumePending(ctx, "s1", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found || len(res.Recipes) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestConsumePending_GenerationFailureStillConsumes(t *testing.T) {
	outbox := testOutbox(t)
	h := NewHandoff(&fakeBackend{
		generate: func(ctx context.Context, req *common.GenerationRequest) (*backend.GenerateResponse, error) {
			return nil, errors.New("backend down")
		},
	}, outbox)
	ctx := context.Background()

	if err := h.SaveDirectPending(ctx, "s1", &common.GenerationRequest{}); err != nil {
		t.Fatalf("save pending: %v", err)
	}

	// 產生失敗不阻斷登入，只回報 generation_failed
	res, err := h.ConsumePending(ctx, "s1", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found || !res.GenerationFailed {
		t.Fatalf("unexpected result: %+v", res)
	}

	// 失敗的請求也已消費，不會重試
	res, err = h.ConsumePending(ctx, "s1", "u1")
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if res.Found {
		t.Fatalf("failed request was not consumed")
	}
}

func TestConsumePending_NothingParked(t *testing.T) {
	h := NewHandoff(&fakeBackend{}, testOutbox(t))

	res, err := h.ConsumePending(context.Background(), "s1", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found {
		t.Fatalf("unexpected pending result: %+v", res)
	}
}
