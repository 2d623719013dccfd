package backend

import (
	"encoding/json"

	"recipe-chat-gateway/internal/pkg/common"
)

// recipeEnvelope 兩種已知的 recipes 巢狀形狀
type recipeEnvelope struct {
	Recipes []common.Recipe `json:"recipes"`
	Data    *struct {
		Recipes []common.Recipe `json:"recipes"`
	} `json:"data"`
}

// ExtractRecipes 從回應的 data 欄位取出食譜列表
// 後端封包形狀不統一，依序探測 data.recipes 與 data.data.recipes；
// 兩層都沒有或解析失敗時回傳 nil，由調用端視為「本輪沒有食譜」。
func ExtractRecipes(raw json.RawMessage) []common.Recipe {
	if len(raw) == 0 {
		return nil
	}

	var env recipeEnvelope
	if err := common.ParseJSONBytes(raw, &env); err != nil {
		return nil
	}

	if len(env.Recipes) > 0 {
		return env.Recipes
	}
	if env.Data != nil && len(env.Data.Recipes) > 0 {
		return env.Data.Recipes
	}
	return nil
}
