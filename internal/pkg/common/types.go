package common

import (
	"strings"
)

// 對話角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn 對話中的一輪，附加後即不再修改
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IngredientItem 已收集的食材項目
type IngredientItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// CollectedData 後端回傳的已收集資料快照
// 欄位以後端為準，可能隨輪次改名或新增鍵，因此保留開放結構。
// 注意：整份取代，不在本地端合併或補欄位。
type CollectedData map[string]interface{}

// stringField 取出字串欄位並去除前後空白
func (d CollectedData) stringField(key string) string {
	if d == nil {
		return ""
	}
	if v, ok := d[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Cuisine 取得已收集的菜系
func (d CollectedData) Cuisine() string {
	return d.stringField("cuisine")
}

// CookingTime 取得已收集的烹調時間
func (d CollectedData) CookingTime() string {
	return d.stringField("cooking_time")
}

// MealType 取得已收集的餐別
func (d CollectedData) MealType() string {
	return d.stringField("meal_type")
}

// HasIngredients 檢查是否已收集到至少一項食材
func (d CollectedData) HasIngredients() bool {
	if d == nil {
		return false
	}
	if list, ok := d["ingredients"].([]interface{}); ok {
		return len(list) > 0
	}
	if list, ok := d["ingredients"].([]IngredientItem); ok {
		return len(list) > 0
	}
	return false
}

// ReadyForGeneration 食材、菜系、烹調時間三者齊備時才可進入產生階段
func (d CollectedData) ReadyForGeneration() bool {
	return d.HasIngredients() && d.Cuisine() != "" && d.CookingTime() != ""
}

// Recipe 產生結果中的單一食譜，由結果頁持有，對話控制器不修改
type Recipe struct {
	MenuName    string `json:"menu_name"`
	Description string `json:"description"`
	CookingTime string `json:"cooking_time"`
	ImageURL    string `json:"image_url"`
}

// GenerationRequest 直接表單路徑的產生請求
type GenerationRequest struct {
	Ingredients       []IngredientItem `json:"ingredients"`
	CuisinePreference string           `json:"cuisine_preference"`
	NumberOfPeople    int              `json:"number_of_people"`
	CookingTime       string           `json:"cooking_time"`
	CookingPreference string           `json:"cooking_preference"`
}

// GuestUserID 未登入時的預設身分
const GuestUserID = "guest_user"
