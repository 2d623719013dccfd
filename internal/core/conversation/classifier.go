package conversation

import (
	"strings"

	"recipe-chat-gateway/internal/pkg/common"
)

// 助理宣告對話已被重置的措辭
var resetPhrases = []string{
	"reset complete",
	"start over",
	"start fresh",
}

// IsReset 判斷助理訊息是否代表對話已被重置（不分大小寫）
// 重置的優先序高於食譜短路與意圖分類。
func IsReset(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range resetPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Classify 依優先序判斷助理訊息的 UI 意圖
// 目前靠關鍵字比對助理的英文措辭，集中在這裡是為了之後後端若改送
// 結構化 intent 欄位時，只需要換掉這一個函式。
func Classify(message string, data common.CollectedData) Intent {
	lower := strings.ToLower(message)

	// 文字層面的菜系提示優先於資料齊備檢查
	if strings.Contains(lower, "cuisine") {
		return IntentCuisineSelector
	}

	// 摘要卡片的比對維持大小寫敏感
	if strings.Contains(message, "Cooking Plan") || strings.Contains(message, "Ingredients:") {
		return IntentPlanSummary
	}

	if data.ReadyForGeneration() {
		return IntentFinalAction
	}

	return IntentText
}
