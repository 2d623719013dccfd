package conversation

import (
	"testing"

	"recipe-chat-gateway/internal/pkg/common"
)

func readyData() common.CollectedData {
	return common.CollectedData{
		"ingredients":  []interface{}{map[string]interface{}{"name": "蛋", "quantity": "2"}},
		"cuisine":      "Taiwanese",
		"cooking_time": "30 minutes",
	}
}

func TestIsReset_MatchesKnownPhrases(t *testing.T) {
	cases := []string{
		"Reset complete! Let's begin again.",
		"Sure, let's START OVER with your ingredients.",
		"Okay, we can start fresh.",
	}
	for _, msg := range cases {
		if !IsReset(msg) {
			t.Fatalf("expected reset for %q", msg)
		}
	}
}

func TestIsReset_IgnoresOrdinaryMessages(t *testing.T) {
	if IsReset("What cuisine would you like?") {
		t.Fatalf("ordinary message misread as reset")
	}
	if IsReset("") {
		t.Fatalf("empty message misread as reset")
	}
}

func TestClassify_CuisineHintWinsOverReadyData(t *testing.T) {
	got := Classify("Which cuisine do you prefer?", readyData())
	if got != IntentCuisineSelector {
		t.Fatalf("got %q, want %q", got, IntentCuisineSelector)
	}
}

func TestClassify_PlanSummaryWinsOverReadyData(t *testing.T) {
	got := Classify("Here is your Cooking Plan for tonight.", readyData())
	if got != IntentPlanSummary {
		t.Fatalf("got %q, want %q", got, IntentPlanSummary)
	}

	got = Classify("Ingredients: eggs, rice", readyData())
	if got != IntentPlanSummary {
		t.Fatalf("got %q, want %q", got, IntentPlanSummary)
	}
}

func TestClassify_PlanSummaryIsCaseSensitive(t *testing.T) {
	// 小寫的 "cooking plan" 不觸發摘要卡片
	got := Classify("your cooking plan looks good", common.CollectedData{})
	if got != IntentText {
		t.Fatalf("got %q, want %q", got, IntentText)
	}
}

func TestClassify_ReadyDataYieldsFinalAction(t *testing.T) {
	got := Classify("Everything looks good, shall we proceed?", readyData())
	if got != IntentFinalAction {
		t.Fatalf("got %q, want %q", got, IntentFinalAction)
	}
}

func TestClassify_IncompleteDataYieldsText(t *testing.T) {
	data := common.CollectedData{
		"ingredients": []interface{}{map[string]interface{}{"name": "蛋"}},
		// 缺 cuisine 與 cooking_time
	}
	got := Classify("Got it, anything else?", data)
	if got != IntentText {
		t.Fatalf("got %q, want %q", got, IntentText)
	}
}

func TestClassify_NilDataYieldsText(t *testing.T) {
	got := Classify("Hello there!", nil)
	if got != IntentText {
		t.Fatalf("got %q, want %q", got, IntentText)
	}
}
