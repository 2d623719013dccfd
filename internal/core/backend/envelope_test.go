package backend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRecipes_TopLevelShape(t *testing.T) {
	raw := json.RawMessage(`{"recipes":[{"menu_name":"蛋炒飯","description":"快炒","cooking_time":"15 分鐘","image_url":"http://img/1.png"}]}`)

	recipes := ExtractRecipes(raw)
	require.Len(t, recipes, 1)
	assert.Equal(t, "蛋炒飯", recipes[0].MenuName)
	assert.Equal(t, "15 分鐘", recipes[0].CookingTime)
}

func TestExtractRecipes_NestedShape(t *testing.T) {
	raw := json.RawMessage(`{"data":{"recipes":[{"menu_name":"番茄炒蛋"},{"menu_name":"三杯雞"}]}}`)

	recipes := ExtractRecipes(raw)
	require.Len(t, recipes, 2)
	assert.Equal(t, "番茄炒蛋", recipes[0].MenuName)
	assert.Equal(t, "三杯雞", recipes[1].MenuName)
}

func TestExtractRecipes_TopLevelWinsOverNested(t *testing.T) {
	raw := json.RawMessage(`{"recipes":[{"menu_name":"外層"}],"data":{"recipes":[{"menu_name":"內層"}]}}`)

	recipes := ExtractRecipes(raw)
	require.Len(t, recipes, 1)
	assert.Equal(t, "外層", recipes[0].MenuName)
}

func TestExtractRecipes_EmptyOrAbsent(t *testing.T) {
	assert.Nil(t, ExtractRecipes(nil))
	assert.Nil(t, ExtractRecipes(json.RawMessage(`{}`)))
	assert.Nil(t, ExtractRecipes(json.RawMessage(`{"recipes":[]}`)))
	assert.Nil(t, ExtractRecipes(json.RawMessage(`{"data":{"recipes":[]}}`)))
	assert.Nil(t, ExtractRecipes(json.RawMessage(`{"data":{}}`)))
}

func TestExtractRecipes_MalformedPayload(t *testing.T) {
	assert.Nil(t, ExtractRecipes(json.RawMessage(`not json`)))
	assert.Nil(t, ExtractRecipes(json.RawMessage(`{"recipes":"oops"}`)))
}
