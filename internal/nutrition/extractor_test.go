package nutrition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-food-diary/internal/models"
)

func TestExtractPlainJSON(t *testing.T) {
	raw := `{"type":"food","name":"Scrambled eggs","description":"Two eggs in butter","calories":182.6,"carbs":1.4,"protein":12,"fat":"14"}`

	ext, err := Extract(raw, Input{Text: "2 scrambled eggs"})
	require.NoError(t, err)
	assert.False(t, ext.Overridden)
	assert.Equal(t, models.NutritionRecord{
		Kind:        models.KindFood,
		Name:        "Scrambled eggs",
		Description: "Two eggs in butter",
		Calories:    183,
		Carbs:       1,
		Protein:     12,
		Fat:         14,
	}, ext.Record)
}

func TestExtractEmbeddedObject(t *testing.T) {
	raw := "Sure! Here is the estimate:\n```json\n{\"type\": \"food\", \"name\": \"Toast\", \"calories\": 80, \"carbs\": 15}\n```\nEnjoy."

	ext, err := Extract(raw, Input{Text: "toast"})
	require.NoError(t, err)
	assert.Equal(t, "Toast", ext.Record.Name)
	assert.Equal(t, 80, ext.Record.Calories)
	assert.Equal(t, 15, ext.Record.Carbs)
	assert.Zero(t, ext.Record.Protein)
	assert.Zero(t, ext.Record.Fat)
}

func TestExtractFailsWithoutJSON(t *testing.T) {
	_, err := Extract("I think that is about 200 calories.", Input{Text: "pizza"})
	require.Error(t, err)

	var extractErr *models.ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, "I think that is about 200 calories.", extractErr.Raw)
}

func TestExtractRejectsNonObjectJSON(t *testing.T) {
	_, err := Extract(`[1, 2, 3]`, Input{Text: "pizza"})
	assert.Error(t, err)
}

func TestExtractOverridesUnfoundedExercise(t *testing.T) {
	ext, err := Extract(`{"type":"exercise","calories":50}`, Input{Text: "3 eggs"})
	require.NoError(t, err)

	assert.True(t, ext.Overridden)
	assert.Equal(t, models.KindExercise, ext.ModelKind)
	assert.Equal(t, models.NutritionRecord{Kind: models.KindFood, Name: "3 eggs"}, ext.Record)
}

func TestExtractKeepsExerciseWithKeyword(t *testing.T) {
	ext, err := Extract(`{"type":"exercise","name":"Run","calories":410.2,"carbs":30}`, Input{Text: "ran 5k"})
	require.NoError(t, err)

	assert.False(t, ext.Overridden)
	assert.Equal(t, models.NutritionRecord{Kind: models.KindExercise, Name: "Run", Calories: 410}, ext.Record)
}

func TestExtractTrustsModelForImages(t *testing.T) {
	in := Input{Text: "", ImageRef: "https://img.example/watch.jpg"}
	ext, err := Extract(`{"type":"exercise","name":"Cycling","calories":320}`, in)
	require.NoError(t, err)

	assert.False(t, ext.Overridden)
	assert.Equal(t, models.KindExercise, ext.Record.Kind)
	assert.Equal(t, 320, ext.Record.Calories)
	assert.Equal(t, in.ImageRef, ext.Record.ImageRef)
}

func TestExtractDefaultsKindFromClassifier(t *testing.T) {
	ext, err := Extract(`{"name":"Walk","calories":120}`, Input{Text: "walked the dog for an hour"})
	require.NoError(t, err)
	assert.Equal(t, models.KindExercise, ext.Record.Kind)

	ext, err = Extract(`{"name":"Apple","kind":"snack","calories":95}`, Input{Text: "apple"})
	require.NoError(t, err)
	assert.Equal(t, models.KindFood, ext.Record.Kind)
}

func TestExtractFloorsNegativeValues(t *testing.T) {
	ext, err := Extract(`{"type":"food","calories":-20,"carbs":-1,"protein":3}`, Input{Text: "celery"})
	require.NoError(t, err)
	assert.Zero(t, ext.Record.Calories)
	assert.Zero(t, ext.Record.Carbs)
	assert.Equal(t, 3, ext.Record.Protein)
}

func TestExtractClampsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"huge", `{"type":"food","calories":1e20}`, maxAmount},
		{"overflows float", `{"type":"food","calories":1e400}`, maxAmount},
		{"just over", `{"type":"food","calories":100000.6}`, maxAmount},
		{"normal", `{"type":"food","calories":99999.4}`, 99999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := Extract(tt.raw, Input{Text: "cake"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ext.Record.Calories)
		})
	}
}

func TestExtractReadsNumbersWithUnits(t *testing.T) {
	ext, err := Extract(`{"type":"food","calories":"150 kcal","carbs":"12.6g","protein":"about 5","fat":"-3 g"}`, Input{Text: "bagel"})
	require.NoError(t, err)
	assert.Equal(t, 150, ext.Record.Calories)
	assert.Equal(t, 13, ext.Record.Carbs)
	assert.Zero(t, ext.Record.Protein)
	assert.Zero(t, ext.Record.Fat)
}
