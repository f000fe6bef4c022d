package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-food-diary/internal/models"
)

// Rollback depends on ParseRendered undoing Format.
func TestFormatParseRoundTrip(t *testing.T) {
	records := []models.NutritionRecord{
		{Kind: models.KindFood, Name: "Greek yogurt", Description: "With honey and walnuts", Calories: 150, Carbs: 20, Protein: 15, Fat: 3},
		{Kind: models.KindFood, Name: "2 eggs", Calories: 156, Carbs: 1, Protein: 12, Fat: 10},
		{Kind: models.KindFood, Name: "Protein shake", Calories: 220, Carbs: 9, Protein: 40, Fat: 4},
		{Kind: models.KindFood, Name: "Fat-free milk", Calories: 90, Carbs: 12, Protein: 8, Fat: 0},
		{Kind: models.KindFood, Name: "Big   plate\nof pasta", Calories: 1250, Carbs: 180, Protein: 42, Fat: 38},
		{Kind: models.KindFood, Description: "Something small", Calories: 40, Carbs: 10},
		{Kind: models.KindFood, Name: "Post-workout shake", Calories: 220, Carbs: 9, Protein: 40, Fat: 4},
		{Kind: models.KindFood, Description: "Pre-exercise banana", Calories: 105, Carbs: 27, Protein: 1},
		{Kind: models.KindFood},
	}

	for _, rec := range records {
		t.Run(rec.Name, func(t *testing.T) {
			got, matched := ParseRendered(Format(rec))
			require.True(t, matched)

			want := rec
			want.Description = ""
			want.Name = oneLine(rec.Name)
			if want.Name == "" {
				want.Name = "Food"
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestFormatParseRoundTripExercise(t *testing.T) {
	rec := models.NutritionRecord{Kind: models.KindExercise, Name: "Morning run", Calories: 310}

	text := Format(rec)
	assert.Contains(t, text, "Exercise Calories Burned")
	assert.Contains(t, text, "310 kcal")

	got, matched := ParseRendered(text)
	require.True(t, matched)
	assert.Equal(t, models.KindExercise, got.Kind)
	assert.Equal(t, 310, got.Calories)
	assert.Zero(t, got.Carbs+got.Protein+got.Fat)
}

func TestFormatFood(t *testing.T) {
	text := Format(models.NutritionRecord{Kind: models.KindFood, Name: "Toast", Calories: 80, Carbs: 15, Protein: 3, Fat: 1})
	assert.Equal(t, "Nutrition Info:\n**Toast**\n• Calories: 80 kcal\n• Carbs: 15g\n• Protein: 3g\n• Fat: 1g", text)
}

func TestParseRenderedPlainLabels(t *testing.T) {
	got, matched := ParseRendered("Calories: 150\nCarbs: 1\nProtein: 12\nFat: 10")
	require.True(t, matched)
	assert.Equal(t, models.NutritionRecord{Kind: models.KindFood, Name: "Food", Calories: 150, Carbs: 1, Protein: 12, Fat: 10}, got)
}

func TestParseRenderedSynonyms(t *testing.T) {
	got, _ := ParseRendered("Name: Oatmeal\nabout 300 calories, carbohydrates 54, 10g protein and 6 g fat")
	assert.Equal(t, "Oatmeal", got.Name)
	assert.Equal(t, 300, got.Calories)
	assert.Equal(t, 54, got.Carbs)
	assert.Equal(t, 10, got.Protein)
	assert.Equal(t, 6, got.Fat)
}

func TestParseRenderedExerciseVariants(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"Great workout! Calories: 250", 250},
		{"That exercise burned 180 calories", 180},
		{"Workout logged, burned: 90", 90},
		{"Nice workout", 0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, _ := ParseRendered(tt.text)
			assert.Equal(t, models.KindExercise, got.Kind)
			assert.Equal(t, tt.want, got.Calories)
		})
	}
}

func TestParseRenderedNeverFails(t *testing.T) {
	got, matched := ParseRendered("Today's log has been reset. All totals are back to zero.")
	assert.False(t, matched)
	assert.True(t, got.IsZero())
	assert.Equal(t, models.KindFood, got.Kind)
}
