package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mcp-food-diary/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want models.Kind
	}{
		{"3 eggs", models.KindFood},
		{"banana", models.KindFood},
		{"30 min running", models.KindExercise},
		{"Went for a JOG this morning", models.KindExercise},
		{"45 minutes of yoga", models.KindExercise},
		{"swam 20 laps", models.KindExercise},
		{"leg day at the gym", models.KindExercise},
		{"orange juice and granola", models.KindFood},
		{"brunch with cranberry scones", models.KindFood},
		{"walnuts", models.KindFood},
		{"", models.KindFood},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text, false))
		})
	}
}

func TestClassifyImageContextDefersToModel(t *testing.T) {
	assert.Equal(t, models.KindFood, Classify("30 min running", true))
}
