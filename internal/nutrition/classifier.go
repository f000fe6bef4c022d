// Package nutrition turns diary input and model replies into nutrition
// records and renders records back into chat text.
package nutrition

import (
	"regexp"
	"strings"

	"mcp-food-diary/internal/models"
)

// exerciseKeywords matches whole words so that foods like "orange" or
// "brunch" do not trip "ran" or "run".
var exerciseKeywords = regexp.MustCompile(`\b(?:` + strings.Join([]string{
	`workouts?`, `exercis\w*`, `runs?`, `running`, `ran`, `jog\w*`, `walk\w*`,
	`swim\w*`, `swam`, `cycl\w*`, `bik(?:e|ed|ing)`, `gym`, `cardio`, `hik(?:e|ed|ing)`,
	`yoga`, `pilates`, `lift\w*`, `treadmill`, `elliptical`, `rowing`, `sprint\w*`,
	`hiit`, `training`, `stretching`,
}, "|") + `)\b|\b(?:minutes?|mins?|hours?|hrs?) of\b`)

// HasExerciseKeyword reports whether text names an activity.
func HasExerciseKeyword(text string) bool {
	return exerciseKeywords.MatchString(strings.ToLower(text))
}

// Classify decides whether a typed entry describes food or exercise.
// Ambiguous input is food. With an image the model decides and Classify
// only reports the neutral default.
func Classify(text string, imageContext bool) models.Kind {
	if imageContext {
		return models.KindFood
	}
	if HasExerciseKeyword(text) {
		return models.KindExercise
	}
	return models.KindFood
}
