package nutrition

import (
	"fmt"
	"regexp"
	"strconv"

	"mcp-food-diary/internal/models"
)

const replyFormat = `Respond with ONE valid JSON object and nothing else, in this exact shape:
{
  "type": "food" | "exercise",
  "name": "short name of the food or activity",
  "description": "one short sentence",
  "calories": [integer],
  "carbs": [integer grams],
  "protein": [integer grams],
  "fat": [integer grams]
}
Use whole numbers. For exercise, "calories" is the energy burned and carbs, protein and fat are 0.`

const foodSystemPrompt = `You are a nutrition expert estimating what a person ate.
Give a realistic estimate for typical portions when sizes are not stated.
Set "type" to "food".

` + replyFormat

const exerciseSystemPrompt = `You are a fitness expert estimating calories burned by an activity.
Assume an average adult when body weight is not stated.
Set "type" to "exercise".

` + replyFormat

const imageSystemPrompt = `You are a nutrition and fitness expert looking at a photo sent to a food diary.
If the photo shows food or drink, estimate its nutrition and set "type" to "food".
If it shows a workout summary or an activity, estimate calories burned and set "type" to "exercise".

` + replyFormat

var promptEntry = regexp.MustCompile(`Entry: "(.*)"`)

// BuildPrompt picks the system prompt for an entry. Typed entries go
// through Classify; photos leave the choice to the model.
func BuildPrompt(in Input) models.ModelRequest {
	system := foodSystemPrompt
	switch {
	case in.ImageContext():
		system = imageSystemPrompt
	case Classify(in.Text, false) == models.KindExercise:
		system = exerciseSystemPrompt
	}

	user := fmt.Sprintf("Entry: %q", in.Text)
	if in.ImageContext() {
		user += "\nA photo is attached."
	}
	return models.ModelRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		ImageRef:     in.ImageRef,
	}
}

// EntryFromPrompt returns the entry text embedded by BuildPrompt.
func EntryFromPrompt(userPrompt string) string {
	m := promptEntry.FindStringSubmatch(userPrompt)
	if m == nil {
		return ""
	}
	s, err := strconv.Unquote(`"` + m[1] + `"`)
	if err != nil {
		return m[1]
	}
	return s
}
