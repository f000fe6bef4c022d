package nutrition

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mcp-food-diary/internal/models"
)

// Rendered chat text is the only record older transcripts carry, so the
// labels written by Format are the ones ParseRendered looks for first.
// Change both together.
const (
	exerciseHeader = "Exercise Calories Burned"
	foodHeader     = "Nutrition Info:"

	labelCalories = "Calories"
	labelCarbs    = "Carbs"
	labelProtein  = "Protein"
	labelFat      = "Fat"

	defaultFoodName = "Food"
)

// Format renders a record as the assistant's chat message.
func Format(rec models.NutritionRecord) string {
	var b strings.Builder
	if rec.IsExercise() {
		fmt.Fprintf(&b, "**%s**\n", exerciseHeader)
		fmt.Fprintf(&b, "%d kcal", rec.Calories)
		if name := oneLine(rec.Name); name != "" {
			fmt.Fprintf(&b, "\n_%s_", name)
		}
		return b.String()
	}

	if name := oneLine(rec.Name); name != "" {
		b.WriteString(foodHeader + "\n")
		fmt.Fprintf(&b, "**%s**\n", name)
	}
	if desc := oneLine(rec.Description); desc != "" {
		b.WriteString(desc + "\n")
	}
	fmt.Fprintf(&b, "• %s: %d kcal\n", labelCalories, rec.Calories)
	fmt.Fprintf(&b, "• %s: %dg\n", labelCarbs, rec.Carbs)
	fmt.Fprintf(&b, "• %s: %dg\n", labelProtein, rec.Protein)
	fmt.Fprintf(&b, "• %s: %dg", labelFat, rec.Fat)
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var (
	exerciseMarker = regexp.MustCompile(`(?i)` + exerciseHeader + `|\bexercise\b|\bworkout\b`)
	// the bullet line Format writes for food; exercise text never has it
	foodBullet = regexp.MustCompile(`(?m)^• ` + labelCalories + `: \d+ kcal$`)

	exerciseCalories = patterns(
		`(?i)(\d+)\s*kcal`,
		`(?i)calories[:\s]*(\d+)`,
		`(?i)(\d+)\s*calories`,
		`(?i)burned[:\s]*(\d+)`,
	)
	foodCalories = patterns(
		labelCalories+`:\s*(\d+)`,
		`(?i)calories[:\s]*(\d+)`,
		`(?i)(\d+)\s*(?:kcal|calories)`,
	)
	foodCarbs = patterns(
		labelCarbs+`:\s*(\d+)`,
		`(?i)carbs?[:\s]*(\d+)`,
		`(?i)carbohydrates?[:\s]*(\d+)`,
		`(?i)(\d+)\s*g?\s*(?:of\s+)?carb`,
	)
	foodProtein = patterns(
		labelProtein+`:\s*(\d+)`,
		`(?i)proteins?[:\s]*(\d+)`,
		`(?i)(\d+)\s*g?\s*(?:of\s+)?protein`,
	)
	foodFat = patterns(
		labelFat+`:\s*(\d+)`,
		`(?i)fats?[:\s]*(\d+)`,
		`(?i)(\d+)\s*g?\s*(?:of\s+)?fat\b`,
	)

	headerName  = regexp.MustCompile(regexp.QuoteMeta(foodHeader) + `[ \t]*\r?\n[ \t]*([^\r\n]+)`)
	labeledName = regexp.MustCompile(`(?im)^[\s•*-]*(?:name|food)\s*:\s*([^\r\n]+)`)
)

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// firstMatch returns the capture of the first pattern, in priority order,
// that matches text.
func firstMatch(text string, ps []*regexp.Regexp) (int, bool) {
	for _, p := range ps {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

// ParseRendered recovers a record from chat text produced by Format (or by
// older versions of it). It never fails: missing fields are zero. The bool
// reports whether any field matched at all.
func ParseRendered(text string) (models.NutritionRecord, bool) {
	if isExerciseText(text) {
		cal, ok := firstMatch(text, exerciseCalories)
		return models.NutritionRecord{
			Kind:     models.KindExercise,
			Name:     "Exercise",
			Calories: cal,
		}, ok
	}

	rec := models.NutritionRecord{Kind: models.KindFood, Name: renderedName(text)}
	var matched, ok bool
	rec.Calories, ok = firstMatch(text, foodCalories)
	matched = matched || ok
	rec.Carbs, ok = firstMatch(text, foodCarbs)
	matched = matched || ok
	rec.Protein, ok = firstMatch(text, foodProtein)
	matched = matched || ok
	rec.Fat, ok = firstMatch(text, foodFat)
	matched = matched || ok
	return rec, matched
}

// isExerciseText keeps food named e.g. "Post-workout shake" as food: text
// in Format's food layout is only exercise if it carries the exercise header.
func isExerciseText(text string) bool {
	if strings.HasPrefix(strings.TrimSpace(text), foodHeader) || foodBullet.MatchString(text) {
		return false
	}
	return exerciseMarker.MatchString(text)
}

func renderedName(text string) string {
	for _, re := range []*regexp.Regexp{headerName, labeledName} {
		if m := re.FindStringSubmatch(text); m != nil {
			if name := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), "*_")); name != "" {
				return name
			}
		}
	}
	return defaultFoodName
}
