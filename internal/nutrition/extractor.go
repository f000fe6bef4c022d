package nutrition

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"mcp-food-diary/internal/models"
)

var (
	errNoJSON = errors.New("no JSON object in response")

	// first single-level object embedded in prose
	embeddedObject = regexp.MustCompile(`(?s)\{[^{}]*\}`)
)

// Input is what the user sent alongside the model call.
type Input struct {
	Text     string
	ImageRef string
}

func (in Input) ImageContext() bool {
	return in.ImageRef != ""
}

// Extraction is the outcome of parsing a model reply.
type Extraction struct {
	Record models.NutritionRecord
	// Overridden is set when the model called the entry exercise but the
	// text had no exercise keyword; the record was reset to an empty food.
	Overridden bool
	ModelKind  models.Kind
}

// Extract parses a model reply into a NutritionRecord. The whole reply is
// tried as JSON first, then the first {...} substring. Any other shape is an
// ExtractionError.
func Extract(raw string, in Input) (Extraction, error) {
	obj, ok := parseObject(raw)
	if !ok {
		obj, ok = parseObject(embeddedObject.FindString(raw))
	}
	if !ok {
		return Extraction{}, &models.ExtractionError{Raw: raw, Err: errNoJSON}
	}

	rec := models.NutritionRecord{
		Kind:        kindOf(obj, in),
		Name:        firstString(obj, "name", "food", "activity"),
		Description: firstString(obj, "description", "details"),
		Calories:    firstNumber(obj, "calories", "kcal", "calories_burned"),
		ImageRef:    in.ImageRef,
	}
	if !rec.IsExercise() {
		rec.Carbs = firstNumber(obj, "carbs", "carbohydrates")
		rec.Protein = firstNumber(obj, "protein", "proteins")
		rec.Fat = firstNumber(obj, "fat", "fats")
	}

	out := Extraction{Record: rec, ModelKind: rec.Kind}
	if rec.IsExercise() && !in.ImageContext() && !HasExerciseKeyword(in.Text) {
		out.Record = models.NutritionRecord{
			Kind:     models.KindFood,
			Name:     in.Text,
			ImageRef: in.ImageRef,
		}
		out.Overridden = true
	}
	return out, nil
}

func parseObject(s string) (gjson.Result, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !gjson.Valid(s) {
		return gjson.Result{}, false
	}
	r := gjson.Parse(s)
	return r, r.IsObject()
}

func kindOf(obj gjson.Result, in Input) models.Kind {
	v := strings.ToLower(strings.TrimSpace(firstString(obj, "type", "kind")))
	switch v {
	case "exercise", "workout", "activity":
		return models.KindExercise
	case "food", "meal", "drink":
		return models.KindFood
	}
	return Classify(in.Text, in.ImageContext())
}

func firstString(obj gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := obj.Get(k); v.Exists() && v.Type == gjson.String {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

// maxAmount caps any single extracted value.
const maxAmount = 100000

// leadingNumber reads "150 kcal" or "12.5g" style strings.
var leadingNumber = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)`)

// firstNumber rounds fractional values and clamps them to [0, maxAmount].
// Strings are read up to their first non-numeric character.
func firstNumber(obj gjson.Result, keys ...string) int {
	for _, k := range keys {
		v := obj.Get(k)
		if !v.Exists() {
			continue
		}
		f := v.Float()
		if v.Type == gjson.String {
			m := leadingNumber.FindStringSubmatch(v.String())
			if m == nil {
				return 0
			}
			f, _ = strconv.ParseFloat(m[1], 64)
		}
		return clampAmount(f)
	}
	return 0
}

func clampAmount(f float64) int {
	n := math.Round(f)
	switch {
	case math.IsNaN(n) || n < 0:
		return 0
	case n > maxAmount:
		return maxAmount
	}
	return int(n)
}
