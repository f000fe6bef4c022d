// internal/models/nutrition.go
package models

type Kind string

const (
	KindFood     Kind = "food"
	KindExercise Kind = "exercise"
)

// NutritionRecord is the structured estimate behind one assistant reply.
// Carbs, Protein and Fat only matter for food.
type NutritionRecord struct {
	Kind        Kind   `json:"type"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Calories    int    `json:"calories"`
	Carbs       int    `json:"carbs"`
	Protein     int    `json:"protein"`
	Fat         int    `json:"fat"`
	ImageRef    string `json:"image_ref,omitempty"`
}

func (r NutritionRecord) IsExercise() bool {
	return r.Kind == KindExercise
}

// IsZero reports whether the record adds nothing to a ledger.
func (r NutritionRecord) IsZero() bool {
	return r.Calories == 0 && r.Carbs == 0 && r.Protein == 0 && r.Fat == 0
}

type CalorieTotals struct {
	Food     int `json:"food"`
	Exercise int `json:"exercise"`
}

type MacroTotals struct {
	Carbs   int `json:"carbs"`
	Protein int `json:"protein"`
	Fat     int `json:"fat"`
}

// DailyStats is the persisted per-day aggregate.
type DailyStats struct {
	Calories CalorieTotals `json:"calories"`
	Macros   MacroTotals   `json:"macros"`
}

// DayStats pairs a date key with its totals for history listings.
type DayStats struct {
	Date  string     `json:"date"`
	Stats DailyStats `json:"stats"`
}
