// Package ledger keeps the per-day calorie and macro totals.
package ledger

import (
	"sync"

	"mcp-food-diary/internal/models"
)

type Direction int

const (
	Add Direction = iota
	Subtract
)

func (d Direction) String() string {
	if d == Subtract {
		return "subtract"
	}
	return "add"
}

// Apply is the pure reducer behind every ledger change. Subtraction clamps
// each field at zero, so a rollback larger than the recorded total loses
// the difference instead of going negative.
func Apply(prev models.DailyStats, rec models.NutritionRecord, dir Direction) models.DailyStats {
	next := prev
	if rec.IsExercise() {
		next.Calories.Exercise = step(prev.Calories.Exercise, rec.Calories, dir)
		return next
	}
	next.Calories.Food = step(prev.Calories.Food, rec.Calories, dir)
	next.Macros.Carbs = step(prev.Macros.Carbs, rec.Carbs, dir)
	next.Macros.Protein = step(prev.Macros.Protein, rec.Protein, dir)
	next.Macros.Fat = step(prev.Macros.Fat, rec.Fat, dir)
	return next
}

func step(cur, delta int, dir Direction) int {
	if dir == Subtract {
		return max(0, cur-delta)
	}
	return cur + delta
}

// Reducer maps the previous totals to the next ones.
type Reducer func(prev models.DailyStats) models.DailyStats

func Reduce(rec models.NutritionRecord, dir Direction) Reducer {
	return func(prev models.DailyStats) models.DailyStats {
		return Apply(prev, rec, dir)
	}
}

// Zero replaces any totals with an empty day.
func Zero() Reducer {
	return func(models.DailyStats) models.DailyStats {
		return models.DailyStats{}
	}
}

// Listener is told about every reducer applied to a date, after the
// ledger itself has applied it.
type Listener func(date string, reduce Reducer)

// Ledger holds totals per date. All writes go through Update.
type Ledger struct {
	mu        sync.Mutex
	days      map[string]models.DailyStats
	listeners []Listener
}

func New() *Ledger {
	return &Ledger{days: make(map[string]models.DailyStats)}
}

// OnStatsUpdated registers fn for every subsequent update.
func (l *Ledger) OnStatsUpdated(fn Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Seed installs totals loaded from storage without notifying listeners.
func (l *Ledger) Seed(date string, stats models.DailyStats) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.days[date] = stats
}

func (l *Ledger) Stats(date string) models.DailyStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.days[date]
}

// Update applies fn to date's totals and returns the new snapshot.
func (l *Ledger) Update(date string, fn Reducer) models.DailyStats {
	l.mu.Lock()
	next := fn(l.days[date])
	l.days[date] = next
	listeners := append([]Listener(nil), l.listeners...)
	l.mu.Unlock()

	for _, notify := range listeners {
		notify(date, fn)
	}
	return next
}

func (l *Ledger) Add(date string, rec models.NutritionRecord) models.DailyStats {
	return l.Update(date, Reduce(rec, Add))
}

func (l *Ledger) Subtract(date string, rec models.NutritionRecord) models.DailyStats {
	return l.Update(date, Reduce(rec, Subtract))
}

func (l *Ledger) Reset(date string) models.DailyStats {
	return l.Update(date, Zero())
}
