package diary

import (
	"context"

	"mcp-food-diary/internal/models"
)

// ModelClient sends one prompt to the language model and returns its text.
type ModelClient interface {
	Complete(ctx context.Context, req models.ModelRequest) (string, error)
}

// Store persists transcripts and totals per date. Calls are not assumed
// to be transactional with each other.
type Store interface {
	LoadMessages(ctx context.Context, date string) ([]*models.Message, error)
	SaveMessages(ctx context.Context, date string, msgs []*models.Message) error
	LoadDailyStats(ctx context.Context, date string) (models.DailyStats, error)
	SaveDailyStats(ctx context.Context, date string, stats models.DailyStats) error
	DeleteMessage(ctx context.Context, id int64) error
}

// HistoryStore is implemented by stores that can list totals across dates.
type HistoryStore interface {
	ListDailyStats(ctx context.Context, startDate, endDate string, limit int) ([]models.DayStats, error)
}
