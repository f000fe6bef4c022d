package storage

import (
	"context"
	"sort"
	"sync"

	"mcp-food-diary/internal/models"
)

// MemoryStorage keeps everything in process. Used for local runs and tests.
type MemoryStorage struct {
	mu       sync.RWMutex
	messages map[string][]*models.Message
	stats    map[string]models.DailyStats
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		messages: make(map[string][]*models.Message),
		stats:    make(map[string]models.DailyStats),
	}
}

func (s *MemoryStorage) SaveMessages(ctx context.Context, date string, msgs []*models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[date] = cloneMessages(msgs)
	return nil
}

func (s *MemoryStorage) LoadMessages(ctx context.Context, date string) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneMessages(s.messages[date]), nil
}

func (s *MemoryStorage) DeleteMessage(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for date, msgs := range s.messages {
		for i, m := range msgs {
			if m.ID == id {
				s.messages[date] = append(msgs[:i:i], msgs[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (s *MemoryStorage) SaveDailyStats(ctx context.Context, date string, stats models.DailyStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats[date] = stats
	return nil
}

func (s *MemoryStorage) LoadDailyStats(ctx context.Context, date string) (models.DailyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stats[date], nil
}

func (s *MemoryStorage) ListDailyStats(ctx context.Context, startDate, endDate string, limit int) ([]models.DayStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var days []models.DayStats
	for date, st := range s.stats {
		if startDate != "" && date < startDate {
			continue
		}
		if endDate != "" && date > endDate {
			continue
		}
		days = append(days, models.DayStats{Date: date, Stats: st})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date > days[j].Date })
	if limit > 0 && len(days) > limit {
		days = days[:limit]
	}
	return days, nil
}

func cloneMessages(msgs []*models.Message) []*models.Message {
	if msgs == nil {
		return nil
	}
	out := make([]*models.Message, len(msgs))
	for i, m := range msgs {
		c := *m
		if m.Record != nil {
			r := *m.Record
			c.Record = &r
		}
		out[i] = &c
	}
	return out
}
