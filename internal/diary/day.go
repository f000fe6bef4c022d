package diary

import (
	"context"
	"log/slog"

	"mcp-food-diary/internal/models"
)

func (m *Manager) dateOrToday(date string) string {
	if date == "" {
		return m.Today()
	}
	return date
}

// loadDay returns the cached transcript for date, reading it from the store
// on first use. A failed read is not cached: the day is retried on the next
// call, and nothing is saved over data that could not be read.
func (m *Manager) loadDay(ctx context.Context, date string, log *slog.Logger) (*day, error) {
	if d, ok := m.days[date]; ok {
		return d, nil
	}

	msgs, err := m.store.LoadMessages(ctx, date)
	if err != nil {
		log.Warn("failed to load messages", "error", err)
		return nil, &models.PersistenceError{Op: "load messages", Err: err}
	}
	stats, err := m.store.LoadDailyStats(ctx, date)
	if err != nil {
		log.Warn("failed to load daily stats", "error", err)
		return nil, &models.PersistenceError{Op: "load daily stats", Err: err}
	}

	d := &day{date: date, messages: msgs}
	m.ledger.Seed(date, stats)
	for _, msg := range d.messages {
		if msg.ID > m.lastID {
			m.lastID = msg.ID
		}
	}
	m.days[date] = d
	return d, nil
}

// newMessage stamps a message with an id strictly greater than any seen.
func (m *Manager) newMessage(role models.Role, text string) *models.Message {
	now := m.now()
	id := now.UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	return &models.Message{
		ID:        id,
		Role:      role,
		Text:      text,
		Timestamp: now,
	}
}

func (d *day) index(id int64) int {
	for i, msg := range d.messages {
		if msg.ID == id {
			return i
		}
	}
	return -1
}

// pairOf finds the response to the user message at idx. An explicit
// ResponseTo link wins; messages stored without one fall back to the
// next message in the transcript.
func (d *day) pairOf(idx int) *models.Message {
	user := d.messages[idx]
	for _, msg := range d.messages {
		if msg.IsAssistant() && msg.ResponseTo == user.ID {
			return msg
		}
	}
	if idx+1 < len(d.messages) {
		next := d.messages[idx+1]
		if next.IsAssistant() && next.ResponseTo == 0 {
			return next
		}
	}
	return nil
}

func (d *day) remove(id int64) {
	if i := d.index(id); i >= 0 {
		d.messages = append(d.messages[:i:i], d.messages[i+1:]...)
	}
}

// Saves run to completion even if the caller's context is cancelled;
// failures are warnings and never undo the in-memory change.
func (m *Manager) persistMessages(ctx context.Context, d *day, res *Result, log *slog.Logger) {
	if err := m.store.SaveMessages(context.WithoutCancel(ctx), d.date, d.messages); err != nil {
		res.warn(&models.PersistenceError{Op: "save messages", Err: err})
		log.Warn("failed to save messages", "error", err)
	}
}

func (m *Manager) persistStats(ctx context.Context, date string, res *Result, log *slog.Logger) {
	if err := m.store.SaveDailyStats(context.WithoutCancel(ctx), date, m.ledger.Stats(date)); err != nil {
		res.warn(&models.PersistenceError{Op: "save daily stats", Err: err})
		log.Warn("failed to save daily stats", "error", err)
	}
}

func (m *Manager) deleteStored(ctx context.Context, id int64, res *Result, log *slog.Logger) {
	if err := m.store.DeleteMessage(context.WithoutCancel(ctx), id); err != nil {
		res.warn(&models.PersistenceError{Op: "delete message", Err: err})
		log.Warn("failed to delete message", "deleted_id", id, "error", err)
	}
}

func cloneMessage(msg *models.Message) *models.Message {
	c := *msg
	if msg.Record != nil {
		r := *msg.Record
		c.Record = &r
	}
	return &c
}
