// Package diary owns each day's transcript and keeps the ledger in step
// with it as entries are sent, edited and deleted.
package diary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"mcp-food-diary/internal/ledger"
	"mcp-food-diary/internal/models"
	"mcp-food-diary/internal/nutrition"
	"mcp-food-diary/internal/observability"
)

const (
	resetCommand = "reset"
	resetReply   = "Today's log has been reset. All totals are back to zero."

	defaultHistoryLimit = 30
)

type Manager struct {
	model  ModelClient
	store  Store
	ledger *ledger.Ledger
	now    func() time.Time
	loc    *time.Location

	// one action runs at a time, model call included
	mu     sync.Mutex
	days   map[string]*day
	lastID int64
}

type day struct {
	date     string
	messages []*models.Message
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLocation sets the zone used to derive today's date key.
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) { m.loc = loc }
}

func WithLedger(l *ledger.Ledger) Option {
	return func(m *Manager) { m.ledger = l }
}

func NewManager(model ModelClient, store Store, opts ...Option) *Manager {
	m := &Manager{
		model:  model,
		store:  store,
		ledger: ledger.New(),
		now:    time.Now,
		loc:    time.Local,
		days:   make(map[string]*day),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnStatsUpdated registers fn to receive every reducer applied to any day.
func (m *Manager) OnStatsUpdated(fn ledger.Listener) {
	m.ledger.OnStatsUpdated(fn)
}

// Today is the date key for the current moment.
func (m *Manager) Today() string {
	return m.now().In(m.loc).Format(models.DateLayout)
}

// Result describes what one action changed.
type Result struct {
	Date             string            `json:"date"`
	UserMessage      *models.Message   `json:"user_message,omitempty"`
	AssistantMessage *models.Message   `json:"assistant_message,omitempty"`
	Removed          []int64           `json:"removed,omitempty"`
	Stats            models.DailyStats `json:"stats"`
	Notices          []string          `json:"notices,omitempty"`
	Warnings         []string          `json:"warnings,omitempty"`

	warnings []error
}

// Errors returns the non-fatal persistence failures seen during the action.
func (r *Result) Errors() []error {
	return r.warnings
}

func (r *Result) warn(err error) {
	r.warnings = append(r.warnings, err)
	r.Warnings = append(r.Warnings, err.Error())
}

type SendInput struct {
	Date     string
	Text     string
	ImageRef string
}

// Send appends the user's entry, asks the model for an estimate and adds
// it to the day's totals. If the model call or extraction fails the user
// message stays unanswered and the returned Result still reports it. If the
// day cannot be read from the store nothing is changed and a
// *models.PersistenceError is returned.
func (m *Manager) Send(ctx context.Context, in SendInput) (*Result, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" && in.ImageRef == "" {
		return nil, models.ErrEmptyInput
	}
	date := m.dateOrToday(in.Date)

	m.mu.Lock()
	defer m.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With("date", date)
	d, err := m.loadDay(ctx, date, log)
	if err != nil {
		return nil, err
	}
	res := &Result{Date: date}

	userMsg := m.newMessage(models.RoleUser, text)
	userMsg.ImageRef = in.ImageRef
	d.messages = append(d.messages, userMsg)
	res.UserMessage = cloneMessage(userMsg)
	log.Info("user message appended", "message_id", userMsg.ID)

	if isResetCommand(text, in.ImageRef) {
		return m.reset(ctx, d, userMsg, res, log), nil
	}

	m.persistMessages(ctx, d, res, log)
	if err := m.respond(ctx, d, userMsg, res, log); err != nil {
		res.Stats = m.ledger.Stats(date)
		return res, err
	}
	return res, nil
}

func isResetCommand(text, imageRef string) bool {
	return imageRef == "" && strings.EqualFold(text, resetCommand)
}

// reset zeroes the day directly instead of rolling entries back.
func (m *Manager) reset(ctx context.Context, d *day, userMsg *models.Message, res *Result, log *slog.Logger) *Result {
	reply := m.newMessage(models.RoleAssistant, resetReply)
	reply.ResponseTo = userMsg.ID
	reply.Notice = true
	d.messages = append(d.messages, reply)

	res.AssistantMessage = cloneMessage(reply)
	res.Stats = m.ledger.Reset(d.date)
	log.Info("daily stats reset", "message_id", reply.ID)

	m.persistMessages(ctx, d, res, log)
	m.persistStats(ctx, d.date, res, log)
	return res
}

// respond runs the model-call-and-add path for userMsg. Nothing beyond the
// user message is mutated when it fails.
func (m *Manager) respond(ctx context.Context, d *day, userMsg *models.Message, res *Result, log *slog.Logger) error {
	in := nutrition.Input{Text: userMsg.Text, ImageRef: userMsg.ImageRef}

	raw, err := m.model.Complete(ctx, nutrition.BuildPrompt(in))
	if err != nil {
		var callErr *models.ModelCallError
		if !errors.As(err, &callErr) {
			err = &models.ModelCallError{Err: err}
		}
		log.Error("model call failed", "message_id", userMsg.ID, "error", err)
		return err
	}

	ext, err := nutrition.Extract(raw, in)
	if err != nil {
		log.Error("extraction failed", "message_id", userMsg.ID, "error", err, "response", raw)
		return err
	}
	if ext.Overridden {
		notice := fmt.Sprintf("%q did not look like exercise, so it was logged as food with no nutrition values", userMsg.Text)
		res.Notices = append(res.Notices, notice)
		log.Warn("model exercise classification overridden",
			"message_id", userMsg.ID, "input", userMsg.Text, "model_kind", ext.ModelKind)
	}

	rec := ext.Record
	reply := m.newMessage(models.RoleAssistant, nutrition.Format(rec))
	reply.ResponseTo = userMsg.ID
	reply.ImageRef = rec.ImageRef
	reply.Record = &rec
	d.messages = append(d.messages, reply)

	res.AssistantMessage = cloneMessage(reply)
	res.Stats = m.ledger.Add(d.date, rec)
	log.Info("entry added",
		"message_id", reply.ID, "kind", rec.Kind, "calories", rec.Calories,
		"carbs", rec.Carbs, "protein", rec.Protein, "fat", rec.Fat)

	m.persistMessages(ctx, d, res, log)
	m.persistStats(ctx, d.date, res, log)
	return nil
}

type EditInput struct {
	Date      string
	MessageID int64
	Text      string
	// ImageRef replaces the attached image; empty keeps the current one
	// unless ClearImage is set.
	ImageRef   string
	ClearImage bool
}

// Edit rewrites a user message in place. Its paired response is rolled
// back and removed, and a fresh response is appended at the end of the
// transcript. Editing the text to the reset command resets the day.
func (m *Manager) Edit(ctx context.Context, in EditInput) (*Result, error) {
	date := m.dateOrToday(in.Date)

	m.mu.Lock()
	defer m.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With("date", date, "message_id", in.MessageID)
	d, err := m.loadDay(ctx, date, log)
	if err != nil {
		return nil, err
	}
	res := &Result{Date: date}

	idx := d.index(in.MessageID)
	if idx < 0 {
		return nil, models.ErrMessageNotFound
	}
	userMsg := d.messages[idx]
	if !userMsg.IsUser() {
		return nil, models.ErrNotUserMessage
	}

	text := strings.TrimSpace(in.Text)
	imageRef := userMsg.ImageRef
	if in.ClearImage {
		imageRef = ""
	}
	if in.ImageRef != "" {
		imageRef = in.ImageRef
	}
	if text == "" && imageRef == "" {
		return nil, models.ErrEmptyInput
	}

	if pair := d.pairOf(idx); pair != nil {
		m.rollback(d.date, pair, log)
		d.remove(pair.ID)
		res.Removed = append(res.Removed, pair.ID)
		m.deleteStored(ctx, pair.ID, res, log)
		m.persistStats(ctx, d.date, res, log)
	}

	userMsg.Text = text
	userMsg.ImageRef = imageRef
	res.UserMessage = cloneMessage(userMsg)
	log.Info("user message edited")

	if isResetCommand(text, imageRef) {
		return m.reset(ctx, d, userMsg, res, log), nil
	}

	m.persistMessages(ctx, d, res, log)
	if err := m.respond(ctx, d, userMsg, res, log); err != nil {
		res.Stats = m.ledger.Stats(date)
		return res, err
	}
	return res, nil
}

type DeleteInput struct {
	Date      string
	MessageID int64
}

// Delete removes a message. Deleting a user message also removes its
// paired response; any removed response is rolled back first.
func (m *Manager) Delete(ctx context.Context, in DeleteInput) (*Result, error) {
	date := m.dateOrToday(in.Date)

	m.mu.Lock()
	defer m.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With("date", date, "message_id", in.MessageID)
	d, err := m.loadDay(ctx, date, log)
	if err != nil {
		return nil, err
	}
	res := &Result{Date: date}

	idx := d.index(in.MessageID)
	if idx < 0 {
		return nil, models.ErrMessageNotFound
	}
	target := d.messages[idx]

	var removed []*models.Message
	if target.IsUser() {
		if pair := d.pairOf(idx); pair != nil {
			removed = append(removed, pair)
		}
	} else {
		removed = append(removed, target)
	}
	for _, msg := range removed {
		m.rollback(d.date, msg, log)
	}
	if target.IsUser() {
		removed = append([]*models.Message{target}, removed...)
	}

	for _, msg := range removed {
		d.remove(msg.ID)
		res.Removed = append(res.Removed, msg.ID)
	}
	res.Stats = m.ledger.Stats(date)
	log.Info("messages deleted", "removed", res.Removed)

	m.persistMessages(ctx, d, res, log)
	m.persistStats(ctx, d.date, res, log)
	for _, id := range res.Removed {
		m.deleteStored(ctx, id, res, log)
	}
	return res, nil
}

// rollback subtracts msg's contribution. The stored record wins; older
// messages without one are re-parsed from their text.
func (m *Manager) rollback(date string, msg *models.Message, log *slog.Logger) {
	if msg.Notice || !msg.IsAssistant() {
		return
	}
	rec, source := RollbackRecord(msg)
	if source == SourceNone {
		log.Info("rollback found no nutrition in message text", "rolled_back_id", msg.ID)
	}
	stats := m.ledger.Subtract(date, rec)
	log.Info("entry rolled back",
		"rolled_back_id", msg.ID, "source", source, "kind", rec.Kind,
		"calories", rec.Calories, "food_total", stats.Calories.Food,
		"exercise_total", stats.Calories.Exercise)
}

type RecordSource string

const (
	SourceStored   RecordSource = "stored"
	SourceRendered RecordSource = "rendered"
	SourceNone     RecordSource = "none"
)

// RollbackRecord returns the record an assistant message contributed.
func RollbackRecord(msg *models.Message) (models.NutritionRecord, RecordSource) {
	if msg.Record != nil {
		return *msg.Record, SourceStored
	}
	rec, ok := nutrition.ParseRendered(msg.Text)
	if !ok {
		return rec, SourceNone
	}
	return rec, SourceRendered
}

// GetDay returns a copy of date's transcript and totals.
func (m *Manager) GetDay(ctx context.Context, date string) (*models.Day, []string) {
	date = m.dateOrToday(date)

	m.mu.Lock()
	defer m.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With("date", date)
	d, err := m.loadDay(ctx, date, log)
	if err != nil {
		return &models.Day{Date: date, Messages: []*models.Message{}}, []string{err.Error()}
	}

	msgs := make([]*models.Message, len(d.messages))
	for i, msg := range d.messages {
		msgs[i] = cloneMessage(msg)
	}
	return &models.Day{
		Date:     date,
		Messages: msgs,
		Stats:    m.ledger.Stats(date),
	}, nil
}

// History lists stored totals for a date range, newest first.
func (m *Manager) History(ctx context.Context, startDate, endDate string, limit int) ([]models.DayStats, error) {
	hs, ok := m.store.(HistoryStore)
	if !ok {
		return nil, fmt.Errorf("store does not support history")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	days, err := hs.ListDailyStats(ctx, startDate, endDate, limit)
	if err != nil {
		return nil, &models.PersistenceError{Op: "list daily stats", Err: err}
	}
	return days, nil
}
