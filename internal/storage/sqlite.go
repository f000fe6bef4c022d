// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"mcp-food-diary/internal/models"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS messages (
        id INTEGER PRIMARY KEY,
        date TEXT NOT NULL,
        role TEXT NOT NULL,
        text TEXT NOT NULL,
        image_ref TEXT NOT NULL DEFAULT '',
        response_to INTEGER NOT NULL DEFAULT 0,
        record TEXT,
        notice INTEGER NOT NULL DEFAULT 0,
        timestamp TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS daily_stats (
        date TEXT PRIMARY KEY,
        food_calories INTEGER NOT NULL DEFAULT 0,
        exercise_calories INTEGER NOT NULL DEFAULT 0,
        carbs INTEGER NOT NULL DEFAULT 0,
        protein INTEGER NOT NULL DEFAULT 0,
        fat INTEGER NOT NULL DEFAULT 0,
        updated_at TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_messages_date ON messages(date, id);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SaveMessages replaces the stored transcript for date.
func (s *SQLiteStorage) SaveMessages(ctx context.Context, date string, msgs []*models.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE date = ?`, date); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	msgQuery := `
        INSERT INTO messages (id, date, role, text, image_ref, response_to, record, notice, timestamp)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	for _, msg := range msgs {
		var record sql.NullString
		if msg.Record != nil {
			raw, err := json.Marshal(msg.Record)
			if err != nil {
				return fmt.Errorf("failed to encode record for message %d: %w", msg.ID, err)
			}
			record = sql.NullString{String: string(raw), Valid: true}
		}
		_, err = tx.ExecContext(ctx, msgQuery,
			msg.ID, date, string(msg.Role), msg.Text, msg.ImageRef, msg.ResponseTo,
			record, msg.Notice, msg.Timestamp.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("failed to insert message %d: %w", msg.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStorage) LoadMessages(ctx context.Context, date string) ([]*models.Message, error) {
	query := `
        SELECT id, role, text, image_ref, response_to, record, notice, timestamp
        FROM messages
        WHERE date = ?
        ORDER BY id
    `

	rows, err := s.db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		var roleStr, timestampStr string
		var record sql.NullString

		err := rows.Scan(
			&msg.ID, &roleStr, &msg.Text, &msg.ImageRef, &msg.ResponseTo,
			&record, &msg.Notice, &timestampStr)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		msg.Role = models.Role(roleStr)
		if msg.Timestamp, err = time.Parse(time.RFC3339Nano, timestampStr); err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}
		if record.Valid {
			msg.Record = &models.NutritionRecord{}
			if err := json.Unmarshal([]byte(record.String), msg.Record); err != nil {
				return nil, fmt.Errorf("failed to decode record for message %d: %w", msg.ID, err)
			}
		}

		msgs = append(msgs, msg)
	}

	return msgs, rows.Err()
}

func (s *SQLiteStorage) DeleteMessage(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete message %d: %w", id, err)
	}
	return nil
}

func (s *SQLiteStorage) SaveDailyStats(ctx context.Context, date string, stats models.DailyStats) error {
	query := `
        INSERT INTO daily_stats (date, food_calories, exercise_calories, carbs, protein, fat, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(date) DO UPDATE SET
            food_calories = excluded.food_calories,
            exercise_calories = excluded.exercise_calories,
            carbs = excluded.carbs,
            protein = excluded.protein,
            fat = excluded.fat,
            updated_at = excluded.updated_at
    `
	_, err := s.db.ExecContext(ctx, query,
		date, stats.Calories.Food, stats.Calories.Exercise,
		stats.Macros.Carbs, stats.Macros.Protein, stats.Macros.Fat,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save daily stats: %w", err)
	}
	return nil
}

// LoadDailyStats returns zero totals for a date never saved.
func (s *SQLiteStorage) LoadDailyStats(ctx context.Context, date string) (models.DailyStats, error) {
	query := `
        SELECT food_calories, exercise_calories, carbs, protein, fat
        FROM daily_stats
        WHERE date = ?
    `
	var stats models.DailyStats
	err := s.db.QueryRowContext(ctx, query, date).Scan(
		&stats.Calories.Food, &stats.Calories.Exercise,
		&stats.Macros.Carbs, &stats.Macros.Protein, &stats.Macros.Fat)
	if err == sql.ErrNoRows {
		return models.DailyStats{}, nil
	}
	if err != nil {
		return models.DailyStats{}, fmt.Errorf("failed to load daily stats: %w", err)
	}
	return stats, nil
}

// ListDailyStats returns saved totals between startDate and endDate
// (inclusive, either may be empty), newest first.
func (s *SQLiteStorage) ListDailyStats(ctx context.Context, startDate, endDate string, limit int) ([]models.DayStats, error) {
	query := `
        SELECT date, food_calories, exercise_calories, carbs, protein, fat
        FROM daily_stats
        WHERE 1=1
    `
	args := []interface{}{}

	if startDate != "" {
		query += " AND date >= ?"
		args = append(args, startDate)
	}
	if endDate != "" {
		query += " AND date <= ?"
		args = append(args, endDate)
	}

	if limit <= 0 {
		limit = -1
	}
	query += " ORDER BY date DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var days []models.DayStats
	for rows.Next() {
		var d models.DayStats
		err := rows.Scan(&d.Date,
			&d.Stats.Calories.Food, &d.Stats.Calories.Exercise,
			&d.Stats.Macros.Carbs, &d.Stats.Macros.Protein, &d.Stats.Macros.Fat)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		days = append(days, d)
	}

	return days, rows.Err()
}
