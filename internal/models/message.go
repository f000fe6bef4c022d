// internal/models/message.go
package models

import (
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a day's transcript. IDs are strictly increasing
// within a day so ordering and pairing stay well defined.
type Message struct {
	ID         int64            `json:"id"`
	Role       Role             `json:"role"`
	Text       string           `json:"text"`
	ImageRef   string           `json:"image_ref,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
	ResponseTo int64            `json:"response_to,omitempty"` // user message this assistant message answers
	Record     *NutritionRecord `json:"record,omitempty"`
	Notice     bool             `json:"notice,omitempty"` // confirmation text, never part of the ledger
}

func (m *Message) IsUser() bool {
	return m.Role == RoleUser
}

func (m *Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// Day is a single date's transcript together with its ledger totals.
type Day struct {
	Date     string     `json:"date"`
	Messages []*Message `json:"messages"`
	Stats    DailyStats `json:"stats"`
}

// DateLayout is the layout of every date key.
const DateLayout = "2006-01-02"

// ModelRequest is one prompt for the language model.
type ModelRequest struct {
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
	ImageRef     string `json:"image_ref,omitempty"`
}
