// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"mcp-food-diary/internal/diary"
	"mcp-food-diary/internal/models"
)

var errInvalidParams = errors.New("invalid parameters")

type SendMessageParams struct {
	Date     string `json:"date,omitempty" description:"Diary date (YYYY-MM-DD), defaults to today"`
	Text     string `json:"text" description:"What was eaten or done; \"reset\" clears today's totals"`
	ImageRef string `json:"image_ref,omitempty" description:"URL of an attached photo"`
}

type EditMessageParams struct {
	Date       string `json:"date,omitempty" description:"Diary date (YYYY-MM-DD), defaults to today"`
	MessageID  int64  `json:"message_id" description:"ID of the user message to rewrite"`
	Text       string `json:"text" description:"Replacement text"`
	ImageRef   string `json:"image_ref,omitempty" description:"Replacement photo URL"`
	ClearImage bool   `json:"clear_image,omitempty" description:"Drop the attached photo"`
}

type DeleteMessageParams struct {
	Date      string `json:"date,omitempty" description:"Diary date (YYYY-MM-DD), defaults to today"`
	MessageID int64  `json:"message_id" description:"ID of the message to delete"`
}

type GetDayParams struct {
	Date string `json:"date,omitempty" description:"Diary date (YYYY-MM-DD), defaults to today"`
}

type GetHistoryParams struct {
	StartDate string `json:"start_date,omitempty" description:"Start date for the query (YYYY-MM-DD)"`
	EndDate   string `json:"end_date,omitempty" description:"End date for the query (YYYY-MM-DD)"`
	Limit     int    `json:"limit,omitempty" description:"Maximum number of days to return"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	// Convert the Arguments map to JSON bytes, then unmarshal to target
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	return nil
}

func validDate(field, date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return fmt.Errorf("%w: %s must be YYYY-MM-DD", errInvalidParams, field)
	}
	return nil
}

// actionResponse is what the mutating tools return. A failed model call
// still reports the user message that was kept.
type actionResponse struct {
	*diary.Result
	Error string `json:"error,omitempty"`
}

func (s *DiaryServer) handleSendMessage(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params SendMessageParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := validDate("date", params.Date); err != nil {
		return nil, err
	}

	res, err := s.diary.Send(ctx, diary.SendInput{
		Date:     params.Date,
		Text:     params.Text,
		ImageRef: params.ImageRef,
	})
	return s.actionResult(res, err)
}

func (s *DiaryServer) handleEditMessage(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params EditMessageParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := validDate("date", params.Date); err != nil {
		return nil, err
	}
	if params.MessageID == 0 {
		return nil, fmt.Errorf("%w: message_id is required", errInvalidParams)
	}

	res, err := s.diary.Edit(ctx, diary.EditInput{
		Date:       params.Date,
		MessageID:  params.MessageID,
		Text:       params.Text,
		ImageRef:   params.ImageRef,
		ClearImage: params.ClearImage,
	})
	return s.actionResult(res, err)
}

func (s *DiaryServer) handleDeleteMessage(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params DeleteMessageParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := validDate("date", params.Date); err != nil {
		return nil, err
	}
	if params.MessageID == 0 {
		return nil, fmt.Errorf("%w: message_id is required", errInvalidParams)
	}

	res, err := s.diary.Delete(ctx, diary.DeleteInput{
		Date:      params.Date,
		MessageID: params.MessageID,
	})
	return s.actionResult(res, err)
}

// actionResult turns a model or extraction failure that left the user
// message in place into an error result the client can still render.
func (s *DiaryServer) actionResult(res *diary.Result, err error) (*protocol.CallToolResult, error) {
	if err == nil {
		return s.createJSONResponse(actionResponse{Result: res})
	}
	var (
		callErr    *models.ModelCallError
		extractErr *models.ExtractionError
	)
	if res == nil || !(errors.As(err, &callErr) || errors.As(err, &extractErr)) {
		return nil, err
	}
	result, rerr := s.createJSONResponse(actionResponse{Result: res, Error: err.Error()})
	if rerr != nil {
		return nil, rerr
	}
	result.IsError = true
	return result, nil
}

func (s *DiaryServer) handleGetDay(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetDayParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := validDate("date", params.Date); err != nil {
		return nil, err
	}

	day, warnings := s.diary.GetDay(ctx, params.Date)
	return s.createJSONResponse(struct {
		*models.Day
		Warnings []string `json:"warnings,omitempty"`
	}{day, warnings})
}

func (s *DiaryServer) handleGetHistory(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetHistoryParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := validDate("start_date", params.StartDate); err != nil {
		return nil, err
	}
	if err := validDate("end_date", params.EndDate); err != nil {
		return nil, err
	}

	// Set defaults
	if params.Limit <= 0 {
		params.Limit = 30
	}

	days, err := s.diary.History(ctx, params.StartDate, params.EndDate, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve history: %w", err)
	}

	return s.createJSONResponse(days)
}

func (s *DiaryServer) registerTools() {
	s.tools = map[string]toolHandler{
		"send_message":   s.handleSendMessage,
		"edit_message":   s.handleEditMessage,
		"delete_message": s.handleDeleteMessage,
		"get_day":        s.handleGetDay,
		"get_history":    s.handleGetHistory,
	}
}

func (s *DiaryServer) toolNames() []string {
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
