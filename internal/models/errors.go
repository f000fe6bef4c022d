package models

import (
	"errors"
	"fmt"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrNotUserMessage  = errors.New("only user messages can be edited")
	ErrEmptyInput      = errors.New("message text or image is required")
)

// ModelCallError reports a failed round trip to the language model.
type ModelCallError struct {
	Err error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model call failed: %v", e.Err)
}

func (e *ModelCallError) Unwrap() error {
	return e.Err
}

// ExtractionError means no JSON object could be recovered from a model reply.
type ExtractionError struct {
	Raw string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("could not extract nutrition from model response: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// PersistenceError is non-fatal: in-memory state stays authoritative.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
