// Package models defines the core data structures for CocoroChat.
//
// It includes the conversation turn record, API request payloads, and the
// shared JSON response envelope used by all endpoints.
package models

import (
	"errors"
	"time"
)

// ChatDateLayout is the calendar-date format used to scope conversation days.
const ChatDateLayout = "2006-01-02"

// Validation constants for input validation
const (
	// MaxUserMessageLength defines the maximum allowed length for a consultation message
	MaxUserMessageLength = 4096
	// MaxUserIDLength defines the maximum allowed length for a user identifier
	MaxUserIDLength = 128
)

// Error variables for better error handling and testability
var (
	ErrEmptyUserID     = errors.New("user_id cannot be empty")
	ErrUserIDTooLong   = errors.New("user_id exceeds maximum length")
	ErrEmptyMessage    = errors.New("message cannot be empty")
	ErrMessageTooLong  = errors.New("message exceeds maximum length")
	ErrEmptyScoreText  = errors.New("text cannot be empty")
	ErrInvalidChatDate = errors.New("date must be in YYYY-MM-DD format")
)

// Turn represents one completed exchange in a conversation day: the user's
// message, the assistant's reply, and the phase the day is fixed to.
type Turn struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ChatDate    string    `json:"chat_date"` // YYYY-MM-DD, the conversation day
	UserMessage string    `json:"user_message"`
	BotMessage  string    `json:"bot_message"`
	Phase       string    `json:"phase"`
	MessageTime time.Time `json:"message_time"`
}

// TurnRequest represents the payload for running one conversation turn.
type TurnRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Validate performs validation on a TurnRequest.
func (r *TurnRequest) Validate() error {
	if r.UserID == "" {
		return ErrEmptyUserID
	}
	if len(r.UserID) > MaxUserIDLength {
		return ErrUserIDTooLong
	}
	if r.Message == "" {
		return ErrEmptyMessage
	}
	if len(r.Message) > MaxUserMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// ScoreRequest represents the payload for the keyword-scoring preview endpoint.
type ScoreRequest struct {
	Text string `json:"text"`
}

// Validate performs validation on a ScoreRequest.
func (r *ScoreRequest) Validate() error {
	if r.Text == "" {
		return ErrEmptyScoreText
	}
	if len(r.Text) > MaxUserMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// ParseChatDate validates and normalizes a YYYY-MM-DD calendar date string.
func ParseChatDate(s string) (string, error) {
	t, err := time.Parse(ChatDateLayout, s)
	if err != nil {
		return "", ErrInvalidChatDate
	}
	return t.Format(ChatDateLayout), nil
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
	// APIStatusDegraded indicates a request succeeded but durability was not guaranteed.
	APIStatusDegraded APIStatus = "degraded"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{
		response: APIResponse{},
	}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}

// Degraded creates a degraded API response carrying a result and a warning message.
func Degraded(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusDegraded).
		WithMessage(message).
		WithResult(result).
		Build()
}
