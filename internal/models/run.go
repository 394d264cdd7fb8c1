package models

import "time"

// Action names the API call a Run records.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionResults Action = "results"
)

// Run is one recorded call to the similarity API.
type Run struct {
	ID         string    `json:"id" db:"id"`
	SessionID  string    `json:"session_id,omitempty" db:"session_id"`
	Action     Action    `json:"action" db:"action"`
	URL        string    `json:"url" db:"url"`
	HTTPStatus int       `json:"http_status" db:"http_status"`
	OK         bool      `json:"ok" db:"ok"`
	Outcome    string    `json:"outcome" db:"outcome"`
	Severity   Severity  `json:"severity" db:"severity"`
	Message    string    `json:"message" db:"message"`
	GroupCount int       `json:"group_count" db:"group_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
