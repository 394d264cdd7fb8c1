package models

import "strings"

// APIResponse is the JSON envelope the similarity API uses for messages and errors.
type APIResponse struct {
	Message          string            `json:"message,omitempty"`
	Error            string            `json:"error,omitempty"`
	SessionID        string            `json:"sessionId,omitempty"`
	SimilarityGroups []SimilarityGroup `json:"similarityGroups,omitempty"`
}

// Severity drives how a status is styled.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// StatusPlaceholder is shown when a status carries no message.
const StatusPlaceholder = "Status..."

// Status is a normalized message shown to the user after an action.
type Status struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Display returns the trimmed message, or StatusPlaceholder when it is empty.
func (s Status) Display() string {
	if m := strings.TrimSpace(s.Message); m != "" {
		return m
	}
	return StatusPlaceholder
}

// IsError reports whether the status has error severity.
func (s Status) IsError() bool {
	return s.Severity == SeverityError
}
