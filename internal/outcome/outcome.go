// Package outcome classifies raw similarity API responses into a closed set of outcomes.
package outcome

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/hyperjump/semsim/internal/models"
)

// ResponseReceived is the text of a PlainText outcome for JSON bodies that carry
// neither groups, an error, nor a message.
const ResponseReceived = "Response received, but no 'similarityGroups' array found."

// Kind names an outcome variant.
type Kind string

const (
	KindGroups      Kind = "groups"
	KindEmptyGroups Kind = "empty_groups"
	KindServerError Kind = "server_error"
	KindPlainText   Kind = "plain_text"
)

// Outcome is the classified shape of one response body. The implementations
// are Groups, EmptyGroups, ServerError and PlainText; no others exist.
type Outcome interface {
	Kind() Kind
	sealed()
}

// Groups is a response carrying at least one similarity group.
type Groups struct {
	Groups  []models.SimilarityGroup
	Message string
}

// EmptyGroups is a response with a similarityGroups array of length zero.
type EmptyGroups struct {
	Message string
}

// ServerError is a response whose body carries an error field.
type ServerError struct {
	Message string
}

// PlainText is everything else. JSON reports whether the body parsed as JSON;
// Default marks Text as the ResponseReceived placeholder rather than server text.
type PlainText struct {
	Text    string
	JSON    bool
	Default bool
}

func (Groups) Kind() Kind      { return KindGroups }
func (EmptyGroups) Kind() Kind { return KindEmptyGroups }
func (ServerError) Kind() Kind { return KindServerError }
func (PlainText) Kind() Kind   { return KindPlainText }

func (Groups) sealed()      {}
func (EmptyGroups) sealed() {}
func (ServerError) sealed() {}
func (PlainText) sealed()   {}

// KindOf returns the kind of o; a nil outcome is an empty PlainText.
func KindOf(o Outcome) Kind {
	if o == nil {
		return KindPlainText
	}
	return o.Kind()
}

// Classify turns a raw body into an Outcome. An error field wins over
// everything else, even when httpOK is true; httpOK never changes the kind.
func Classify(httpOK bool, body string) Outcome {
	trimmed := strings.TrimSpace(body)
	raw := []byte(trimmed)
	if len(raw) == 0 || !json.Valid(raw) {
		return PlainText{Text: trimmed}
	}

	switch raw[0] {
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return PlainText{Text: trimmed}
		}
		return classifyObject(fields)
	case '[':
		// Completed results are sometimes sent as a bare array of groups.
		var groups []models.SimilarityGroup
		if err := json.Unmarshal(raw, &groups); err != nil {
			return PlainText{Text: trimmed}
		}
		return groupsOutcome(groups, "")
	default:
		return PlainText{Text: ResponseReceived, JSON: true, Default: true}
	}
}

func classifyObject(fields map[string]json.RawMessage) Outcome {
	if msg, ok := fieldText(fields["error"]); ok {
		return ServerError{Message: msg}
	}
	message, _ := fieldText(fields["message"])
	if rawGroups, ok := fields["similarityGroups"]; ok && isArray(rawGroups) {
		var groups []models.SimilarityGroup
		if err := json.Unmarshal(rawGroups, &groups); err == nil {
			return groupsOutcome(groups, message)
		}
	}
	if message != "" {
		return PlainText{Text: message, JSON: true}
	}
	return PlainText{Text: ResponseReceived, JSON: true, Default: true}
}

func groupsOutcome(groups []models.SimilarityGroup, message string) Outcome {
	if len(groups) == 0 {
		return EmptyGroups{Message: message}
	}
	return Groups{Groups: groups, Message: message}
}

// fieldText returns the display text of a JSON field and whether it counts as
// set. Missing, null, false, "" and numeric zero fields are unset.
func fieldText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch string(raw) {
	case "null", "false", `""`:
		return "", false
	}
	if n, err := strconv.ParseFloat(string(raw), 64); err == nil && n == 0 {
		return "", false
	}
	text := models.Item(raw).Text()
	return text, text != ""
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// Message returns the server-provided text embedded in o, or "" when there is none.
func Message(o Outcome) string {
	switch v := o.(type) {
	case Groups:
		return v.Message
	case EmptyGroups:
		return v.Message
	case ServerError:
		return v.Message
	case PlainText:
		if v.Default {
			return ""
		}
		return strings.TrimSpace(v.Text)
	default:
		return ""
	}
}

// GroupsOf returns the groups of a Groups outcome and nil for every other kind.
func GroupsOf(o Outcome) []models.SimilarityGroup {
	if g, ok := o.(Groups); ok {
		return g.Groups
	}
	return nil
}
