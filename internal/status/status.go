// Package status turns HTTP outcomes into the (message, severity) pairs shown to users.
package status

import (
	"fmt"
	"strings"

	"github.com/hyperjump/semsim/internal/models"
	"github.com/hyperjump/semsim/internal/outcome"
)

const (
	nonJSONSuccess = "Success (non-JSON response)."
	noGroups       = "No similarity groups returned."
)

// Formatter builds statuses for one kind of action. Label ("POST", "GET") is
// prefixed to generated defaults; it may be empty.
type Formatter struct {
	Label string
	// Received replaces the classifier's default text for JSON bodies without
	// groups, error or message.
	Received string
}

// Format returns the status for a finished HTTP exchange. A nil outcome is
// treated as an empty non-JSON body. It never panics.
func (f Formatter) Format(httpOK bool, o outcome.Outcome, code int, statusText string) models.Status {
	if o == nil {
		o = outcome.PlainText{}
	}
	if !httpOK {
		if msg := outcome.Message(o); msg != "" {
			return errorStatus(msg)
		}
		return errorStatus(f.errorDefault(code, statusText))
	}

	switch v := o.(type) {
	case outcome.ServerError:
		if msg := strings.TrimSpace(v.Message); msg != "" {
			return errorStatus(msg)
		}
		return errorStatus(f.errorDefault(code, statusText))
	case outcome.Groups:
		if v.Message != "" {
			return success(v.Message)
		}
		return success(f.okDefault(code, fmt.Sprintf("%d groups visualized.", len(v.Groups))))
	case outcome.EmptyGroups:
		if v.Message != "" {
			return success(v.Message)
		}
		return success(f.okDefault(code, noGroups))
	case outcome.PlainText:
		if v.Default {
			if f.Received != "" {
				return success(f.okDefault(code, f.Received))
			}
			return success(f.okDefault(code, v.Text))
		}
		if text := strings.TrimSpace(v.Text); text != "" {
			return success(text)
		}
		return success(f.okDefault(code, nonJSONSuccess))
	default:
		return success(f.okDefault(code, nonJSONSuccess))
	}
}

// NetworkFailure reports a request that never produced an HTTP response.
func (f Formatter) NetworkFailure(err error) models.Status {
	if err == nil {
		return errorStatus("Network Error")
	}
	return errorStatus("Network Error: " + err.Error())
}

// Progress is an informational status for work in flight.
func (f Formatter) Progress(message string) models.Status {
	return models.Status{Message: message, Severity: models.SeverityInfo}
}

// Failure is an error status with a caller-supplied message.
func (f Formatter) Failure(message string) models.Status {
	return errorStatus(message)
}

func (f Formatter) okDefault(code int, detail string) string {
	return fmt.Sprintf("%sOK (%d): %s", f.prefix(), code, detail)
}

func (f Formatter) errorDefault(code int, statusText string) string {
	return fmt.Sprintf("%sError (%d): %s", f.prefix(), code, statusText)
}

func (f Formatter) prefix() string {
	if f.Label == "" {
		return ""
	}
	return f.Label + " "
}

func success(msg string) models.Status {
	return models.Status{Message: msg, Severity: models.SeveritySuccess}
}

func errorStatus(msg string) models.Status {
	return models.Status{Message: msg, Severity: models.SeverityError}
}
