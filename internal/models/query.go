package models

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	// ErrInvalidElements is returned when element names are empty or malformed.
	ErrInvalidElements = errors.New("invalid element names")
	// ErrInvalidThreshold is returned when the threshold is outside [0, 1].
	ErrInvalidThreshold = errors.New("invalid similarity threshold")
)

// DefaultElements is the element list the API assumes when none is given.
const DefaultElements = "p"

var elementNamesPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*(\s+[a-zA-Z_][a-zA-Z0-9_-]*)*$`)

// SubmitRequest holds the parameters of a similarity submission.
type SubmitRequest struct {
	// Elements is a space separated list of XML element names to extract text from.
	Elements  string  `json:"elements"`
	Threshold float64 `json:"threshold"`
}

// Validate trims Elements and checks both fields.
func (r *SubmitRequest) Validate() error {
	r.Elements = strings.TrimSpace(r.Elements)
	if r.Elements == "" {
		return fmt.Errorf("%w: element names are required", ErrInvalidElements)
	}
	if !elementNamesPattern.MatchString(r.Elements) {
		return fmt.Errorf("%w: %q", ErrInvalidElements, r.Elements)
	}
	if math.IsNaN(r.Threshold) || r.Threshold < 0 || r.Threshold > 1 {
		return fmt.Errorf("%w: %v is not between 0.0 and 1.0", ErrInvalidThreshold, r.Threshold)
	}
	return nil
}
