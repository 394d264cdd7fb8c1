package models

import (
	"errors"
	"math"
	"testing"
)

func TestSubmitRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *SubmitRequest
		wantErr error
	}{
		{"single element", &SubmitRequest{Elements: "p", Threshold: 0.8}, nil},
		{"several elements", &SubmitRequest{Elements: "p li  div", Threshold: 0.5}, nil},
		{"dashes and underscores", &SubmitRequest{Elements: "_note para-text", Threshold: 1}, nil},
		{"surrounding space trimmed", &SubmitRequest{Elements: "  p  ", Threshold: 0}, nil},
		{"empty elements", &SubmitRequest{Elements: "", Threshold: 0.5}, ErrInvalidElements},
		{"blank elements", &SubmitRequest{Elements: "   ", Threshold: 0.5}, ErrInvalidElements},
		{"leading digit", &SubmitRequest{Elements: "1p", Threshold: 0.5}, ErrInvalidElements},
		{"path expression", &SubmitRequest{Elements: "//p", Threshold: 0.5}, ErrInvalidElements},
		{"threshold below zero", &SubmitRequest{Elements: "p", Threshold: -0.1}, ErrInvalidThreshold},
		{"threshold above one", &SubmitRequest{Elements: "p", Threshold: 1.01}, ErrInvalidThreshold},
		{"threshold NaN", &SubmitRequest{Elements: "p", Threshold: math.NaN()}, ErrInvalidThreshold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubmitRequest_ValidateTrims(t *testing.T) {
	req := &SubmitRequest{Elements: "  p li ", Threshold: 0.5}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Elements != "p li" {
		t.Errorf("Elements = %q, want %q", req.Elements, "p li")
	}
}

func TestStatus_Display(t *testing.T) {
	if got := (Status{Message: "  done \n"}).Display(); got != "done" {
		t.Errorf("Display() = %q, want %q", got, "done")
	}
	if got := (Status{}).Display(); got != StatusPlaceholder {
		t.Errorf("Display() = %q, want placeholder", got)
	}
	if !(Status{Severity: SeverityError}).IsError() {
		t.Error("error severity should report IsError")
	}
}
