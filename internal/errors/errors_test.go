package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestCaskErrorFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      *CaskError
		wantErr  string
		wantUser string
	}{
		{
			name:     "what only",
			err:      &CaskError{What: "something broke"},
			wantErr:  "something broke",
			wantUser: "Error: something broke",
		},
		{
			name:     "what and why",
			err:      &CaskError{What: "something broke", Why: "bad input"},
			wantErr:  "something broke: bad input",
			wantUser: "Error: something broke\n\nWhy: bad input",
		},
		{
			name: "full error",
			err: &CaskError{
				What: "something broke",
				Why:  "bad input",
				Fix:  "try again",
			},
			wantErr:  "something broke: bad input",
			wantUser: "Error: something broke\n\nWhy: bad input\n\nFix: try again",
		},
		{
			name: "with cause",
			err: &CaskError{
				What:  "something broke",
				Cause: errors.New("underlying error"),
			},
			wantErr:  "something broke: underlying error",
			wantUser: "Error: something broke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantErr {
				t.Errorf("Error() = %q, want %q", got, tt.wantErr)
			}
			if got := tt.err.UserMessage(); got != tt.wantUser {
				t.Errorf("UserMessage() = %q, want %q", got, tt.wantUser)
			}
		})
	}
}

func TestCaskErrorJSON(t *testing.T) {
	err := &CaskError{
		Code:  CodeNotSupported,
		What:  `object type "content" is not supported`,
		Why:   "No delegate is registered for this object type",
		Cause: errors.New("registry miss"),
	}

	data, jsonErr := json.Marshal(err)
	if jsonErr != nil {
		t.Fatalf("marshal: %v", jsonErr)
	}

	var decoded map[string]any
	if jsonErr := json.Unmarshal(data, &decoded); jsonErr != nil {
		t.Fatalf("unmarshal: %v", jsonErr)
	}
	if decoded["code"] != string(CodeNotSupported) {
		t.Errorf("code = %v, want %v", decoded["code"], CodeNotSupported)
	}
	if decoded["cause"] != "registry miss" {
		t.Errorf("cause = %v, want %q", decoded["cause"], "registry miss")
	}
}

func TestCaskErrorIs(t *testing.T) {
	err := ErrNothingToImport("profile")
	if !errors.Is(err, ErrInvalidManifest("")) {
		t.Error("expected errors with the same code to match")
	}
	if errors.Is(err, ErrNotSupported("profile")) {
		t.Error("expected errors with different codes not to match")
	}
}

func TestCaskErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrContainerFailed("pack", cause)
	if !errors.Is(err, cause) {
		t.Error("expected unwrapping to reach the cause")
	}

	wrapped := fmt.Errorf("export: %w", err)
	got := AsCaskError(wrapped)
	if got == nil {
		t.Fatal("expected AsCaskError to find the CaskError through wrapping")
	}
	if got.Code != CodeContainerFailed {
		t.Errorf("code = %v, want %v", got.Code, CodeContainerFailed)
	}
}
