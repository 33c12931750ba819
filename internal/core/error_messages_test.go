package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCode      string
		wantRetryable bool
	}{
		{"nil error returns empty", nil, "", false},
		{"rejected run", &RejectedError{Errors: []string{"row 2"}}, "DRV007", false},
		{"wrapped locale not found", fmt.Errorf("%w: xx_XX", ErrLocaleNotFound), "DRV001", false},
		{"unknown format", fmt.Errorf("%w: csv9", ErrUnknownFormat), "DRV002", false},
		{"codes exhausted", ErrCodeGenerationExhausted, "DRV003", false},
		{"copy source missing", fmt.Errorf("copy foods: %w", &CopySourceMissingError{Codes: []string{"ABCD"}}), "DRV004", false},
		{"code conflict", fmt.Errorf("create foods: %w", ErrCodeConflict), "DRV005", true},
		{"limiter busy", ErrTooManyRuns, "DRV006", true},
		{"invalid csv", fmt.Errorf("%w at row 3: bare quote", ErrInvalidSheet), "FILE001", false},
		{"empty file", ErrEmptyInput, "FILE002", false},
		{"deadline", fmt.Errorf("load catalogs: %w", context.DeadlineExceeded), "REQ002", true},
		{"canceled", context.Canceled, "REQ001", true},
		{"driver duplicate key", errors.New("ERROR: duplicate key value violates unique constraint"), "DB001", true},
		{"driver foreign key", errors.New("insert or update violates foreign key constraint"), "DB003", false},
		{"connection refused", errors.New("dial tcp: connection refused"), "DB004", true},
		{"file too large", errors.New("file too large: 30MB exceeds limit"), "FILE003", false},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001", true},
		{"case insensitive", errors.New("DEADLOCK detected"), "DB007", true},
		{"unknown", errors.New("some random internal error"), "ERR000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError().Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Retryable != tt.wantRetryable {
				t.Errorf("MapError().Retryable = %v, want %v", got.Retryable, tt.wantRetryable)
			}
			if IsRetryable(tt.err) != tt.wantRetryable {
				t.Errorf("IsRetryable() = %v, want %v", IsRetryable(tt.err), tt.wantRetryable)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	got := FormatUserError(ErrTooManyRuns)
	want := "System is busy with other derivations (Code: DRV006). Please wait a moment and try again"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true")
	}
	if !IsUserFacing(ErrLocaleNotFound) {
		t.Error("IsUserFacing(ErrLocaleNotFound) = false")
	}
	if IsUserFacing(errors.New("segfault in the flux capacitor")) {
		t.Error("IsUserFacing(unknown) = true")
	}
}

func TestNewUserError(t *testing.T) {
	if NewUserError(nil) != nil {
		t.Fatal("NewUserError(nil) should be nil")
	}

	technical := fmt.Errorf("commit: %w", ErrCodeConflict)
	ue := NewUserError(technical)

	if ue.User.Code != "DRV005" {
		t.Errorf("Code = %q, want DRV005", ue.User.Code)
	}
	if ue.Error() != ue.User.Message {
		t.Errorf("Error() = %q, want user message", ue.Error())
	}
	if !errors.Is(ue, ErrCodeConflict) {
		t.Error("UserError should unwrap to the technical error")
	}

	pattern := NewUserError(errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	if got := MapError(fmt.Errorf("derive: %w", pattern)).Code; got != "DB004" {
		t.Errorf("MapError(wrapped UserError) code = %q, want DB004", got)
	}
}
