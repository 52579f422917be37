package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *Error
		wantKind   Kind
		wantStatus int
		wantMsg    string
	}{
		{"config", Config("Missing OPENAI_API_KEY"), KindConfig, http.StatusInternalServerError, "Missing OPENAI_API_KEY"},
		{"validation", Validation("prompt required"), KindValidation, http.StatusBadRequest, "prompt required"},
		{"upstream", Upstream(errors.New(`{"error":"bad"}`)), KindUpstream, http.StatusInternalServerError, `{"error":"bad"}`},
		{"persistence", Persistence(errors.New("duplicate key")), KindPersistence, http.StatusInternalServerError, "duplicate key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.wantKind)
			}
			if tt.err.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", tt.err.Status, tt.wantStatus)
			}
			if tt.err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	wrapped := fmt.Errorf("save: %w", Validation("Missing fields"))

	if got := StatusOf(wrapped); got != http.StatusBadRequest {
		t.Errorf("StatusOf(wrapped validation) = %d, want 400", got)
	}
	if got := StatusOf(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("StatusOf(plain) = %d, want 500", got)
	}
	if got := KindOf(wrapped); got != KindValidation {
		t.Errorf("KindOf(wrapped) = %v, want validation", got)
	}
}

func TestError_NilSafe(t *testing.T) {
	var e *Error
	if e.Error() != "Server error" {
		t.Errorf("nil Error() = %q", e.Error())
	}
}
