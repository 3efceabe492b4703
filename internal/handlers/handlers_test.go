package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studyhall-backend/internal/models"
	"studyhall-backend/internal/repository"
	"studyhall-backend/internal/services"
	"studyhall-backend/internal/session"
)

// ─── Error Mapping Tests ───

func TestHandleServiceError_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"title": "required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "exists"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "gone"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "nope"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"no session", session.ErrNoSession, http.StatusConflict, "NO_SESSION"},
		{"paused", session.ErrPaused, http.StatusConflict, "SESSION_PAUSED"},
		{"no draft", session.ErrNoDraft, http.StatusConflict, "NO_DRAFT"},
		{"session ended", session.ErrSessionEnded, http.StatusConflict, "SESSION_ENDED"},
		{"empty selection", session.ErrEmptySelection, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"row not found", repository.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", "req-123")
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantStatus)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Error.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", resp.Error.Code, tc.wantCode)
			}
			if resp.Error.RequestID != "req-123" {
				t.Errorf("request id not echoed: %q", resp.Error.RequestID)
			}
		})
	}
}

func TestHandleServiceError_ValidationFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	handleServiceError(rr, req, &services.ValidationError{Fields: map[string]string{"email": "Email is required"}})

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Fields["email"] != "Email is required" {
		t.Errorf("fields not carried through: %+v", resp.Error.Fields)
	}
}

// ─── JSON Response Tests ───

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]string{"message": "ok"})

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "ok" {
		t.Errorf("body = %+v", body)
	}
}

// ─── Query Param Parsing ───

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantNil bool
		wantErr bool
	}{
		{"empty", "", true, false},
		{"date only", "2026-03-15", false, false},
		{"rfc3339", "2026-03-15T10:30:00Z", false, false},
		{"garbage", "not-a-date", true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseDate(tc.raw)
			if tc.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantNil != (got == nil) {
				t.Fatalf("got = %v, wantNil %v", got, tc.wantNil)
			}
		})
	}
}

func TestParseDate_DateOnlyMidnight(t *testing.T) {
	got, err := parseDate("2026-03-15")
	if err != nil || got == nil {
		t.Fatalf("parse: %v %v", got, err)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("date-only parse should land at midnight, got %v", got)
	}
}

func TestParseDateEnd_DateOnlyCoversWholeDay(t *testing.T) {
	got, err := parseDateEnd("2026-03-15")
	if err != nil || got == nil {
		t.Fatalf("parse: %v %v", got, err)
	}
	// An upper bound of 2026-03-15 must include a bookmark made that
	// afternoon.
	sameDay := time.Date(2026, 3, 15, 16, 45, 0, 0, time.UTC)
	if got.Before(sameDay) {
		t.Errorf("upper bound %v excludes same-day time %v", got, sameDay)
	}
	nextDay := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	if !got.Before(nextDay) {
		t.Errorf("upper bound %v bleeds into the next day", got)
	}
}

func TestParseDateEnd_RFC3339Unchanged(t *testing.T) {
	got, err := parseDateEnd("2026-03-15T10:30:00Z")
	if err != nil || got == nil {
		t.Fatalf("parse: %v %v", got, err)
	}
	want := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
