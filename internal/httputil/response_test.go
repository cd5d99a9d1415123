package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONError(rec, http.StatusBadRequest, "test error")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s, want application/json", ct)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp["error"] != "test error" {
		t.Errorf("error = %s, want 'test error'", resp["error"])
	}
}

func TestWriteJSONOK(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONOK(rec, map[string]int{"count": 42})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp["count"] != 42 {
		t.Errorf("count = %d, want 42", resp["count"])
	}
}

func TestWriteBody(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteBody(rec, "image/png", []byte{0x89, 'P', 'N', 'G'})

	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content-type = %s, want image/png", ct)
	}
	if rec.Body.Len() != 4 {
		t.Errorf("body length = %d, want 4", rec.Body.Len())
	}
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
	}{
		{"method not allowed", func(w http.ResponseWriter) { MethodNotAllowed(w, http.MethodPost) }, http.StatusMethodNotAllowed},
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "invalid input") }, http.StatusBadRequest},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "boom") }, http.StatusInternalServerError},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "missing") }, http.StatusNotFound},
		{"too many", func(w http.ResponseWriter) { TooManyRequests(w, 1) }, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestMethodNotAllowed_SetsAllow(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	MethodNotAllowed(rec, http.MethodPost)

	if got := rec.Header().Get("Allow"); got != http.MethodPost {
		t.Errorf("Allow = %q, want POST", got)
	}
}

func TestTooManyRequests_RetryAfter(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	TooManyRequests(rec, 3)

	if got := rec.Header().Get("Retry-After"); got != "3" {
		t.Errorf("Retry-After = %q, want 3", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Text string `json:"text"`
	}

	tests := []struct {
		name    string
		body    string
		limit   int64
		wantErr error
		wantAny bool
		want    string
	}{
		{name: "valid", body: `{"text":"hi"}`, limit: 1024, want: "hi"},
		{name: "unknown fields ignored", body: `{"text":"hi","extra":1}`, limit: 1024, want: "hi"},
		{name: "empty", body: ``, limit: 1024, wantErr: ErrEmptyBody},
		{name: "malformed", body: `{"text":`, limit: 1024, wantAny: true},
		{name: "trailing data", body: `{"text":"a"} {}`, limit: 1024, wantAny: true},
		{name: "too large", body: `{"text":"` + strings.Repeat("a", 64) + `"}`, limit: 16, wantErr: ErrBodyTooLarge},
		{name: "no limit", body: `{"text":"ok"}`, limit: 0, want: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			var p payload
			err := DecodeJSON(rec, req, &p, tt.limit)

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.wantAny:
				if err == nil {
					t.Error("expected error, got nil")
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if p.Text != tt.want {
					t.Errorf("text = %q, want %q", p.Text, tt.want)
				}
			}
		})
	}
}
