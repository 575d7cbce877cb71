package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"MarketGraph/internal/query"
)

func TestLimitParam(t *testing.T) {
	cases := []struct {
		url  string
		want int
	}{
		{"/v1/entities/User", 0},
		{"/v1/entities/User?limit=25", 25},
		{"/v1/entities/User?limit=abc", 0},
		{"/v1/entities/User?limit=-1", -1},
	}

	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, tc.url, nil)
		if got := limitParam(r); got != tc.want {
			t.Errorf("limitParam(%q) = %d, want %d", tc.url, got, tc.want)
		}
	}
}

func TestWriteErrorStatusMapping(t *testing.T) {
	s := &HTTPServer{log: zerolog.Nop()}

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", query.ErrNotFound, http.StatusNotFound},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"internal", context.Canceled, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.writeError(w, "test", tc.err)
			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}
