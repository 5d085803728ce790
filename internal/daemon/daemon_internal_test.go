package daemon

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"quill/internal/services"
)

func TestStatusForKind(t *testing.T) {
	cases := map[services.ErrorKind]int{
		services.KindInvalidInput:    http.StatusBadRequest,
		services.KindNotFound:        http.StatusNotFound,
		services.KindInvalidState:    http.StatusConflict,
		services.KindAlreadySelected: http.StatusConflict,
		services.KindNotReady:        http.StatusConflict,
		services.KindUnavailable:     http.StatusServiceUnavailable,
		services.KindTimeout:         http.StatusGatewayTimeout,
		services.KindStageFailure:    http.StatusInternalServerError,
		services.KindUnknown:         http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := statusForKind(kind); got != want {
			t.Fatalf("%s: expected %d, got %d", kind, want, got)
		}
	}
}

func TestWebSocketOriginCheck(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		host    string
		want    bool
	}{
		{name: "no origin header", want: true},
		{name: "loopback without list", origin: "http://localhost:3000", host: "127.0.0.1:7488", want: true},
		{name: "same host without list", origin: "http://quill.lan:7488", host: "quill.lan:7488", want: true},
		{name: "foreign without list", origin: "https://evil.example", host: "127.0.0.1:7488", want: false},
		{name: "listed origin", allowed: []string{"https://quill.example"}, origin: "https://quill.example", want: true},
		{name: "listed host other scheme", allowed: []string{"https://quill.example"}, origin: "http://quill.example", want: true},
		{name: "unlisted with list", allowed: []string{"https://quill.example"}, origin: "http://localhost:3000", want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/ws/abc", nil)
			if tc.host != "" {
				req.Host = tc.host
			}
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if got := newWSUpgrader(tc.allowed).allowed(req); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := authMiddleware("token", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected passthrough, got %d", rec.Code)
	}

	open := authMiddleware("", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec = httptest.NewRecorder()
	open(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected open access without token, got %d", rec.Code)
	}
}
