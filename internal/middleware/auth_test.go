package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJWTAuthMiddleware(t *testing.T) {
	auth := NewJWTAuth("test-secret")

	token, err := auth.GenerateAccessToken(42, "aluno@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	var gotUserID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantUserID int64
	}{
		{"valid token", "Bearer " + token, http.StatusOK, 42},
		{"missing header", "", http.StatusUnauthorized, 0},
		{"not bearer", "Basic abc123", http.StatusUnauthorized, 0},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotUserID = 0

			req := httptest.NewRequest(http.MethodGet, "/api/v1/me/weekly-quiz", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rr := httptest.NewRecorder()

			auth.Middleware(next).ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			if gotUserID != tc.wantUserID {
				t.Errorf("Expected user id %d in context, got %d", tc.wantUserID, gotUserID)
			}
		})
	}
}

func TestJWTAuthRejectsOtherSecret(t *testing.T) {
	other := NewJWTAuth("other-secret")
	token, err := other.GenerateAccessToken(7, "x@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	auth := NewJWTAuth("test-secret")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run for a foreign token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rr.Code)
	}
}

func TestParseUserIDClaim(t *testing.T) {
	tests := []struct {
		name  string
		claim interface{}
		want  int64
		ok    bool
	}{
		{"float64", float64(15), 15, true},
		{"string digits", "27", 27, true},
		{"zero", float64(0), 0, false},
		{"negative", float64(-3), 0, false},
		{"fractional", 1.5, 0, false},
		{"non-numeric string", "abc", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseUserIDClaim(tc.claim)
			if ok != tc.ok || got != tc.want {
				t.Errorf("parseUserIDClaim(%v) = (%d, %v), want (%d, %v)", tc.claim, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	RequestID(next).ServeHTTP(rr, req)

	if seen == "" {
		t.Error("Expected a generated request id on the request")
	}
	if rr.Header().Get("X-Request-ID") != seen {
		t.Errorf("Response id %q does not match request id %q", rr.Header().Get("X-Request-ID"), seen)
	}
}

func TestRequestIDPreserved(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()

	RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") != "req-123" {
		t.Errorf("Expected preserved id req-123, got %q", rr.Header().Get("X-Request-ID"))
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	handler := CORS("http://localhost:5173")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Expected allowed origin, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS headers for foreign origin, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS("http://localhost:5173")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run for preflight")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/videos", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", rr.Code)
	}
}
