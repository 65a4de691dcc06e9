package ui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler(t *testing.T) {
	h := Handler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /: status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Hospital AI Agents") {
		t.Fatal("GET /: status page not served")
	}
}

func TestHandler_spaFallback(t *testing.T) {
	h := Handler()
	req := httptest.NewRequest(http.MethodGet, "/panel/agents", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /panel/agents (fallback): status=%d", rec.Code)
	}
}
