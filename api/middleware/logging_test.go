package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
)

func TestLoggingPassesThroughStatusAndBody(t *testing.T) {
	handler := Logging(logger.New(logger.Options{ServiceName: "test"}))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short and stout"))
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "short and stout" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestLoggingDefaultsImplicitStatus(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, _ = rec.Write([]byte("ok"))

	// The handler never called WriteHeader; the middleware treats that as 200.
	if rec.status != 0 {
		t.Fatalf("expected unset status before WriteHeader, got %d", rec.status)
	}
	rec.WriteHeader(http.StatusNotFound)
	if rec.status != http.StatusNotFound {
		t.Fatalf("expected recorded 404, got %d", rec.status)
	}
}

func TestLoggingNilLoggerStillServes(t *testing.T) {
	handler := Logging(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
