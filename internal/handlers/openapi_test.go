package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
)

const testOpenAPIDoc = `openapi: 3.0.3
info:
  title: Codemate API
  version: 1.0.0
paths:
  /healthz:
    get:
      responses:
        "200":
          description: OK
`

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "openapi.yaml")
	if err := os.WriteFile(path, []byte(testOpenAPIDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	h, err := NewOpenAPIHandler(path)
	if err != nil {
		t.Fatalf("NewOpenAPIHandler() error = %v", err)
	}
	r := mux.NewRouter()
	h.RegisterRoutes(r.PathPrefix("/api/v1").Subrouter())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.yaml", nil))
	if w.Code != http.StatusOK || w.Body.String() != testOpenAPIDoc {
		t.Errorf("Unexpected YAML response %d: %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.json", nil))
	var doc map[string]any
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Errorf("Expected openapi 3.0.3, got %v", doc["openapi"])
	}
}

func TestOpenAPIHandlerRejectsBadDocuments(t *testing.T) {
	t.Parallel()

	if _, err := NewOpenAPIHandler(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := newOpenAPIHandler([]byte("info: [unclosed")); err == nil {
		t.Error("Expected error for malformed YAML")
	}
	if _, err := newOpenAPIHandler([]byte("info:\n  title: x\n")); err == nil {
		t.Error("Expected error for document without openapi field")
	}
}
