// ABOUTME: Tests for the health command
// ABOUTME: Verifies health check output formatting and exit codes

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agrisense/leafdoctor/cli/internal/client"
)

func TestFormatHealthHuman(t *testing.T) {
	resp := &client.HealthResponse{
		Status:      "ok",
		ModelServer: map[string]string{"tomato_disease": "AVAILABLE", "grape_disease": "LOADING"},
		Catalog:     client.CatalogStatus{Driver: "sqlite", Pesticides: 14},
		Uploads:     "fs",
		LLM:         "configured",
	}

	output := formatHealthHuman("http://localhost:8080", resp)

	for _, want := range []string{"http://localhost:8080", "sqlite (14 pesticides)", "tomato_disease", "LOADING"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
	if strings.Index(output, "grape_disease") > strings.Index(output, "tomato_disease") {
		t.Error("expected models sorted by name")
	}
}

func TestHealthCommand_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(client.HealthResponse{
			Status:      "ok",
			ModelServer: map[string]string{"rice_disease": "AVAILABLE"},
		})
	}))
	defer server.Close()

	apiURL = server.URL
	defer func() { apiURL = "" }()

	var buf bytes.Buffer
	exitCode := runHealth(context.Background(), &buf)

	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if !bytes.Contains(buf.Bytes(), []byte("rice_disease")) {
		t.Error("expected model name in output")
	}
}

func TestHealthCommand_Degraded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(client.HealthResponse{Status: "degraded"})
	}))
	defer server.Close()

	apiURL = server.URL
	defer func() { apiURL = "" }()
	jsonOutput = true
	defer func() { jsonOutput = false }()

	var buf bytes.Buffer
	exitCode := runHealth(context.Background(), &buf)

	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed["backend"] != server.URL {
		t.Errorf("expected backend URL in JSON, got %v", parsed["backend"])
	}
}

func TestHealthCommand_ConnectionError(t *testing.T) {
	apiURL = "http://localhost:99999"
	defer func() { apiURL = "" }()

	var buf bytes.Buffer
	exitCode := runHealth(context.Background(), &buf)

	if exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Error:")) {
		t.Error("expected error message in output")
	}
}
