package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agrisense/leafdoctor/backend/imaging"
	"github.com/agrisense/leafdoctor/backend/models"
)

func tinyTensor() imaging.Tensor {
	return imaging.Tensor{{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}}
}

func TestModelServerClient_Predict(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody struct {
		Instances [][][][]float32 `json:"instances"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predictions": [[0.1, 0.7, 0.2]]}`))
	}))
	defer server.Close()

	client := NewModelServerClient(server.URL+"/", 5*time.Second, "")
	scores, err := client.Predict(context.Background(), "tomato_disease", tinyTensor())
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/v1/models/tomato_disease:predict" {
		t.Errorf("Expected POST /v1/models/tomato_disease:predict, got %s %s", gotMethod, gotPath)
	}
	if len(gotBody.Instances) != 1 || len(gotBody.Instances[0][0]) != 2 {
		t.Errorf("Expected one 1x2x3 instance, got %v", gotBody.Instances)
	}
	if len(scores) != 3 || scores[1] != 0.7 {
		t.Errorf("Expected [0.1 0.7 0.2], got %v", scores)
	}
}

func TestModelServerClient_PredictFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error": "crashed"}`},
		{"not found", http.StatusNotFound, `{"error": "Servable not found"}`},
		{"error field", http.StatusOK, `{"error": "input size mismatch"}`},
		{"no predictions", http.StatusOK, `{"outputs": []}`},
		{"predictions not an array", http.StatusOK, `{"predictions": [3]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewModelServerClient(server.URL, 5*time.Second, "")
			_, err := client.Predict(context.Background(), "tomato_disease", tinyTensor())
			if !errors.Is(err, models.ErrModelUnavailable) {
				t.Errorf("Expected ErrModelUnavailable, got %v", err)
			}
		})
	}
}

func TestModelServerClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewModelServerClient(url, time.Second, "")
	_, err := client.Predict(context.Background(), "tomato_disease", tinyTensor())
	if !errors.Is(err, models.ErrModelUnavailable) {
		t.Errorf("Expected ErrModelUnavailable, got %v", err)
	}
}

func TestModelServerClient_RejectsInvalidModelName(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewModelServerClient(server.URL, time.Second, "")
	if _, err := client.Predict(context.Background(), "../admin", tinyTensor()); err == nil {
		t.Error("Expected error for invalid model name")
	}
	if _, err := client.HasRescaling(context.Background(), "a/b"); err == nil {
		t.Error("Expected error for invalid model name")
	}
	if called {
		t.Error("Expected no request for an invalid model name")
	}
}

func TestModelServerClient_HasRescaling(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"rescaling layer", `{"metadata":{"signature_def":{"layers":["Rescaling","Conv2D"]}}}`, true},
		{"no rescaling", `{"metadata":{"signature_def":{"layers":["Conv2D","Dense"]}}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			got, err := NewModelServerClient(server.URL, time.Second, "").HasRescaling(context.Background(), "potato_disease")
			if err != nil {
				t.Fatalf("HasRescaling failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
			if gotPath != "/v1/models/potato_disease/metadata" {
				t.Errorf("Unexpected path %s", gotPath)
			}
		})
	}
}

func TestModelServerClient_ModelStatus(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"available", `{"model_version_status":[{"version":"1","state":"AVAILABLE","status":{"error_code":"OK"}}]}`, "AVAILABLE"},
		{"loading", `{"model_version_status":[{"version":"2","state":"LOADING"}]}`, "LOADING"},
		{"missing state", `{}`, "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/models/rice_disease" {
					http.NotFound(w, r)
					return
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			got, err := NewModelServerClient(server.URL, time.Second, "").ModelStatus(context.Background(), "rice_disease")
			if err != nil {
				t.Fatalf("ModelStatus failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
