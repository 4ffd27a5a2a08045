package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/agrisense/leafdoctor/backend/models"
	"github.com/anthropics/anthropic-sdk-go"
)

// fakeMessagesAPI serves canned Messages API replies and records request bodies
type fakeMessagesAPI struct {
	mu     sync.Mutex
	reply  string
	status int
	bodies []string
	// acceptKey, when set, answers 401 to any other x-api-key
	acceptKey string
	keys      []string
}

func (f *fakeMessagesAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.bodies = append(f.bodies, string(body))
	key := r.Header.Get("X-Api-Key")
	f.keys = append(f.keys, key)
	reply, status := f.reply, f.status
	if f.acceptKey != "" && key != f.acceptKey {
		status = http.StatusUnauthorized
	}
	f.mu.Unlock()

	if r.URL.Path != "/v1/messages" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
		return
	}
	text, _ := json.Marshal(reply)
	_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"test-model",` +
		`"content":[{"type":"text","text":` + string(text) + `}],` +
		`"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`))
}

func (f *fakeMessagesAPI) apiKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func (f *fakeMessagesAPI) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.bodies...)
}

func newFakeMessagesAPI(t *testing.T, reply string) (*fakeMessagesAPI, LLMConfig) {
	t.Helper()
	api := &fakeMessagesAPI{reply: reply}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, LLMConfig{APIKey: "test-key", BaseURL: srv.URL, VisionModel: "vision-model", ChatModel: "chat-model"}
}

func TestAnthropicHolder_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	h := NewAnthropicHolder(LLMConfig{})

	_, err := h.EnsureInitialized(context.Background())
	if !errors.Is(err, models.ErrExternalServiceUnavailable) {
		t.Errorf("Expected ErrExternalServiceUnavailable, got %v", err)
	}
}

func TestParseVisionReply(t *testing.T) {
	tests := []struct {
		reply  string
		want   models.Crop
		wantOK bool
	}{
		{"tomato", models.CropTomato, true},
		{"Tomato.", models.CropTomato, true},
		{"  RICE \n", models.CropRice, true},
		{"\"potato\" leaf", models.CropPotato, true},
		{"corn", models.CropMaize, true},
		{"none", "", false},
		{"None.", "", false},
		{"banana", "", false},
		{"", "", false},
		{"I think it is tomato", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			got, ok := ParseVisionReply(tt.reply)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseVisionReply(%q) = %q, %v; expected %q, %v", tt.reply, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAnthropicVision_IdentifyCrop(t *testing.T) {
	api, cfg := newFakeMessagesAPI(t, "Tomato.")
	v := NewAnthropicVision(NewAnthropicHolder(cfg), cfg.VisionModel)

	crop, ok, err := v.IdentifyCrop(context.Background(), []byte("fake-jpeg"), "image/jpeg")
	if err != nil {
		t.Fatalf("IdentifyCrop failed: %v", err)
	}
	if !ok || crop != models.CropTomato {
		t.Errorf("Expected tomato, got %q (%v)", crop, ok)
	}

	reqs := api.requests()
	if len(reqs) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(reqs))
	}
	for _, want := range []string{`"vision-model"`, `"image/jpeg"`, `"base64"`, "none"} {
		if !strings.Contains(reqs[0], want) {
			t.Errorf("Expected request to contain %s", want)
		}
	}
}

func TestAnthropicVision_OutOfVocabularyIsMiss(t *testing.T) {
	_, cfg := newFakeMessagesAPI(t, "mango")
	v := NewAnthropicVision(NewAnthropicHolder(cfg), cfg.VisionModel)

	_, ok, err := v.IdentifyCrop(context.Background(), []byte("x"), "image/png")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ok {
		t.Error("Expected a miss for an unknown crop")
	}
}

func TestAnthropicVision_ServerError(t *testing.T) {
	api, cfg := newFakeMessagesAPI(t, "")
	api.status = http.StatusInternalServerError
	v := NewAnthropicVision(NewAnthropicHolder(cfg), cfg.VisionModel)

	_, _, err := v.IdentifyCrop(context.Background(), []byte("x"), "image/png")
	if !errors.Is(err, models.ErrExternalServiceUnavailable) {
		t.Errorf("Expected ErrExternalServiceUnavailable, got %v", err)
	}
}

func TestComplete_RejectedCredentialsRebuildClient(t *testing.T) {
	api, cfg := newFakeMessagesAPI(t, "potato")
	api.acceptKey = "rotated-key"
	cfg.APIKey = ""
	t.Setenv("ANTHROPIC_API_KEY", "stale-key")
	v := NewAnthropicVision(NewAnthropicHolder(cfg), cfg.VisionModel)

	_, _, err := v.IdentifyCrop(context.Background(), []byte("x"), "image/png")
	if !errors.Is(err, models.ErrExternalServiceUnavailable) {
		t.Fatalf("Expected ErrExternalServiceUnavailable for a rejected key, got %v", err)
	}

	t.Setenv("ANTHROPIC_API_KEY", "rotated-key")
	crop, ok, err := v.IdentifyCrop(context.Background(), []byte("x"), "image/png")
	if err != nil {
		t.Fatalf("IdentifyCrop after key rotation failed: %v", err)
	}
	if !ok || crop != models.CropPotato {
		t.Errorf("Expected potato, got %q (%v)", crop, ok)
	}

	keys := api.apiKeys()
	if len(keys) != 2 || keys[0] != "stale-key" || keys[1] != "rotated-key" {
		t.Errorf("Expected stale then rotated key, got %v", keys)
	}
}

func TestComplete_ServerErrorKeepsClient(t *testing.T) {
	builds := 0
	api, cfg := newFakeMessagesAPI(t, "")
	api.status = http.StatusInternalServerError
	inner := NewAnthropicHolder(cfg)
	holder := NewHolder(func(ctx context.Context) (anthropic.Client, error) {
		builds++
		return inner.EnsureInitialized(ctx)
	})

	for i := 0; i < 2; i++ {
		if _, err := complete(context.Background(), holder, "m", "", 16, anthropic.NewTextBlock("hi")); err == nil {
			t.Fatal("Expected an error from a failing server")
		}
	}
	if builds != 1 {
		t.Errorf("Expected the client to be built once, got %d builds", builds)
	}
}
