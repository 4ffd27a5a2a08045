package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/agrisense/leafdoctor/backend/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestFallbackReply(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"My tomato has brown spots with rings", answerTomatoEarlyBlight},
		{"tomato late blight help", answerTomatoLateBlight},
		{"Septoria on my tomato?", answerTomatoSeptoria},
		{"what is wrong with my tomato", answerPesticide},
		{"Rice blast everywhere", answerRiceBlast},
		{"which fungicide should I use", answerPesticide},
		{"how much money will it cost", answerCost},
		{"how do I prevent this", answerPrevention},
		{"any neem based options", answerOrganic},
		{"will the monsoon make it worse", answerWeather},
		{"hello", answerDefault},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := FallbackReply(tt.message); got != tt.want {
				t.Errorf("FallbackReply(%q) = %q", tt.message, got)
			}
		})
	}
}

func TestDiagnosisContext(t *testing.T) {
	if got := DiagnosisContext(nil); got != "" {
		t.Errorf("Expected empty context for nil, got %q", got)
	}
	if got := DiagnosisContext(&ChatDiagnosis{Crop: "tomato"}); got != "" {
		t.Errorf("Expected empty context without disease, got %q", got)
	}
	got := DiagnosisContext(&ChatDiagnosis{Crop: "tomato", Disease: "Early blight", SeverityPercent: 42.5})
	want := "User's current diagnosis: tomato with Early blight at 42.5% severity."
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestChatAdvisor_FallbackWithoutLLM(t *testing.T) {
	c := NewChatAdvisor(nil, "", 0, nil, nil)

	reply := c.Reply(context.Background(), "how do I prevent blight", "xx", &ChatDiagnosis{
		Crop: "potato", Disease: "Late Blight", SeverityPercent: 30,
	})
	if reply.Source != ReplySourceFallback {
		t.Errorf("Expected fallback source, got %s", reply.Source)
	}
	if reply.Language != "en" {
		t.Errorf("Expected unknown language to become en, got %s", reply.Language)
	}
	if !strings.HasPrefix(reply.Reply, "User's current diagnosis: potato with Late Blight at 30% severity.") {
		t.Errorf("Expected diagnosis context prefix, got %q", reply.Reply)
	}
	if !strings.HasSuffix(reply.Reply, answerPrevention) {
		t.Errorf("Expected prevention answer, got %q", reply.Reply)
	}
}

func TestChatAdvisor_UsesLLM(t *testing.T) {
	api, cfg := newFakeMessagesAPI(t, "  Spray copper fungicide weekly.  ")
	c := NewChatAdvisor(NewAnthropicHolder(cfg), cfg.ChatModel, 0, nil, nil)

	reply := c.Reply(context.Background(), "what should I spray?", "hi", &ChatDiagnosis{
		Crop: "tomato", Disease: "Early blight", SeverityPercent: 12,
	})
	if reply.Source != ReplySourceLLM {
		t.Fatalf("Expected llm source, got %s", reply.Source)
	}
	if reply.Reply != "Spray copper fungicide weekly." {
		t.Errorf("Expected trimmed reply, got %q", reply.Reply)
	}
	reqs := api.requests()
	if len(reqs) != 1 || !strings.Contains(reqs[0], "Hindi") || !strings.Contains(reqs[0], "Early blight at 12%") {
		t.Errorf("Expected system prompt with language and diagnosis, got %v", reqs)
	}
}

func TestChatAdvisor_LLMFailureFallsBack(t *testing.T) {
	api, cfg := newFakeMessagesAPI(t, "")
	api.status = http.StatusServiceUnavailable
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	c := NewChatAdvisor(NewAnthropicHolder(cfg), cfg.ChatModel, 0, nil, metrics)

	reply := c.Reply(context.Background(), "organic options?", "en", nil)
	if reply.Source != ReplySourceFallback || reply.Reply != answerOrganic {
		t.Errorf("Expected organic fallback, got %+v", reply)
	}
	if v := testutil.ToFloat64(metrics.fallbacks.WithLabelValues("chat")); v != 1 {
		t.Errorf("Expected 1 chat fallback, got %v", v)
	}
}

func TestTranslator_PassThrough(t *testing.T) {
	tr := NewTranslator(nil, "", 0, nil)
	for _, lang := range []string{"en", "fr", "hi"} {
		if got := tr.Translate(context.Background(), "Early blight", lang); got != "Early blight" {
			t.Errorf("Expected original text for %s, got %q", lang, got)
		}
	}
}

func TestTranslator_CachesTranslations(t *testing.T) {
	api, cfg := newFakeMessagesAPI(t, "अगेती झुलसा")
	tr := NewTranslator(NewAnthropicHolder(cfg), cfg.ChatModel, 0, nil)

	for i := 0; i < 3; i++ {
		if got := tr.Translate(context.Background(), "Early blight", "hi"); got != "अगेती झुलसा" {
			t.Errorf("Expected Hindi translation, got %q", got)
		}
	}
	if n := len(api.requests()); n != 1 {
		t.Errorf("Expected 1 upstream call, got %d", n)
	}
}

func TestTranslator_MissingKeyKeepsOriginal(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	tr := NewTranslator(NewAnthropicHolder(LLMConfig{}), "m", 0, nil)

	if got := tr.Translate(context.Background(), "Late blight", "ta"); got != "Late blight" {
		t.Errorf("Expected original text, got %q", got)
	}
}

func TestTranslator_LocalizeReport(t *testing.T) {
	_, cfg := newFakeMessagesAPI(t, "अनुवाद")
	tr := NewTranslator(NewAnthropicHolder(cfg), cfg.ChatModel, 0, nil)

	report := &models.DiagnosisReport{
		Diagnosis: models.DiagnosisResult{Crop: models.CropTomato, Disease: "Early_blight", Stage: models.StageEarly},
		Treatment: models.TreatmentPlan{TreatmentApproach: models.ApproachEarly},
	}
	tr.LocalizeReport(context.Background(), report, "en")
	if report.Localized != nil {
		t.Fatal("Expected no localization for English")
	}

	tr.LocalizeReport(context.Background(), report, "hi")
	loc := report.Localized
	if loc == nil {
		t.Fatal("Expected localization for Hindi")
	}
	if loc.Crop != "टमाटर" {
		t.Errorf("Expected fixed crop name, got %q", loc.Crop)
	}
	if loc.Disease != "अनुवाद" || loc.Stage != "अनुवाद" || loc.TreatmentNote != "अनुवाद" {
		t.Errorf("Expected translated fields, got %+v", loc)
	}
	if loc.Description != "" {
		t.Errorf("Expected no description without disease info, got %q", loc.Description)
	}
}
