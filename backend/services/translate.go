// ABOUTME: LLM-backed translation of diagnosis text into the grower's language
// ABOUTME: Returns the original text whenever translation is unavailable

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/agrisense/leafdoctor/backend/models"
	"github.com/anthropics/anthropic-sdk-go"
)

// Languages maps supported language codes to their names
var Languages = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"te": "Telugu",
	"ta": "Tamil",
	"kn": "Kannada",
	"mr": "Marathi",
}

// cropNames are fixed local crop names, preferred over machine translation
var cropNames = map[models.Crop]map[string]string{
	models.CropTomato: {"hi": "टमाटर", "te": "టమాటా", "ta": "தக்காளி", "kn": "ಟೊಮೇಟೊ", "mr": "टोमॅटो"},
	models.CropRice:   {"hi": "चावल", "te": "వరి", "ta": "அரிசி", "kn": "ಅಕ್ಕಿ", "mr": "तांदूळ"},
	models.CropWheat:  {"hi": "गेहूं", "te": "గోధుమ", "ta": "கோதுமை", "kn": "ಗೋಧಿ", "mr": "गहू"},
	models.CropCotton: {"hi": "कपास", "te": "పత్తి", "ta": "பருத்தி", "kn": "ಹತ್ತಿ", "mr": "कापूस"},
}

// Translator translates short texts and memoises the results
type Translator struct {
	holder  *Holder[anthropic.Client]
	model   string
	timeout time.Duration
	metrics *Metrics
	cache   sync.Map
}

// NewTranslator creates a translator. holder may be nil to disable translation.
func NewTranslator(holder *Holder[anthropic.Client], model string, timeout time.Duration, metrics *Metrics) *Translator {
	if timeout <= 0 {
		timeout = DefaultLLMTimeout
	}
	return &Translator{holder: holder, model: model, timeout: timeout, metrics: metrics}
}

// Translate returns text in lang, or text unchanged for English, unknown
// languages and failed calls
func (t *Translator) Translate(ctx context.Context, text, lang string) string {
	name, ok := Languages[lang]
	if !ok || lang == "en" || strings.TrimSpace(text) == "" || t.holder == nil {
		return text
	}
	key := lang + "\x00" + text
	if v, ok := t.cache.Load(key); ok {
		return v.(string)
	}

	cctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	system := fmt.Sprintf("Translate the user's text into %s. Reply with the translation only.", name)
	out, err := complete(cctx, t.holder, t.model, system, 1024, anthropic.NewTextBlock(text))
	out = strings.TrimSpace(out)
	if err != nil || out == "" {
		slog.Warn("Translation failed, keeping original text", "language", lang, "error", err)
		t.metrics.observeFallback("translate")
		return text
	}
	t.cache.Store(key, out)
	return out
}

// LocalizeReport fills report.Localized for non-English languages
func (t *Translator) LocalizeReport(ctx context.Context, report *models.DiagnosisReport, lang string) {
	if _, ok := Languages[lang]; !ok || lang == "en" {
		return
	}
	d := report.Diagnosis
	loc := &models.Localized{
		Disease:       t.Translate(ctx, models.NormalizeDiseaseName(d.Disease), lang),
		Stage:         t.Translate(ctx, string(d.Stage), lang),
		TreatmentNote: t.Translate(ctx, report.Treatment.TreatmentApproach, lang),
	}
	if name, ok := cropNames[d.Crop][lang]; ok {
		loc.Crop = name
	} else {
		loc.Crop = t.Translate(ctx, d.Crop.Title(), lang)
	}
	if info := report.DiseaseInfo; info != nil {
		loc.Description = t.Translate(ctx, info.Description, lang)
		loc.Symptoms = t.Translate(ctx, info.Symptoms, lang)
		loc.PreventionSteps = t.Translate(ctx, info.PreventionSteps, lang)
	}
	report.Localized = loc
}
