// ABOUTME: Shared fixtures for handler tests
// ABOUTME: Builds a handler over real services with a scripted model server

package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/agrisense/leafdoctor/backend/cache"
	"github.com/agrisense/leafdoctor/backend/catalog"
	"github.com/agrisense/leafdoctor/backend/config"
	"github.com/agrisense/leafdoctor/backend/imaging"
	"github.com/agrisense/leafdoctor/backend/models"
	"github.com/agrisense/leafdoctor/backend/services"
	"github.com/agrisense/leafdoctor/backend/uploads"
)

var (
	leafGreen = color.RGBA{R: 40, G: 160, B: 40, A: 255}
	darkGreen = color.RGBA{R: 20, G: 90, B: 20, A: 255}
)

// fakePredictor answers with one label per model at a fixed confidence
type fakePredictor struct {
	mu       sync.Mutex
	registry *services.Registry
	labels   map[string]string
	errs     map[string]error
	calls    int
}

func (f *fakePredictor) Predict(ctx context.Context, model string, tensor imaging.Tensor) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[model]; ok {
		return nil, err
	}
	label, ok := f.labels[model]
	if !ok {
		return nil, fmt.Errorf("%w: no scores scripted for %s", models.ErrModelUnavailable, model)
	}
	for _, crop := range f.registry.Supported() {
		spec, _ := f.registry.Lookup(crop)
		if spec.Model != model {
			continue
		}
		scores := make([]float64, len(spec.Labels))
		for i, l := range spec.Labels {
			if l == label {
				scores[i] = 0.9
			} else {
				scores[i] = 0.1 / float64(len(spec.Labels)-1)
			}
		}
		return scores, nil
	}
	return nil, fmt.Errorf("unknown model %s", model)
}

func (f *fakePredictor) HasRescaling(ctx context.Context, model string) (bool, error) {
	return false, nil
}

func (f *fakePredictor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeModelStatus reports a fixed state per model
type fakeModelStatus map[string]string

func (f fakeModelStatus) ModelStatus(ctx context.Context, model string) (string, error) {
	if s, ok := f[model]; ok {
		return s, nil
	}
	return "", fmt.Errorf("model %s not found", model)
}

type fixture struct {
	handler   *Handler
	predictor *fakePredictor
	registry  *services.Registry
	uploads   uploads.Store
	status    fakeModelStatus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	registry, err := services.LoadRegistry("")
	if err != nil {
		t.Fatalf("Failed to load registry: %v", err)
	}
	store, err := catalog.Open(ctx, catalog.Config{Driver: catalog.DriverMemory})
	if err != nil {
		t.Fatalf("Failed to open catalog: %v", err)
	}
	archive, err := uploads.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create upload store: %v", err)
	}

	predictor := &fakePredictor{registry: registry, labels: map[string]string{}, errs: map[string]error{}}
	classifier := services.NewDiseaseClassifier(registry, predictor, models.DefaultOverrides(), nil)
	identifier := services.NewCropIdentifier(nil, classifier, services.CropIdentifierConfig{}, nil)
	advisor := services.NewTreatmentAdvisor(store)
	translator := services.NewTranslator(nil, "", 0, nil)

	status := fakeModelStatus{}
	for _, crop := range registry.Supported() {
		spec, _ := registry.Lookup(crop)
		status[spec.Model] = "AVAILABLE"
	}

	reports := cache.New[*models.DiagnosisReport](time.Minute)
	t.Cleanup(reports.Close)

	cfg := &config.Config{MaxUploadMB: 10, DefaultLandArea: 1}
	h := NewHandler(cfg, reports, Services{
		Pipeline:    services.NewDiagnosisPipeline(identifier, classifier, nil),
		Registry:    registry,
		Advisor:     advisor,
		Costs:       services.NewCostEstimator(advisor),
		Translator:  translator,
		Chat:        services.NewChatAdvisor(nil, "", 0, translator, nil),
		Catalog:     store,
		Uploads:     archive,
		ModelStatus: status,
	})
	return &fixture{handler: h, predictor: predictor, registry: registry, uploads: archive, status: status}
}

// script makes crop's model answer label
func (f *fixture) script(t *testing.T, crop models.Crop, label string) {
	t.Helper()
	spec, ok := f.registry.Lookup(crop)
	if !ok {
		t.Fatalf("No model registered for %s", crop)
	}
	f.predictor.labels[spec.Model] = label
}

// leafPNG is a fine green checkerboard: sharp enough to pass the quality
// check and free of disease-coloured pixels.
func leafPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, leafGreen)
			} else {
				img.Set(x, y, darkGreen)
			}
		}
	}
	return encodePNG(t, img)
}

// flatPNG is a single colour, which fails the blur check
func flatPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, leafGreen)
		}
	}
	return encodePNG(t, img)
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

// multipartRequest builds a POST with an optional image part and form fields
func multipartRequest(t *testing.T, path string, image []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if image != nil {
		part, err := mw.CreateFormFile("image", "leaf.png")
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		part.Write(image)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
