// ABOUTME: Shared fakes and fixtures for service tests
// ABOUTME: Provides an in-memory predictor, a scripted vision tier and leaf images

package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/agrisense/leafdoctor/backend/imaging"
	"github.com/agrisense/leafdoctor/backend/models"
)

var (
	diseaseYellow = color.RGBA{R: 200, G: 150, B: 50, A: 255}
	leafGreen     = color.RGBA{R: 40, G: 160, B: 40, A: 255}
)

// leafImage paints the leftmost diseasedCols columns yellow and the rest green
func leafImage(w, h, diseasedCols int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < diseasedCols {
				img.Set(x, y, diseaseYellow)
			} else {
				img.Set(x, y, leafGreen)
			}
		}
	}
	return img
}

func leafPNG(t *testing.T, w, h, diseasedCols int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, leafImage(w, h, diseasedCols)); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

// fakePredictor returns scripted scores per model
type fakePredictor struct {
	mu          sync.Mutex
	scores      map[string][]float64
	errs        map[string]error
	rescaling   map[string]bool
	probeErr    error
	predicts    map[string]int
	probes      int
	maxInput    map[string]float32
	inputShapes map[string][3]int
}

func newFakePredictor() *fakePredictor {
	return &fakePredictor{
		scores:      map[string][]float64{},
		errs:        map[string]error{},
		rescaling:   map[string]bool{},
		predicts:    map[string]int{},
		maxInput:    map[string]float32{},
		inputShapes: map[string][3]int{},
	}
}

func (f *fakePredictor) Predict(ctx context.Context, model string, tensor imaging.Tensor) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.predicts[model]++

	var max float32
	for _, row := range tensor {
		for _, px := range row {
			for _, v := range px {
				if v > max {
					max = v
				}
			}
		}
	}
	f.maxInput[model] = max
	if len(tensor) > 0 && len(tensor[0]) > 0 {
		f.inputShapes[model] = [3]int{len(tensor), len(tensor[0]), len(tensor[0][0])}
	}

	if err := f.errs[model]; err != nil {
		return nil, err
	}
	s, ok := f.scores[model]
	if !ok {
		return nil, models.ErrModelUnavailable
	}
	return s, nil
}

func (f *fakePredictor) HasRescaling(ctx context.Context, model string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	if f.probeErr != nil {
		return false, f.probeErr
	}
	return f.rescaling[model], nil
}

func (f *fakePredictor) predictCount(model string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.predicts[model]
}

func (f *fakePredictor) totalPredicts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.predicts {
		n += c
	}
	return n
}

// fakeVision answers with a fixed crop or error
type fakeVision struct {
	mu    sync.Mutex
	crop  models.Crop
	ok    bool
	err   error
	calls int
	block bool
}

func (f *fakeVision) IdentifyCrop(ctx context.Context, image []byte, mediaType string) (models.Crop, bool, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", false, ctx.Err()
	}
	return f.crop, f.ok, f.err
}

func (f *fakeVision) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// scoresFor returns a score vector for spec with label at confidence and the
// remainder spread over the other classes
func scoresFor(t *testing.T, spec ModelSpec, label string, confidence float64) []float64 {
	t.Helper()
	out := make([]float64, len(spec.Labels))
	idx := -1
	for i, l := range spec.Labels {
		if l == label {
			idx = i
		}
	}
	if idx < 0 {
		t.Fatalf("label %q not in %s labels", label, spec.Crop)
	}
	rest := (1 - confidence) / float64(len(out)-1)
	for i := range out {
		out[i] = rest
	}
	out[idx] = confidence
	return out
}

func defaultRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	return r
}

func mustSpec(t *testing.T, r *Registry, crop models.Crop) ModelSpec {
	t.Helper()
	s, ok := r.Lookup(crop)
	if !ok {
		t.Fatalf("no model for %s", crop)
	}
	return s
}
