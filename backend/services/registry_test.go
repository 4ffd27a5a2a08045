package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agrisense/leafdoctor/backend/imaging"
	"github.com/agrisense/leafdoctor/backend/models"
)

func TestLoadRegistry_Bundled(t *testing.T) {
	r := defaultRegistry(t)

	want := []models.Crop{models.CropRice, models.CropTomato, models.CropGrape, models.CropMaize, models.CropPotato}
	got := r.Supported()
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Supported()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	for _, c := range []models.Crop{models.CropWheat, models.CropCotton} {
		if _, ok := r.Lookup(c); ok {
			t.Errorf("Expected %s to be unsupported", c)
		}
	}

	tomato := mustSpec(t, r, models.CropTomato)
	if len(tomato.Labels) != 10 || tomato.Labels[0] != "Healthy" {
		t.Errorf("Unexpected tomato labels: %v", tomato.Labels)
	}
	rice := mustSpec(t, r, models.CropRice)
	for _, l := range rice.Labels {
		if strings.EqualFold(l, "healthy") {
			t.Error("Rice model should have no healthy class")
		}
	}
}

func TestNewRegistry_Defaults(t *testing.T) {
	r, err := NewRegistry([]ModelSpec{{Crop: "Corn", Model: "maize_v2", Labels: []string{"Healthy", "Blight"}}})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	s := mustSpec(t, r, models.CropMaize)
	if s.InputSize != DefaultInputSize || s.Scale != ScaleAuto || s.Channels != imaging.ChannelsRGB {
		t.Errorf("Expected defaults, got %+v", s)
	}
}

func TestNewRegistry_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		specs []ModelSpec
	}{
		{"unknown crop", []ModelSpec{{Crop: "banana", Model: "banana", Labels: []string{"x"}}}},
		{"no labels", []ModelSpec{{Crop: "rice", Model: "rice"}}},
		{"unsafe model name", []ModelSpec{{Crop: "rice", Model: "../admin", Labels: []string{"x"}}}},
		{"duplicate crop", []ModelSpec{
			{Crop: "rice", Model: "rice_a", Labels: []string{"x"}},
			{Crop: "paddy", Model: "rice_b", Labels: []string{"x"}},
		}},
		{"bad scale", []ModelSpec{{Crop: "rice", Model: "rice", Labels: []string{"x"}, Scale: "zscore"}}},
		{"bad channels", []ModelSpec{{Crop: "rice", Model: "rice", Labels: []string{"x"}, Channels: "hsv"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.specs); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadRegistry_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.json")
	content := `{"models":[{"crop":"wheat","model":"wheat_rust","labels":["Brown Rust","Healthy","Yellow Rust"],"input_size":256,"scale":"raw","channels":"bgr"}]}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	s := mustSpec(t, r, models.CropWheat)
	if s.InputSize != 256 || s.Scale != ScaleRaw || s.Channels != imaging.ChannelsBGR {
		t.Errorf("Unexpected spec: %+v", s)
	}
	if len(r.Supported()) != 1 {
		t.Errorf("Expected only wheat supported, got %v", r.Supported())
	}
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing manifest")
	}
}
