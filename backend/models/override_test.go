// ABOUTME: Tests for per-crop confidence overrides
// ABOUTME: Validates the rice low-confidence Healthy rule and opt-in behaviour

package models

import "testing"

func TestDefaultOverrides_Rice(t *testing.T) {
	table := DefaultOverrides()

	label, applied := table.Apply(CropRice, "Brown spot", 55)
	if !applied || label != "Healthy" {
		t.Errorf("Expected rice at 55%% to become Healthy, got %q (applied=%v)", label, applied)
	}

	label, applied = table.Apply(CropRice, "Brown spot", 60)
	if applied || label != "Brown spot" {
		t.Errorf("Expected rice at 60%% to keep label, got %q (applied=%v)", label, applied)
	}
}

func TestOverrideTable_OtherCropsUnaffected(t *testing.T) {
	table := DefaultOverrides()

	label, applied := table.Apply(CropTomato, "Late blight", 20)
	if applied || label != "Late blight" {
		t.Errorf("Expected tomato label unchanged, got %q (applied=%v)", label, applied)
	}
}

func TestOverrideTable_OptIn(t *testing.T) {
	table := OverrideTable{CropPotato: {MinConfidence: 50, Label: "Uncertain"}}

	label, applied := table.Apply(CropPotato, "Late Blight", 49.9)
	if !applied || label != "Uncertain" {
		t.Errorf("Expected potato override, got %q (applied=%v)", label, applied)
	}
}
