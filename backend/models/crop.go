// ABOUTME: Closed crop vocabulary shared by identification, classification and catalog
// ABOUTME: Parses free-text crop names and finds crop mentions in user messages

package models

import (
	"regexp"
	"strings"
)

// Crop is a member of the supported crop vocabulary
type Crop string

const (
	CropRice   Crop = "rice"
	CropTomato Crop = "tomato"
	CropGrape  Crop = "grape"
	CropMaize  Crop = "maize"
	CropPotato Crop = "potato"
	CropWheat  Crop = "wheat"
	CropCotton Crop = "cotton"
)

// AllCrops returns the vocabulary in canonical order.
// Brute-force identification breaks confidence ties by this order.
func AllCrops() []Crop {
	return []Crop{CropRice, CropTomato, CropGrape, CropMaize, CropPotato, CropWheat, CropCotton}
}

// cropAliases maps common synonyms onto vocabulary members
var cropAliases = map[string]Crop{
	"corn":  CropMaize,
	"paddy": CropRice,
}

// ParseCrop normalizes a crop name. Returns false for names outside the vocabulary.
func ParseCrop(name string) (Crop, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	for _, c := range AllCrops() {
		if string(c) == n {
			return c, true
		}
	}
	if c, ok := cropAliases[n]; ok {
		return c, true
	}
	return "", false
}

// Title returns the display name ("Tomato")
func (c Crop) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

var cropMention = buildCropMentionPattern()

func buildCropMentionPattern() *regexp.Regexp {
	words := make([]string, 0, len(AllCrops())+len(cropAliases))
	for _, c := range AllCrops() {
		words = append(words, string(c))
	}
	for alias := range cropAliases {
		words = append(words, alias)
	}
	// plural forms ("tomatoes", "grapes") count as a mention
	return regexp.MustCompile(`\b(` + strings.Join(words, "|") + `)(?:e?s)?\b`)
}

// FindCropMention returns the earliest crop named in a free-text message.
func FindCropMention(message string) (Crop, bool) {
	m := cropMention.FindStringSubmatch(strings.ToLower(message))
	if m == nil {
		return "", false
	}
	return ParseCrop(m[1])
}
