// ABOUTME: Vision-model crop identification over the closed crop vocabulary
// ABOUTME: Any reply outside the vocabulary counts as a miss

package services

import (
	"context"
	"encoding/base64"
	"strings"
	"unicode"

	"github.com/agrisense/leafdoctor/backend/models"
	"github.com/anthropics/anthropic-sdk-go"
)

// CropVision names the crop in a leaf photo
type CropVision interface {
	// IdentifyCrop returns false when the model could not name a vocabulary crop
	IdentifyCrop(ctx context.Context, image []byte, mediaType string) (models.Crop, bool, error)
}

const visionSystemPrompt = "You are an agricultural expert who identifies crops from photos of their leaves."

// AnthropicVision asks a Claude vision model for the crop name
type AnthropicVision struct {
	holder *Holder[anthropic.Client]
	model  string
}

// NewAnthropicVision creates a vision identifier using model
func NewAnthropicVision(holder *Holder[anthropic.Client], model string) *AnthropicVision {
	return &AnthropicVision{holder: holder, model: model}
}

func (v *AnthropicVision) IdentifyCrop(ctx context.Context, image []byte, mediaType string) (models.Crop, bool, error) {
	reply, err := complete(ctx, v.holder, v.model, visionSystemPrompt, 16,
		anthropic.NewImageBlockBase64(mediaType, base64.StdEncoding.EncodeToString(image)),
		anthropic.NewTextBlock(visionPrompt()),
	)
	if err != nil {
		return "", false, err
	}
	crop, ok := ParseVisionReply(reply)
	return crop, ok, nil
}

func visionPrompt() string {
	names := make([]string, 0, len(models.AllCrops())+1)
	for _, c := range models.AllCrops() {
		names = append(names, string(c))
	}
	names = append(names, "none")
	return "Which crop is this leaf from? Answer with exactly one word from this list: " +
		strings.Join(names, ", ") + ". Answer none if it is not a leaf of one of these crops."
}

// ParseVisionReply lowercases the reply, takes its first word without
// surrounding punctuation and validates it against the vocabulary.
func ParseVisionReply(reply string) (models.Crop, bool) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(reply)))
	if len(fields) == 0 {
		return "", false
	}
	word := strings.TrimFunc(fields[0], func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	if word == "none" {
		return "", false
	}
	return models.ParseCrop(word)
}
