// ABOUTME: Shared Anthropic Messages API plumbing for vision, chat and translation
// ABOUTME: Builds clients lazily and maps deadline errors onto the service taxonomy

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/agrisense/leafdoctor/backend/models"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultLLMTimeout bounds chat and translation calls
const DefaultLLMTimeout = 20 * time.Second

// LLMConfig configures the Anthropic collaborators
type LLMConfig struct {
	// APIKey falls back to ANTHROPIC_API_KEY at client build time when empty
	APIKey      string
	BaseURL     string
	VisionModel string
	ChatModel   string
}

// NewAnthropicHolder returns a holder whose client is built on first use.
// Building fails with ErrExternalServiceUnavailable when no key is set.
func NewAnthropicHolder(cfg LLMConfig) *Holder[anthropic.Client] {
	return NewHolder(func(ctx context.Context) (anthropic.Client, error) {
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv("ANTHROPIC_API_KEY")
		}
		if key == "" {
			return anthropic.Client{}, fmt.Errorf("%w: anthropic api key not configured", models.ErrExternalServiceUnavailable)
		}
		opts := []option.RequestOption{
			option.WithAPIKey(key),
			option.WithMaxRetries(0),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		return anthropic.NewClient(opts...), nil
	})
}

// complete sends one user turn and returns the concatenated text reply
func complete(ctx context.Context, holder *Holder[anthropic.Client], model, system string, maxTokens int64, blocks ...anthropic.ContentBlockParamUnion) (string, error) {
	client, err := holder.EnsureInitialized(ctx)
	if err != nil {
		return "", err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			// Rebuild on the next call so rotated credentials are picked up
			slog.Warn("Anthropic rejected credentials, resetting client", "status", apiErr.StatusCode)
			holder.Reset()
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", models.ErrExternalServiceTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", models.ErrExternalServiceUnavailable, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
