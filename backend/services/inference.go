// ABOUTME: REST client for a TensorFlow Serving compatible model server
// ABOUTME: Runs :predict calls and probes model metadata for built-in rescaling

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agrisense/leafdoctor/backend/imaging"
	"github.com/agrisense/leafdoctor/backend/models"
	"github.com/tidwall/gjson"
)

// Predictor runs a registered model on one input tensor
type Predictor interface {
	// Predict returns the per-class probabilities for tensor
	Predict(ctx context.Context, model string, tensor imaging.Tensor) ([]float64, error)
	// HasRescaling reports whether the model divides its input by 255 itself
	HasRescaling(ctx context.Context, model string) (bool, error)
}

// ModelServerClient talks to TF Serving's REST API
type ModelServerClient struct {
	baseURL string
	client  *http.Client
}

// NewModelServerClient creates a client for baseURL. When allProxy is set
// requests are tunnelled through an SSH jumpbox.
func NewModelServerClient(baseURL string, timeout time.Duration, allProxy string) *ModelServerClient {
	transport := &http.Transport{
		TLSHandshakeTimeout: 30 * time.Second,
	}
	if allProxy != "" {
		dial, err := jumpboxDialer(allProxy)
		if err != nil {
			slog.Error("Model server jumpbox disabled", "error", err)
		} else {
			transport.DialContext = dial
		}
	}
	return &ModelServerClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// SetHTTPClient allows overriding the HTTP client (useful for testing)
func (c *ModelServerClient) SetHTTPClient(client *http.Client) {
	c.client = client
}

type predictRequest struct {
	Instances []imaging.Tensor `json:"instances"`
}

func (c *ModelServerClient) Predict(ctx context.Context, model string, tensor imaging.Tensor) ([]float64, error) {
	if err := ValidateModelName(model); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(predictRequest{Instances: []imaging.Tensor{tensor}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode tensor: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/models/%s:predict", c.baseURL, model), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	if msg := gjson.GetBytes(body, "error"); msg.Exists() {
		return nil, fmt.Errorf("%w: %s", models.ErrModelUnavailable, msg.String())
	}
	preds := gjson.GetBytes(body, "predictions.0")
	if !preds.IsArray() {
		return nil, fmt.Errorf("%w: response has no predictions", models.ErrModelUnavailable)
	}
	var out []float64
	preds.ForEach(func(_, v gjson.Result) bool {
		out = append(out, v.Float())
		return true
	})
	return out, nil
}

func (c *ModelServerClient) HasRescaling(ctx context.Context, model string) (bool, error) {
	if err := ValidateModelName(model); err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/models/%s/metadata", c.baseURL, model), nil)
	if err != nil {
		return false, fmt.Errorf("failed to create metadata request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(string(body)), "rescaling"), nil
}

// ModelStatus returns the state of the latest version ("AVAILABLE" when serving)
func (c *ModelServerClient) ModelStatus(ctx context.Context, model string) (string, error) {
	if err := ValidateModelName(model); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/models/%s", c.baseURL, model), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create status request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	state := gjson.GetBytes(body, "model_version_status.0.state").String()
	if state == "" {
		return "UNKNOWN", nil
	}
	return state, nil
}

func (c *ModelServerClient) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", models.ErrModelUnavailable, err)
	}
	slog.Debug("Model server call", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: model server returned %d: %s",
			models.ErrModelUnavailable, resp.StatusCode, sanitizeForLog(truncate(string(body), 200)))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
