// ABOUTME: HTTP client for the LeafDoctor API
// ABOUTME: Wraps API calls with proper error handling for CLI usage

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"
)

// Client is the API client for the LeafDoctor backend
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client with the given base URL. Diagnosis can wait on
// several model calls, so the timeout is generous.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// HealthResponse represents the /api/v1/health endpoint response
type HealthResponse struct {
	Status      string            `json:"status"`
	ModelServer map[string]string `json:"model_server"`
	Catalog     CatalogStatus     `json:"catalog"`
	Uploads     string            `json:"uploads"`
	LLM         string            `json:"llm"`
}

// CatalogStatus represents catalog state in health response
type CatalogStatus struct {
	Driver     string `json:"driver"`
	Pesticides int    `json:"pesticides"`
	Error      string `json:"error,omitempty"`
}

// CropInfo is one entry of the crop vocabulary
type CropInfo struct {
	Crop      string   `json:"crop"`
	Name      string   `json:"name"`
	Supported bool     `json:"supported"`
	Model     string   `json:"model,omitempty"`
	Labels    []string `json:"labels,omitempty"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error              string `json:"error"`
	Details            string `json:"details,omitempty"`
	Code               int    `json:"code"`
	Crop               string `json:"crop,omitempty"`
	NeedsCropSelection bool   `json:"needs_crop_selection,omitempty"`
}

// APIError is returned for non-200 responses that carry an error body
type APIError struct {
	StatusCode int
	Response   ErrorResponse
}

func (e *APIError) Error() string {
	if e.Response.Details != "" {
		return fmt.Sprintf("backend error: %s: %s", e.Response.Error, e.Response.Details)
	}
	return fmt.Sprintf("backend error: %s", e.Response.Error)
}

// NeedsCropSelection reports whether err asks the caller to name the crop
func NeedsCropSelection(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Response.NeedsCropSelection
}

// Pesticide is a recommended product
type Pesticide struct {
	Name                 string  `json:"name"`
	Type                 string  `json:"type"`
	DosagePerAcre        string  `json:"dosage_per_acre"`
	Frequency            string  `json:"frequency"`
	CostPerLiter         float64 `json:"cost_per_liter"`
	IsOrganic            bool    `json:"is_organic"`
	IsGovernmentApproved bool    `json:"is_government_approved"`
	Warnings             string  `json:"warnings"`
}

// TreatmentPlan is the recommendation for a diagnosis
type TreatmentPlan struct {
	Disease           string      `json:"disease"`
	Crop              string      `json:"crop,omitempty"`
	SeverityLevel     string      `json:"severity_level"`
	SeverityPercent   float64     `json:"severity_percent"`
	RecommendedItems  []Pesticide `json:"recommended_pesticides"`
	TreatmentApproach string      `json:"treatment_approach"`
	Urgency           string      `json:"urgency"`
	ApplicationNote   string      `json:"application_note,omitempty"`
	NoTreatmentFound  bool        `json:"no_treatment_found,omitempty"`
}

// CostBreakdown is the detailed treatment and prevention cost
type CostBreakdown struct {
	PesticideCost       float64 `json:"pesticide_cost"`
	LaborCost           float64 `json:"labor_cost"`
	TotalTreatmentCost  float64 `json:"total_treatment_cost"`
	ApplicationsNeeded  int     `json:"applications_needed"`
	TotalPreventionCost float64 `json:"total_prevention_cost"`
	TotalCost           float64 `json:"total_cost"`
	LandAreaAcres       float64 `json:"land_area_acres"`
	CostPerAcre         float64 `json:"cost_per_acre"`
}

// CostComparison sets treatment against prevention
type CostComparison struct {
	Disease               string        `json:"disease"`
	Crop                  string        `json:"crop,omitempty"`
	SeverityLevel         string        `json:"severity_level"`
	Urgency               string        `json:"urgency"`
	Breakdown             CostBreakdown `json:"breakdown"`
	TreatmentCost         float64       `json:"treatment_cost"`
	PreventionCost        float64       `json:"prevention_cost"`
	TotalCost             float64       `json:"total_cost"`
	SavingsWithPrevention float64       `json:"savings_with_prevention"`
}

// Diagnosis is the classifier outcome inside a report
type Diagnosis struct {
	Crop            string   `json:"crop"`
	Disease         string   `json:"disease"`
	Confidence      float64  `json:"confidence"`
	SeverityPercent float64  `json:"severity_percent"`
	Stage           string   `json:"stage"`
	IdentifiedBy    string   `json:"identified_by"`
	Trace           []string `json:"trace"`
}

// DiseaseInfo is the catalog description of a disease
type DiseaseInfo struct {
	Description     string `json:"description"`
	Symptoms        string `json:"symptoms"`
	PreventionSteps string `json:"prevention_steps"`
}

// Localized carries translated display text
type Localized struct {
	Crop            string `json:"crop,omitempty"`
	Disease         string `json:"disease,omitempty"`
	Stage           string `json:"stage,omitempty"`
	Description     string `json:"description,omitempty"`
	Symptoms        string `json:"symptoms,omitempty"`
	PreventionSteps string `json:"prevention_steps,omitempty"`
	TreatmentNote   string `json:"treatment_approach,omitempty"`
}

// DiagnosisReport represents the /api/v1/diagnose endpoint response
type DiagnosisReport struct {
	ID          string         `json:"id"`
	Diagnosis   Diagnosis      `json:"diagnosis"`
	DiseaseInfo *DiseaseInfo   `json:"disease_info,omitempty"`
	Treatment   TreatmentPlan  `json:"treatment"`
	Cost        CostComparison `json:"cost"`
	ImageKey    string         `json:"image_key,omitempty"`
	Language    string         `json:"language"`
	Localized   *Localized     `json:"localized,omitempty"`
	Metadata    struct {
		Timestamp string `json:"timestamp"`
		Cached    bool   `json:"cached"`
	} `json:"metadata"`
}

// DiagnoseInput is one leaf photo upload
type DiagnoseInput struct {
	ImagePath string
	Image     []byte
	Crop      string
	Message   string
	LandArea  float64
	Language  string
}

// TreatmentInput requests a plan for a known diagnosis
type TreatmentInput struct {
	Disease         string  `json:"disease"`
	SeverityPercent float64 `json:"severity_percent"`
	Crop            string  `json:"crop,omitempty"`
}

// CostInput requests a cost comparison
type CostInput struct {
	Disease         string  `json:"disease"`
	Crop            string  `json:"crop,omitempty"`
	SeverityPercent float64 `json:"severity_percent"`
	LandArea        float64 `json:"land_area,omitempty"`
}

// ChatDiagnosis gives the assistant context about a prior diagnosis
type ChatDiagnosis struct {
	Crop            string  `json:"crop"`
	Disease         string  `json:"disease"`
	SeverityPercent float64 `json:"severity_percent"`
}

// ChatInput is a question for the farming assistant
type ChatInput struct {
	Message   string         `json:"message"`
	Language  string         `json:"language,omitempty"`
	Diagnosis *ChatDiagnosis `json:"diagnosis,omitempty"`
}

// ChatReply is the assistant answer
type ChatReply struct {
	Reply    string `json:"reply"`
	Language string `json:"language"`
	Source   string `json:"source"`
}

// Health calls GET /api/v1/health
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, "", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Crops calls GET /api/v1/crops
func (c *Client) Crops(ctx context.Context) ([]CropInfo, error) {
	var resp struct {
		Crops []CropInfo `json:"crops"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/crops", nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Crops, nil
}

// Diagnose uploads a leaf photo to POST /api/v1/diagnose
func (c *Client) Diagnose(ctx context.Context, in DiagnoseInput) (*DiagnosisReport, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	name := filepath.Base(in.ImagePath)
	if in.ImagePath == "" {
		name = "leaf.jpg"
	}
	part, err := mw.CreateFormFile("image", name)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(in.Image); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	fields := map[string]string{
		"crop":     in.Crop,
		"message":  in.Message,
		"language": in.Language,
	}
	if in.LandArea > 0 {
		fields["land_area"] = strconv.FormatFloat(in.LandArea, 'f', -1, 64)
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to build upload: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	var report DiagnosisReport
	if err := c.do(ctx, http.MethodPost, "/api/v1/diagnose", &body, mw.FormDataContentType(), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Treatment calls POST /api/v1/treatment
func (c *Client) Treatment(ctx context.Context, in TreatmentInput) (*TreatmentPlan, error) {
	var plan TreatmentPlan
	if err := c.postJSON(ctx, "/api/v1/treatment", in, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Cost calls POST /api/v1/cost
func (c *Client) Cost(ctx context.Context, in CostInput) (*CostComparison, error) {
	var cmp CostComparison
	if err := c.postJSON(ctx, "/api/v1/cost", in, &cmp); err != nil {
		return nil, err
	}
	return &cmp, nil
}

// Chat calls POST /api/v1/chat
func (c *Client) Chat(ctx context.Context, in ChatInput) (*ChatReply, error) {
	var reply ChatReply
	if err := c.postJSON(ctx, "/api/v1/chat", in, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.handleErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return fmt.Errorf("request canceled")
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("request timed out")
	}
	return fmt.Errorf("cannot connect to backend at %s: %w", c.baseURL, err)
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Response: errResp}
}
