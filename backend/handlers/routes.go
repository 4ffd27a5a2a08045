// ABOUTME: Declarative route table for API endpoints
// ABOUTME: Defines all routes with their HTTP methods, handlers and rate limit tier

package handlers

import "net/http"

// RateTier selects which rate limiter guards a route
type RateTier string

const (
	TierDefault  RateTier = "default"
	TierDiagnose RateTier = "diagnose" // expensive: model inference or LLM calls
)

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST, etc.)
	Path    string           // URL path (e.g., "/api/v1/health")
	Handler http.HandlerFunc // Handler function
	Tier    RateTier
}

// Routes returns all API routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Health & Status
		{Method: http.MethodGet, Path: "/api/v1/health", Handler: h.Health, Tier: TierDefault},
		{Method: http.MethodGet, Path: "/api/v1/crops", Handler: h.Crops, Tier: TierDefault},

		// Diagnosis
		{Method: http.MethodPost, Path: "/api/v1/diagnose", Handler: h.Diagnose, Tier: TierDiagnose},
		{Method: http.MethodPost, Path: "/api/v1/image/quality", Handler: h.ImageQuality, Tier: TierDefault},

		// Treatment & Cost
		{Method: http.MethodPost, Path: "/api/v1/treatment", Handler: h.Treatment, Tier: TierDefault},
		{Method: http.MethodGet, Path: "/api/v1/pesticides", Handler: h.Pesticides, Tier: TierDefault},
		{Method: http.MethodPost, Path: "/api/v1/pesticides/compatibility", Handler: h.Compatibility, Tier: TierDefault},
		{Method: http.MethodGet, Path: "/api/v1/diseases/info", Handler: h.DiseaseInfo, Tier: TierDefault},
		{Method: http.MethodPost, Path: "/api/v1/cost", Handler: h.Cost, Tier: TierDefault},
		{Method: http.MethodGet, Path: "/api/v1/cost/per-acre", Handler: h.PerAcre, Tier: TierDefault},

		// Assistant
		{Method: http.MethodPost, Path: "/api/v1/chat", Handler: h.Chat, Tier: TierDiagnose},

		// Documentation
		{Method: http.MethodGet, Path: "/api/v1/openapi.yaml", Handler: h.OpenAPISpec, Tier: TierDefault},
	}
}
