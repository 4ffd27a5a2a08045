// ABOUTME: HTTP handler for the farming assistant chat
// ABOUTME: Always answers; falls back to keyword replies without an LLM

package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/agrisense/leafdoctor/backend/models"
	"github.com/agrisense/leafdoctor/backend/services"
)

// maxChatMessage bounds a single chat question in characters
const maxChatMessage = 2000

// ChatRequest is a grower question, optionally about a prior diagnosis
type ChatRequest struct {
	Message   string                  `json:"message"`
	Language  string                  `json:"language,omitempty"`
	Diagnosis *services.ChatDiagnosis `json:"diagnosis,omitempty"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorResponse(w, models.ErrorResponse{Error: "Invalid request body", Details: err.Error(), Code: http.StatusBadRequest})
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, "message is required", http.StatusBadRequest)
		return
	}
	if utf8.RuneCountInString(req.Message) > maxChatMessage {
		writeError(w, "message is too long", http.StatusBadRequest)
		return
	}

	reply := h.svc.Chat.Reply(r.Context(), req.Message, strings.ToLower(req.Language), req.Diagnosis)
	h.writeJSON(w, http.StatusOK, reply)
}
