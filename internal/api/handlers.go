package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/codementor-ai/codementor-backend/internal/core"
	"github.com/codementor-ai/codementor-backend/internal/store"
)

const (
	serviceTitle   = "CodeMentor.AI"
	serviceVersion = "1.0.0"
)

type APIHandler struct {
	chatService *core.ChatService
	codeService *core.CodeService
	log         zerolog.Logger
	production  bool
}

func NewAPIHandler(cs *core.ChatService, code *core.CodeService, log zerolog.Logger, production bool) *APIHandler {
	return &APIHandler{
		chatService: cs,
		codeService: code,
		log:         log,
		production:  production,
	}
}

// decodeBody answers 413 for bodies over the router limit and 400 for invalid JSON.
// It returns false when it has already answered.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error:   "Request body too large",
				Message: "limit is " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
			})
			return false
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return false
	}
	return true
}

// queryLimit returns 0 for a missing or unparsable limit so that the service default applies.
func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return limit
}

type chatMessageData struct {
	ID               string `json:"id"`
	Response         string `json:"response"`
	DetectedLanguage string `json:"detectedLanguage"`
	ConversationID   string `json:"conversationId"`
}

func (h *APIHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req core.ChatMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.chatService.SendMessage(r.Context(), req)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		h.writeInternalError(w, r, "Failed to process chat message", err)
		return
	}

	writeData(w, chatMessageData{
		ID:               msg.ID,
		Response:         msg.Response,
		DetectedLanguage: msg.DetectedLanguage,
		ConversationID:   msg.ConversationID,
	})
}

func (h *APIHandler) ChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatService.History(r.Context(), r.URL.Query().Get("conversationId"), queryLimit(r))
	if err != nil {
		h.writeInternalError(w, r, "Failed to fetch chat history", err)
		return
	}
	writeList(w, len(messages), messages)
}

type analysisData struct {
	ID        string            `json:"id"`
	Summary   string            `json:"summary"`
	Errors    []store.ErrorItem `json:"errors"`
	FixedCode string            `json:"fixed_code"`
}

func (h *APIHandler) AnalyzeCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req core.AnalyzeCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	analysis, err := h.codeService.Analyze(r.Context(), req)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		h.writeInternalError(w, r, "Failed to analyze code", err)
		return
	}

	writeData(w, analysisData{
		ID:        analysis.ID,
		Summary:   analysis.Summary,
		Errors:    analysis.Errors,
		FixedCode: analysis.FixedCode,
	})
}

func (h *APIHandler) CodeHistoryHandler(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.codeService.History(r.Context(), queryLimit(r))
	if err != nil {
		h.writeInternalError(w, r, "Failed to fetch history", err)
		return
	}
	writeList(w, len(analyses), analyses)
}

func (h *APIHandler) GetAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.codeService.GetAnalysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeInternalError(w, r, "Failed to fetch analysis", err)
		return
	}
	if analysis == nil {
		writeError(w, http.StatusNotFound, "Analysis not found")
		return
	}
	writeData(w, analysis)
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": serviceTitle + " API is running",
	})
}

func (h *APIHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": serviceTitle + " Backend API",
		"version": serviceVersion,
		"endpoints": map[string]string{
			"health": "/api/health",
			"code":   "/api/code",
			"chat":   "/api/chat",
		},
	})
}

func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Route not found", Path: r.URL.Path})
}
