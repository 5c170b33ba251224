package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type listResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Data    any  `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: data})
}

func writeList(w http.ResponseWriter, count int, data any) {
	writeJSON(w, http.StatusOK, listResponse{Success: true, Count: count, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeInternalError logs err and answers 500. The error text reaches the client only outside production.
func (h *APIHandler) writeInternalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	log := zerolog.Ctx(r.Context())
	if log.GetLevel() == zerolog.Disabled {
		log = &h.log
	}
	log.Error().Err(err).Str("path", r.URL.Path).Msg(message)
	resp := ErrorResponse{Error: message}
	if !h.production {
		resp.Message = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}
