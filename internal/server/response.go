package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"career-compass/internal/normalize"
	"career-compass/internal/storage"
)

type okResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

type errorResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Hint    string `json:"hint,omitempty"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, okResponse{OK: true, Data: data})
}

// writeError maps err onto a status code and the failure envelope.
func writeError(w http.ResponseWriter, err error) {
	status, body := describeError(err)
	writeJSON(w, status, body)
}

func describeError(err error) (int, errorResponse) {
	var ve *normalize.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, errorResponse{
			Message: ve.Message,
			Code:    string(ve.Kind),
			Details: ve.Field,
		}
	}

	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound, errorResponse{
			Message: "Application not found",
			Code:    "not_found",
		}
	}

	if se, ok := storage.AsStoreError(err); ok {
		return http.StatusBadGateway, errorResponse{
			Message: se.Message,
			Code:    se.Code,
			Hint:    se.Hint,
			Details: se.Detail,
		}
	}

	return http.StatusInternalServerError, errorResponse{
		Message: "Something went wrong. Please try again later.",
		Code:    "internal",
	}
}

func badRequest(w http.ResponseWriter, code, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Message: message, Code: code})
}
