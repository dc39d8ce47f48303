package api

import (
	"encoding/json"
	"net/http"

	"github.com/SATYAJEET323/EduBot/internal/config"
)

// envelope is the uniform response shape:
// {status: "success"|"error", message?, data?, errors?}.
type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, code int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(env)
}

func respondSuccess(w http.ResponseWriter, code int, message string, data any) {
	respondJSON(w, code, envelope{Status: "success", Message: message, Data: data})
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, envelope{Status: "error", Message: message})
}

// respondValidation reports field-level validation failures as a 400.
func respondValidation(w http.ResponseWriter, fieldErrors map[string]string) {
	respondJSON(w, http.StatusBadRequest, envelope{
		Status:  "error",
		Message: "validation failed",
		Errors:  fieldErrors,
	})
}

// respondUpstreamError hides the underlying error in production and exposes
// it otherwise, per the error-handling policy.
func respondUpstreamError(w http.ResponseWriter, err error) {
	message := "an internal error occurred"
	if !config.IsProduction() && err != nil {
		message = err.Error()
	}
	respondError(w, http.StatusInternalServerError, message)
}
