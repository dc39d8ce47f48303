package api

import (
	"encoding/json"
	"net/http"

	"github.com/SATYAJEET323/EduBot/internal/core"
)

type GenerateQuestionsRequest struct {
	Subject    string `json:"subject"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Type       string `json:"type"`
	Count      int    `json:"count"`
}

// GenerateQuestionsHandler produces ephemeral questions straight from the
// generator; nothing is persisted.
func (h *APIHandler) GenerateQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	var req GenerateQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Subject == "" {
		respondValidation(w, map[string]string{"subject": "subject is required"})
		return
	}

	user := currentUser(r)
	if req.Difficulty == "" {
		req.Difficulty = user.Preferences.Difficulty
	}

	questions, err := h.questionService.GenerateQuestions(r.Context(), core.GenerateParams{
		Subject:    req.Subject,
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		Type:       req.Type,
		Count:      req.Count,
	})
	if err != nil {
		h.respondGenerationError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", questions)
}

// ValidateAnswerHandler grades one answer and applies the progress update to
// the authenticated account.
func (h *APIHandler) ValidateAnswerHandler(w http.ResponseWriter, r *http.Request) {
	var req core.GradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fieldErrors := map[string]string{}
	if req.Type == "" {
		fieldErrors["type"] = "question type is required"
	}
	if req.Submitted == "" {
		fieldErrors["answer"] = "answer is required"
	}
	if len(fieldErrors) > 0 {
		respondValidation(w, fieldErrors)
		return
	}

	user := currentUser(r)
	result, err := h.grader.Grade(r.Context(), user.ID, req)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("grading failed")
		respondUpstreamError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", result)
}
