package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/SATYAJEET323/EduBot/internal/core"
	"github.com/SATYAJEET323/EduBot/internal/store"
)

func (h *APIHandler) ListSubjectsHandler(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.subjectService.List()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list subjects")
		respondUpstreamError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", subjects)
}

func (h *APIHandler) GetSubjectHandler(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectService.Get(chi.URLParam(r, "subjectID"))
	if err != nil {
		h.respondSubjectError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", subject)
}

func (h *APIHandler) PopularSubjectsHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	subjects, err := h.subjectService.Popular(limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list popular subjects")
		respondUpstreamError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", subjects)
}

func (h *APIHandler) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, "", h.subjectService.Categories())
}

func (h *APIHandler) RecommendedSubjectsHandler(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.subjectService.Recommended(currentUser(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list recommended subjects")
		respondUpstreamError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", subjects)
}

func (h *APIHandler) CreateSubjectHandler(w http.ResponseWriter, r *http.Request) {
	var subject store.Subject
	if err := json.NewDecoder(r.Body).Decode(&subject); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.subjectService.Create(&subject)
	if err != nil {
		h.respondSubjectError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "subject created", created)
}

func (h *APIHandler) UpdateSubjectHandler(w http.ResponseWriter, r *http.Request) {
	var update core.SubjectUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.subjectService.Update(chi.URLParam(r, "subjectID"), update)
	if err != nil {
		h.respondSubjectError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "subject updated", updated)
}

func (h *APIHandler) DeleteSubjectHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.subjectService.Delete(chi.URLParam(r, "subjectID")); err != nil {
		h.respondSubjectError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "subject deleted", nil)
}

// Topic handlers — all routes are nested under the owning subject.

func (h *APIHandler) ListTopicsHandler(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectService.Get(chi.URLParam(r, "subjectID"))
	if err != nil {
		h.respondSubjectError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", subject.Topics)
}

func (h *APIHandler) GetTopicHandler(w http.ResponseWriter, r *http.Request) {
	topic, err := h.subjectService.GetTopic(chi.URLParam(r, "subjectID"), chi.URLParam(r, "topicID"))
	if err != nil {
		h.respondSubjectError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", topic)
}

func (h *APIHandler) AddTopicHandler(w http.ResponseWriter, r *http.Request) {
	var topic store.Topic
	if err := json.NewDecoder(r.Body).Decode(&topic); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.subjectService.AddTopic(chi.URLParam(r, "subjectID"), &topic)
	if err != nil {
		h.respondSubjectError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "topic added", created)
}

func (h *APIHandler) UpdateTopicHandler(w http.ResponseWriter, r *http.Request) {
	var update core.TopicUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.subjectService.UpdateTopic(chi.URLParam(r, "subjectID"), chi.URLParam(r, "topicID"), update)
	if err != nil {
		h.respondSubjectError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "topic updated", updated)
}

func (h *APIHandler) DeleteTopicHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.subjectService.DeleteTopic(chi.URLParam(r, "subjectID"), chi.URLParam(r, "topicID")); err != nil {
		h.respondSubjectError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "topic deleted", nil)
}

type RequestQuestionsRequest struct {
	TopicID    string `json:"topic_id"`
	Difficulty string `json:"difficulty"`
	Type       string `json:"type"`
	Count      int    `json:"count"`
}

// RequestQuestionsHandler generates questions for a catalog topic and records
// the demand on subject/topic counters.
func (h *APIHandler) RequestQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	var req RequestQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TopicID == "" {
		respondValidation(w, map[string]string{"topic_id": "topic_id is required"})
		return
	}

	questions, err := h.questionService.RequestQuestionsForSubject(
		r.Context(), chi.URLParam(r, "subjectID"), req.TopicID, req.Difficulty, req.Type, req.Count,
	)
	if err != nil {
		h.respondGenerationError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", questions)
}

func (h *APIHandler) respondSubjectError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, store.ErrNameTaken):
		respondValidation(w, map[string]string{"name": "subject name already exists"})
	case isValidationError(err):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("subject operation failed")
		respondUpstreamError(w, err)
	}
}

func (h *APIHandler) respondGenerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, core.ErrGeneration):
		h.logger.Error().Err(err).Msg("question generation failed")
		respondUpstreamError(w, err)
	case isValidationError(err):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("question request failed")
		respondUpstreamError(w, err)
	}
}
