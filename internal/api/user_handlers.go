package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SATYAJEET323/EduBot/internal/core"
	"github.com/SATYAJEET323/EduBot/internal/store"
)

func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, "", currentUser(r))
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url"`
}

func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.userService.UpdateProfile(user.ID, req.FirstName, req.LastName, req.AvatarURL)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to update profile")
		respondUpstreamError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "profile updated", updated)
}

func (h *APIHandler) GetPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, "", currentUser(r).Preferences)
}

func (h *APIHandler) UpdatePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var prefs store.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.userService.UpdatePreferences(user.ID, prefs)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to update preferences")
		respondUpstreamError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "preferences updated", updated.Preferences)
}

func (h *APIHandler) GetProgressHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	progress, err := h.userService.GetProgress(user.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			respondError(w, http.StatusNotFound, "account not found")
			return
		}
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to load progress")
		respondUpstreamError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", progress)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *APIHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		respondValidation(w, map[string]string{"password": "current and new passwords are required"})
		return
	}

	err := h.userService.ChangePassword(user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrUnauthorized):
			respondError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, core.ErrNotFound):
			respondError(w, http.StatusNotFound, "account not found")
		case isValidationError(err):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to change password")
			respondUpstreamError(w, err)
		}
		return
	}
	respondSuccess(w, http.StatusOK, "password changed", nil)
}

// RegisterFaceVectorHandler stores a client-supplied 128-component descriptor
// on the authenticated account.
func (h *APIHandler) RegisterFaceVectorHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req FaceLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.faceService.RegisterVector(user.ID, req.Descriptor); err != nil {
		if isValidationError(err) {
			respondValidation(w, map[string]string{"descriptor": err.Error()})
			return
		}
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to register descriptor")
		respondUpstreamError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "face descriptor registered", nil)
}

func (h *APIHandler) RemoveFaceVectorHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if err := h.faceService.Remove(user.ID); err != nil {
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to remove descriptor")
		respondUpstreamError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "face descriptor removed", nil)
}

func (h *APIHandler) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if err := h.userService.DeleteAccount(user.ID); err != nil {
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to delete account")
		respondUpstreamError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "account deleted", nil)
}
