package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SATYAJEET323/EduBot/internal/auth"
	"github.com/SATYAJEET323/EduBot/internal/core"
	"github.com/SATYAJEET323/EduBot/internal/store"
)

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fieldErrors := map[string]string{}
	if req.Email == "" {
		fieldErrors["email"] = "email is required"
	}
	if req.Password == "" {
		fieldErrors["password"] = "password is required"
	}
	if len(fieldErrors) > 0 {
		respondValidation(w, fieldErrors)
		return
	}

	user, err := h.userService.Register(req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			respondValidation(w, map[string]string{"email": "email already registered"})
			return
		}
		if isValidationError(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("registration failed")
		respondUpstreamError(w, err)
		return
	}

	h.respondWithToken(w, http.StatusCreated, "account created", user)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondValidation(w, map[string]string{"credentials": "email and password are required"})
		return
	}

	user, err := h.userService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, core.ErrUnauthorized) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error().Err(err).Msg("login failed")
		respondUpstreamError(w, err)
		return
	}

	h.respondWithToken(w, http.StatusOK, "login successful", user)
}

type FaceLoginRequest struct {
	Descriptor []float32 `json:"descriptor"`
}

// FaceLoginHandler authenticates by best-match over registered descriptors.
// No match is indistinguishable from any other credential failure.
func (h *APIHandler) FaceLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req FaceLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Descriptor) == 0 {
		respondValidation(w, map[string]string{"descriptor": "descriptor is required"})
		return
	}

	user, err := h.faceService.Login(req.Descriptor)
	if err != nil {
		if errors.Is(err, core.ErrUnauthorized) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error().Err(err).Msg("face login failed")
		respondUpstreamError(w, err)
		return
	}

	h.respondWithToken(w, http.StatusOK, "login successful", user)
}

// LogoutHandler exists for API symmetry. Tokens are stateless, so logout is
// the client discarding its token.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, "logged out", nil)
}

func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, "", currentUser(r))
}

func (h *APIHandler) respondWithToken(w http.ResponseWriter, code int, message string, user *store.User) {
	token, err := auth.GenerateJWT(user.ID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to generate token")
		respondUpstreamError(w, err)
		return
	}
	respondSuccess(w, code, message, map[string]any{
		"token": token,
		"user":  user,
	})
}

// isValidationError distinguishes input-shaped service errors (plain
// fmt.Errorf messages) from wrapped infrastructure failures.
func isValidationError(err error) bool {
	return !errors.Is(err, core.ErrNotFound) &&
		!errors.Is(err, core.ErrUnauthorized) &&
		!errors.Is(err, core.ErrGeneration) &&
		errors.Unwrap(err) == nil
}
