package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/SATYAJEET323/EduBot/internal/auth"
	"github.com/SATYAJEET323/EduBot/internal/core"
	"github.com/SATYAJEET323/EduBot/internal/logger"
	"github.com/SATYAJEET323/EduBot/internal/store"
)

type ctxKey int

const userCtxKey ctxKey = iota

type APIHandler struct {
	userService     *core.UserService
	subjectService  *core.SubjectService
	questionService *core.QuestionService
	grader          *core.Grader
	faceService     *core.FaceService
	logger          *logger.Logger
	maxUploadBytes  int64
}

func NewAPIHandler(
	users *core.UserService,
	subjects *core.SubjectService,
	questions *core.QuestionService,
	grader *core.Grader,
	faces *core.FaceService,
	log *logger.Logger,
	maxUploadBytes int64,
) *APIHandler {
	return &APIHandler{
		userService:     users,
		subjectService:  subjects,
		questionService: questions,
		grader:          grader,
		faceService:     faces,
		logger:          log,
		maxUploadBytes:  maxUploadBytes,
	}
}

// JWTAuthMiddleware resolves the bearer token into the owning account and
// stores it in the request context. Every failure is a uniform 401.
func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		subject, err := auth.ValidateJWT(tokenString)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		userID, err := strconv.ParseInt(subject, 10, 64)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := h.userService.GetByID(userID)
		if err != nil {
			logger.FromContext(r.Context()).Error().Err(err).Int64("user_id", userID).Msg("failed to resolve authenticated user")
			respondUpstreamError(w, err)
			return
		}
		if user == nil || !user.Active {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), userCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the account resolved by JWTAuthMiddleware.
func currentUser(r *http.Request) *store.User {
	user, _ := r.Context().Value(userCtxKey).(*store.User)
	return user
}

// RequestLogger emits one structured log line per request and attaches a
// request-scoped logger (tagged with the request id) to the context for
// downstream handlers.
func (h *APIHandler) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLog := &logger.Logger{
			Logger: h.logger.With().Str("request_id", middleware.GetReqID(r.Context())).Logger(),
		}
		r = r.WithContext(reqLog.WithContext(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		reqLog.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
