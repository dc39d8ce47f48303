package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(apiHandler.RequestLogger)
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", apiHandler.RegisterHandler)
		r.Post("/auth/login", apiHandler.LoginHandler)
		r.Post("/auth/face-login", apiHandler.FaceLoginHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Post("/auth/logout", apiHandler.LogoutHandler)
			r.Get("/auth/me", apiHandler.MeHandler)

			// Account routes
			r.Route("/user", func(r chi.Router) {
				r.Get("/profile", apiHandler.GetProfileHandler)
				r.Put("/profile", apiHandler.UpdateProfileHandler)
				r.Get("/preferences", apiHandler.GetPreferencesHandler)
				r.Put("/preferences", apiHandler.UpdatePreferencesHandler)
				r.Get("/progress", apiHandler.GetProgressHandler)
				r.Put("/password", apiHandler.ChangePasswordHandler)
				r.Post("/face-register", apiHandler.RegisterFaceVectorHandler)
				r.Delete("/face-register", apiHandler.RemoveFaceVectorHandler)
				r.Delete("/account", apiHandler.DeleteAccountHandler)
			})

			// Catalog routes
			r.Route("/subjects", func(r chi.Router) {
				r.Get("/", apiHandler.ListSubjectsHandler)
				r.Post("/", apiHandler.CreateSubjectHandler)
				r.Get("/popular", apiHandler.PopularSubjectsHandler)
				r.Get("/categories", apiHandler.CategoriesHandler)
				r.Get("/recommended", apiHandler.RecommendedSubjectsHandler)

				r.Route("/{subjectID}", func(r chi.Router) {
					r.Get("/", apiHandler.GetSubjectHandler)
					r.Put("/", apiHandler.UpdateSubjectHandler)
					r.Delete("/", apiHandler.DeleteSubjectHandler)
					r.Post("/request-questions", apiHandler.RequestQuestionsHandler)

					r.Route("/topics", func(r chi.Router) {
						r.Get("/", apiHandler.ListTopicsHandler)
						r.Post("/", apiHandler.AddTopicHandler)
						r.Get("/{topicID}", apiHandler.GetTopicHandler)
						r.Put("/{topicID}", apiHandler.UpdateTopicHandler)
						r.Delete("/{topicID}", apiHandler.DeleteTopicHandler)
					})
				})
			})

			// Question routes
			r.Post("/questions/generate", apiHandler.GenerateQuestionsHandler)
			r.Post("/questions/validate-answer", apiHandler.ValidateAnswerHandler)

			// Face recognition routes
			r.Route("/face-recognition", func(r chi.Router) {
				r.Post("/detect", apiHandler.DetectFaceHandler)
				r.Post("/compare", apiHandler.CompareFacesHandler)
				r.Post("/register", apiHandler.RegisterFaceHandler)
				r.Delete("/register", apiHandler.UnregisterFaceHandler)
				r.Get("/status", apiHandler.FaceStatusHandler)
			})
		})
	})

	return r
}
