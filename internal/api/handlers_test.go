package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SATYAJEET323/EduBot/internal/config"
	"github.com/SATYAJEET323/EduBot/internal/core"
	"github.com/SATYAJEET323/EduBot/internal/face"
	"github.com/SATYAJEET323/EduBot/internal/logger"
	"github.com/SATYAJEET323/EduBot/internal/store"
)

func TestMain(m *testing.M) {
	config.AppConfig = config.Config{
		JWTSecret:       "test-secret",
		TokenTTL:        time.Hour,
		Environment:     "test",
		MaxUploadBytes:  1 << 20,
		PointsPerAnswer: 10,
	}
	m.Run()
}

// stubGenerator implements core.TextGenerator with canned responses.
type stubGenerator struct {
	quizResponse     string
	evaluateResponse string
}

func (g *stubGenerator) GenerateQuizContent(ctx context.Context, prompt string) (string, error) {
	return g.quizResponse, nil
}

func (g *stubGenerator) EvaluateAnswer(ctx context.Context, prompt string) (string, error) {
	return g.evaluateResponse, nil
}

func newTestServer(t *testing.T, llm core.TextGenerator) (http.Handler, *store.SQLiteStore) {
	t.Helper()
	dbStore, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { dbStore.Close() })

	log := logger.Nop()
	handler := NewAPIHandler(
		core.NewUserService(dbStore, log),
		core.NewSubjectService(dbStore, log),
		core.NewQuestionService(dbStore, llm, log),
		core.NewGrader(dbStore, llm, log, config.AppConfig.PointsPerAnswer),
		core.NewFaceService(dbStore, face.NewRandomEmbedder(), log),
		log,
		config.AppConfig.MaxUploadBytes,
	)
	return NewRouter(handler), dbStore
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func registerAndLogin(t *testing.T, router http.Handler, email string) string {
	t.Helper()
	rec, env := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "correct horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	data := env.Data.(map[string]any)
	token, ok := data["token"].(string)
	require.True(t, ok)
	return token
}

func TestRegisterLoginAndMe(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{})

	token := registerAndLogin(t, router, "ada@example.com")

	// A duplicate, differently-cased email is rejected with field detail.
	rec, env := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "ADA@example.com",
		"password": "another pass",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", env.Status)
	assert.Contains(t, env.Errors, "email")

	rec, _ = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = doJSON(t, router, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := env.Data.(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])
	_, leaked := user["password_hash"]
	assert.False(t, leaked)

	rec, _ = doJSON(t, router, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateAnswerUpdatesProgress(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{})
	token := registerAndLogin(t, router, "ada@example.com")

	submit := func(submitted, correct string) envelope {
		rec, env := doJSON(t, router, http.MethodPost, "/api/questions/validate-answer", token, map[string]string{
			"type":           store.QuestionTypeMCQ,
			"answer":         submitted,
			"correct_answer": correct,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		return env
	}

	env := submit("A", "A")
	result := env.Data.(map[string]any)
	assert.Equal(t, true, result["isCorrect"])

	env = submit("B", "A")
	result = env.Data.(map[string]any)
	assert.Equal(t, false, result["isCorrect"])

	rec, env := doJSON(t, router, http.MethodGet, "/api/user/progress", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	progress := env.Data.(map[string]any)
	assert.Equal(t, float64(2), progress["total_answered"])
	assert.Equal(t, float64(1), progress["correct_count"])
	assert.Equal(t, float64(10), progress["points"])
	assert.Equal(t, float64(1), progress["streak_days"])
}

func TestSubjectAndTopicEndpoints(t *testing.T) {
	quiz := "```json\n" +
		`[{"question": "Q1", "options": ["A) x", "B) y"], "correctAnswer": "A) x", "explanation": "e"}]` +
		"\n```"
	router, _ := newTestServer(t, &stubGenerator{quizResponse: quiz})
	token := registerAndLogin(t, router, "ada@example.com")

	rec, env := doJSON(t, router, http.MethodPost, "/api/subjects", token, map[string]any{
		"name": "Go", "category": "programming", "icon": "code", "color": "#00ADD8",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	subject := env.Data.(map[string]any)
	subjectID := subject["id"].(string)

	rec, env = doJSON(t, router, http.MethodPost, "/api/subjects/"+subjectID+"/topics", token, map[string]any{
		"name": "Goroutines", "difficulty": "intermediate",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	topic := env.Data.(map[string]any)
	topicID := topic["id"].(string)

	rec, env = doJSON(t, router, http.MethodGet, "/api/subjects/"+subjectID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	loaded := env.Data.(map[string]any)
	topics := loaded["topics"].([]any)
	require.Len(t, topics, 1)

	rec, env = doJSON(t, router, http.MethodGet, "/api/subjects/categories", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, env.Data)

	rec, _ = doJSON(t, router, http.MethodGet, "/api/subjects/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Requesting questions bumps popularity and topic counters.
	rec, env = doJSON(t, router, http.MethodPost, "/api/subjects/"+subjectID+"/request-questions", token, map[string]any{
		"topic_id": topicID, "type": store.QuestionTypeMCQ, "count": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	questions := env.Data.([]any)
	require.Len(t, questions, 1)

	rec, env = doJSON(t, router, http.MethodGet, "/api/subjects/popular", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	popular := env.Data.([]any)
	require.NotEmpty(t, popular)
	assert.Equal(t, float64(1), popular[0].(map[string]any)["popularity"])
}

func TestUpdateSubjectPartialBody(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{})
	token := registerAndLogin(t, router, "ada@example.com")

	rec, env := doJSON(t, router, http.MethodPost, "/api/subjects", token, map[string]any{
		"name": "Go", "category": "programming", "icon": "code", "color": "#00ADD8",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	subjectID := env.Data.(map[string]any)["id"].(string)

	// A rename must not blank the other fields or drop the subject from the
	// active catalog.
	rec, env = doJSON(t, router, http.MethodPut, "/api/subjects/"+subjectID, token, map[string]any{
		"name": "Golang",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := env.Data.(map[string]any)
	assert.Equal(t, "Golang", updated["name"])
	assert.Equal(t, "code", updated["icon"])
	assert.Equal(t, "#00ADD8", updated["color"])
	assert.Equal(t, true, updated["active"])

	rec, env = doJSON(t, router, http.MethodGet, "/api/subjects", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := env.Data.([]any)
	require.Len(t, listed, 1)
	assert.Equal(t, "Golang", listed[0].(map[string]any)["name"])
}

func TestGenerateQuestionsEndpoint(t *testing.T) {
	quiz := `[{"question": "Q1", "options": ["A) x"], "correctAnswer": "A) x", "explanation": "e"}]`
	router, _ := newTestServer(t, &stubGenerator{quizResponse: quiz})
	token := registerAndLogin(t, router, "ada@example.com")

	rec, env := doJSON(t, router, http.MethodPost, "/api/questions/generate", token, map[string]any{
		"subject": "Go", "type": store.QuestionTypeMCQ, "count": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	questions := env.Data.([]any)
	require.Len(t, questions, 1)

	rec, env = doJSON(t, router, http.MethodPost, "/api/questions/generate", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Errors, "subject")
}

func TestGenerateQuestionsUpstreamGarbage(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{quizResponse: "no json here"})
	token := registerAndLogin(t, router, "ada@example.com")

	rec, env := doJSON(t, router, http.MethodPost, "/api/questions/generate", token, map[string]any{
		"subject": "Go",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", env.Status)
}

func TestFaceVectorRegistrationAndLogin(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{})
	token := registerAndLogin(t, router, "ada@example.com")

	descriptor := make([]float32, face.DescriptorLength)
	for i := range descriptor {
		descriptor[i] = 0.5
	}

	// Wrong length is a validation failure.
	rec, _ := doJSON(t, router, http.MethodPost, "/api/user/face-register", token, map[string]any{
		"descriptor": []float32{1, 2, 3},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPost, "/api/user/face-register", token, map[string]any{
		"descriptor": descriptor,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doJSON(t, router, http.MethodGet, "/api/face-recognition/status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, env.Data.(map[string]any)["registered"])

	// The same descriptor logs in without a password.
	rec, env = doJSON(t, router, http.MethodPost, "/api/auth/face-login", "", map[string]any{
		"descriptor": descriptor,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data := env.Data.(map[string]any)
	assert.NotEmpty(t, data["token"])

	// A far-off descriptor is rejected as plain invalid credentials.
	far := make([]float32, face.DescriptorLength)
	for i := range far {
		far[i] = -0.5
	}
	rec, env = doJSON(t, router, http.MethodPost, "/api/auth/face-login", "", map[string]any{
		"descriptor": far,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", env.Message)

	rec, _ = doJSON(t, router, http.MethodDelete, "/api/user/face-register", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = doJSON(t, router, http.MethodGet, "/api/face-recognition/status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, env.Data.(map[string]any)["registered"])
}

func TestFaceCompareEndpoint(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{})
	token := registerAndLogin(t, router, "ada@example.com")

	rec, env := doJSON(t, router, http.MethodPost, "/api/face-recognition/compare", token, map[string]any{
		"descriptor_a": []float32{0.1, 0.2, 0.3},
		"descriptor_b": []float32{0.1, 0.2, 0.3},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	result := env.Data.(map[string]any)
	assert.Equal(t, true, result["match"])
	assert.InDelta(t, 1.0, result["similarity"].(float64), 1e-9)
}

func multipartImage(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestFaceDetectMultipart(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{})
	token := registerAndLogin(t, router, "ada@example.com")

	// A minimal PNG header is enough for MIME sniffing.
	pngBytes := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	body, contentType := multipartImage(t, "image", "face.png", pngBytes)

	req := httptest.NewRequest(http.MethodPost, "/api/face-recognition/detect", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	descriptor := env.Data.(map[string]any)["descriptor"].([]any)
	assert.Len(t, descriptor, face.DescriptorLength)
}

func TestFaceDetectRejectsNonImage(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{})
	token := registerAndLogin(t, router, "ada@example.com")

	body, contentType := multipartImage(t, "image", "notes.txt", []byte("plain text, not an image"))

	req := httptest.NewRequest(http.MethodPost, "/api/face-recognition/detect", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePasswordAndDeleteAccount(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{})
	token := registerAndLogin(t, router, "ada@example.com")

	rec, _ := doJSON(t, router, http.MethodPut, "/api/user/password", token, map[string]string{
		"current_password": "wrong", "new_password": "brand new pass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPut, "/api/user/password", token, map[string]string{
		"current_password": "correct horse", "new_password": "brand new pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "brand new pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, router, http.MethodDelete, "/api/user/account", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The deleted account's token no longer authenticates.
	rec, _ = doJSON(t, router, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPreferencesRoundTripOverAPI(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{})
	token := registerAndLogin(t, router, "ada@example.com")

	rec, _ := doJSON(t, router, http.MethodPut, "/api/user/preferences", token, map[string]any{
		"subjects":   []string{"Go"},
		"difficulty": "advanced",
		"daily_goal": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doJSON(t, router, http.MethodGet, "/api/user/preferences", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	prefs := env.Data.(map[string]any)
	assert.Equal(t, "advanced", prefs["difficulty"])
	assert.Equal(t, float64(5), prefs["daily_goal"])
}

func TestHealthEndpointIsPublic(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
