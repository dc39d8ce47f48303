package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SATYAJEET323/EduBot/internal/logger"
	"github.com/SATYAJEET323/EduBot/internal/store"
)

const (
	defaultQuestionCount = 5
	maxQuestionCount     = 20
)

// QuestionService builds generation prompts, calls the model and parses the
// returned question payloads. Questions are ephemeral: nothing here persists
// beyond counters on the subject catalog.
type QuestionService struct {
	dbStore *store.SQLiteStore
	llm     TextGenerator
	logger  *logger.Logger
}

func NewQuestionService(db *store.SQLiteStore, llm TextGenerator, log *logger.Logger) *QuestionService {
	return &QuestionService{
		dbStore: db,
		llm:     llm,
		logger:  log,
	}
}

// GenerateParams describes a question-generation request.
type GenerateParams struct {
	Subject    string
	Topic      string
	Difficulty string
	Type       string
	Count      int
}

func (p *GenerateParams) normalize() error {
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	switch p.Type {
	case store.QuestionTypeMCQ, store.QuestionTypeCoding, store.QuestionTypeSQL:
	case "":
		p.Type = store.QuestionTypeMCQ
	default:
		return fmt.Errorf("unsupported question type %q", p.Type)
	}

	if p.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if p.Difficulty == "" {
		p.Difficulty = "beginner"
	}
	if p.Count <= 0 {
		p.Count = defaultQuestionCount
	}
	if p.Count > maxQuestionCount {
		p.Count = maxQuestionCount
	}
	return nil
}

// generatedQuestion is the raw JSON shape the model is asked to produce.
type generatedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	StarterCode   string   `json:"starterCode"`
	TestCases     []string `json:"testCases"`
	QueryContext  string   `json:"queryContext"`
}

// GenerateQuestions asks the model for params.Count questions and parses the
// first JSON array out of its response. A response with no parseable array
// fails the whole request; there is no retry.
func (s *QuestionService) GenerateQuestions(ctx context.Context, params GenerateParams) ([]store.Question, error) {
	if err := params.normalize(); err != nil {
		return nil, err
	}

	prompt := buildGenerationPrompt(params)
	raw, err := s.llm.GenerateQuizContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	payload, err := ExtractJSONArray(raw)
	if err != nil {
		s.logger.Warn().Str("subject", params.Subject).Msg("model response contained no question array")
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	var rawQuestions []generatedQuestion
	if err := json.Unmarshal([]byte(payload), &rawQuestions); err != nil {
		return nil, fmt.Errorf("%w: malformed question payload: %v", ErrGeneration, err)
	}
	if len(rawQuestions) == 0 {
		return nil, fmt.Errorf("%w: model returned an empty question array", ErrGeneration)
	}

	questions := make([]store.Question, 0, len(rawQuestions))
	for _, rq := range rawQuestions {
		if rq.Question == "" {
			continue
		}
		questions = append(questions, store.Question{
			ID:            uuid.NewString(),
			Type:          params.Type,
			Prompt:        rq.Question,
			Options:       rq.Options,
			StarterCode:   rq.StarterCode,
			TestCases:     rq.TestCases,
			QueryContext:  rq.QueryContext,
			CorrectAnswer: rq.CorrectAnswer,
			Explanation:   rq.Explanation,
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: model returned no usable questions", ErrGeneration)
	}
	return questions, nil
}

// RequestQuestionsForSubject generates questions for a catalog topic and
// records the demand: subject popularity and the topic question counter are
// both bumped.
func (s *QuestionService) RequestQuestionsForSubject(ctx context.Context, subjectID, topicID string, difficulty, questionType string, count int) ([]store.Question, error) {
	subject, err := s.dbStore.GetSubjectByID(subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subject: %w", err)
	}
	if subject == nil {
		return nil, ErrNotFound
	}

	topic, err := s.dbStore.GetTopic(subjectID, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic: %w", err)
	}
	if topic == nil {
		return nil, ErrNotFound
	}

	if difficulty == "" {
		difficulty = topic.Difficulty
	}

	questions, err := s.GenerateQuestions(ctx, GenerateParams{
		Subject:    subject.Name,
		Topic:      topic.Name,
		Difficulty: difficulty,
		Type:       questionType,
		Count:      count,
	})
	if err != nil {
		return nil, err
	}

	if err := s.dbStore.IncrementPopularity(subjectID); err != nil {
		s.logger.Warn().Err(err).Str("subject_id", subjectID).Msg("failed to bump subject popularity")
	}
	if err := s.dbStore.IncrementTopicQuestionCount(subjectID, topicID, len(questions)); err != nil {
		s.logger.Warn().Err(err).Str("topic_id", topicID).Msg("failed to bump topic question count")
	}

	return questions, nil
}

func buildGenerationPrompt(params GenerateParams) string {
	var shape string
	switch params.Type {
	case store.QuestionTypeMCQ:
		shape = `[{"question": "...", "options": ["A) ...", "B) ...", "C) ...", "D) ..."], "correctAnswer": "A) ...", "explanation": "..."}]`
	case store.QuestionTypeCoding:
		shape = `[{"question": "...", "starterCode": "...", "testCases": ["input -> expected output"], "correctAnswer": "reference solution code", "explanation": "..."}]`
	case store.QuestionTypeSQL:
		shape = `[{"question": "...", "queryContext": "CREATE TABLE statements describing the schema", "correctAnswer": "reference SQL query", "explanation": "..."}]`
	}

	topicClause := ""
	if params.Topic != "" {
		topicClause = fmt.Sprintf(" on the topic %q", params.Topic)
	}

	return fmt.Sprintf(
		"Generate exactly %d %s questions about %q%s at %s difficulty. "+
			"Respond with a JSON array only, in exactly this shape:\n%s",
		params.Count, params.Type, params.Subject, topicClause, params.Difficulty, shape,
	)
}
