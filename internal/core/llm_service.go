package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/SATYAJEET323/EduBot/internal/config"
)

const (
	defaultGenerationModelName = "gemini-1.5-flash-latest"

	generatorSystemInstruction = "You are a quiz content generator for an educational platform. " +
		"Always respond with valid JSON exactly in the shape requested, with no commentary outside the JSON payload. " +
		"Questions must be factually accurate and appropriate for the requested difficulty."

	evaluatorSystemInstruction = "You are a strict but fair grader of programming and SQL exercises. " +
		"Always respond with a single JSON object exactly in the shape requested, with no commentary outside the JSON payload."
)

// TextGenerator is the minimal surface the quiz and grading services need
// from the LLM. It exists so those services can be exercised without a live
// Gemini client.
type TextGenerator interface {
	GenerateQuizContent(ctx context.Context, prompt string) (string, error)
	EvaluateAnswer(ctx context.Context, prompt string) (string, error)
}

type LLMService struct {
	client *genai.Client
}

func NewLLMService() *LLMService {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}

	return &LLMService{
		client: client,
	}
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

// GenerateQuizContent sends a question-generation prompt and returns the raw
// model text. JSON extraction happens at the caller.
func (s *LLMService) GenerateQuizContent(ctx context.Context, prompt string) (string, error) {
	return s.generate(ctx, generatorSystemInstruction, prompt)
}

// EvaluateAnswer sends a grading prompt and returns the raw model text.
func (s *LLMService) EvaluateAnswer(ctx context.Context, prompt string) (string, error) {
	return s.generate(ctx, evaluatorSystemInstruction, prompt)
}

func (s *LLMService) generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	model := s.client.GenerativeModel(defaultGenerationModelName)

	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response was empty or had no valid candidates")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	if responseText.Len() == 0 {
		return "", fmt.Errorf("gemini response contained no text parts")
	}

	return responseText.String(), nil
}
