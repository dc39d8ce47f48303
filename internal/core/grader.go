package core

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/SATYAJEET323/EduBot/internal/logger"
	"github.com/SATYAJEET323/EduBot/internal/store"
)

// Grader decides answer correctness and applies the progress side effect to
// the submitting account.
type Grader struct {
	dbStore          *store.SQLiteStore
	llm              TextGenerator
	logger           *logger.Logger
	pointsPerCorrect int
	now              func() time.Time
}

func NewGrader(db *store.SQLiteStore, llm TextGenerator, log *logger.Logger, pointsPerCorrect int) *Grader {
	return &Grader{
		dbStore:          db,
		llm:              llm,
		logger:           log,
		pointsPerCorrect: pointsPerCorrect,
		now:              time.Now,
	}
}

// GradeRequest carries one submitted answer.
type GradeRequest struct {
	Type          string `json:"type"`
	QuestionText  string `json:"question"`
	Submitted     string `json:"answer"`
	CorrectAnswer string `json:"correct_answer"`
}

// GradeResult is the outcome returned to the client and, for coding/sql
// questions, the exact shape expected from the evaluator model.
type GradeResult struct {
	IsCorrect   bool   `json:"isCorrect"`
	Feedback    string `json:"feedback"`
	Explanation string `json:"explanation"`
}

// Grade evaluates the answer and updates the account's progress aggregate.
// The progress write is a plain read-modify-write; concurrent submissions for
// the same account race and the last write wins.
func (g *Grader) Grade(ctx context.Context, userID int64, req GradeRequest) (*GradeResult, error) {
	result := g.evaluate(ctx, req)

	user, err := g.dbStore.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user for progress update: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	updated := ApplyProgress(user.Progress, result.IsCorrect, g.now(), g.pointsPerCorrect)
	if err := g.dbStore.UpdateProgress(userID, updated); err != nil {
		return nil, fmt.Errorf("failed to persist progress: %w", err)
	}

	return result, nil
}

func (g *Grader) evaluate(ctx context.Context, req GradeRequest) *GradeResult {
	switch req.Type {
	case store.QuestionTypeMCQ:
		return EvaluateMCQ(req.Submitted, req.CorrectAnswer)
	case store.QuestionTypeCoding, store.QuestionTypeSQL:
		return g.evaluateWithModel(ctx, req)
	default:
		return &GradeResult{
			IsCorrect:   false,
			Feedback:    "This question type cannot be graded automatically.",
			Explanation: fmt.Sprintf("Grading is not supported for question type %q.", req.Type),
		}
	}
}

// EvaluateMCQ is a pure function of (submitted, correct) equality.
func EvaluateMCQ(submitted, correct string) *GradeResult {
	if submitted == correct {
		return &GradeResult{
			IsCorrect: true,
			Feedback:  "Correct!",
		}
	}
	return &GradeResult{
		IsCorrect:   false,
		Feedback:    "That is not the right answer.",
		Explanation: fmt.Sprintf("The correct answer is %s.", correct),
	}
}

// evaluateWithModel delegates open-ended grading to the LLM. Any failure —
// request error, missing JSON object, malformed payload — degrades to a
// terminal negative result; the caller never sees a parse error.
func (g *Grader) evaluateWithModel(ctx context.Context, req GradeRequest) *GradeResult {
	failed := &GradeResult{
		IsCorrect:   false,
		Feedback:    "We could not evaluate your answer this time.",
		Explanation: "The automated evaluator did not return a usable verdict. Please try again.",
	}

	prompt := fmt.Sprintf(
		"Evaluate this %s answer.\nQuestion: %s\nReference answer: %s\nSubmitted answer: %s\n"+
			"Judge whether the submission is functionally equivalent to the reference. "+
			"Respond with a JSON object only, in exactly this shape: "+
			`{"isCorrect": true|false, "feedback": "...", "explanation": "..."}`,
		req.Type, req.QuestionText, req.CorrectAnswer, req.Submitted,
	)

	raw, err := g.llm.EvaluateAnswer(ctx, prompt)
	if err != nil {
		g.logger.Warn().Err(err).Msg("evaluator request failed")
		return failed
	}

	payload, err := ExtractJSONObject(raw)
	if err != nil {
		g.logger.Warn().Err(err).Msg("evaluator response contained no JSON verdict")
		return failed
	}

	var result GradeResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		g.logger.Warn().Err(err).Msg("evaluator verdict was malformed")
		return failed
	}
	return &result
}

// ApplyProgress returns the progress aggregate after one grading call.
// Streak semantics are calendar-day based: activity on the same day leaves
// the streak unchanged, the next day increments it, any larger gap (or first
// ever activity) resets it to 1.
func ApplyProgress(p store.Progress, correct bool, now time.Time, pointsPerCorrect int) store.Progress {
	p.TotalAnswered++
	if correct {
		p.CorrectCount++
		p.Points += pointsPerCorrect
	}

	switch {
	case p.LastActive == nil:
		p.StreakDays = 1
	default:
		switch daysBetween(*p.LastActive, now) {
		case 0:
			if p.StreakDays == 0 {
				p.StreakDays = 1
			}
		case 1:
			p.StreakDays++
		default:
			p.StreakDays = 1
		}
	}

	t := now
	p.LastActive = &t
	return p
}

// daysBetween counts calendar-day boundaries crossed between from and to,
// evaluated in to's location.
func daysBetween(from, to time.Time) int {
	loc := to.Location()
	from = from.In(loc)
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc)
	// Rounding keeps DST transitions from shifting the boundary count.
	return int(math.Round(toDay.Sub(fromDay).Hours() / 24))
}
