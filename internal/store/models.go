package store

import "time"

// Login methods recorded on the account after a successful authentication.
const (
	LoginMethodPassword = "password"
	LoginMethodFace     = "face"
)

// Question types the grader understands.
const (
	QuestionTypeMCQ    = "mcq"
	QuestionTypeCoding = "coding"
	QuestionTypeSQL    = "sql"
)

// SubjectCategories is the fixed set of catalog domains.
var SubjectCategories = []string{
	"programming",
	"mathematics",
	"science",
	"language",
	"history",
	"business",
	"arts",
	"other",
}

// Progress is the per-account aggregate mutated by grading.
type Progress struct {
	TotalAnswered int        `json:"total_answered"`
	CorrectCount  int        `json:"correct_count"`
	StreakDays    int        `json:"streak_days"`
	LastActive    *time.Time `json:"last_active"`
	Points        int        `json:"points"`
}

// Preferences captures the learning preferences an account can tune.
type Preferences struct {
	Subjects      []string `json:"subjects"`
	Pace          string   `json:"pace"`
	Difficulty    string   `json:"difficulty"`
	QuestionTypes []string `json:"question_types"`
	DailyGoal     int      `json:"daily_goal"`
}

type User struct {
	ID              int64       `json:"id"`
	Email           string      `json:"email"` // Stored lowercase, unique
	PasswordHash    string      `json:"-"`     // Do not expose this in JSON responses
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	AvatarURL       string      `json:"avatar_url"`
	FaceDescriptor  []float32   `json:"-"` // 128 components when present
	Preferences     Preferences `json:"preferences"`
	Progress        Progress    `json:"progress"`
	Active          bool        `json:"active"`
	Verified        bool        `json:"verified"`
	LastLoginAt     *time.Time  `json:"last_login_at"`
	LastLoginMethod string      `json:"last_login_method"`
	CreatedAt       time.Time   `json:"created_at"`
}

type Subject struct {
	ID            string    `json:"id"` // UUID
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Icon          string    `json:"icon"`
	Color         string    `json:"color"`
	Active        bool      `json:"active"`
	Popularity    int       `json:"popularity"`
	Prerequisites []string  `json:"prerequisites"` // IDs of prerequisite subjects
	Topics        []Topic   `json:"topics"`
	CreatedAt     time.Time `json:"created_at"`
}

// Topic is owned by its parent Subject; it has no operations of its own
// outside a subject-scoped call.
type Topic struct {
	ID               string   `json:"id"` // UUID
	SubjectID        string   `json:"subject_id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Difficulty       string   `json:"difficulty"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	Active           bool     `json:"active"`
	QuestionCount    int      `json:"question_count"`
	Tags             []string `json:"tags"`
	Position         int      `json:"position"`
}

// Question is produced on demand by the generator and never persisted.
type Question struct {
	ID            string   `json:"id"` // UUID assigned at generation time
	Type          string   `json:"type"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options,omitempty"`      // mcq
	StarterCode   string   `json:"starter_code,omitempty"` // coding
	TestCases     []string `json:"test_cases,omitempty"`   // coding
	QueryContext  string   `json:"query_context,omitempty"` // sql schema/setup text
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}
