package core

import (
	"fmt"
	"strings"

	"github.com/SATYAJEET323/EduBot/internal/logger"
	"github.com/SATYAJEET323/EduBot/internal/store"
)

const defaultPopularLimit = 5

// SubjectService owns the subject/topic catalog. Topics are only reachable
// through their parent subject.
type SubjectService struct {
	dbStore *store.SQLiteStore
	logger  *logger.Logger
}

func NewSubjectService(db *store.SQLiteStore, log *logger.Logger) *SubjectService {
	return &SubjectService{
		dbStore: db,
		logger:  log,
	}
}

func (s *SubjectService) List() ([]store.Subject, error) {
	return s.dbStore.ListSubjects(true)
}

func (s *SubjectService) Get(id string) (*store.Subject, error) {
	subject, err := s.dbStore.GetSubjectByID(id)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, ErrNotFound
	}
	return subject, nil
}

func (s *SubjectService) Popular(limit int) ([]store.Subject, error) {
	if limit <= 0 {
		limit = defaultPopularLimit
	}
	return s.dbStore.ListPopularSubjects(limit)
}

func (s *SubjectService) Categories() []string {
	return store.SubjectCategories
}

// Recommended returns active subjects matching the user's preferred subject
// names; with no preferences (or no overlap) it falls back to the popular
// list.
func (s *SubjectService) Recommended(user *store.User) ([]store.Subject, error) {
	if user == nil || len(user.Preferences.Subjects) == 0 {
		return s.Popular(defaultPopularLimit)
	}

	preferred := make(map[string]bool, len(user.Preferences.Subjects))
	for _, name := range user.Preferences.Subjects {
		preferred[strings.ToLower(name)] = true
	}

	all, err := s.dbStore.ListSubjects(true)
	if err != nil {
		return nil, err
	}

	var matched []store.Subject
	for _, subject := range all {
		if preferred[strings.ToLower(subject.Name)] || preferred[strings.ToLower(subject.Category)] {
			matched = append(matched, subject)
		}
	}
	if len(matched) == 0 {
		return s.Popular(defaultPopularLimit)
	}
	return matched, nil
}

func (s *SubjectService) Create(subject *store.Subject) (*store.Subject, error) {
	if subject.Name == "" {
		return nil, fmt.Errorf("subject name is required")
	}
	if !validCategory(subject.Category) {
		return nil, fmt.Errorf("unknown category %q", subject.Category)
	}
	subject.Active = true
	return s.dbStore.CreateSubject(subject)
}

// SubjectUpdate carries the fields a subject update may change. Nil fields
// keep their stored values, so a partial request body never blanks anything.
type SubjectUpdate struct {
	Name          *string   `json:"name"`
	Category      *string   `json:"category"`
	Icon          *string   `json:"icon"`
	Color         *string   `json:"color"`
	Active        *bool     `json:"active"`
	Prerequisites *[]string `json:"prerequisites"`
}

func (s *SubjectService) Update(id string, update SubjectUpdate) (*store.Subject, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		if *update.Name == "" {
			return nil, fmt.Errorf("subject name is required")
		}
		existing.Name = *update.Name
	}
	if update.Category != nil {
		if !validCategory(*update.Category) {
			return nil, fmt.Errorf("unknown category %q", *update.Category)
		}
		existing.Category = *update.Category
	}
	if update.Icon != nil {
		existing.Icon = *update.Icon
	}
	if update.Color != nil {
		existing.Color = *update.Color
	}
	if update.Active != nil {
		existing.Active = *update.Active
	}
	if update.Prerequisites != nil {
		existing.Prerequisites = *update.Prerequisites
	}
	if err := s.dbStore.UpdateSubject(existing); err != nil {
		return nil, err
	}
	return s.Get(id)
}

func (s *SubjectService) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.dbStore.DeleteSubject(id)
}

// Topic operations, all subject-scoped.

func (s *SubjectService) GetTopic(subjectID, topicID string) (*store.Topic, error) {
	topic, err := s.dbStore.GetTopic(subjectID, topicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, ErrNotFound
	}
	return topic, nil
}

func (s *SubjectService) AddTopic(subjectID string, topic *store.Topic) (*store.Topic, error) {
	if topic.Name == "" {
		return nil, fmt.Errorf("topic name is required")
	}
	if _, err := s.Get(subjectID); err != nil {
		return nil, err
	}
	topic.Active = true
	return s.dbStore.AddTopic(subjectID, topic)
}

// TopicUpdate mirrors SubjectUpdate for topics: nil fields keep their stored
// values.
type TopicUpdate struct {
	Name             *string   `json:"name"`
	Description      *string   `json:"description"`
	Difficulty       *string   `json:"difficulty"`
	EstimatedMinutes *int      `json:"estimated_minutes"`
	Active           *bool     `json:"active"`
	Tags             *[]string `json:"tags"`
}

func (s *SubjectService) UpdateTopic(subjectID, topicID string, update TopicUpdate) (*store.Topic, error) {
	existing, err := s.GetTopic(subjectID, topicID)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		if *update.Name == "" {
			return nil, fmt.Errorf("topic name is required")
		}
		existing.Name = *update.Name
	}
	if update.Description != nil {
		existing.Description = *update.Description
	}
	if update.Difficulty != nil {
		existing.Difficulty = *update.Difficulty
	}
	if update.EstimatedMinutes != nil {
		existing.EstimatedMinutes = *update.EstimatedMinutes
	}
	if update.Active != nil {
		existing.Active = *update.Active
	}
	if update.Tags != nil {
		existing.Tags = *update.Tags
	}
	if err := s.dbStore.UpdateTopic(subjectID, existing); err != nil {
		return nil, err
	}
	return s.GetTopic(subjectID, topicID)
}

func (s *SubjectService) DeleteTopic(subjectID, topicID string) error {
	if _, err := s.GetTopic(subjectID, topicID); err != nil {
		return err
	}
	return s.dbStore.DeleteTopic(subjectID, topicID)
}

func validCategory(category string) bool {
	for _, c := range store.SubjectCategories {
		if c == category {
			return true
		}
	}
	return false
}
