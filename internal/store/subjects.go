package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Subject methods

func (s *SQLiteStore) CreateSubject(subject *Subject) (*Subject, error) {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	prereqJSON, err := json.Marshal(prereqOrEmpty(subject.Prerequisites))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prerequisites: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO subjects (id, name, category, icon, color, active, popularity, prerequisites)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		subject.ID, subject.Name, subject.Category, subject.Icon, subject.Color,
		subject.Active, subject.Popularity, string(prereqJSON),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("failed to insert subject: %w", err)
	}
	return s.GetSubjectByID(subject.ID)
}

func (s *SQLiteStore) GetSubjectByID(id string) (*Subject, error) {
	row := s.db.QueryRow(
		"SELECT id, name, category, icon, color, active, popularity, prerequisites, created_at FROM subjects WHERE id = ?",
		id,
	)
	subject, err := s.scanSubject(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	topics, err := s.listTopics(id)
	if err != nil {
		return nil, err
	}
	subject.Topics = topics
	return subject, nil
}

// ListSubjects returns the catalog. When activeOnly is set, inactive subjects
// are skipped. Topics are loaded for each subject.
func (s *SQLiteStore) ListSubjects(activeOnly bool) ([]Subject, error) {
	query := "SELECT id, name, category, icon, color, active, popularity, prerequisites, created_at FROM subjects"
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY name ASC"

	return s.querySubjects(query)
}

// ListPopularSubjects returns the top active subjects by popularity.
func (s *SQLiteStore) ListPopularSubjects(limit int) ([]Subject, error) {
	return s.querySubjects(
		"SELECT id, name, category, icon, color, active, popularity, prerequisites, created_at FROM subjects WHERE active = TRUE ORDER BY popularity DESC, name ASC LIMIT ?",
		limit,
	)
}

func (s *SQLiteStore) querySubjects(query string, args ...any) ([]Subject, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	defer rows.Close()

	var subjects []Subject
	for rows.Next() {
		subject, err := s.scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject row: %w", err)
		}
		subjects = append(subjects, *subject)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range subjects {
		topics, err := s.listTopics(subjects[i].ID)
		if err != nil {
			return nil, err
		}
		subjects[i].Topics = topics
	}
	return subjects, nil
}

func (s *SQLiteStore) scanSubject(row interface{ Scan(...any) error }) (*Subject, error) {
	var (
		subject    Subject
		prereqJSON string
	)
	err := row.Scan(
		&subject.ID, &subject.Name, &subject.Category, &subject.Icon, &subject.Color,
		&subject.Active, &subject.Popularity, &prereqJSON, &subject.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if prereqJSON != "" {
		if err := json.Unmarshal([]byte(prereqJSON), &subject.Prerequisites); err != nil {
			return nil, fmt.Errorf("failed to unmarshal prerequisites for subject %s: %w", subject.ID, err)
		}
	}
	return &subject, nil
}

func (s *SQLiteStore) UpdateSubject(subject *Subject) error {
	prereqJSON, err := json.Marshal(prereqOrEmpty(subject.Prerequisites))
	if err != nil {
		return fmt.Errorf("failed to marshal prerequisites: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE subjects SET name = ?, category = ?, icon = ?, color = ?, active = ?, prerequisites = ?
         WHERE id = ?`,
		subject.Name, subject.Category, subject.Icon, subject.Color, subject.Active,
		string(prereqJSON), subject.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("failed to update subject: %w", err)
	}
	return requireAffected(res, "subject")
}

// DeleteSubject removes the subject; its topics go with it (ON DELETE CASCADE).
func (s *SQLiteStore) DeleteSubject(id string) error {
	res, err := s.db.Exec("DELETE FROM subjects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete subject: %w", err)
	}
	return requireAffected(res, "subject")
}

func (s *SQLiteStore) IncrementPopularity(id string) error {
	res, err := s.db.Exec("UPDATE subjects SET popularity = popularity + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to increment popularity: %w", err)
	}
	return requireAffected(res, "subject")
}

// Topic methods. Every operation is scoped by the parent subject id; a topic
// has no identity outside that ownership.

func (s *SQLiteStore) AddTopic(subjectID string, topic *Topic) (*Topic, error) {
	subject, err := s.GetSubjectByID(subjectID)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, fmt.Errorf("subject not found, cannot add topic")
	}

	if topic.ID == "" {
		topic.ID = uuid.NewString()
	}
	topic.SubjectID = subjectID

	// Append after the highest surviving position; len(topics) would collide
	// after a deletion.
	err = s.db.QueryRow(
		"SELECT COALESCE(MAX(position) + 1, 0) FROM topics WHERE subject_id = ?", subjectID,
	).Scan(&topic.Position)
	if err != nil {
		return nil, fmt.Errorf("failed to assign topic position: %w", err)
	}

	tagsJSON, err := json.Marshal(prereqOrEmpty(topic.Tags))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO topics (id, subject_id, name, description, difficulty, estimated_minutes, active, question_count, tags, position)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		topic.ID, topic.SubjectID, topic.Name, topic.Description, topic.Difficulty,
		topic.EstimatedMinutes, topic.Active, topic.QuestionCount, string(tagsJSON), topic.Position,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert topic: %w", err)
	}
	return s.GetTopic(subjectID, topic.ID)
}

func (s *SQLiteStore) GetTopic(subjectID, topicID string) (*Topic, error) {
	row := s.db.QueryRow(
		`SELECT id, subject_id, name, description, difficulty, estimated_minutes, active, question_count, tags, position
         FROM topics WHERE id = ? AND subject_id = ?`,
		topicID, subjectID,
	)
	topic, err := s.scanTopic(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return topic, nil
}

func (s *SQLiteStore) UpdateTopic(subjectID string, topic *Topic) error {
	tagsJSON, err := json.Marshal(prereqOrEmpty(topic.Tags))
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE topics SET name = ?, description = ?, difficulty = ?, estimated_minutes = ?, active = ?, tags = ?
         WHERE id = ? AND subject_id = ?`,
		topic.Name, topic.Description, topic.Difficulty, topic.EstimatedMinutes,
		topic.Active, string(tagsJSON), topic.ID, subjectID,
	)
	if err != nil {
		return fmt.Errorf("failed to update topic: %w", err)
	}
	return requireAffected(res, "topic")
}

func (s *SQLiteStore) DeleteTopic(subjectID, topicID string) error {
	res, err := s.db.Exec("DELETE FROM topics WHERE id = ? AND subject_id = ?", topicID, subjectID)
	if err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}
	return requireAffected(res, "topic")
}

func (s *SQLiteStore) IncrementTopicQuestionCount(subjectID, topicID string, delta int) error {
	res, err := s.db.Exec(
		"UPDATE topics SET question_count = question_count + ? WHERE id = ? AND subject_id = ?",
		delta, topicID, subjectID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment topic question count: %w", err)
	}
	return requireAffected(res, "topic")
}

func (s *SQLiteStore) listTopics(subjectID string) ([]Topic, error) {
	rows, err := s.db.Query(
		`SELECT id, subject_id, name, description, difficulty, estimated_minutes, active, question_count, tags, position
         FROM topics WHERE subject_id = ? ORDER BY position ASC`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		topic, err := s.scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic row: %w", err)
		}
		topics = append(topics, *topic)
	}
	return topics, rows.Err()
}

func (s *SQLiteStore) scanTopic(row interface{ Scan(...any) error }) (*Topic, error) {
	var (
		topic    Topic
		tagsJSON string
	)
	err := row.Scan(
		&topic.ID, &topic.SubjectID, &topic.Name, &topic.Description, &topic.Difficulty,
		&topic.EstimatedMinutes, &topic.Active, &topic.QuestionCount, &tagsJSON, &topic.Position,
	)
	if err != nil {
		return nil, err
	}
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &topic.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags for topic %s: %w", topic.ID, err)
		}
	}
	return &topic, nil
}

// prereqOrEmpty keeps empty slices serialized as [] instead of null.
func prereqOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
