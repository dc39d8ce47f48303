package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        email TEXT UNIQUE NOT NULL, -- stored lowercase
        password_hash TEXT NOT NULL,
        first_name TEXT NOT NULL DEFAULT '',
        last_name TEXT NOT NULL DEFAULT '',
        avatar_url TEXT NOT NULL DEFAULT '',
        face_descriptor TEXT, -- JSON array of 128 floats, NULL when unregistered
        preferences TEXT NOT NULL DEFAULT '{}',
        total_answered INTEGER NOT NULL DEFAULT 0,
        correct_count INTEGER NOT NULL DEFAULT 0,
        streak_days INTEGER NOT NULL DEFAULT 0,
        last_active DATETIME,
        points INTEGER NOT NULL DEFAULT 0,
        active BOOLEAN NOT NULL DEFAULT TRUE,
        verified BOOLEAN NOT NULL DEFAULT FALSE,
        last_login_at DATETIME,
        last_login_method TEXT NOT NULL DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS subjects (
        id TEXT PRIMARY KEY, -- UUID
        name TEXT UNIQUE NOT NULL,
        category TEXT NOT NULL,
        icon TEXT NOT NULL DEFAULT '',
        color TEXT NOT NULL DEFAULT '',
        active BOOLEAN NOT NULL DEFAULT TRUE,
        popularity INTEGER NOT NULL DEFAULT 0,
        prerequisites TEXT NOT NULL DEFAULT '[]',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS topics (
        id TEXT PRIMARY KEY, -- UUID
        subject_id TEXT NOT NULL REFERENCES subjects (id) ON DELETE CASCADE,
        name TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        difficulty TEXT NOT NULL DEFAULT 'beginner',
        estimated_minutes INTEGER NOT NULL DEFAULT 0,
        active BOOLEAN NOT NULL DEFAULT TRUE,
        question_count INTEGER NOT NULL DEFAULT 0,
        tags TEXT NOT NULL DEFAULT '[]',
        position INTEGER NOT NULL DEFAULT 0
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

const userColumns = `id, email, password_hash, first_name, last_name, avatar_url,
    face_descriptor, preferences, total_answered, correct_count, streak_days,
    last_active, points, active, verified, last_login_at, last_login_method, created_at`

func (s *SQLiteStore) scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var (
		user            User
		descriptorJSON  sql.NullString
		preferencesJSON string
		lastActive      sql.NullTime
		lastLoginAt     sql.NullTime
	)
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.AvatarURL, &descriptorJSON, &preferencesJSON,
		&user.Progress.TotalAnswered, &user.Progress.CorrectCount, &user.Progress.StreakDays,
		&lastActive, &user.Progress.Points, &user.Active, &user.Verified,
		&lastLoginAt, &user.LastLoginMethod, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if descriptorJSON.Valid && descriptorJSON.String != "" {
		if err := json.Unmarshal([]byte(descriptorJSON.String), &user.FaceDescriptor); err != nil {
			return nil, fmt.Errorf("failed to unmarshal face descriptor for user %d: %w", user.ID, err)
		}
	}
	if preferencesJSON != "" && preferencesJSON != "{}" {
		if err := json.Unmarshal([]byte(preferencesJSON), &user.Preferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences for user %d: %w", user.ID, err)
		}
	}
	if lastActive.Valid {
		t := lastActive.Time
		user.Progress.LastActive = &t
	}
	if lastLoginAt.Valid {
		t := lastLoginAt.Time
		user.LastLoginAt = &t
	}
	return &user, nil
}

// User methods

func (s *SQLiteStore) CreateUser(user *User) (*User, error) {
	prefsJSON, err := json.Marshal(user.Preferences)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preferences: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO users (email, password_hash, first_name, last_name, avatar_url, preferences, active, verified)
         VALUES (?, ?, ?, ?, ?, ?, TRUE, FALSE)`,
		strings.ToLower(user.Email), user.PasswordHash, user.FirstName, user.LastName,
		user.AvatarURL, string(prefsJSON),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetUserByID(id)
}

func (s *SQLiteStore) GetUserByID(id int64) (*User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := s.scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) GetUserByEmail(email string) (*User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", strings.ToLower(email))
	user, err := s.scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) UpdateProfile(id int64, firstName, lastName, avatarURL string) error {
	res, err := s.db.Exec(
		"UPDATE users SET first_name = ?, last_name = ?, avatar_url = ? WHERE id = ?",
		firstName, lastName, avatarURL, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return requireAffected(res, "user")
}

func (s *SQLiteStore) UpdatePreferences(id int64, prefs Preferences) error {
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	res, err := s.db.Exec("UPDATE users SET preferences = ? WHERE id = ?", string(prefsJSON), id)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	return requireAffected(res, "user")
}

func (s *SQLiteStore) UpdatePasswordHash(id int64, hash string) error {
	res, err := s.db.Exec("UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireAffected(res, "user")
}

// SetFaceDescriptor stores the descriptor as a JSON array. Passing nil clears
// the registration.
func (s *SQLiteStore) SetFaceDescriptor(id int64, descriptor []float32) error {
	var value any
	if descriptor != nil {
		descriptorJSON, err := json.Marshal(descriptor)
		if err != nil {
			return fmt.Errorf("failed to marshal face descriptor: %w", err)
		}
		value = string(descriptorJSON)
	}
	res, err := s.db.Exec("UPDATE users SET face_descriptor = ? WHERE id = ?", value, id)
	if err != nil {
		return fmt.Errorf("failed to update face descriptor: %w", err)
	}
	return requireAffected(res, "user")
}

func (s *SQLiteStore) UpdateProgress(id int64, progress Progress) error {
	var lastActive any
	if progress.LastActive != nil {
		lastActive = *progress.LastActive
	}
	res, err := s.db.Exec(
		`UPDATE users SET total_answered = ?, correct_count = ?, streak_days = ?,
         last_active = ?, points = ? WHERE id = ?`,
		progress.TotalAnswered, progress.CorrectCount, progress.StreakDays,
		lastActive, progress.Points, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return requireAffected(res, "user")
}

func (s *SQLiteStore) RecordLogin(id int64, method string, at time.Time) error {
	res, err := s.db.Exec(
		"UPDATE users SET last_login_at = ?, last_login_method = ? WHERE id = ?",
		at, method, id,
	)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return requireAffected(res, "user")
}

// SetActive toggles the account's active flag. Deactivated accounts fail
// every authentication path.
func (s *SQLiteStore) SetActive(id int64, active bool) error {
	res, err := s.db.Exec("UPDATE users SET active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("failed to update active flag: %w", err)
	}
	return requireAffected(res, "user")
}

func (s *SQLiteStore) DeleteUser(id int64) error {
	res, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireAffected(res, "user")
}

// GetUsersWithDescriptors returns every active account that has a registered
// face descriptor. Used by the best-match login scan.
func (s *SQLiteStore) GetUsersWithDescriptors() ([]User, error) {
	rows, err := s.db.Query("SELECT " + userColumns + " FROM users WHERE face_descriptor IS NOT NULL AND active = TRUE ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query users with descriptors: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := s.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func requireAffected(res sql.Result, entity string) error {
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("%s not found, nothing updated", entity)
	}
	return nil
}
