package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/SATYAJEET323/EduBot/internal/auth"
	"github.com/SATYAJEET323/EduBot/internal/logger"
	"github.com/SATYAJEET323/EduBot/internal/store"
)

// UserService handles account lifecycle: registration, credential login,
// profile, preferences, progress reads and deletion.
type UserService struct {
	dbStore *store.SQLiteStore
	logger  *logger.Logger
}

func NewUserService(db *store.SQLiteStore, log *logger.Logger) *UserService {
	return &UserService{
		dbStore: db,
		logger:  log,
	}
}

// Register creates a new account. Email uniqueness is case-insensitive;
// a collision surfaces store.ErrEmailTaken.
func (s *UserService) Register(email, password, firstName, lastName string) (*store.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.dbStore.CreateUser(&store.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
	})
	if err != nil {
		return nil, err
	}

	if err := s.dbStore.RecordLogin(user.ID, store.LoginMethodPassword, time.Now()); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record registration login")
	}
	return user, nil
}

// Login authenticates by email and password. Every failure mode — unknown
// email, wrong password, deactivated account — maps to ErrUnauthorized.
func (s *UserService) Login(email, password string) (*store.User, error) {
	user, err := s.dbStore.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) || !user.Active {
		return nil, ErrUnauthorized
	}

	if err := s.dbStore.RecordLogin(user.ID, store.LoginMethodPassword, time.Now()); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record login")
	}
	return user, nil
}

func (s *UserService) GetByID(id int64) (*store.User, error) {
	return s.dbStore.GetUserByID(id)
}

func (s *UserService) UpdateProfile(id int64, firstName, lastName, avatarURL string) (*store.User, error) {
	if err := s.dbStore.UpdateProfile(id, firstName, lastName, avatarURL); err != nil {
		return nil, err
	}
	return s.dbStore.GetUserByID(id)
}

func (s *UserService) UpdatePreferences(id int64, prefs store.Preferences) (*store.User, error) {
	if err := s.dbStore.UpdatePreferences(id, prefs); err != nil {
		return nil, err
	}
	return s.dbStore.GetUserByID(id)
}

func (s *UserService) GetProgress(id int64) (*store.Progress, error) {
	user, err := s.dbStore.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return &user.Progress, nil
}

// ChangePassword verifies the current password before storing the new hash.
// A wrong current password maps to ErrUnauthorized like any other auth failure.
func (s *UserService) ChangePassword(id int64, currentPassword, newPassword string) error {
	user, err := s.dbStore.GetUserByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if !auth.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return ErrUnauthorized
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.dbStore.UpdatePasswordHash(id, hash)
}

func (s *UserService) DeleteAccount(id int64) error {
	return s.dbStore.DeleteUser(id)
}
