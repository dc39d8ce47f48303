package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/SATYAJEET323/EduBot/internal/face"
	"github.com/SATYAJEET323/EduBot/internal/logger"
	"github.com/SATYAJEET323/EduBot/internal/store"
)

// FaceService wires descriptor extraction, registration and best-match login
// together. The Embedder is pluggable; the shipped implementation is the
// random simulation.
type FaceService struct {
	dbStore  *store.SQLiteStore
	embedder face.Embedder
	logger   *logger.Logger
}

func NewFaceService(db *store.SQLiteStore, embedder face.Embedder, log *logger.Logger) *FaceService {
	return &FaceService{
		dbStore:  db,
		embedder: embedder,
		logger:   log,
	}
}

// DetectDescriptor runs the embedder over validated image bytes and returns
// the 128-component descriptor. Nothing is persisted.
func (s *FaceService) DetectDescriptor(image []byte) ([]float32, error) {
	descriptor, err := s.embedder.Embed(image)
	if err != nil {
		return nil, fmt.Errorf("failed to extract descriptor: %w", err)
	}
	if len(descriptor) != face.DescriptorLength {
		return nil, fmt.Errorf("embedder produced a descriptor of length %d, want %d", len(descriptor), face.DescriptorLength)
	}
	return descriptor, nil
}

// CompareResult is the outcome of a two-vector comparison.
type CompareResult struct {
	Similarity float64 `json:"similarity"`
	Match      bool    `json:"match"`
	Threshold  float64 `json:"threshold"`
}

// Compare scores two client-supplied descriptors against the match threshold.
func (s *FaceService) Compare(a, b []float32) CompareResult {
	similarity := face.Similarity(a, b)
	return CompareResult{
		Similarity: similarity,
		Match:      similarity > face.MatchThreshold,
		Threshold:  face.MatchThreshold,
	}
}

// RegisterFromImage extracts a descriptor from the image and stores it on the
// account, replacing any previous registration.
func (s *FaceService) RegisterFromImage(userID int64, image []byte) ([]float32, error) {
	descriptor, err := s.DetectDescriptor(image)
	if err != nil {
		return nil, err
	}
	if err := s.dbStore.SetFaceDescriptor(userID, descriptor); err != nil {
		return nil, err
	}
	return descriptor, nil
}

// RegisterVector stores a client-supplied descriptor on the account. The
// vector must have exactly face.DescriptorLength components.
func (s *FaceService) RegisterVector(userID int64, descriptor []float32) error {
	if len(descriptor) != face.DescriptorLength {
		return fmt.Errorf("descriptor must have exactly %d components, got %d", face.DescriptorLength, len(descriptor))
	}
	return s.dbStore.SetFaceDescriptor(userID, descriptor)
}

// Remove clears the account's descriptor registration.
func (s *FaceService) Remove(userID int64) error {
	return s.dbStore.SetFaceDescriptor(userID, nil)
}

// Status reports whether the account has a registered descriptor.
func (s *FaceService) Status(userID int64) (bool, error) {
	user, err := s.dbStore.GetUserByID(userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrNotFound
	}
	return user.FaceDescriptor != nil, nil
}

// Login scans every registered descriptor for the best match above the
// threshold. No match, a deactivated account, and any other auth failure all
// collapse into ErrUnauthorized. The scan is linear over registered accounts.
func (s *FaceService) Login(descriptor []float32) (*store.User, error) {
	users, err := s.dbStore.GetUsersWithDescriptors()
	if err != nil {
		return nil, fmt.Errorf("failed to load registered descriptors: %w", err)
	}

	candidates := make([]face.Candidate, 0, len(users))
	for _, u := range users {
		candidates = append(candidates, face.Candidate{ID: u.ID, Descriptor: u.FaceDescriptor})
	}

	match, score, err := face.BestMatch(descriptor, candidates)
	if err != nil {
		if errors.Is(err, face.ErrNoMatch) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	var matched *store.User
	for i := range users {
		if users[i].ID == match.ID {
			matched = &users[i]
			break
		}
	}
	if matched == nil || !matched.Active {
		return nil, ErrUnauthorized
	}

	s.logger.Info().Int64("user_id", matched.ID).Float64("similarity", score).Msg("face login matched")

	if err := s.dbStore.RecordLogin(matched.ID, store.LoginMethodFace, time.Now()); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", matched.ID).Msg("failed to record face login")
	}
	return matched, nil
}
