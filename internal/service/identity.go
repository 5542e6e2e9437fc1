package service

import (
	"errors"
	"fmt"
	"strings"

	"gigsbot/internal/repository"
)

const maxExternalIDLength = 64

// ErrInvalidExternalID is returned for identity references that cannot be stored
var ErrInvalidExternalID = errors.New("invalid external id")

// IdentityService links bot users to marketplace accounts
type IdentityService struct {
	userRepo repository.UserRepository
}

// NewIdentityService creates a new identity service
func NewIdentityService(userRepo repository.UserRepository) *IdentityService {
	return &IdentityService{userRepo: userRepo}
}

// EnsureUserExists creates user record if doesn't exist
func (s *IdentityService) EnsureUserExists(userID int64) error {
	return s.userRepo.EnsureUserExists(userID)
}

// Link stores the identity provider reference passed through the deep link.
// The latest deep link wins: moved reports that the reference was taken
// over from another bot user.
func (s *IdentityService) Link(userID int64, externalID string) (moved bool, err error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" || len(externalID) > maxExternalIDLength || strings.ContainsAny(externalID, " \t\n") {
		return false, ErrInvalidExternalID
	}
	moved, err = s.userRepo.LinkExternalID(userID, externalID)
	if err != nil {
		return false, fmt.Errorf("link user %d: %w", userID, err)
	}
	return moved, nil
}

// ExternalID returns the linked identity reference, empty if not linked
func (s *IdentityService) ExternalID(userID int64) (string, error) {
	user, err := s.userRepo.GetUser(userID)
	if err != nil {
		return "", err
	}
	if !user.Linked() {
		return "", nil
	}
	return user.ExternalID, nil
}

// IsLinked checks if user has a linked identity
func (s *IdentityService) IsLinked(userID int64) (bool, error) {
	id, err := s.ExternalID(userID)
	return id != "", err
}

// SaveReferral stores the referral the user verified
func (s *IdentityService) SaveReferral(userID int64, code string, organic bool) error {
	return s.userRepo.SaveReferral(userID, code, organic)
}
