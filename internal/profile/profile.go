// Package profile stores the display profile of signed-in learners.
package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/at-ishikawa/wordday/internal/identity"
)

//go:generate mockgen -source=profile.go -destination=../mocks/profile/mock_repository.go -package=mock_profile

// ErrProfileNotFound is returned when updating a profile that does not exist.
var ErrProfileNotFound = errors.New("profile not found")

// Profile is the public profile of an identity.
type Profile struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Repository stores profiles keyed by identity id.
type Repository interface {
	// FindByID returns nil when the profile does not exist.
	FindByID(ctx context.Context, id string) (*Profile, error)
	// CreateIfAbsent leaves an existing profile unchanged.
	CreateIfAbsent(ctx context.Context, p *Profile) error
	Update(ctx context.Context, id, fullName string) error
}

// DefaultDisplayName is the full name given at sign up, or the local part of
// the e-mail address.
func DefaultDisplayName(ident identity.Identity) string {
	if name := strings.TrimSpace(ident.FullName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(ident.Email, "@")
	return local
}

// New builds the initial profile of an identity.
func New(ident identity.Identity, now time.Time) *Profile {
	return &Profile{
		ID:        ident.ID,
		FullName:  DefaultDisplayName(ident),
		Email:     ident.Email,
		UpdatedAt: now,
	}
}

// Ensure returns the profile of ident, creating it first when it is missing.
func Ensure(ctx context.Context, repo Repository, ident identity.Identity, now time.Time) (*Profile, bool, error) {
	p, err := repo.FindByID(ctx, ident.ID)
	if err != nil {
		return nil, false, err
	}
	if p != nil {
		return p, false, nil
	}

	if err := repo.CreateIfAbsent(ctx, New(ident, now)); err != nil {
		return nil, false, err
	}
	p, err = repo.FindByID(ctx, ident.ID)
	return p, true, err
}
