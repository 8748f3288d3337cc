package repository

import (
	"context"
	"errors"

	"github.com/tanzimsiamm/fiwippo-backend/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("repository: not found")
	// ErrEmailTaken is returned when creating a user whose email already exists.
	ErrEmailTaken = errors.New("repository: email already registered")
	// ErrSlugTaken is returned when creating an org whose slug already exists.
	ErrSlugTaken = errors.New("repository: org slug already exists")
	// ErrVersionConflict is returned when a conditional update lost a race.
	ErrVersionConflict = errors.New("repository: version conflict")
)

// OrgRepository exposes org-level queries.
type OrgRepository interface {
	GetOrg(ctx context.Context, orgID int64) (domain.Org, error)
	GetOrgBySlug(ctx context.Context, slug string) (domain.Org, error)
	CreateOrg(ctx context.Context, org domain.Org) (domain.Org, error)
}

// UserRepository is the user directory. Emails are unique across all orgs.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID int64) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	// Update applies patch atomically and returns the stored record.
	// A non-zero patch.ExpectedVersion that does not match yields ErrVersionConflict.
	Update(ctx context.Context, userID int64, patch domain.UserPatch) (domain.User, error)
}
