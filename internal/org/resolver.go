package org

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tanzimsiamm/fiwippo-backend/internal/domain"
	"github.com/tanzimsiamm/fiwippo-backend/internal/repository"
)

// ErrNotFound is returned when no org matches the requested slug or id.
var ErrNotFound = errors.New("org not found")

// Resolver loads orgs from the directory.
type Resolver struct {
	repo repository.OrgRepository
}

// NewResolver creates an org resolver.
func NewResolver(repo repository.OrgRepository) *Resolver {
	return &Resolver{repo: repo}
}

// ResolveBySlug loads an org by its slug. Slugs are matched case-insensitively.
func (r *Resolver) ResolveBySlug(ctx context.Context, slug string) (domain.Org, error) {
	cleaned := NormalizeSlug(slug)
	if cleaned == "" {
		zap.L().Warn("org resolver received empty slug")
		return domain.Org{}, fmt.Errorf("resolve org: empty slug: %w", ErrNotFound)
	}

	org, err := r.repo.GetOrgBySlug(ctx, cleaned)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			zap.L().Debug("org slug not found", zap.String("slug", cleaned))
			return domain.Org{}, fmt.Errorf("resolve org %q: %w", cleaned, ErrNotFound)
		}
		zap.L().Error("failed to resolve org by slug", zap.String("slug", cleaned), zap.Error(err))
		return domain.Org{}, fmt.Errorf("resolve org by slug: %w", err)
	}

	zap.L().Debug("org resolved", zap.String("slug", cleaned), zap.Int64("org_id", org.ID))
	return org, nil
}

// Resolve loads an org by id.
func (r *Resolver) Resolve(ctx context.Context, orgID int64) (domain.Org, error) {
	org, err := r.repo.GetOrg(ctx, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Org{}, fmt.Errorf("resolve org %d: %w", orgID, ErrNotFound)
		}
		zap.L().Error("failed to resolve org", zap.Int64("org_id", orgID), zap.Error(err))
		return domain.Org{}, fmt.Errorf("resolve org: %w", err)
	}
	return org, nil
}

// NormalizeSlug lowercases and trims a slug.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
