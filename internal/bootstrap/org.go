package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tanzimsiamm/fiwippo-backend/internal/config"
	"github.com/tanzimsiamm/fiwippo-backend/internal/domain"
	"github.com/tanzimsiamm/fiwippo-backend/internal/org"
	"github.com/tanzimsiamm/fiwippo-backend/internal/repository"
)

// EnsureDefaultOrg creates the configured default org on startup if missing.
func EnsureDefaultOrg(lc fx.Lifecycle, cfg config.Config, orgs repository.OrgRepository, node *snowflake.Node, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_, err := ensureOrg(ctx, orgs, node, cfg.DefaultOrgSlug, cfg.DefaultOrgName, logger)
			return err
		},
	})
}

func ensureOrg(ctx context.Context, orgs repository.OrgRepository, node *snowflake.Node, slug, name string, logger *zap.Logger) (domain.Org, error) {
	slug = org.NormalizeSlug(slug)
	if slug == "" {
		return domain.Org{}, errors.New("bootstrap org: empty slug")
	}
	if name == "" {
		name = slug
	}

	existing, err := orgs.GetOrgBySlug(ctx, slug)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.Org{}, fmt.Errorf("bootstrap org lookup: %w", err)
	}

	created, err := orgs.CreateOrg(ctx, domain.Org{
		ID:   node.Generate().Int64(),
		Slug: slug,
		Name: name,
	})
	if errors.Is(err, repository.ErrSlugTaken) {
		// another replica won the race
		return orgs.GetOrgBySlug(ctx, slug)
	}
	if err != nil {
		return domain.Org{}, fmt.Errorf("bootstrap create org: %w", err)
	}

	if logger != nil {
		logger.Info("bootstrap org created",
			zap.String("slug", created.Slug),
			zap.Int64("org_id", created.ID),
		)
	}
	return created, nil
}
