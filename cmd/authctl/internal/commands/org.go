package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/tanzimsiamm/fiwippo-backend/internal/domain"
	"github.com/tanzimsiamm/fiwippo-backend/internal/org"
	"github.com/tanzimsiamm/fiwippo-backend/internal/repository"
)

// OrgCmd groups organization management commands.
type OrgCmd struct {
	Create OrgCreateCmd `cmd:"" help:"Create an organization"`
	Get    OrgGetCmd    `cmd:"" help:"Show an organization by slug or id"`
}

// OrgCreateCmd inserts a new organization.
type OrgCreateCmd struct {
	Slug   string `arg:"" help:"URL-safe organization slug"`
	Name   string `help:"Display name, defaults to the slug"`
	NodeID int64  `help:"Snowflake node id used for the new org id" env:"NODE_ID" default:"1"`
}

func (c *OrgCreateCmd) Run(ctx context.Context, globals *Globals) error {
	node, err := snowflake.NewNode(c.NodeID)
	if err != nil {
		return fmt.Errorf("snowflake node: %w", err)
	}

	pool, err := globals.connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	return c.create(ctx, repository.NewPostgresOrgRepo(pool), node, globals.out())
}

func (c *OrgCreateCmd) create(ctx context.Context, orgs repository.OrgRepository, node *snowflake.Node, w io.Writer) error {
	slug := org.NormalizeSlug(c.Slug)
	if slug == "" {
		return errors.New("slug must not be empty")
	}
	name := c.Name
	if name == "" {
		name = slug
	}

	created, err := orgs.CreateOrg(ctx, domain.Org{ID: node.Generate().Int64(), Slug: slug, Name: name})
	if errors.Is(err, repository.ErrSlugTaken) {
		return fmt.Errorf("organization %q already exists", slug)
	}
	if err != nil {
		return err
	}
	return writeOrg(w, created)
}

// OrgGetCmd prints an organization.
type OrgGetCmd struct {
	Ref string `arg:"" help:"Organization slug or numeric id"`
}

func (c *OrgGetCmd) Run(ctx context.Context, globals *Globals) error {
	pool, err := globals.connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	return c.get(ctx, org.NewResolver(repository.NewPostgresOrgRepo(pool)), globals.out())
}

func (c *OrgGetCmd) get(ctx context.Context, resolver *org.Resolver, w io.Writer) error {
	var (
		found domain.Org
		err   error
	)
	if id, parseErr := strconv.ParseInt(c.Ref, 10, 64); parseErr == nil {
		found, err = resolver.Resolve(ctx, id)
	} else {
		found, err = resolver.ResolveBySlug(ctx, c.Ref)
	}
	if errors.Is(err, org.ErrNotFound) {
		return fmt.Errorf("organization %q not found", c.Ref)
	}
	if err != nil {
		return err
	}
	return writeOrg(w, found)
}

type orgOutput struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

func writeOrg(w io.Writer, o domain.Org) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(orgOutput{
		ID:        strconv.FormatInt(o.ID, 10),
		Slug:      o.Slug,
		Name:      o.Name,
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
	})
}
