package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/tanzimsiamm/fiwippo-backend/internal/repository"
)

// MigrateCmd applies the embedded schema migrations.
type MigrateCmd struct {
	Timeout time.Duration `help:"Abort if migrations take longer than this." default:"2m"`
}

func (m *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	logger := globals.logger()
	defer func() { _ = logger.Sync() }()

	pool, err := globals.connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	_, err = fmt.Fprintln(globals.out(), "migrations applied")
	return err
}
