package commands

import (
	"context"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tanzimsiamm/fiwippo-backend/internal/repository"
)

// Globals are flags shared by every command.
type Globals struct {
	DatabaseURL string
	Debug       bool
	Version     string

	// Out receives command output; stdout when nil.
	Out io.Writer
}

func (g *Globals) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Globals) logger() *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if g.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (g *Globals) connect(ctx context.Context) (*pgxpool.Pool, error) {
	return repository.NewPool(ctx, repository.PoolConfig{DatabaseURL: g.DatabaseURL, MaxConns: 2})
}
