package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/tanzimsiamm/fiwippo-backend/cmd/authctl/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Migrate     commands.MigrateCmd `cmd:"" help:"Apply pending database migrations"`
		Org         commands.OrgCmd     `cmd:"" help:"Manage organizations"`
		DatabaseURL string              `help:"Postgres connection string." env:"DATABASE_URL" required:""`
		Debug       bool                `help:"Enable debug logging."`
		Version     kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("authctl"),
		kong.Description("Administrative tasks for the account auth service."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{DatabaseURL: cli.DatabaseURL, Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
