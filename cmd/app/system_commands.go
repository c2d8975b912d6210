package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/seedvault/cmd/app/commands"
	"github.com/allisson/seedvault/internal/app"
	"github.com/allisson/seedvault/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Create or upgrade the seed table of the database store",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "path",
					Value: "migrations",
					Usage: "Directory holding the postgresql and mysql migration folders",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg, cmd.String("path"))
			},
		},
		{
			Name:  "create-api-key",
			Usage: "Generate an API key and the hash to set in API_KEY_HASH",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunCreateAPIKey(
					container.APIKeyService(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
