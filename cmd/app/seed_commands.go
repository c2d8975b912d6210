package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/seedvault/cmd/app/commands"
	"github.com/allisson/seedvault/internal/app"
	"github.com/allisson/seedvault/internal/config"
)

func getSeedCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "enroll",
			Usage: "Provision a seed for a principal and print its provisioning URI",
			Flags: []cli.Flag{
				principalFlag(),
				&cli.StringFlag{
					Name:    "label",
					Aliases: []string{"l"},
					Usage:   "Account label shown by authenticator apps (defaults to the principal)",
				},
				&cli.StringFlag{
					Name:    "qr-output",
					Aliases: []string{"o"},
					Usage:   "Write the provisioning QR code as PNG to this path",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				useCase, err := container.SeedUseCase()
				if err != nil {
					return err
				}

				return commands.RunEnroll(
					ctx,
					useCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("principal"),
					cmd.String("label"),
					cmd.String("qr-output"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "verify",
			Usage: "Verify a one-time code for a principal",
			Flags: []cli.Flag{
				principalFlag(),
				&cli.StringFlag{
					Name:    "code",
					Aliases: []string{"c"},
					Usage:   "One-time code (omit to read it from stdin)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				useCase, err := container.SeedUseCase()
				if err != nil {
					return err
				}

				return commands.RunVerify(
					ctx,
					useCase,
					commands.DefaultIO(),
					cmd.String("principal"),
					cmd.String("code"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "reset-seed",
			Usage: "Delete the seed of a principal so it can enroll again",
			Flags: []cli.Flag{principalFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				useCase, err := container.SeedUseCase()
				if err != nil {
					return err
				}

				return commands.RunResetSeed(
					ctx,
					useCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("principal"),
				)
			},
		},
		{
			Name:  "rewrap-seeds",
			Usage: "Re-encrypt every stored seed under the active KMS key",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "batch-size",
					Aliases: []string{"b"},
					Value:   100,
					Usage:   "Number of seeds read per batch",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				useCase, err := container.RewrapUseCase()
				if err != nil {
					return err
				}

				return commands.RunRewrapSeeds(
					ctx,
					useCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("batch-size")),
					cmd.String("format"),
				)
			},
		},
	}
}
