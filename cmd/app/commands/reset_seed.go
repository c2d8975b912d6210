package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	seedUseCase "github.com/allisson/seedvault/internal/seed/usecase"
)

// RunResetSeed deletes the seed of principal so the next enrollment creates a new one.
func RunResetSeed(
	ctx context.Context,
	useCase seedUseCase.SeedUseCase,
	logger *slog.Logger,
	writer io.Writer,
	principal string,
) error {
	if err := useCase.Reset(ctx, principal); err != nil {
		return fmt.Errorf("failed to reset seed of %q: %w", principal, err)
	}

	logger.Info("seed reset from cli", slog.String("principal", principal))
	_, _ = fmt.Fprintf(writer, "Seed of %q deleted. Enroll the principal again to issue a new one.\n", principal)
	return nil
}
