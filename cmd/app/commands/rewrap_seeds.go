package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	seedUseCase "github.com/allisson/seedvault/internal/seed/usecase"
)

// RunRewrapSeeds re-encrypts every stored seed under the active KMS key in batches.
// Seeds that cannot be decrypted are reported and left untouched.
func RunRewrapSeeds(
	ctx context.Context,
	useCase seedUseCase.RewrapUseCase,
	logger *slog.Logger,
	writer io.Writer,
	batchSize int,
	format string,
) error {
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("starting seed rewrap", slog.Int("batch_size", batchSize))

	report, err := useCase.RewrapAll(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("failed to rewrap seeds: %w", err)
	}

	if format == FormatJSON {
		return writeJSON(writer, map[string]int{
			"scanned":    report.Scanned,
			"rewrapped":  report.Rewrapped,
			"current":    report.Current,
			"unreadable": report.Unreadable,
			"raced":      report.Raced,
		})
	}

	_, _ = fmt.Fprintln(writer, "Seed rewrap completed")
	_, _ = fmt.Fprintf(writer, "Scanned:    %d\n", report.Scanned)
	_, _ = fmt.Fprintf(writer, "Rewrapped:  %d\n", report.Rewrapped)
	_, _ = fmt.Fprintf(writer, "Current:    %d\n", report.Current)
	_, _ = fmt.Fprintf(writer, "Unreadable: %d\n", report.Unreadable)
	_, _ = fmt.Fprintf(writer, "Raced:      %d\n", report.Raced)
	if report.Unreadable > 0 {
		_, _ = fmt.Fprintln(writer, "\nWARNING: some seeds cannot be decrypted with the configured keys and need re-enrollment.")
	}
	return nil
}
