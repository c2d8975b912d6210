package usecase

import (
	"context"
	"log/slog"

	"github.com/allisson/seedvault/internal/database"
	apperrors "github.com/allisson/seedvault/internal/errors"
	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
)

// rewrapUseCase implements RewrapUseCase.
type rewrapUseCase struct {
	txManager database.TxManager
	catalog   SeedCatalog
	rewrapper Rewrapper
	logger    *slog.Logger
}

// NewRewrapUseCase creates the key rotation use case. Each batch of swaps runs in one
// transaction of txManager.
func NewRewrapUseCase(
	txManager database.TxManager,
	catalog SeedCatalog,
	rewrapper Rewrapper,
	logger *slog.Logger,
) RewrapUseCase {
	return &rewrapUseCase{
		txManager: txManager,
		catalog:   catalog,
		rewrapper: rewrapper,
		logger:    logger,
	}
}

// RewrapAll pages through the catalog by principal and swaps every outdated ciphertext.
func (r *rewrapUseCase) RewrapAll(ctx context.Context, batchSize int) (*seedDomain.RewrapReport, error) {
	if batchSize <= 0 {
		batchSize = seedDomain.DefaultRewrapBatchSize
	}

	report := &seedDomain.RewrapReport{}
	after := ""

	for {
		batch, err := r.catalog.List(ctx, after, batchSize)
		if err != nil {
			return report, apperrors.Wrap(err, "failed to list encrypted seeds")
		}
		if len(batch) == 0 {
			break
		}

		var batchReport seedDomain.RewrapReport
		err = r.txManager.WithTx(ctx, func(ctx context.Context) error {
			batchReport = seedDomain.RewrapReport{}
			return r.rewrapBatch(ctx, batch, &batchReport)
		})
		if err != nil {
			return report, err
		}
		report.Scanned += batchReport.Scanned
		report.Rewrapped += batchReport.Rewrapped
		report.Current += batchReport.Current
		report.Unreadable += batchReport.Unreadable
		report.Raced += batchReport.Raced

		if len(batch) < batchSize {
			break
		}
		after = batch[len(batch)-1].Principal
	}

	r.logger.Info("seed rewrap finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("rewrapped", report.Rewrapped),
		slog.Int("current", report.Current),
		slog.Int("unreadable", report.Unreadable),
		slog.Int("raced", report.Raced),
	)
	return report, nil
}

func (r *rewrapUseCase) rewrapBatch(
	ctx context.Context,
	batch []*seedDomain.EncryptedSeed,
	report *seedDomain.RewrapReport,
) error {
	for _, seed := range batch {
		report.Scanned++

		token, changed, err := r.rewrapper.Rewrap(ctx, seed.Ciphertext)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			report.Unreadable++
			r.logger.Warn("stored seed cannot be rewrapped",
				slog.String("principal", seed.Principal),
				slog.Any("error", err),
			)
			continue
		}
		if !changed {
			report.Current++
			continue
		}

		swapped, err := r.catalog.SwapCiphertext(ctx, seed.Principal, seed.Ciphertext, token)
		if err != nil {
			return apperrors.Wrapf(err, "failed to swap ciphertext of %q", seed.Principal)
		}
		if !swapped {
			report.Raced++
			continue
		}
		report.Rewrapped++
	}
	return nil
}
