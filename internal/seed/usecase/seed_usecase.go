package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/seedvault/internal/errors"
	otpDomain "github.com/allisson/seedvault/internal/otp/domain"
	otpService "github.com/allisson/seedvault/internal/otp/service"
	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
)

// Config holds the lifecycle policy.
type Config struct {
	// PortTimeout bounds each call to the store and the encryptor. Zero disables the bound.
	PortTimeout time.Duration
	// CreateOnVerify provisions unknown principals during verification instead of
	// answering VerifyNoEnrollment.
	CreateOnVerify bool
	// Issuer is embedded in provisioning URIs.
	Issuer string
	// QRCodeSize is the side of rendered QR images in pixels.
	QRCodeSize int
	// SeedLength is the expected size of decrypted seeds. Zero means otp/domain's default.
	SeedLength int
}

// seedUseCase implements SeedUseCase.
type seedUseCase struct {
	cfg       Config
	store     SecretStore
	encryptor Encryptor
	engine    OtpEngine
	logger    *slog.Logger
}

// NewSeedUseCase creates the seed lifecycle use case.
func NewSeedUseCase(
	cfg Config,
	store SecretStore,
	encryptor Encryptor,
	engine OtpEngine,
	logger *slog.Logger,
) SeedUseCase {
	return &seedUseCase{
		cfg:       cfg,
		store:     store,
		encryptor: encryptor,
		engine:    engine,
		logger:    logger,
	}
}

// GetOrCreate returns the stored seed or provisions a new one.
func (s *seedUseCase) GetOrCreate(ctx context.Context, principal string) (otpDomain.Seed, bool, error) {
	if err := seedDomain.ValidatePrincipal(principal); err != nil {
		return nil, false, err
	}

	seed, err := s.load(ctx, principal)
	if err == nil {
		return seed, false, nil
	}
	if !errors.Is(err, seedDomain.ErrEncryptedSeedNotFound) {
		return nil, false, err
	}

	return s.provision(ctx, principal)
}

// VerifyToken checks a candidate code for the principal.
func (s *seedUseCase) VerifyToken(
	ctx context.Context,
	principal, candidate string,
) (seedDomain.VerifyResult, error) {
	if err := seedDomain.ValidatePrincipal(principal); err != nil {
		return "", err
	}

	seed, err := s.load(ctx, principal)
	if errors.Is(err, seedDomain.ErrEncryptedSeedNotFound) {
		if !s.cfg.CreateOnVerify {
			return seedDomain.VerifyNoEnrollment, nil
		}
		seed, _, err = s.GetOrCreate(ctx, principal)
	}
	if errors.Is(err, seedDomain.ErrSecretUnavailable) {
		return seedDomain.VerifySecretUnavailable, nil
	}
	if err != nil {
		return "", err
	}
	defer seed.Zero()

	ok, err := s.engine.Verify(seed, candidate)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to verify code")
	}
	if !ok {
		s.logger.Debug("code rejected", slog.String("principal", principal))
		return seedDomain.VerifyNoMatch, nil
	}
	return seedDomain.VerifyMatch, nil
}

// Enroll provisions the principal and renders the provisioning material on first creation.
// The seed is already stored at that point, so a QR rendering failure still returns the
// provisioning URI with an empty QRCodePNG.
func (s *seedUseCase) Enroll(
	ctx context.Context,
	principal, accountLabel string,
) (*seedDomain.Enrollment, error) {
	if accountLabel == "" {
		accountLabel = principal
	}

	seed, justCreated, err := s.GetOrCreate(ctx, principal)
	if err != nil {
		return nil, err
	}
	defer seed.Zero()

	enrollment := &seedDomain.Enrollment{
		Principal:   principal,
		JustCreated: justCreated,
	}
	if !justCreated {
		return enrollment, nil
	}

	uri, err := otpService.BuildProvisioningURI(seed, accountLabel, s.cfg.Issuer)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build provisioning uri")
	}

	enrollment.ProvisioningURI = uri

	png, err := otpService.RenderQRCode(uri, s.cfg.QRCodeSize)
	if err != nil {
		s.logger.Warn("provisioning qr code not rendered",
			slog.String("principal", principal),
			slog.Any("error", err),
		)
		return enrollment, nil
	}
	enrollment.QRCodePNG = png
	return enrollment, nil
}

// Reset removes the stored seed of the principal.
func (s *seedUseCase) Reset(ctx context.Context, principal string) error {
	if err := seedDomain.ValidatePrincipal(principal); err != nil {
		return err
	}

	portCtx, cancel := s.portContext(ctx)
	defer cancel()

	if err := s.store.Delete(portCtx, principal); err != nil {
		return portError(portCtx, "secret store", "delete", err)
	}

	s.logger.Info("seed reset", slog.String("principal", principal))
	return nil
}

// load fetches and decrypts the stored seed.
func (s *seedUseCase) load(ctx context.Context, principal string) (otpDomain.Seed, error) {
	encrypted, err := s.get(ctx, principal)
	if err != nil {
		return nil, err
	}
	return s.decrypt(ctx, encrypted)
}

// provision generates, encrypts and conditionally stores a new seed. When another caller
// won the insert, the local seed is discarded and the stored one is returned instead.
func (s *seedUseCase) provision(ctx context.Context, principal string) (otpDomain.Seed, bool, error) {
	seed, err := s.engine.GenerateSeed()
	if err != nil {
		return nil, false, err
	}

	ciphertext, err := s.encrypt(ctx, seed)
	if err != nil {
		seed.Zero()
		return nil, false, err
	}

	record := &seedDomain.EncryptedSeed{
		ID:         uuid.Must(uuid.NewV7()),
		Principal:  principal,
		Ciphertext: ciphertext,
		CreatedAt:  time.Now().UTC(),
	}

	outcome, err := s.putIfAbsent(ctx, record)
	if err != nil {
		seed.Zero()
		return nil, false, err
	}

	switch outcome {
	case seedDomain.Inserted:
		s.logger.Info("seed provisioned", slog.String("principal", principal))
		return seed, true, nil
	case seedDomain.AlreadyExists:
		seed.Zero()
		s.logger.Debug("lost provisioning race, reading stored seed", slog.String("principal", principal))

		stored, err := s.load(ctx, principal)
		if errors.Is(err, seedDomain.ErrEncryptedSeedNotFound) {
			return nil, false, fmt.Errorf("%w: principal %q vanished after insert", seedDomain.ErrStoreConflict, principal)
		}
		if err != nil {
			return nil, false, err
		}
		return stored, false, nil
	default:
		seed.Zero()
		return nil, false, fmt.Errorf("secret store returned unknown insert outcome %d", outcome)
	}
}

func (s *seedUseCase) get(ctx context.Context, principal string) (*seedDomain.EncryptedSeed, error) {
	portCtx, cancel := s.portContext(ctx)
	defer cancel()

	encrypted, err := s.store.Get(portCtx, principal)
	if err != nil {
		return nil, portError(portCtx, "secret store", "get", err)
	}
	return encrypted, nil
}

func (s *seedUseCase) putIfAbsent(
	ctx context.Context,
	record *seedDomain.EncryptedSeed,
) (seedDomain.InsertOutcome, error) {
	portCtx, cancel := s.portContext(ctx)
	defer cancel()

	outcome, err := s.store.PutIfAbsent(portCtx, record)
	if err != nil {
		return 0, portError(portCtx, "secret store", "put", err)
	}
	return outcome, nil
}

func (s *seedUseCase) encrypt(ctx context.Context, seed otpDomain.Seed) (string, error) {
	portCtx, cancel := s.portContext(ctx)
	defer cancel()

	ciphertext, err := s.encryptor.Encrypt(portCtx, seed)
	if err != nil {
		return "", portError(portCtx, "encryptor", "encrypt", err)
	}
	return ciphertext, nil
}

// decrypt maps every failure except a cancelled or expired context to ErrSecretUnavailable.
// A plaintext of the wrong size is rejected, never truncated or padded.
func (s *seedUseCase) decrypt(
	ctx context.Context,
	encrypted *seedDomain.EncryptedSeed,
) (otpDomain.Seed, error) {
	portCtx, cancel := s.portContext(ctx)
	defer cancel()

	plaintext, err := s.encryptor.Decrypt(portCtx, encrypted.Ciphertext)
	if err != nil {
		if isContextFailure(portCtx, err) {
			return nil, portError(portCtx, "encryptor", "decrypt", err)
		}
		s.logger.Warn("stored seed cannot be decrypted",
			slog.String("principal", encrypted.Principal),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: principal %q: %w", seedDomain.ErrSecretUnavailable, encrypted.Principal, err)
	}

	if expected := s.seedLength(); len(plaintext) != expected {
		clear(plaintext)
		s.logger.Warn("stored seed has unexpected length",
			slog.String("principal", encrypted.Principal),
			slog.Int("expected", expected),
		)
		return nil, fmt.Errorf(
			"%w: principal %q: decrypted seed is not %d bytes",
			seedDomain.ErrSecretUnavailable,
			encrypted.Principal,
			expected,
		)
	}
	return otpDomain.Seed(plaintext), nil
}

func (s *seedUseCase) seedLength() int {
	if s.cfg.SeedLength > 0 {
		return s.cfg.SeedLength
	}
	return otpDomain.DefaultSeedLength
}

func (s *seedUseCase) portContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.PortTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.PortTimeout)
}

func isTimeout(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func isContextFailure(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// portError tags deadline failures with ErrPortTimeout and names the failing port.
// A cancelled context stays in the chain so callers can tell it from a store failure.
func portError(ctx context.Context, port, operation string, err error) error {
	if isTimeout(ctx, err) {
		return fmt.Errorf("%w: %s %s: %w", seedDomain.ErrPortTimeout, port, operation, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = apperrors.Join(err, ctxErr)
	}
	return apperrors.Wrapf(err, "%s %s", port, operation)
}
