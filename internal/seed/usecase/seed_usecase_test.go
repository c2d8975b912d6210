package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/seedvault/internal/errors"
	otpDomain "github.com/allisson/seedvault/internal/otp/domain"
	otpService "github.com/allisson/seedvault/internal/otp/service"
	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
	"github.com/allisson/seedvault/internal/seed/usecase/mocks"
)

type seedUseCaseFixture struct {
	store     *mocks.MockSecretStore
	encryptor *mocks.MockEncryptor
	engine    *mocks.MockOtpEngine
	useCase   SeedUseCase
}

func newSeedUseCaseFixture(t *testing.T, cfg Config) *seedUseCaseFixture {
	t.Helper()
	f := &seedUseCaseFixture{
		store:     &mocks.MockSecretStore{},
		encryptor: &mocks.MockEncryptor{},
		engine:    &mocks.MockOtpEngine{},
	}
	f.useCase = NewSeedUseCase(cfg, f.store, f.encryptor, f.engine, discardLogger())
	t.Cleanup(func() {
		f.store.AssertExpectations(t)
		f.encryptor.AssertExpectations(t)
		f.engine.AssertExpectations(t)
	})
	return f
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{PortTimeout: time.Second, Issuer: "Acme", QRCodeSize: 256}
}

func storedSeed(principal, ciphertext string) *seedDomain.EncryptedSeed {
	return &seedDomain.EncryptedSeed{
		ID:         uuid.Must(uuid.NewV7()),
		Principal:  principal,
		Ciphertext: ciphertext,
		CreatedAt:  time.Now().UTC(),
	}
}

func testSeed(fill byte) otpDomain.Seed {
	seed := make(otpDomain.Seed, otpDomain.DefaultSeedLength)
	for i := range seed {
		seed[i] = fill
	}
	return seed
}

func TestSeedUseCase_GetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ExistingSeed", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		f.store.On("Get", mock.Anything, "alice").Return(storedSeed("alice", "k1:stored"), nil).Once()
		f.encryptor.On("Decrypt", mock.Anything, "k1:stored").Return([]byte(testSeed(0x11)), nil).Once()

		seed, justCreated, err := f.useCase.GetOrCreate(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, justCreated)
		assert.Equal(t, testSeed(0x11), seed)
	})

	t.Run("Success_CreatesWhenAbsent", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		generated := testSeed(0x22)

		f.store.On("Get", mock.Anything, "alice").Return(nil, seedDomain.ErrEncryptedSeedNotFound).Once()
		f.engine.On("GenerateSeed").Return(generated, nil).Once()
		f.encryptor.On("Encrypt", mock.Anything, []byte(testSeed(0x22))).Return("k1:new", nil).Once()
		f.store.On("PutIfAbsent", mock.Anything, mock.MatchedBy(func(s *seedDomain.EncryptedSeed) bool {
			return s.Principal == "alice" && s.Ciphertext == "k1:new" && s.ID != uuid.Nil
		})).Return(seedDomain.Inserted, nil).Once()

		seed, justCreated, err := f.useCase.GetOrCreate(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, justCreated)
		assert.Equal(t, testSeed(0x22), seed)
	})

	t.Run("Success_LostRaceReturnsStoredSeed", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		generated := testSeed(0x33)

		f.store.On("Get", mock.Anything, "alice").Return(nil, seedDomain.ErrEncryptedSeedNotFound).Once()
		f.engine.On("GenerateSeed").Return(generated, nil).Once()
		f.encryptor.On("Encrypt", mock.Anything, mock.Anything).Return("k1:mine", nil).Once()
		f.store.On("PutIfAbsent", mock.Anything, mock.Anything).Return(seedDomain.AlreadyExists, nil).Once()
		f.store.On("Get", mock.Anything, "alice").Return(storedSeed("alice", "k1:winner"), nil).Once()
		f.encryptor.On("Decrypt", mock.Anything, "k1:winner").Return([]byte(testSeed(0x44)), nil).Once()

		seed, justCreated, err := f.useCase.GetOrCreate(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, justCreated)
		assert.Equal(t, testSeed(0x44), seed)
		assert.Equal(t, make(otpDomain.Seed, otpDomain.DefaultSeedLength), generated, "losing seed must be zeroed")
	})

	t.Run("Error_StoreConflictWhenRecordVanishes", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())

		f.store.On("Get", mock.Anything, "alice").Return(nil, seedDomain.ErrEncryptedSeedNotFound).Twice()
		f.engine.On("GenerateSeed").Return(testSeed(0x55), nil).Once()
		f.encryptor.On("Encrypt", mock.Anything, mock.Anything).Return("k1:mine", nil).Once()
		f.store.On("PutIfAbsent", mock.Anything, mock.Anything).Return(seedDomain.AlreadyExists, nil).Once()

		seed, _, err := f.useCase.GetOrCreate(ctx, "alice")
		assert.Nil(t, seed)
		assert.ErrorIs(t, err, seedDomain.ErrStoreConflict)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("Error_DecryptFailureIsSecretUnavailable", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		f.store.On("Get", mock.Anything, "alice").Return(storedSeed("alice", "garbage"), nil).Once()
		f.encryptor.On("Decrypt", mock.Anything, "garbage").Return(nil, seedDomain.ErrMalformedCiphertext).Once()

		seed, justCreated, err := f.useCase.GetOrCreate(ctx, "alice")
		assert.Nil(t, seed)
		assert.False(t, justCreated)
		assert.ErrorIs(t, err, seedDomain.ErrSecretUnavailable)
		assert.ErrorIs(t, err, seedDomain.ErrMalformedCiphertext)
		assert.NotErrorIs(t, err, seedDomain.ErrEncryptedSeedNotFound)
	})

	t.Run("Error_EntropyUnavailable", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		f.store.On("Get", mock.Anything, "alice").Return(nil, seedDomain.ErrEncryptedSeedNotFound).Once()
		f.engine.On("GenerateSeed").Return(nil, otpDomain.ErrEntropyUnavailable).Once()

		_, _, err := f.useCase.GetOrCreate(ctx, "alice")
		assert.ErrorIs(t, err, otpDomain.ErrEntropyUnavailable)
	})

	t.Run("Error_EncryptFailureZeroesSeed", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		generated := testSeed(0x66)

		f.store.On("Get", mock.Anything, "alice").Return(nil, seedDomain.ErrEncryptedSeedNotFound).Once()
		f.engine.On("GenerateSeed").Return(generated, nil).Once()
		f.encryptor.On("Encrypt", mock.Anything, mock.Anything).Return("", errors.New("kms down")).Once()

		_, _, err := f.useCase.GetOrCreate(ctx, "alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "encryptor encrypt")
		assert.Equal(t, make(otpDomain.Seed, otpDomain.DefaultSeedLength), generated)
	})

	t.Run("Error_StoreFailureIsPropagated", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		f.store.On("Get", mock.Anything, "alice").Return(nil, errors.New("connection refused")).Once()

		_, _, err := f.useCase.GetOrCreate(ctx, "alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret store get")
		assert.NotErrorIs(t, err, seedDomain.ErrPortTimeout)
	})

	t.Run("Error_PortTimeout", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, Config{PortTimeout: 10 * time.Millisecond})
		f.store.On("Get", mock.Anything, "alice").
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, context.DeadlineExceeded).
			Once()

		_, _, err := f.useCase.GetOrCreate(ctx, "alice")
		assert.ErrorIs(t, err, seedDomain.ErrPortTimeout)
		assert.ErrorIs(t, err, apperrors.ErrTimeout)
		assert.Contains(t, err.Error(), "secret store get")
	})

	t.Run("Error_DecryptTimeoutIsNotSecretUnavailable", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, Config{PortTimeout: 10 * time.Millisecond})
		f.store.On("Get", mock.Anything, "alice").Return(storedSeed("alice", "k1:slow"), nil).Once()
		f.encryptor.On("Decrypt", mock.Anything, "k1:slow").
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, context.DeadlineExceeded).
			Once()

		_, _, err := f.useCase.GetOrCreate(ctx, "alice")
		assert.ErrorIs(t, err, seedDomain.ErrPortTimeout)
		assert.NotErrorIs(t, err, seedDomain.ErrSecretUnavailable)
	})

	t.Run("Error_DecryptCanceledIsNotSecretUnavailable", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		f.store.On("Get", mock.Anything, "alice").Return(storedSeed("alice", "k1:stored"), nil).Once()
		f.encryptor.On("Decrypt", mock.Anything, "k1:stored").Return(nil, context.Canceled).Once()

		_, _, err := f.useCase.GetOrCreate(canceled, "alice")
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, seedDomain.ErrSecretUnavailable)
		assert.NotErrorIs(t, err, seedDomain.ErrPortTimeout)
		assert.Contains(t, err.Error(), "encryptor decrypt")
	})

	t.Run("Error_InvalidPrincipal", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())

		_, _, err := f.useCase.GetOrCreate(ctx, "")
		assert.ErrorIs(t, err, seedDomain.ErrInvalidPrincipal)
	})
}

func TestSeedUseCase_VerifyToken(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_Match", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		decrypted := []byte(testSeed(0x11))
		f.store.On("Get", mock.Anything, "alice").Return(storedSeed("alice", "k1:stored"), nil).Once()
		f.encryptor.On("Decrypt", mock.Anything, "k1:stored").Return(decrypted, nil).Once()
		f.engine.On("Verify", testSeed(0x11), "123456").Return(true, nil).Once()

		result, err := f.useCase.VerifyToken(ctx, "alice", "123456")
		require.NoError(t, err)
		assert.Equal(t, seedDomain.VerifyMatch, result)
		assert.Equal(t, make([]byte, len(decrypted)), decrypted, "seed must be zeroed after verification")
	})

	t.Run("Success_NoMatch", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		f.store.On("Get", mock.Anything, "alice").Return(storedSeed("alice", "k1:stored"), nil).Once()
		f.encryptor.On("Decrypt", mock.Anything, "k1:stored").Return([]byte(testSeed(0x11)), nil).Once()
		f.engine.On("Verify", mock.Anything, "000000").Return(false, nil).Once()

		result, err := f.useCase.VerifyToken(ctx, "alice", "000000")
		require.NoError(t, err)
		assert.Equal(t, seedDomain.VerifyNoMatch, result)
	})

	t.Run("Success_SecretUnavailable", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		f.store.On("Get", mock.Anything, "alice").Return(storedSeed("alice", "garbage"), nil).Once()
		f.encryptor.On("Decrypt", mock.Anything, "garbage").Return(nil, seedDomain.ErrMalformedCiphertext).Once()

		result, err := f.useCase.VerifyToken(ctx, "alice", "123456")
		require.NoError(t, err)
		assert.Equal(t, seedDomain.VerifySecretUnavailable, result)
	})

	t.Run("Success_WrongLengthSeedIsSecretUnavailable", func(t *testing.T) {
		cases := []struct {
			name      string
			plaintext []byte
		}{
			{name: "empty", plaintext: []byte{}},
			{name: "short", plaintext: []byte(testSeed(0x11)[:20])},
			{name: "long", plaintext: append([]byte(testSeed(0x11)), 0x11)},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				f := newSeedUseCaseFixture(t, testConfig())
				f.store.On("Get", mock.Anything, "alice").Return(storedSeed("alice", "k1:stored"), nil).Once()
				f.encryptor.On("Decrypt", mock.Anything, "k1:stored").Return(tc.plaintext, nil).Once()

				result, err := f.useCase.VerifyToken(ctx, "alice", "123456")
				require.NoError(t, err)
				assert.Equal(t, seedDomain.VerifySecretUnavailable, result)
				assert.Equal(t, make([]byte, len(tc.plaintext)), tc.plaintext, "rejected seed must be zeroed")
			})
		}
	})

	t.Run("Success_ConfiguredSeedLength", func(t *testing.T) {
		cfg := testConfig()
		cfg.SeedLength = 20
		f := newSeedUseCaseFixture(t, cfg)
		f.store.On("Get", mock.Anything, "alice").Return(storedSeed("alice", "k1:stored"), nil).Once()
		f.encryptor.On("Decrypt", mock.Anything, "k1:stored").Return([]byte(testSeed(0x11)[:20]), nil).Once()
		f.engine.On("Verify", mock.Anything, "123456").Return(true, nil).Once()

		result, err := f.useCase.VerifyToken(ctx, "alice", "123456")
		require.NoError(t, err)
		assert.Equal(t, seedDomain.VerifyMatch, result)
	})

	t.Run("Success_NoEnrollment", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		f.store.On("Get", mock.Anything, "alice").Return(nil, seedDomain.ErrEncryptedSeedNotFound).Once()

		result, err := f.useCase.VerifyToken(ctx, "alice", "123456")
		require.NoError(t, err)
		assert.Equal(t, seedDomain.VerifyNoEnrollment, result)
	})

	t.Run("Success_CreateOnVerify", func(t *testing.T) {
		cfg := testConfig()
		cfg.CreateOnVerify = true
		f := newSeedUseCaseFixture(t, cfg)

		f.store.On("Get", mock.Anything, "alice").Return(nil, seedDomain.ErrEncryptedSeedNotFound).Twice()
		f.engine.On("GenerateSeed").Return(testSeed(0x77), nil).Once()
		f.encryptor.On("Encrypt", mock.Anything, mock.Anything).Return("k1:new", nil).Once()
		f.store.On("PutIfAbsent", mock.Anything, mock.Anything).Return(seedDomain.Inserted, nil).Once()
		f.engine.On("Verify", mock.Anything, "123456").Return(false, nil).Once()

		result, err := f.useCase.VerifyToken(ctx, "alice", "123456")
		require.NoError(t, err)
		assert.Equal(t, seedDomain.VerifyNoMatch, result)
	})

	t.Run("Error_PortTimeout", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, Config{PortTimeout: 10 * time.Millisecond})
		f.store.On("Get", mock.Anything, "alice").
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, errors.New("i/o timeout")).
			Once()

		result, err := f.useCase.VerifyToken(ctx, "alice", "123456")
		assert.Empty(t, result)
		assert.ErrorIs(t, err, seedDomain.ErrPortTimeout)
	})
}

func TestSeedUseCase_Enroll(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_FirstEnrollmentReturnsProvisioningMaterial", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		f.store.On("Get", mock.Anything, "alice").Return(nil, seedDomain.ErrEncryptedSeedNotFound).Once()
		f.engine.On("GenerateSeed").Return(testSeed(0x01), nil).Once()
		f.encryptor.On("Encrypt", mock.Anything, mock.Anything).Return("k1:new", nil).Once()
		f.store.On("PutIfAbsent", mock.Anything, mock.Anything).Return(seedDomain.Inserted, nil).Once()

		enrollment, err := f.useCase.Enroll(ctx, "alice", "alice@example.com")
		require.NoError(t, err)
		assert.True(t, enrollment.JustCreated)
		assert.Equal(t, "alice", enrollment.Principal)
		assert.NotEmpty(t, enrollment.QRCodePNG)

		parsed, err := otpService.ParseProvisioningURI(enrollment.ProvisioningURI)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", parsed.Label)
		assert.Equal(t, "Acme", parsed.Issuer)
		assert.Equal(t, testSeed(0x01), parsed.Secret)
	})

	t.Run("Success_DefaultsLabelToPrincipal", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		f.store.On("Get", mock.Anything, "bob").Return(nil, seedDomain.ErrEncryptedSeedNotFound).Once()
		f.engine.On("GenerateSeed").Return(testSeed(0x02), nil).Once()
		f.encryptor.On("Encrypt", mock.Anything, mock.Anything).Return("k1:new", nil).Once()
		f.store.On("PutIfAbsent", mock.Anything, mock.Anything).Return(seedDomain.Inserted, nil).Once()

		enrollment, err := f.useCase.Enroll(ctx, "bob", "")
		require.NoError(t, err)
		assert.Contains(t, enrollment.ProvisioningURI, "otpauth://totp/bob?")
	})

	t.Run("Success_QRCodeFailureStillReturnsURI", func(t *testing.T) {
		cfg := testConfig()
		cfg.Issuer = strings.Repeat("A", 3000)
		f := newSeedUseCaseFixture(t, cfg)
		f.store.On("Get", mock.Anything, "alice").Return(nil, seedDomain.ErrEncryptedSeedNotFound).Once()
		f.engine.On("GenerateSeed").Return(testSeed(0x03), nil).Once()
		f.encryptor.On("Encrypt", mock.Anything, mock.Anything).Return("k1:new", nil).Once()
		f.store.On("PutIfAbsent", mock.Anything, mock.Anything).Return(seedDomain.Inserted, nil).Once()

		enrollment, err := f.useCase.Enroll(ctx, "alice", "")
		require.NoError(t, err)
		assert.True(t, enrollment.JustCreated)
		assert.Empty(t, enrollment.QRCodePNG)

		parsed, err := otpService.ParseProvisioningURI(enrollment.ProvisioningURI)
		require.NoError(t, err)
		assert.Equal(t, testSeed(0x03), parsed.Secret)
	})

	t.Run("Success_ExistingEnrollmentHidesSeed", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		f.store.On("Get", mock.Anything, "alice").Return(storedSeed("alice", "k1:stored"), nil).Once()
		f.encryptor.On("Decrypt", mock.Anything, "k1:stored").Return([]byte(testSeed(0x11)), nil).Once()

		enrollment, err := f.useCase.Enroll(ctx, "alice", "alice@example.com")
		require.NoError(t, err)
		assert.False(t, enrollment.JustCreated)
		assert.Empty(t, enrollment.ProvisioningURI)
		assert.Empty(t, enrollment.QRCodePNG)
	})

	t.Run("Error_SecretUnavailable", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		f.store.On("Get", mock.Anything, "alice").Return(storedSeed("alice", "garbage"), nil).Once()
		f.encryptor.On("Decrypt", mock.Anything, "garbage").Return(nil, seedDomain.ErrKeyUnavailable).Once()

		enrollment, err := f.useCase.Enroll(ctx, "alice", "")
		assert.Nil(t, enrollment)
		assert.ErrorIs(t, err, seedDomain.ErrSecretUnavailable)
	})
}

func TestSeedUseCase_Reset(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		f.store.On("Delete", mock.Anything, "alice").Return(nil).Once()

		assert.NoError(t, f.useCase.Reset(ctx, "alice"))
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())
		f.store.On("Delete", mock.Anything, "nobody").Return(seedDomain.ErrEncryptedSeedNotFound).Once()

		err := f.useCase.Reset(ctx, "nobody")
		assert.ErrorIs(t, err, seedDomain.ErrEncryptedSeedNotFound)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Error_InvalidPrincipal", func(t *testing.T) {
		f := newSeedUseCaseFixture(t, testConfig())

		assert.ErrorIs(t, f.useCase.Reset(ctx, "bad\x00principal"), seedDomain.ErrInvalidPrincipal)
	})
}
