// Package mocks provides mock implementations of the seed lifecycle ports for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	otpDomain "github.com/allisson/seedvault/internal/otp/domain"
	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
)

// MockSecretStore is a mock implementation of SecretStore.
type MockSecretStore struct {
	mock.Mock
}

// Get mocks the Get method of SecretStore.
func (m *MockSecretStore) Get(ctx context.Context, principal string) (*seedDomain.EncryptedSeed, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seedDomain.EncryptedSeed), args.Error(1)
}

// PutIfAbsent mocks the PutIfAbsent method of SecretStore.
func (m *MockSecretStore) PutIfAbsent(
	ctx context.Context,
	seed *seedDomain.EncryptedSeed,
) (seedDomain.InsertOutcome, error) {
	args := m.Called(ctx, seed)
	return args.Get(0).(seedDomain.InsertOutcome), args.Error(1)
}

// Delete mocks the Delete method of SecretStore.
func (m *MockSecretStore) Delete(ctx context.Context, principal string) error {
	args := m.Called(ctx, principal)
	return args.Error(0)
}

// MockEncryptor is a mock implementation of Encryptor.
type MockEncryptor struct {
	mock.Mock
}

// Encrypt mocks the Encrypt method of Encryptor.
func (m *MockEncryptor) Encrypt(ctx context.Context, plaintext []byte) (string, error) {
	args := m.Called(ctx, plaintext)
	return args.String(0), args.Error(1)
}

// Decrypt mocks the Decrypt method of Encryptor.
func (m *MockEncryptor) Decrypt(ctx context.Context, token string) ([]byte, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockOtpEngine is a mock implementation of OtpEngine.
type MockOtpEngine struct {
	mock.Mock
}

// GenerateSeed mocks the GenerateSeed method of OtpEngine.
func (m *MockOtpEngine) GenerateSeed() (otpDomain.Seed, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(otpDomain.Seed), args.Error(1)
}

// Verify mocks the Verify method of OtpEngine.
func (m *MockOtpEngine) Verify(seed otpDomain.Seed, candidate string) (bool, error) {
	args := m.Called(seed, candidate)
	return args.Bool(0), args.Error(1)
}

// MockSeedUseCase is a mock implementation of SeedUseCase.
type MockSeedUseCase struct {
	mock.Mock
}

// GetOrCreate mocks the GetOrCreate method of SeedUseCase.
func (m *MockSeedUseCase) GetOrCreate(ctx context.Context, principal string) (otpDomain.Seed, bool, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(otpDomain.Seed), args.Bool(1), args.Error(2)
}

// VerifyToken mocks the VerifyToken method of SeedUseCase.
func (m *MockSeedUseCase) VerifyToken(
	ctx context.Context,
	principal, candidate string,
) (seedDomain.VerifyResult, error) {
	args := m.Called(ctx, principal, candidate)
	return args.Get(0).(seedDomain.VerifyResult), args.Error(1)
}

// Enroll mocks the Enroll method of SeedUseCase.
func (m *MockSeedUseCase) Enroll(
	ctx context.Context,
	principal, accountLabel string,
) (*seedDomain.Enrollment, error) {
	args := m.Called(ctx, principal, accountLabel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seedDomain.Enrollment), args.Error(1)
}

// Reset mocks the Reset method of SeedUseCase.
func (m *MockSeedUseCase) Reset(ctx context.Context, principal string) error {
	args := m.Called(ctx, principal)
	return args.Error(0)
}

// MockSeedCatalog is a mock implementation of SeedCatalog.
type MockSeedCatalog struct {
	mock.Mock
}

// List mocks the List method of SeedCatalog.
func (m *MockSeedCatalog) List(
	ctx context.Context,
	afterPrincipal string,
	limit int,
) ([]*seedDomain.EncryptedSeed, error) {
	args := m.Called(ctx, afterPrincipal, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seedDomain.EncryptedSeed), args.Error(1)
}

// SwapCiphertext mocks the SwapCiphertext method of SeedCatalog.
func (m *MockSeedCatalog) SwapCiphertext(
	ctx context.Context,
	principal, oldCiphertext, newCiphertext string,
) (bool, error) {
	args := m.Called(ctx, principal, oldCiphertext, newCiphertext)
	return args.Bool(0), args.Error(1)
}

// MockRewrapper is a mock implementation of Rewrapper.
type MockRewrapper struct {
	mock.Mock
}

// Rewrap mocks the Rewrap method of Rewrapper.
func (m *MockRewrapper) Rewrap(ctx context.Context, token string) (string, bool, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Bool(1), args.Error(2)
}

// MockRewrapUseCase is a mock implementation of RewrapUseCase.
type MockRewrapUseCase struct {
	mock.Mock
}

// RewrapAll mocks the RewrapAll method of RewrapUseCase.
func (m *MockRewrapUseCase) RewrapAll(ctx context.Context, batchSize int) (*seedDomain.RewrapReport, error) {
	args := m.Called(ctx, batchSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seedDomain.RewrapReport), args.Error(1)
}
