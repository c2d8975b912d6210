package app

import (
	"context"
	"fmt"

	authService "github.com/allisson/seedvault/internal/auth/service"
	"github.com/allisson/seedvault/internal/config"
	otpService "github.com/allisson/seedvault/internal/otp/service"
	seedHTTP "github.com/allisson/seedvault/internal/seed/http"
	seedRepository "github.com/allisson/seedvault/internal/seed/repository"
	seedService "github.com/allisson/seedvault/internal/seed/service"
	seedUseCase "github.com/allisson/seedvault/internal/seed/usecase"
)

// SeedStore is what every seed store backend provides: lifecycle access, enumeration for
// key rotation and a readiness probe.
type SeedStore interface {
	seedUseCase.SecretStore
	seedUseCase.SeedCatalog
	Ping(ctx context.Context) error
}

// SeedStore returns the seed store selected by SEED_STORE.
func (c *Container) SeedStore() (SeedStore, error) {
	var err error
	c.seedStoreInit.Do(func() {
		c.seedStore, err = c.initSeedStore()
		if err != nil {
			c.initErrors["seedStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["seedStore"]; exists {
		return nil, storedErr
	}
	return c.seedStore, nil
}

// KeeperChain returns the KMS keepers opened from KMS_KEYS.
func (c *Container) KeeperChain() (*seedService.KeeperChain, error) {
	var err error
	c.keeperChainInit.Do(func() {
		c.keeperChain, err = c.initKeeperChain()
		if err != nil {
			c.initErrors["keeperChain"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keeperChain"]; exists {
		return nil, storedErr
	}
	return c.keeperChain, nil
}

// Encryptor returns the envelope encryptor over the keeper chain.
func (c *Container) Encryptor() (*seedService.KMSEncryptor, error) {
	var err error
	c.encryptorInit.Do(func() {
		c.encryptor, err = c.initEncryptor()
		if err != nil {
			c.initErrors["encryptor"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["encryptor"]; exists {
		return nil, storedErr
	}
	return c.encryptor, nil
}

// OtpEngine returns the TOTP engine configured from the OTP_* settings.
func (c *Container) OtpEngine() (*otpService.Engine, error) {
	var err error
	c.otpEngineInit.Do(func() {
		c.otpEngine, err = c.initOtpEngine()
		if err != nil {
			c.initErrors["otpEngine"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["otpEngine"]; exists {
		return nil, storedErr
	}
	return c.otpEngine, nil
}

// SeedUseCase returns the seed lifecycle use case, instrumented when metrics are enabled.
func (c *Container) SeedUseCase() (seedUseCase.SeedUseCase, error) {
	var err error
	c.seedUseCaseInit.Do(func() {
		c.seedUseCase, err = c.initSeedUseCase()
		if err != nil {
			c.initErrors["seedUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["seedUseCase"]; exists {
		return nil, storedErr
	}
	return c.seedUseCase, nil
}

// RewrapUseCase returns the use case that moves stored seeds to the active key.
func (c *Container) RewrapUseCase() (seedUseCase.RewrapUseCase, error) {
	var err error
	c.rewrapUseCaseInit.Do(func() {
		c.rewrapUseCase, err = c.initRewrapUseCase()
		if err != nil {
			c.initErrors["rewrapUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rewrapUseCase"]; exists {
		return nil, storedErr
	}
	return c.rewrapUseCase, nil
}

// SeedHandler returns the HTTP handler for enrollment and verification.
func (c *Container) SeedHandler() (*seedHTTP.SeedHandler, error) {
	var err error
	c.seedHandlerInit.Do(func() {
		c.seedHandler, err = c.initSeedHandler()
		if err != nil {
			c.initErrors["seedHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["seedHandler"]; exists {
		return nil, storedErr
	}
	return c.seedHandler, nil
}

// APIKeyService returns the service that hashes and checks API keys.
func (c *Container) APIKeyService() authService.APIKeyService {
	c.apiKeyServiceInit.Do(func() {
		c.apiKeyService = authService.NewAPIKeyService()
	})
	return c.apiKeyService
}

// initSeedStore creates the seed store for the configured backend.
func (c *Container) initSeedStore() (SeedStore, error) {
	switch c.config.SeedStore {
	case config.SeedStoreDatabase:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for seed store: %w", err)
		}
		switch c.config.DBDriver {
		case "postgres":
			return seedRepository.NewPostgreSQLSeedRepository(db), nil
		case "mysql":
			return seedRepository.NewMySQLSeedRepository(db), nil
		default:
			return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	case config.SeedStoreRedis:
		client, err := c.Redis()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis for seed store: %w", err)
		}
		return seedRepository.NewRedisSeedRepository(client, c.config.RedisKeyPrefix), nil
	case config.SeedStoreMemory:
		c.Logger().Warn("using the in-memory seed store, seeds are lost on restart")
		return seedRepository.NewMemorySeedRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported seed store: %s", c.config.SeedStore)
	}
}

// initKeeperChain opens every keeper listed in KMS_KEYS.
func (c *Container) initKeeperChain() (*seedService.KeeperChain, error) {
	chain, err := seedService.OpenKeeperChain(context.Background(), c.config.KMSKeys, c.config.KMSActiveKeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to open kms keepers: %w", err)
	}
	return chain, nil
}

// initEncryptor creates the envelope encryptor.
func (c *Container) initEncryptor() (*seedService.KMSEncryptor, error) {
	chain, err := c.KeeperChain()
	if err != nil {
		return nil, fmt.Errorf("failed to get keeper chain for encryptor: %w", err)
	}
	return seedService.NewKMSEncryptor(chain), nil
}

// initOtpEngine creates the TOTP engine.
func (c *Container) initOtpEngine() (*otpService.Engine, error) {
	engine, err := otpService.NewEngine(otpService.Config{
		Period:     c.config.OTPPeriod,
		Digits:     c.config.OTPDigits,
		Window:     c.config.OTPVerifyWindow,
		SeedLength: c.config.OTPSeedLength,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create otp engine: %w", err)
	}
	return engine, nil
}

// initSeedUseCase creates the seed lifecycle use case with all its dependencies.
func (c *Container) initSeedUseCase() (seedUseCase.SeedUseCase, error) {
	store, err := c.SeedStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get seed store for seed use case: %w", err)
	}

	encryptor, err := c.Encryptor()
	if err != nil {
		return nil, fmt.Errorf("failed to get encryptor for seed use case: %w", err)
	}

	engine, err := c.OtpEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to get otp engine for seed use case: %w", err)
	}

	useCase := seedUseCase.NewSeedUseCase(
		seedUseCase.Config{
			PortTimeout:    c.config.PortTimeout,
			CreateOnVerify: c.config.OTPCreateOnVerify,
			Issuer:         c.config.OTPIssuer,
			QRCodeSize:     c.config.OTPQRSize,
			SeedLength:     c.config.OTPSeedLength,
		},
		store,
		encryptor,
		engine,
		c.Logger(),
	)

	if !c.config.MetricsEnabled {
		return useCase, nil
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for seed use case: %w", err)
	}
	return seedUseCase.NewSeedUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initRewrapUseCase creates the rewrap use case with all its dependencies.
func (c *Container) initRewrapUseCase() (seedUseCase.RewrapUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for rewrap use case: %w", err)
	}

	store, err := c.SeedStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get seed store for rewrap use case: %w", err)
	}

	encryptor, err := c.Encryptor()
	if err != nil {
		return nil, fmt.Errorf("failed to get encryptor for rewrap use case: %w", err)
	}

	useCase := seedUseCase.NewRewrapUseCase(txManager, store, encryptor, c.Logger())

	if !c.config.MetricsEnabled {
		return useCase, nil
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for rewrap use case: %w", err)
	}
	return seedUseCase.NewRewrapUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initSeedHandler creates the seed HTTP handler.
func (c *Container) initSeedHandler() (*seedHTTP.SeedHandler, error) {
	useCase, err := c.SeedUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get seed use case for seed handler: %w", err)
	}
	return seedHTTP.NewSeedHandler(useCase, c.Logger()), nil
}
