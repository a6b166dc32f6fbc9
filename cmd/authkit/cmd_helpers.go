package main

import (
	"context"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/authkit-dev/authkit/internal/cache"
	"github.com/authkit-dev/authkit/internal/config"
	"github.com/authkit-dev/authkit/internal/logs"
	"github.com/authkit-dev/authkit/internal/oauth"
	"github.com/authkit-dev/authkit/internal/secret"
)

// keyringService is the OS keyring service name all authkit entries live
// under.
const keyringService = "authkit"

// loadConfig loads configuration honoring the global flags and resolves
// secret references so credential fields hold usable values.
func loadConfig(ctx context.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	if err := config.ResolveSecrets(ctx, cfg, secret.NewResolver()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogger builds the command logger from the global flags.
// longRunning selects the chattier default level.
func setupLogger(longRunning bool) (*zap.Logger, error) {
	return logs.SetupCommandLogger(longRunning, logLevel, logToFile, logDir)
}

// buildTokenStore assembles the cache tiers the config asks for.
func buildTokenStore(cfg *config.Config, logger *zap.Logger) (oauth.TokenStore, error) {
	memory := cache.NewMemoryStore()
	if !cfg.Cache.EnableDisk {
		return cache.NewLayeredStore(memory, nil, logger), nil
	}

	keys := cache.DefaultKeySource(keyringService, cfg.Cache.Dir)
	disk, err := cache.NewDiskStore(cfg.Cache.Dir, keys, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open disk cache: %w", err)
	}
	return cache.NewLayeredStore(memory, disk, logger), nil
}

// buildDiskStore opens only the disk tier, for cache maintenance commands.
func buildDiskStore(cfg *config.Config, logger *zap.Logger) (*cache.DiskStore, error) {
	keys := cache.DefaultKeySource(keyringService, cfg.Cache.Dir)
	return cache.NewDiskStore(cfg.Cache.Dir, keys, logger)
}

// buildFlow constructs the grant implementation a client entry selects,
// optionally overridden by flowName.
func buildFlow(clientCfg *config.ClientConfig, flowName string, logger *zap.Logger) (oauth.Flow, error) {
	if flowName == "" {
		flowName = clientCfg.Flow
	}

	switch flowName {
	case config.FlowAuthorizationCode:
		return &oauth.AuthorizationCodeFlow{Logger: logger}, nil
	case config.FlowDeviceCode:
		return &oauth.DeviceFlow{
			Prompt: func(userCode, verificationURI string) {
				fmt.Printf("To authorize, visit:\n\n    %s\n\nand enter the code: %s\n\n", verificationURI, userCode)
			},
			Logger: logger,
		}, nil
	case config.FlowClientCredentials:
		return &oauth.ClientCredentialsFlow{Logger: logger}, nil
	case config.FlowPassword:
		return &oauth.PasswordFlow{
			Username: clientCfg.Username,
			Password: clientCfg.Password,
			Logger:   logger,
		}, nil
	case config.FlowJWTBearer:
		pemData, err := os.ReadFile(clientCfg.JWTKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read JWT key file: %w", err)
		}
		key, err := jwt.ParseRSAPrivateKeyFromPEM(pemData)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JWT key file %s: %w", clientCfg.JWTKeyFile, err)
		}
		return &oauth.BearerJWTFlow{
			Key:      key,
			Subject:  clientCfg.JWTSubject,
			Audience: clientCfg.JWTAudience,
			Logger:   logger,
		}, nil
	default:
		return nil, fmt.Errorf("unknown flow: %s", flowName)
	}
}

// buildAuthenticator assembles the full middleware stack for one client.
func buildAuthenticator(cfg *config.Config, clientName, flowName string, logger *zap.Logger) (*oauth.Authenticator, error) {
	clientCfg := cfg.FindClient(clientName)
	if clientCfg == nil {
		return nil, fmt.Errorf("client not found in configuration: %s", clientName)
	}

	flow, err := buildFlow(clientCfg, flowName, logger)
	if err != nil {
		return nil, err
	}

	store, err := buildTokenStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	return oauth.NewAuthenticator(clientCfg.ToClient(), flow, store, nil, logger)
}
