package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/pkg/jwtx"
)

const (
	keyModeEphemeral  = "ephemeral"
	keyModePersistent = "persistent"
)

// InitAuthKeys creates the KeyManager for the configured algorithm and
// storage mode.
//
// Storage modes:
//   - "ephemeral": keys are generated on startup and kept in memory. Every
//     token becomes invalid when the service restarts.
//   - "persistent": keys are sealed with the master key and stored in the
//     database. Tokens survive restarts and retired keys verify until their
//     grace period ends.
//
// Supported algorithms: RS256, ES256, EdDSA
func InitAuthKeys(ctx context.Context, cfg Config, db store.Store, sealer jwtx.Sealer, sealerPersistent bool, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
		RSABits:   cfg.RSABits,
		NumKeys:   cfg.NumKeys,
	}

	switch cfg.KeyStorageMode {
	case keyModePersistent:
		// Keys sealed under a throwaway master key would be unreadable after
		// a restart.
		if !sealerPersistent {
			return nil, errors.New("persistent key mode requires AUTH_MASTER_KEY_PATH or AUTH_MASTER_KEY")
		}
		opts.Store = store.NewKeyStoreAdapter(db)
		opts.Sealer = sealer
		opts.GracePeriod = cfg.KeyGracePeriod

		logger.Info("initializing persistent key manager",
			"algorithm", cfg.Algorithm,
			"num_keys", cfg.NumKeys,
			"grace_period", cfg.KeyGracePeriod,
		)
		km, err := jwtx.NewPersistentKeyManager(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize persistent key manager: %w", err)
		}
		logger.Info("persistent signing keys loaded",
			"algorithm", km.Algorithm(),
			"active_keys", km.NumSigners(),
			"verifiable_keys", km.KeySet().Len(),
		)
		return km, nil

	case keyModeEphemeral, "":
		logger.Info("initializing ephemeral key manager",
			"algorithm", cfg.Algorithm,
			"num_keys", cfg.NumKeys,
		)
		km, err := jwtx.NewEphemeralKeyManager(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ephemeral key manager: %w", err)
		}
		logger.Warn("ephemeral signing keys generated, tokens issued before this start are invalid",
			"algorithm", km.Algorithm(),
			"active_keys", km.NumSigners(),
		)
		return km, nil

	default:
		return nil, fmt.Errorf("unknown AUTH_KEY_STORAGE_MODE %q", cfg.KeyStorageMode)
	}
}
