package store

import (
	"context"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/pkg/jwtx"
)

// KeyStoreAdapter exposes SigningKeys as a jwtx.KeyStore so pkg/jwtx never
// imports the domain package.
type KeyStoreAdapter struct {
	store Store
	now   func() time.Time
}

func NewKeyStoreAdapter(s Store) *KeyStoreAdapter {
	return &KeyStoreAdapter{store: s, now: time.Now}
}

func (a *KeyStoreAdapter) ListAllSigningKeys(ctx context.Context) ([]jwtx.SigningKeyRecord, error) {
	keys, err := a.store.SigningKeys().ListVerifiableSigningKeys(ctx, a.now())
	if err != nil {
		return nil, err
	}
	return toRecords(keys), nil
}

func (a *KeyStoreAdapter) ListActiveSigningKeys(ctx context.Context) ([]jwtx.SigningKeyRecord, error) {
	keys, err := a.store.SigningKeys().ListActiveSigningKeys(ctx, a.now())
	if err != nil {
		return nil, err
	}
	return toRecords(keys), nil
}

func (a *KeyStoreAdapter) CreateSigningKey(ctx context.Context, rec jwtx.SigningKeyRecord) error {
	return a.store.SigningKeys().CreateSigningKey(ctx, SigningKeyFromRecord(rec))
}

// SigningKeyFromRecord converts a jwtx record into the stored form.
func SigningKeyFromRecord(rec jwtx.SigningKeyRecord) domain.SigningKey {
	return domain.SigningKey{
		ID:                  rec.ID,
		Kid:                 rec.Kid,
		Algorithm:           rec.Algorithm,
		PrivateKeyEncrypted: rec.PrivateKeyEncrypted,
		CreatedAt:           rec.CreatedAt,
		RetiredAt:           rec.RetiredAt,
		ExpiresAt:           rec.ExpiresAt,
	}
}

func toRecords(keys []domain.SigningKey) []jwtx.SigningKeyRecord {
	out := make([]jwtx.SigningKeyRecord, len(keys))
	for i, k := range keys {
		out[i] = jwtx.SigningKeyRecord{
			ID:                  k.ID,
			Kid:                 k.Kid,
			Algorithm:           k.Algorithm,
			PrivateKeyEncrypted: k.PrivateKeyEncrypted,
			CreatedAt:           k.CreatedAt,
			RetiredAt:           k.RetiredAt,
			ExpiresAt:           k.ExpiresAt,
		}
	}
	return out
}
