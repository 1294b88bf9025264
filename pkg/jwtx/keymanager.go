package jwtx

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aussiebroadwan/skygate/pkg/cryptox"
	"github.com/aussiebroadwan/skygate/pkg/idx"
)

const (
	defaultNumKeys     = 3
	maxNumKeys         = 10
	defaultGracePeriod = 30 * 24 * time.Hour
)

var (
	ErrLastSigner     = errors.New("jwtx: cannot retire the last signing key")
	ErrSignerNotFound = errors.New("jwtx: signer not found")
)

// SigningKeyRecord is the persisted form of a signing key.
type SigningKeyRecord struct {
	ID                  string
	Kid                 string
	Algorithm           string
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
	RetiredAt           *time.Time
	ExpiresAt           time.Time
}

// KeyStore is the storage a persistent KeyManager loads from. Expired keys
// are expected to be filtered by the store.
type KeyStore interface {
	ListAllSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)
	ListActiveSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)
	CreateSigningKey(ctx context.Context, key SigningKeyRecord) error
}

// Sealer encrypts private keys at rest. *cryptox.Sealer satisfies it.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

type KeyManagerOptions struct {
	Algorithm string // RS256, ES256 or EdDSA
	Issuer    string
	RSABits   int // RS256 only, default 4096
	NumKeys   int // active signing keys, default 3, max 10
	Leeway    time.Duration

	// Persistent mode only.
	Store       KeyStore
	Sealer      Sealer
	GracePeriod time.Duration
}

// KeyManager owns the active signing keys and the verification key set.
// Signing picks an active key at random; retired keys stay verifiable until
// they are dropped from the set.
type KeyManager struct {
	algorithm string
	keys      *KeySet
	verifier  *Verifier

	mu      sync.RWMutex
	signers []*Signer
}

func newKeyManager(opts *KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}
	if _, err := signingMethod(opts.Algorithm); err != nil {
		return nil, err
	}
	if opts.NumKeys <= 0 {
		opts.NumKeys = defaultNumKeys
	}
	opts.NumKeys = min(opts.NumKeys, maxNumKeys)

	keys := NewKeySet()
	return &KeyManager{
		algorithm: opts.Algorithm,
		keys:      keys,
		verifier:  &Verifier{Keys: keys, Issuer: opts.Issuer, Leeway: opts.Leeway},
	}, nil
}

// NewEphemeralKeyManager generates NumKeys in-memory keys. Tokens stop
// verifying when the process restarts.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	km, err := newKeyManager(&opts)
	if err != nil {
		return nil, err
	}
	for range opts.NumKeys {
		s, _, err := GenerateSigner(NewKeyID(), opts.Algorithm, opts.RSABits)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate signer: %w", err)
		}
		if err := km.AddSigner(s); err != nil {
			return nil, err
		}
	}
	return km, nil
}

// NewPersistentKeyManager loads every stored key for verification, the
// active ones for signing, and tops the active set up to NumKeys.
func NewPersistentKeyManager(ctx context.Context, opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Store == nil || opts.Sealer == nil {
		return nil, errors.New("jwtx: Store and Sealer are required for persistent keys")
	}
	km, err := newKeyManager(&opts)
	if err != nil {
		return nil, err
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = defaultGracePeriod
	}

	all, err := opts.Store.ListAllSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load keys: %w", err)
	}
	active, err := opts.Store.ListActiveSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load active keys: %w", err)
	}
	isActive := make(map[string]bool, len(active))
	for _, rec := range active {
		isActive[rec.Kid] = true
	}

	for _, rec := range all {
		s, err := OpenSigner(opts.Sealer, rec)
		if err != nil {
			return nil, err
		}
		if isActive[rec.Kid] {
			err = km.AddSigner(s)
		} else {
			err = km.keys.Add(s.PublicJWK())
		}
		if err != nil {
			return nil, err
		}
	}

	for km.NumSigners() < opts.NumKeys {
		s, rec, err := NewSealedSigner(opts.Sealer, opts.Algorithm, opts.RSABits, opts.GracePeriod, time.Now())
		if err != nil {
			return nil, err
		}
		if err := opts.Store.CreateSigningKey(ctx, rec); err != nil {
			return nil, fmt.Errorf("jwtx: store new key: %w", err)
		}
		if err := km.AddSigner(s); err != nil {
			return nil, err
		}
	}
	return km, nil
}

// NewSealedSigner generates a key and the encrypted record to persist it.
func NewSealedSigner(sealer Sealer, alg string, rsaBits int, grace time.Duration, now time.Time) (*Signer, SigningKeyRecord, error) {
	s, pemKey, err := GenerateSigner(NewKeyID(), alg, rsaBits)
	if err != nil {
		return nil, SigningKeyRecord{}, fmt.Errorf("jwtx: generate key: %w", err)
	}
	sealed, err := sealer.Seal(pemKey)
	if err != nil {
		return nil, SigningKeyRecord{}, fmt.Errorf("jwtx: seal key: %w", err)
	}
	return s, SigningKeyRecord{
		ID:                  idx.New().String(),
		Kid:                 s.KID(),
		Algorithm:           alg,
		PrivateKeyEncrypted: sealed,
		CreatedAt:           now,
		ExpiresAt:           now.Add(grace),
	}, nil
}

// OpenSigner decrypts a stored record back into a Signer.
func OpenSigner(sealer Sealer, rec SigningKeyRecord) (*Signer, error) {
	pemKey, err := sealer.Open(rec.PrivateKeyEncrypted)
	if err != nil {
		return nil, fmt.Errorf("jwtx: decrypt key %s: %w", rec.Kid, err)
	}
	s, err := NewSigner(rec.Kid, rec.Algorithm, pemKey)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load key %s: %w", rec.Kid, err)
	}
	return s, nil
}

func (km *KeyManager) Algorithm() string { return km.algorithm }
func (km *KeyManager) KeySet() *KeySet    { return km.keys }
func (km *KeyManager) IsReady() bool      { return km.NumSigners() > 0 && km.keys.Len() > 0 }

// Sign signs claims with a randomly chosen active key.
func (km *KeyManager) Sign(claims Claims) (string, error) {
	km.mu.RLock()
	n := len(km.signers)
	if n == 0 {
		km.mu.RUnlock()
		return "", errors.New("jwtx: no active signing keys")
	}
	s := km.signers[rand.IntN(n)] // #nosec G404 - load spreading only
	km.mu.RUnlock()

	return s.Sign(claims)
}

func (km *KeyManager) Verify(token string) (*Claims, error) {
	return km.verifier.Verify(token)
}

// AddSigner makes s available for signing and verification.
func (km *KeyManager) AddSigner(s *Signer) error {
	if s == nil {
		return errors.New("jwtx: signer cannot be nil")
	}
	if err := km.keys.Add(s.PublicJWK()); err != nil {
		return fmt.Errorf("jwtx: add key to set: %w", err)
	}
	km.mu.Lock()
	km.signers = append(km.signers, s)
	km.mu.Unlock()
	return nil
}

// RetireSigner stops signing with kid. Its public key stays in the set.
func (km *KeyManager) RetireSigner(kid string) error {
	km.mu.Lock()
	defer km.mu.Unlock()

	for i, s := range km.signers {
		if s.KID() != kid {
			continue
		}
		if len(km.signers) == 1 {
			return ErrLastSigner
		}
		km.signers = append(km.signers[:i:i], km.signers[i+1:]...)
		return nil
	}
	return ErrSignerNotFound
}

func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// ActiveKIDs lists the kids currently used for signing.
func (km *KeyManager) ActiveKIDs() []string {
	km.mu.RLock()
	defer km.mu.RUnlock()
	out := make([]string, len(km.signers))
	for i, s := range km.signers {
		out[i] = s.KID()
	}
	return out
}

// NewKeyID returns a random kid.
func NewKeyID() string {
	tok, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		panic(fmt.Sprintf("jwtx: key id entropy: %v", err))
	}
	return "skygate-" + tok
}
