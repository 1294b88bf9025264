package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
)

// DataKeySize is the AES-256 key length used for per-record data keys.
const DataKeySize = 32

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Sealer encrypts small secrets at rest with AES-256-GCM under a master key.
// Output layout is nonce || ciphertext || tag.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the AES key as SHA-256 of the given material, so any
// length of secret (a file, an env value) is accepted.
func NewSealer(material []byte) (*Sealer, error) {
	sum := sha256.Sum256(material)
	aead, err := newGCM(sum[:])
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// LoadSealer reads the master key from path. With an empty path it falls
// back to AUTH_MASTER_KEY and then to a random key that dies with the
// process, which is only acceptable in development.
func LoadSealer(path string) (*Sealer, bool, error) {
	if path != "" {
		material, err := os.ReadFile(path) // #nosec G304
		if err != nil {
			return nil, false, fmt.Errorf("read master key: %w", err)
		}
		s, err := NewSealer(material)
		return s, true, err
	}
	if env := os.Getenv("AUTH_MASTER_KEY"); env != "" {
		s, err := NewSealer([]byte(env))
		return s, true, err
	}

	material := make([]byte, DataKeySize)
	if _, err := rand.Read(material); err != nil {
		return nil, false, fmt.Errorf("generate ephemeral master key: %w", err)
	}
	s, err := NewSealer(material)
	return s, false, err
}

func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	return seal(s.aead, plaintext)
}

func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	return open(s.aead, sealed)
}

// NewDataKey returns a fresh random AES-256 key.
func NewDataKey() ([]byte, error) {
	key := make([]byte, DataKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate data key: %w", err)
	}
	return key, nil
}

// EncryptWithKey seals plaintext under a raw 32 byte key and returns base64.
func EncryptWithKey(key, plaintext []byte) (string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}
	out, err := seal(aead, plaintext)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptWithKey reverses EncryptWithKey.
func DecryptWithKey(key []byte, encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return open(aead, raw)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return aead, nil
}

func seal(aead cipher.AEAD, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func open(aead cipher.AEAD, sealed []byte) ([]byte, error) {
	n := aead.NonceSize()
	if len(sealed) < n+aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	plaintext, err := aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}
