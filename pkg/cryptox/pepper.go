package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

var (
	pepperMu   sync.RWMutex
	pepper     string
	pepperPath string
)

// SetPepperPath configures the file LoadPepper reads from. A missing file is
// created with a fresh random pepper.
func SetPepperPath(path string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()
	pepperPath = path
	pepper = ""
}

// LoadPepper reads (or creates) the pepper file eagerly so a bad path fails
// at startup rather than on the first login.
func LoadPepper() error {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	p, err := loadOrCreatePepper(pepperPath)
	if err != nil {
		return err
	}
	pepper = p
	return nil
}

// Pepper returns the loaded pepper, loading it lazily if needed. An
// unconfigured path yields an empty pepper.
func Pepper() string {
	pepperMu.RLock()
	p, path := pepper, pepperPath
	pepperMu.RUnlock()

	if p != "" || path == "" {
		return p
	}
	if err := LoadPepper(); err != nil {
		panic(fmt.Sprintf("cryptox: pepper unavailable: %v", err))
	}

	pepperMu.RLock()
	defer pepperMu.RUnlock()
	return pepper
}

func loadOrCreatePepper(path string) (string, error) {
	if path == "" {
		return "", errors.New("pepper path not configured")
	}
	path = filepath.Clean(path)

	data, err := os.ReadFile(path)
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read pepper: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("create pepper dir: %w", err)
	}
	raw := make([]byte, keyLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	p := base64.RawURLEncoding.EncodeToString(raw)
	if err := os.WriteFile(path, []byte(p), 0o600); err != nil {
		return "", fmt.Errorf("write pepper: %w", err)
	}
	return p, nil
}
