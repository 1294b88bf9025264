package jwtx

import (
	"errors"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

type keyEntry struct {
	jwk JWK
	pub any
}

// KeySet holds the public keys tokens are verified against. It is safe for
// concurrent use; rotation mutates it while requests read it.
type KeySet struct {
	mu   sync.RWMutex
	keys map[string]keyEntry
	kids []string // insertion order for stable JWKS output
}

func NewKeySet() *KeySet {
	return &KeySet{keys: make(map[string]keyEntry)}
}

// Add registers a JWK. Re-adding a kid replaces it.
func (k *KeySet) Add(j JWK) error {
	pub, err := j.PublicKey()
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.keys[j.Kid]; !ok {
		k.kids = append(k.kids, j.Kid)
	}
	k.keys[j.Kid] = keyEntry{jwk: j, pub: pub}
	return nil
}

// Remove drops a kid so tokens signed with it stop verifying.
func (k *KeySet) Remove(kid string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.keys[kid]; !ok {
		return
	}
	delete(k.keys, kid)
	for i, id := range k.kids {
		if id == kid {
			k.kids = append(k.kids[:i], k.kids[i+1:]...)
			break
		}
	}
}

// Lookup returns the public key and algorithm registered under kid.
func (k *KeySet) Lookup(kid string) (any, string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	e, ok := k.keys[kid]
	if !ok {
		return nil, "", ErrNoKey
	}
	return e.pub, e.jwk.Alg, nil
}

// JWKS is a snapshot suitable for serving at /.well-known/jwks.json.
func (k *KeySet) JWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := JWKS{Keys: make([]JWK, 0, len(k.kids))}
	for _, kid := range k.kids {
		out.Keys = append(out.Keys, k.keys[kid].jwk)
	}
	return out
}

func (k *KeySet) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys)
}

// Reset replaces the whole set, e.g. with a JWKS fetched from the auth
// service by a resource server.
func (k *KeySet) Reset(jwks JWKS) error {
	keys := make(map[string]keyEntry, len(jwks.Keys))
	kids := make([]string, 0, len(jwks.Keys))
	for _, j := range jwks.Keys {
		pub, err := j.PublicKey()
		if err != nil {
			return err
		}
		if _, dup := keys[j.Kid]; !dup {
			kids = append(kids, j.Kid)
		}
		keys[j.Kid] = keyEntry{jwk: j, pub: pub}
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys, k.kids = keys, kids
	return nil
}
