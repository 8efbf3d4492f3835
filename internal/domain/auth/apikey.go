// Package auth resolves API keys presented to the insights API.
//
// Keys are never stored in clear: the configuration holds the hex-encoded
// HMAC-SHA256 of each key under a shared pepper.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// ErrUnknownKey is returned when no key matches a hash.
var ErrUnknownKey = errors.New("unknown api key")

// APIKeyInfo holds the identity of a validated API key.
type APIKeyInfo struct {
	Name    string
	KeyHash string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// Hash returns the hex-encoded HMAC-SHA256 of key under pepper.
func Hash(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// Keys is a Repository over a fixed set of hashes.
type Keys struct {
	byHash map[string]*APIKeyInfo
}

var _ Repository = (*Keys)(nil)

// NewKeys parses entries of the form "name:hash" or a bare "hash". Unnamed
// keys are called key-1, key-2 and so on, in order.
func NewKeys(entries []string) (*Keys, error) {
	k := &Keys{byHash: make(map[string]*APIKeyInfo, len(entries))}
	for i, entry := range entries {
		name, hash, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok {
			name, hash = "key-"+strconv.Itoa(i+1), name
		}
		name, hash = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(hash))
		raw, err := hex.DecodeString(hash)
		if err != nil || len(raw) != sha256.Size {
			return nil, errors.Errorf("api key %q: hash must be %d hex bytes", name, sha256.Size)
		}
		if _, dup := k.byHash[hash]; dup {
			return nil, errors.Errorf("api key %q: duplicate hash", name)
		}
		k.byHash[hash] = &APIKeyInfo{Name: name, KeyHash: hash}
	}
	return k, nil
}

// Len returns the number of configured keys.
func (k *Keys) Len() int {
	return len(k.byHash)
}

// FindByHash implements Repository.
func (k *Keys) FindByHash(_ context.Context, hash string) (*APIKeyInfo, error) {
	info, ok := k.byHash[strings.ToLower(hash)]
	if !ok {
		return nil, ErrUnknownKey
	}
	return info, nil
}
