package keyring

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrKeyNotFound means the kid is unknown even after refreshing the key set.
	ErrKeyNotFound = errors.New("signing key not found")
	// ErrKeyFetch means the issuer was unreachable or answered non-200.
	ErrKeyFetch = errors.New("failed to fetch signing keys")
)

// jwk is a single entry of the issuer's published key set (RFC 7517, RSA only).
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// KeyRing caches the issuer's signing keys by kid. Keys have no fixed expiry;
// the cache is replaced wholesale when a lookup misses.
type KeyRing struct {
	jwksURL    string
	algorithm  string
	httpClient *http.Client
	logger     zerolog.Logger

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey

	// coalesces concurrent refreshes triggered by simultaneous misses
	refreshGroup singleflight.Group
}

func New(jwksURL string, algorithm string, logger zerolog.Logger) *KeyRing {
	return &KeyRing{
		jwksURL:   jwksURL,
		algorithm: algorithm,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger.With().Str("component", "keyring").Logger(),
		keys:   map[string]*rsa.PublicKey{},
	}
}

// Get returns the public key for kid. A cache miss triggers exactly one
// refresh from the issuer before the lookup fails with ErrKeyNotFound.
func (k *KeyRing) Get(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := k.lookup(kid); ok {
		return key, nil
	}

	_, err, _ := k.refreshGroup.Do("refresh", func() (interface{}, error) {
		return nil, k.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}

	if key, ok := k.lookup(kid); ok {
		return key, nil
	}
	return nil, ErrKeyNotFound
}

func (k *KeyRing) lookup(kid string) (*rsa.PublicKey, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	key, ok := k.keys[kid]
	return key, ok
}

// refresh replaces the whole cache with the issuer's current key set,
// filtered to the expected algorithm. Malformed entries are skipped.
func (k *KeyRing) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyFetch, err)
	}

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		k.logger.Error().Int("status", resp.StatusCode).Msg("issuer rejected key fetch")
		return fmt.Errorf("%w: status=%d body=%s", ErrKeyFetch, resp.StatusCode, body)
	}

	var keySet jwks
	if err := json.NewDecoder(resp.Body).Decode(&keySet); err != nil {
		return fmt.Errorf("%w: %v", ErrKeyFetch, err)
	}

	fresh := make(map[string]*rsa.PublicKey, len(keySet.Keys))
	for _, entry := range keySet.Keys {
		if entry.Alg != k.algorithm {
			continue
		}
		key, err := entry.publicKey()
		if err != nil {
			k.logger.Warn().Str("kid", entry.Kid).Err(err).Msg("skipping malformed key")
			continue
		}
		fresh[entry.Kid] = key
	}

	k.mu.Lock()
	k.keys = fresh
	k.mu.Unlock()

	k.logger.Debug().Int("keys", len(fresh)).Msg("refreshed signing keys")
	return nil
}

func (j jwk) publicKey() (*rsa.PublicKey, error) {
	if j.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", j.Kty)
	}
	if j.Kid == "" {
		return nil, errors.New("missing kid")
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, fmt.Errorf("bad modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, fmt.Errorf("bad exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e == 0 {
		return nil, errors.New("zero exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
