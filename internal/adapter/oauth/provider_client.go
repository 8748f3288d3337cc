package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"go.uber.org/zap"
)

const (
	defaultKeyCacheTTL = time.Hour
	// Minimum spacing between refetches triggered by an unknown kid.
	minRefreshInterval = time.Minute
)

var errKeyNotFound = errors.New("signing key not found")

// KeySource resolves provider signing keys by JWKS URL and key id.
type KeySource interface {
	Key(ctx context.Context, jwksURL, kid string) (any, error)
}

// HTTPKeySource fetches JWKS documents over HTTP and caches them per URL.
type HTTPKeySource struct {
	httpClient *http.Client
	ttl        time.Duration
	now        func() time.Time

	mu    sync.RWMutex
	cache map[string]*cachedKeySet
}

type cachedKeySet struct {
	set       jose.JSONWebKeySet
	fetchedAt time.Time
}

// NewHTTPKeySource constructs the default KeySource.
func NewHTTPKeySource(client *http.Client) *HTTPKeySource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPKeySource{
		httpClient: client,
		ttl:        defaultKeyCacheTTL,
		now:        time.Now,
		cache:      make(map[string]*cachedKeySet),
	}
}

// Key returns the public key for kid, refreshing the cached set when it is stale or lacks kid.
func (s *HTTPKeySource) Key(ctx context.Context, jwksURL, kid string) (any, error) {
	s.mu.RLock()
	cached, ok := s.cache[jwksURL]
	s.mu.RUnlock()

	now := s.now()
	if ok && now.Sub(cached.fetchedAt) < s.ttl {
		if key, found := lookupKey(cached.set, kid); found {
			return key, nil
		}
		if now.Sub(cached.fetchedAt) < minRefreshInterval {
			return nil, fmt.Errorf("kid %q: %w", kid, errKeyNotFound)
		}
	}

	set, err := s.fetch(ctx, jwksURL)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[jwksURL] = &cachedKeySet{set: set, fetchedAt: now}
	s.mu.Unlock()

	zap.L().Debug("jwks refreshed", zap.String("jwks_url", jwksURL), zap.Int("keys", len(set.Keys)))

	key, found := lookupKey(set, kid)
	if !found {
		return nil, fmt.Errorf("kid %q: %w", kid, errKeyNotFound)
	}
	return key, nil
}

func (s *HTTPKeySource) fetch(ctx context.Context, jwksURL string) (jose.JSONWebKeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return jose.JSONWebKeySet{}, fmt.Errorf("build jwks request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return jose.JSONWebKeySet{}, fmt.Errorf("jwks request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return jose.JSONWebKeySet{}, fmt.Errorf("read jwks: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return jose.JSONWebKeySet{}, fmt.Errorf("jwks request failed: status=%d", resp.StatusCode)
	}

	var set jose.JSONWebKeySet
	if err := json.Unmarshal(body, &set); err != nil {
		return jose.JSONWebKeySet{}, fmt.Errorf("decode jwks: %w", err)
	}
	return set, nil
}

func lookupKey(set jose.JSONWebKeySet, kid string) (any, bool) {
	for _, k := range set.Key(kid) {
		if !k.IsPublic() || (k.Use != "" && k.Use != "sig") {
			continue
		}
		return k.Key, true
	}
	return nil, false
}
