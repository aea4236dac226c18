package token

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// defaultTTLField is the token response field that carries the TTL.
	defaultTTLField = "expires_in"
	// defaultTTLSeconds is assumed when the vendor reports no TTL.
	defaultTTLSeconds = 3600
	// ttlSafetyMargin is subtracted so a token is never served right as it expires.
	ttlSafetyMargin = 10
	// minTTLSeconds floors the cache TTL to avoid degenerate values.
	minTTLSeconds = 10
	// lockLease bounds how long a crashed lock holder can block a vendor.
	lockLease = 15 * time.Second
	// lockWaitInterval is the poll interval while another process refreshes.
	lockWaitInterval = 300 * time.Millisecond
	// lockWaitAttempts bounds the poll loop.
	lockWaitAttempts = 10
)

// FetchFunc performs one upstream credential fetch and returns the raw token
// object. The manager reads "access_token" and the configured TTL field from it.
type FetchFunc func(ctx context.Context) (map[string]any, error)

// Options tunes a GetToken call.
type Options struct {
	// TTLField names the fetch-result field carrying the TTL in seconds.
	// Defaults to "expires_in".
	TTLField string
}

// memoryEntry is an in-process cached credential with a wall-clock expiry.
type memoryEntry struct {
	accessToken string
	expiry      time.Time
}

// inflight tracks one pending in-process fetch so concurrent callers for the
// same vendor share its outcome instead of issuing their own request.
type inflight struct {
	done  chan struct{}
	token string
	err   error
}

// Manager caches vendor credentials with single-flight refresh. It prefers a
// distributed cache/lock backend and degrades to a purely in-process cache
// whenever the backend is unavailable. Construct one per process and share it
// across adapters.
type Manager struct {
	cache Cache

	mu     sync.Mutex
	memory map[string]memoryEntry
	locks  map[string]*inflight
}

// NewManager constructs a Manager. cache may be nil, in which case only the
// in-process path is used.
func NewManager(cache Cache) *Manager {
	return &Manager{
		cache:  cache,
		memory: make(map[string]memoryEntry),
		locks:  make(map[string]*inflight),
	}
}

// GetToken returns a valid bearer token for the vendor, fetching at most once
// per refresh cycle regardless of how many callers arrive concurrently.
func (m *Manager) GetToken(ctx context.Context, vendorID string, fetch FetchFunc, opts Options) (string, error) {
	if m == nil {
		return "", errors.New("token: manager not initialized")
	}
	if strings.TrimSpace(vendorID) == "" {
		return "", errors.New("token: vendor id is required")
	}
	if fetch == nil {
		return "", errors.New("token: fetch func is required")
	}

	key := "vendor:" + vendorID + ":token"
	lockKey := "lock:vendor:" + vendorID + ":token"
	ttlField := strings.TrimSpace(opts.TTLField)
	if ttlField == "" {
		ttlField = defaultTTLField
	}

	useRedis := m.cache != nil && m.cache.Ready(ctx)

	if useRedis {
		cached, errGet := m.cache.Get(ctx, key)
		if errGet == nil {
			if tok := accessTokenFromJSON(cached); tok != "" {
				return tok, nil
			}
		} else if !errors.Is(errGet, ErrCacheMiss) {
			log.WithError(errGet).Warn("token: cache get failed")
		}
	} else if tok, ok := m.memoryToken(key); ok {
		return tok, nil
	}

	if useRedis {
		if tok, ok := m.refreshDistributed(ctx, vendorID, key, lockKey, ttlField, fetch); ok {
			return tok, nil
		}
		// Backend errors on this path are never fatal; fall through to the
		// in-process refresh below.
	}

	return m.refreshInProcess(ctx, vendorID, key, ttlField, fetch, useRedis)
}

// refreshDistributed runs the lock-based refresh protocol against the
// distributed backend. The second return value is false when the caller must
// fall back to the in-process path.
func (m *Manager) refreshDistributed(ctx context.Context, vendorID, key, lockKey, ttlField string, fetch FetchFunc) (string, bool) {
	acquired, errLock := m.cache.SetNX(ctx, lockKey, "1", lockLease)
	if errLock != nil {
		log.WithError(errLock).WithField("vendor", vendorID).Warn("token: lock acquire failed")
		return "", false
	}

	if acquired {
		defer func() {
			if errDel := m.cache.Del(ctx, lockKey); errDel != nil {
				log.WithError(errDel).WithField("vendor", vendorID).Warn("token: lock release failed")
			}
		}()

		log.WithField("vendor", vendorID).Debug("token: fetching credential")
		raw, errFetch := fetch(ctx)
		if errFetch != nil {
			log.WithError(errFetch).WithField("vendor", vendorID).Warn("token: credential fetch failed")
			return "", false
		}
		tok := accessTokenFromMap(raw)
		if tok == "" {
			log.WithField("vendor", vendorID).Warn("token: fetch result carries no access token")
			return "", false
		}

		ttl := computeTTL(ttlSecondsFromMap(raw, ttlField))
		payload, errMarshal := json.Marshal(raw)
		if errMarshal != nil {
			log.WithError(errMarshal).WithField("vendor", vendorID).Warn("token: encode credential failed")
			return "", false
		}
		if errSet := m.cache.SetEX(ctx, key, string(payload), ttl); errSet != nil {
			log.WithError(errSet).WithField("vendor", vendorID).Warn("token: cache set failed")
			return "", false
		}
		log.WithField("vendor", vendorID).Debug("token: credential cached")
		return tok, true
	}

	// Another process holds the lock; wait for it to populate the cache.
	for i := 0; i < lockWaitAttempts; i++ {
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(lockWaitInterval):
		}
		cached, errGet := m.cache.Get(ctx, key)
		if errGet != nil {
			if errors.Is(errGet, ErrCacheMiss) {
				continue
			}
			log.WithError(errGet).WithField("vendor", vendorID).Warn("token: lock wait get failed")
			return "", false
		}
		if tok := accessTokenFromJSON(cached); tok != "" {
			return tok, true
		}
	}
	return "", false
}

// refreshInProcess fetches under an in-flight handle so only one in-process
// caller performs the network call per refresh cycle.
func (m *Manager) refreshInProcess(ctx context.Context, vendorID, key, ttlField string, fetch FetchFunc, mirrorToCache bool) (string, error) {
	for {
		m.mu.Lock()
		if pending, ok := m.locks[vendorID]; ok {
			m.mu.Unlock()
			select {
			case <-pending.done:
			case <-ctx.Done():
				return "", ctx.Err()
			}
			if pending.err != nil {
				return "", pending.err
			}
			if tok, okMem := m.memoryToken(key); okMem {
				return tok, nil
			}
			// Cached result already expired; retry as the fetching caller.
			continue
		}

		pending := &inflight{done: make(chan struct{})}
		m.locks[vendorID] = pending
		m.mu.Unlock()

		tok, errFetch := m.fetchAndStore(ctx, vendorID, key, ttlField, fetch, mirrorToCache)

		pending.token, pending.err = tok, errFetch
		m.mu.Lock()
		delete(m.locks, vendorID)
		m.mu.Unlock()
		close(pending.done)

		return tok, errFetch
	}
}

// fetchAndStore performs the upstream fetch and populates the memory cache,
// best-effort mirroring the record into the distributed cache.
func (m *Manager) fetchAndStore(ctx context.Context, vendorID, key, ttlField string, fetch FetchFunc, mirrorToCache bool) (string, error) {
	log.WithField("vendor", vendorID).Debug("token: fetching credential (in-process)")
	raw, errFetch := fetch(ctx)
	if errFetch != nil {
		log.WithError(errFetch).WithField("vendor", vendorID).Warn("token: credential fetch failed")
		return "", errFetch
	}
	tok := accessTokenFromMap(raw)
	if tok == "" {
		return "", errors.New("token: fetch result carries no access token")
	}

	ttl := computeTTL(ttlSecondsFromMap(raw, ttlField))
	m.mu.Lock()
	m.memory[key] = memoryEntry{
		accessToken: tok,
		expiry:      time.Now().Add(time.Duration(ttl) * time.Second),
	}
	m.mu.Unlock()

	if mirrorToCache && m.cache != nil {
		if payload, errMarshal := json.Marshal(raw); errMarshal == nil {
			if errSet := m.cache.SetEX(ctx, key, string(payload), ttl); errSet != nil {
				log.WithError(errSet).WithField("vendor", vendorID).Warn("token: cache mirror failed")
			}
		}
	}

	log.WithField("vendor", vendorID).Debug("token: credential cached (in-process)")
	return tok, nil
}

// memoryToken returns a still-valid token from the in-process cache.
func (m *Manager) memoryToken(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.memory[key]
	if !ok || !entry.expiry.After(time.Now()) {
		return "", false
	}
	return entry.accessToken, true
}

// computeTTL applies the safety margin and floor to a vendor-reported TTL.
func computeTTL(reported int64) int64 {
	ttl := reported - ttlSafetyMargin
	if ttl < minTTLSeconds {
		return minTTLSeconds
	}
	return ttl
}

// ttlSecondsFromMap reads the TTL field from a raw token object, defaulting
// when the field is absent or non-numeric.
func ttlSecondsFromMap(raw map[string]any, ttlField string) int64 {
	value, ok := raw[ttlField]
	if !ok {
		return defaultTTLSeconds
	}
	switch typed := value.(type) {
	case float64:
		return int64(typed)
	case int:
		return int64(typed)
	case int64:
		return typed
	case json.Number:
		parsed, errParse := typed.Int64()
		if errParse != nil {
			return defaultTTLSeconds
		}
		return parsed
	case string:
		parsed, errParse := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if errParse != nil {
			return defaultTTLSeconds
		}
		return parsed
	default:
		return defaultTTLSeconds
	}
}

// accessTokenFromMap extracts the bearer token from a raw token object.
func accessTokenFromMap(raw map[string]any) string {
	tok, _ := raw["access_token"].(string)
	return strings.TrimSpace(tok)
}

// accessTokenFromJSON extracts the bearer token from a serialized token record.
func accessTokenFromJSON(payload string) string {
	var raw map[string]any
	if errUnmarshal := json.Unmarshal([]byte(payload), &raw); errUnmarshal != nil {
		return ""
	}
	return accessTokenFromMap(raw)
}
