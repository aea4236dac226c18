package token

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeCache is an in-memory Cache with switchable readiness.
type fakeCache struct {
	mu      sync.Mutex
	ready   bool
	values  map[string]string
	ttls    map[string]int64
	failAll bool
}

func newFakeCache(ready bool) *fakeCache {
	return &fakeCache{
		ready:  ready,
		values: make(map[string]string),
		ttls:   make(map[string]int64),
	}
}

func (f *fakeCache) Ready(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return "", errors.New("backend down")
	}
	val, ok := f.values[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return val, nil
}

func (f *fakeCache) SetEX(_ context.Context, key, value string, ttlSeconds int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("backend down")
	}
	f.values[key] = value
	f.ttls[key] = ttlSeconds
	return nil
}

func (f *fakeCache) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return false, errors.New("backend down")
	}
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value
	return true, nil
}

func (f *fakeCache) Del(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	delete(f.ttls, key)
	return nil
}

func (f *fakeCache) set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}

func (f *fakeCache) ttl(key string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttls[key]
}

func tokenFetch(counter *atomic.Int64, token string, ttl any) FetchFunc {
	return func(context.Context) (map[string]any, error) {
		counter.Add(1)
		raw := map[string]any{"access_token": token}
		if ttl != nil {
			raw["expires_in"] = ttl
		}
		return raw, nil
	}
}

func TestComputeTTLFloor(t *testing.T) {
	cases := map[int64]int64{
		0:    10,
		5:    10,
		9:    10,
		10:   10,
		50:   40,
		3600: 3590,
	}
	for reported, want := range cases {
		if got := computeTTL(reported); got != want {
			t.Fatalf("computeTTL(%d) = %d, want %d", reported, got, want)
		}
	}
}

func TestGetTokenSingleFlightInProcess(t *testing.T) {
	m := NewManager(nil)

	var calls atomic.Int64
	release := make(chan struct{})
	fetch := func(context.Context) (map[string]any, error) {
		calls.Add(1)
		<-release
		return map[string]any{"access_token": "tok-1", "expires_in": float64(3600)}, nil
	}

	const n = 8
	results := make([]string, n)
	errs := make([]error, n)
	var started, finished sync.WaitGroup
	started.Add(n)
	finished.Add(n)
	for i := 0; i < n; i++ {
		go func(idx int) {
			defer finished.Done()
			started.Done()
			results[idx], errs[idx] = m.GetToken(context.Background(), "v1", fetch, Options{})
		}(i)
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	finished.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 fetch, got %d", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if results[i] != "tok-1" {
			t.Fatalf("caller %d got token %q, want tok-1", i, results[i])
		}
	}
}

func TestGetTokenServesMemoryCacheWhenBackendUnavailable(t *testing.T) {
	m := NewManager(newFakeCache(false))

	var calls atomic.Int64
	tok, errGet := m.GetToken(context.Background(), "v1", tokenFetch(&calls, "tok-mem", float64(3600)), Options{})
	if errGet != nil {
		t.Fatalf("first call failed: %v", errGet)
	}
	if tok != "tok-mem" {
		t.Fatalf("expected tok-mem, got %q", tok)
	}

	tok, errGet = m.GetToken(context.Background(), "v1", tokenFetch(&calls, "tok-other", float64(3600)), Options{})
	if errGet != nil {
		t.Fatalf("second call failed: %v", errGet)
	}
	if tok != "tok-mem" {
		t.Fatalf("expected cached tok-mem, got %q", tok)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 fetch total, got %d", got)
	}
}

func TestGetTokenDistributedCachesWithComputedTTL(t *testing.T) {
	cache := newFakeCache(true)
	m := NewManager(cache)

	var calls atomic.Int64
	tok, errGet := m.GetToken(context.Background(), "v1", tokenFetch(&calls, "tok-dist", float64(3600)), Options{})
	if errGet != nil {
		t.Fatalf("get token: %v", errGet)
	}
	if tok != "tok-dist" {
		t.Fatalf("expected tok-dist, got %q", tok)
	}
	if got := cache.ttl("vendor:v1:token"); got != 3590 {
		t.Fatalf("expected cache TTL 3590, got %d", got)
	}

	// Fast path: second call reads the cache, no fetch.
	tok, errGet = m.GetToken(context.Background(), "v1", tokenFetch(&calls, "tok-new", float64(3600)), Options{})
	if errGet != nil {
		t.Fatalf("cached get token: %v", errGet)
	}
	if tok != "tok-dist" || calls.Load() != 1 {
		t.Fatalf("expected cached tok-dist with 1 fetch, got %q after %d fetches", tok, calls.Load())
	}

	// The refresh lock must have been released.
	if _, err := cache.Get(context.Background(), "lock:vendor:v1:token"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected lock released, got err=%v", err)
	}
}

func TestGetTokenWaitsForLockHolder(t *testing.T) {
	cache := newFakeCache(true)
	// Simulate another process holding the refresh lock.
	cache.set("lock:vendor:v1:token", "1")

	m := NewManager(cache)
	var calls atomic.Int64

	go func() {
		time.Sleep(100 * time.Millisecond)
		payload, _ := json.Marshal(map[string]any{"access_token": "tok-peer", "expires_in": 3600})
		cache.set("vendor:v1:token", string(payload))
	}()

	tok, errGet := m.GetToken(context.Background(), "v1", tokenFetch(&calls, "tok-self", float64(3600)), Options{})
	if errGet != nil {
		t.Fatalf("get token: %v", errGet)
	}
	if tok != "tok-peer" {
		t.Fatalf("expected tok-peer from lock holder, got %q", tok)
	}
	if got := calls.Load(); got != 0 {
		t.Fatalf("expected no local fetch, got %d", got)
	}
}

func TestGetTokenBackendErrorsFallBackToInProcess(t *testing.T) {
	cache := newFakeCache(true)
	cache.failAll = true

	m := NewManager(cache)
	var calls atomic.Int64
	tok, errGet := m.GetToken(context.Background(), "v1", tokenFetch(&calls, "tok-fallback", float64(3600)), Options{})
	if errGet != nil {
		t.Fatalf("expected fallback success, got %v", errGet)
	}
	if tok != "tok-fallback" {
		t.Fatalf("expected tok-fallback, got %q", tok)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 fetch, got %d", got)
	}
}

func TestGetTokenFetchErrorPropagates(t *testing.T) {
	m := NewManager(nil)

	wantErr := errors.New("upstream rejected credentials")
	_, errGet := m.GetToken(context.Background(), "v1", func(context.Context) (map[string]any, error) {
		return nil, wantErr
	}, Options{})
	if !errors.Is(errGet, wantErr) {
		t.Fatalf("expected fetch error to propagate, got %v", errGet)
	}

	// A failed fetch must not leave the vendor locked in-process.
	var calls atomic.Int64
	tok, errGet := m.GetToken(context.Background(), "v1", tokenFetch(&calls, "tok-after-error", float64(3600)), Options{})
	if errGet != nil {
		t.Fatalf("expected recovery after failed fetch, got %v", errGet)
	}
	if tok != "tok-after-error" {
		t.Fatalf("expected tok-after-error, got %q", tok)
	}
}

func TestGetTokenCustomTTLField(t *testing.T) {
	cache := newFakeCache(true)
	m := NewManager(cache)

	fetch := func(context.Context) (map[string]any, error) {
		return map[string]any{"access_token": "tok-ttl", "ttl": float64(86400)}, nil
	}
	tok, errGet := m.GetToken(context.Background(), "v1", fetch, Options{TTLField: "ttl"})
	if errGet != nil {
		t.Fatalf("get token: %v", errGet)
	}
	if tok != "tok-ttl" {
		t.Fatalf("expected tok-ttl, got %q", tok)
	}
	if got := cache.ttl("vendor:v1:token"); got != 86390 {
		t.Fatalf("expected cache TTL 86390, got %d", got)
	}
}
