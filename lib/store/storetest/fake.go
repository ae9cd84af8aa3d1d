package storetest

import (
	"context"
	"errors"
	"path"
	"sync"
	"time"

	"github.com/locationflex/lfbench/lib/store"
)

// ErrInjected is returned by the fake for injected failures.
var ErrInjected = errors.New("storetest: injected failure")

// FakeStore is an in-memory IStore with failure injection.
//
// Thread-safe: all methods may be called concurrently.
type FakeStore struct {
	mu   sync.Mutex
	data map[string]entry

	// FailPipelines makes the next N Pipeline calls fail as a whole batch.
	FailPipelines int
	// FailKeys holds keys whose individual writes (SetTTL or pipelined
	// set) fail.
	FailKeys map[string]bool

	pipelineCalls int
	setCalls      int
	getCalls      int
}

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// NewFakeStore creates an empty fake store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		data:     make(map[string]entry),
		FailKeys: make(map[string]bool),
	}
}

// PipelineCalls returns how many Pipeline batches were issued.
func (f *FakeStore) PipelineCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pipelineCalls
}

// SetCalls returns how many individual SetTTL calls were issued.
func (f *FakeStore) SetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

// GetCalls returns how many individual Get calls were issued.
func (f *FakeStore) GetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

// Len returns the number of live keys.
func (f *FakeStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.data {
		if e.live() {
			n++
		}
	}
	return n
}

func (e entry) live() bool {
	return e.expiresAt.IsZero() || time.Now().Before(e.expiresAt)
}

// --------------------------------------------------------------------------
// IStore implementation
// --------------------------------------------------------------------------

func (f *FakeStore) Ping(_ context.Context) error {
	return nil
}

func (f *FakeStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	return f.getLocked(key)
}

func (f *FakeStore) getLocked(key string) ([]byte, bool, error) {
	e, ok := f.data[key]
	if !ok || !e.live() {
		return nil, false, nil
	}
	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, true, nil
}

func (f *FakeStore) SetTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	return f.setLocked(key, value, ttl)
}

func (f *FakeStore) setLocked(key string, value []byte, ttl time.Duration) error {
	if f.FailKeys[key] {
		return ErrInjected
	}
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	f.data[key] = e
	return nil
}

func (f *FakeStore) Pipeline(_ context.Context, ops []store.Op) ([]store.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pipelineCalls++

	if f.FailPipelines > 0 {
		f.FailPipelines--
		return nil, ErrInjected
	}

	results := make([]store.Result, len(ops))
	for i, op := range ops {
		switch op.Kind {
		case store.OpGet:
			value, found, _ := f.getLocked(op.Key)
			results[i] = store.Result{Value: value, Found: found}
		case store.OpSetTTL:
			if err := f.setLocked(op.Key, op.Value, op.TTL); err != nil {
				results[i] = store.Result{Err: err}
			} else {
				results[i] = store.Result{Found: true}
			}
		}
	}
	return results, nil
}

func (f *FakeStore) Keys(_ context.Context, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for k, e := range f.data {
		if !e.live() {
			continue
		}
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *FakeStore) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.data[key]
	if !ok || !e.live() {
		return 0, false, nil
	}
	if e.expiresAt.IsZero() {
		return 0, true, nil
	}
	return time.Until(e.expiresAt), true, nil
}

func (f *FakeStore) FlushAll(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = make(map[string]entry)
	return nil
}

func (f *FakeStore) Close() error {
	return nil
}
