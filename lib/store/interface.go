package store

import (
	"context"
	"time"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the generic interface for the remote key-value store consumed by
// the load and benchmark engines. All calls block on the issuing goroutine
// until the store responds or the context is done.
type IStore interface {
	// Ping tests the connection to the store.
	Ping(ctx context.Context) error
	// Get returns the value for a key. The boolean return value indicates
	// whether the key was found; an absent key is not an error.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// SetTTL inserts or updates a key-value pair with the given time to live.
	SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Pipeline issues all operations as one non-transactional batched
	// request. The result slice aligns index by index with ops; individual
	// operations may fail independently (Result.Err). A non-nil error return
	// means the batch as a whole failed and the results are unusable.
	Pipeline(ctx context.Context, ops []Op) ([]Result, error)
	// Keys returns all keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// TTL returns the remaining time to live for a key. It returns found
	// false if the key does not exist and a zero duration if the key has no
	// expiry.
	TTL(ctx context.Context, key string) (ttl time.Duration, found bool, err error)
	// FlushAll removes every key from the store.
	FlushAll(ctx context.Context) error
	// Close releases the underlying connections.
	Close() error
}

// --------------------------------------------------------------------------
// Pipeline Types
// --------------------------------------------------------------------------

// OpKind discriminates pipeline operations.
type OpKind uint8

const (
	// OpGet reads a key.
	OpGet OpKind = iota
	// OpSetTTL writes a key with a time to live.
	OpSetTTL
)

// Op is one operation inside a pipelined batch.
type Op struct {
	Kind  OpKind
	Key   string
	Value []byte        // OpSetTTL only
	TTL   time.Duration // OpSetTTL only
}

// GetOp builds a pipeline read for key.
func GetOp(key string) Op {
	return Op{Kind: OpGet, Key: key}
}

// SetTTLOp builds a pipeline write for key.
func SetTTLOp(key string, value []byte, ttl time.Duration) Op {
	return Op{Kind: OpSetTTL, Key: key, Value: value, TTL: ttl}
}

// Result is the outcome of one pipeline operation. For OpGet, Found reports
// whether the key existed and Value carries its content. For OpSetTTL, Found
// is true on success. Err is set when this single operation failed even
// though the batch as a whole went through.
type Result struct {
	Value []byte
	Found bool
	Err   error
}
