package storetest

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/locationflex/lfbench/lib/store"
)

// Factory creates a fresh, empty IStore for one test.
type Factory func() store.IStore

// RunStoreTests runs the conformance suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("GetAbsent", func(t *testing.T) {
			testGetAbsent(t, factory())
		})

		t.Run("PipelineOrdering", func(t *testing.T) {
			testPipelineOrdering(t, factory())
		})

		t.Run("PipelineMixed", func(t *testing.T) {
			testPipelineMixed(t, factory())
		})

		t.Run("KeysPattern", func(t *testing.T) {
			testKeysPattern(t, factory())
		})

		t.Run("TTL", func(t *testing.T) {
			testTTL(t, factory())
		})

		t.Run("FlushAll", func(t *testing.T) {
			testFlushAll(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IStore) {
	defer s.Close()
	ctx := context.Background()

	key := "suite:set-get"
	value := []byte("suite-value")

	if err := s.SetTTL(ctx, key, value, time.Hour); err != nil {
		t.Fatalf("Unexpected error during SetTTL: %v", err)
	}

	result, found, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Unexpected error during Get: %v", err)
	}
	if !found {
		t.Errorf("Expected key %s to exist after SetTTL", key)
	}
	if !bytes.Equal(result, value) {
		t.Errorf("Expected value %s, got %s", value, result)
	}
}

func testGetAbsent(t *testing.T, s store.IStore) {
	defer s.Close()

	_, found, err := s.Get(context.Background(), "suite:nonexistent")
	if err != nil {
		t.Fatalf("Unexpected error during Get: %v", err)
	}
	if found {
		t.Errorf("Expected absent key to return found=false")
	}
}

func testPipelineOrdering(t *testing.T, s store.IStore) {
	defer s.Close()
	ctx := context.Background()

	numKeys := 20
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("suite:order-%d", i)
		if err := s.SetTTL(ctx, key, []byte(fmt.Sprintf("value-%d", i)), time.Hour); err != nil {
			t.Fatalf("Unexpected error during SetTTL: %v", err)
		}
	}

	ops := make([]store.Op, numKeys)
	for i := 0; i < numKeys; i++ {
		ops[i] = store.GetOp(fmt.Sprintf("suite:order-%d", i))
	}

	results, err := s.Pipeline(ctx, ops)
	if err != nil {
		t.Fatalf("Unexpected error during Pipeline: %v", err)
	}
	if len(results) != numKeys {
		t.Fatalf("Expected %d results, got %d", numKeys, len(results))
	}

	for i, result := range results {
		expected := []byte(fmt.Sprintf("value-%d", i))
		if !result.Found {
			t.Errorf("Expected result %d to be found", i)
			continue
		}
		if !bytes.Equal(result.Value, expected) {
			t.Errorf("Result %d out of order: expected %s, got %s", i, expected, result.Value)
		}
	}
}

func testPipelineMixed(t *testing.T, s store.IStore) {
	defer s.Close()
	ctx := context.Background()

	// Writes followed by reads of the same keys plus a read of an absent
	// key, all in one batch.
	ops := []store.Op{
		store.SetTTLOp("suite:mixed-0", []byte("a"), time.Hour),
		store.SetTTLOp("suite:mixed-1", []byte("b"), time.Hour),
		store.GetOp("suite:mixed-0"),
		store.GetOp("suite:mixed-1"),
		store.GetOp("suite:mixed-absent"),
	}

	results, err := s.Pipeline(ctx, ops)
	if err != nil {
		t.Fatalf("Unexpected error during Pipeline: %v", err)
	}

	if !results[0].Found || !results[1].Found {
		t.Errorf("Expected pipelined writes to succeed")
	}
	if !results[2].Found || !bytes.Equal(results[2].Value, []byte("a")) {
		t.Errorf("Expected suite:mixed-0 to read back 'a', got %q (found=%v)", results[2].Value, results[2].Found)
	}
	if !results[3].Found || !bytes.Equal(results[3].Value, []byte("b")) {
		t.Errorf("Expected suite:mixed-1 to read back 'b', got %q (found=%v)", results[3].Value, results[3].Found)
	}
	if results[4].Found {
		t.Errorf("Expected absent key to report found=false in pipeline")
	}
}

func testKeysPattern(t *testing.T, s store.IStore) {
	defer s.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.SetTTL(ctx, fmt.Sprintf("suite:pat:v1:%d", i), []byte("x"), time.Hour); err != nil {
			t.Fatalf("Unexpected error during SetTTL: %v", err)
		}
	}
	if err := s.SetTTL(ctx, "suite:pat:v2:0", []byte("x"), time.Hour); err != nil {
		t.Fatalf("Unexpected error during SetTTL: %v", err)
	}

	keys, err := s.Keys(ctx, "suite:pat:v1:*")
	if err != nil {
		t.Fatalf("Unexpected error during Keys: %v", err)
	}
	if len(keys) != 5 {
		t.Errorf("Expected 5 keys matching pattern, got %d", len(keys))
	}
}

func testTTL(t *testing.T, s store.IStore) {
	defer s.Close()
	ctx := context.Background()

	key := "suite:ttl"
	if err := s.SetTTL(ctx, key, []byte("x"), time.Hour); err != nil {
		t.Fatalf("Unexpected error during SetTTL: %v", err)
	}

	ttl, found, err := s.TTL(ctx, key)
	if err != nil {
		t.Fatalf("Unexpected error during TTL: %v", err)
	}
	if !found {
		t.Errorf("Expected TTL to report key as found")
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("Expected TTL in (0, 1h], got %v", ttl)
	}

	_, found, err = s.TTL(ctx, "suite:ttl-absent")
	if err != nil {
		t.Fatalf("Unexpected error during TTL: %v", err)
	}
	if found {
		t.Errorf("Expected TTL on absent key to report found=false")
	}
}

func testFlushAll(t *testing.T, s store.IStore) {
	defer s.Close()
	ctx := context.Background()

	if err := s.SetTTL(ctx, "suite:flush", []byte("x"), time.Hour); err != nil {
		t.Fatalf("Unexpected error during SetTTL: %v", err)
	}
	if err := s.FlushAll(ctx); err != nil {
		t.Fatalf("Unexpected error during FlushAll: %v", err)
	}

	_, found, err := s.Get(ctx, "suite:flush")
	if err != nil {
		t.Fatalf("Unexpected error during Get: %v", err)
	}
	if found {
		t.Errorf("Expected key to be gone after FlushAll")
	}
}
