// Package store defines the boundary to the remote key-value store and its
// Redis-backed implementation.
//
// The package focuses on:
//   - A unified interface (IStore) covering the primitives the load and
//     benchmark engines need: GET, SET with TTL, non-transactional pipelined
//     batches, PING and a few admin operations
//   - An ordered pipeline contract: a batch is a slice of operations, and the
//     result slice aligns with it index by index with no atomicity guarantee
//     across operations (Redis Cluster compatible)
//
// The writer and reader packages only ever see IStore, which keeps them
// testable against the in-memory fake in store/storetest.
package store
