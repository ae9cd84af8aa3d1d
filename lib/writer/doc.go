// Package writer implements the bulk-import side of the tool: a cursor-bound
// batch writer that feeds synthetic records into the store over
// non-transactional pipelines, and an orchestrator that partitions the
// key-space across parallel writers and merges their reports.
//
// Failure policy: a pipelined batch that fails as a whole is retried exactly
// once as individual writes; a key that also fails individually is counted as
// not written and never retried. There is no backoff or retry budget beyond
// that single fallback pass, because throughput benchmarking assumes a
// healthy store.
//
// Cancellation is cooperative: workers poll their context at every batch
// boundary, so an in-flight pipeline call is never aborted, only the next one
// is skipped. Partial counters are always reported.
package writer
