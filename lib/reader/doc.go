// Package reader implements the read-benchmark side of the tool. Every read
// is a two-tier lookup: the primary version namespace is checked first and the
// secondary namespace only on a primary miss or error; a key absent from both
// is a miss. The tier order is fixed.
//
// Three strategies exercise the same lookup: sequential reads across N
// threads, single-threaded pipelined batches with the primary and secondary
// GET of each id adjacent in one pipeline, and the pipelined variant fanned
// out over contiguous per-thread id slices. All three produce the same Stats
// shape, so runs are directly comparable.
package reader
