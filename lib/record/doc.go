// Package record generates the synthetic geolocation payloads written to the
// store and defines the versioned key format used throughout the tool.
//
// Payloads are a load-test fixture, not authoritative data: the generator
// derives every field deterministically from the record id, and ids cycle
// through a fixed-size sample set so many keys intentionally share content.
// The same id always yields a byte-identical payload, which lets read
// benchmarks verify what they get back without carrying the written data
// around.
package record
