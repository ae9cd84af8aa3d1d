package record

import (
	"fmt"
	"math/rand"
)

// KeyPrefix is the fixed first segment of every store key.
const KeyPrefix = "ip"

// Key builds the store key for a record id under a version namespace.
// The format is "<prefix>:<version>:<id>", e.g. "ip:v23:104729".
// The same id under two versions is deliberately a distinct key; the
// reader relies on this for primary/secondary fallback.
func Key(version string, id int) string {
	return fmt.Sprintf("%s:%s:%d", KeyPrefix, version, id)
}

// VersionPattern returns a glob pattern matching all keys of a version,
// suitable for the store's KEYS command.
func VersionPattern(version string) string {
	return fmt.Sprintf("%s:%s:*", KeyPrefix, version)
}

// RandomID draws a uniformly random record id in [0, maxKeys).
func RandomID(rng *rand.Rand, maxKeys int) int {
	return rng.Intn(maxKeys)
}
