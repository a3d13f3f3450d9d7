// Package entropy picks seeds for map generation when the caller does not
// name one, so the seed can be logged and the map reproduced later.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	"time"
)

// Seed returns a non-zero positive seed from crypto/rand. It falls back to
// the clock when the system source fails.
func Seed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		slog.Warn("crypto/rand unavailable, seeding from clock", "error", err)
		return clockSeed(time.Now())
	}
	return positive(int64(binary.LittleEndian.Uint64(buf[:]) >> 1))
}

// SeedOr returns seed when it is set and a fresh one otherwise.
func SeedOr(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return Seed()
}

func clockSeed(now time.Time) int64 {
	return positive(now.UnixNano() & (1<<63 - 1))
}

// positive maps 0, which generation treats as "pick one", to 1.
func positive(n int64) int64 {
	if n == 0 {
		return 1
	}
	return n
}
