package utils

import (
	"strings"

	"github.com/google/uuid"
)

var newUUIDv7 = uuid.NewV7

// GenerateUUIDv7 returns a time-ordered UUID. v7 generation only fails when
// the entropy source does, in which case a random v4 is used.
func GenerateUUIDv7() uuid.UUID {
	if id, err := newUUIDv7(); err == nil {
		return id
	}
	return uuid.New()
}

// ShortID returns the first n hex characters of a fresh UUID, for tagging
// log lines that belong to one run.
func ShortID(n int) string {
	s := strings.ReplaceAll(GenerateUUIDv7().String(), "-", "")
	if n < 1 || n > len(s) {
		return s
	}
	return s[:n]
}
