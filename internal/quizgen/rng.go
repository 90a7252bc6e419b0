package quizgen

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"
)

// WeekStart returns the Monday of t's ISO week, at midnight in t's location.
func WeekStart(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	t = t.AddDate(0, 0, -daysSinceMonday)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// rngFor seeds a PRNG from SHA-256 of "{user}-{monday}", truncated to 32
// bits. Repeated calls within the same calendar week therefore shuffle
// identically, which is what makes regeneration idempotent for a user.
func rngFor(userID int64, weekStart time.Time) *rand.Rand {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d-%s", userID, weekStart.Format("2006-01-02"))))
	seed := binary.BigEndian.Uint32(sum[len(sum)-4:])
	return rand.New(rand.NewSource(int64(seed)))
}
