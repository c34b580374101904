package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"time"

	"github.com/robalobadob/scramble/internal/words"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns HMAC-SHA256(salt, YYYY-MM-DD): the same 32 bytes for every
// player on a given day, unguessable without the salt.
func Seed(date time.Time, salt string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	return h.Sum(nil)
}

// Source returns the word source of the daily game for date.
func Source(date time.Time, salt string) words.Source {
	return words.NewSeededSource(Seed(date, salt))
}
