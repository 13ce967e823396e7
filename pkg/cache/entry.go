package cache

import (
	"encoding/json"
	"time"
)

// Entry is one cached rendered page.
type Entry struct {
	// Payload is the rendered JSON page body, stored verbatim so a cache
	// hit can be written straight to the response.
	Payload json.RawMessage `json:"payload"`

	// CachedAt is when the entry was stored.
	CachedAt time.Time `json:"cached_at"`
}

// Age returns how long ago the entry was cached.
func (e *Entry) Age() time.Duration {
	return time.Since(e.CachedAt)
}
