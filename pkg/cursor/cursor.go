// Package cursor implements the opaque page cursor used by keyset pagination.
// A cursor encodes the sort key (creation timestamp, row id) of the last row
// returned on a page. The wire format is base64url over
// "<RFC3339Nano timestamp>:<integer id>" and is part of the public API:
// changing it breaks every client holding an in-flight cursor.
package cursor

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedCursor is returned when a cursor token does not decode to a
// valid (timestamp, id) pair. Callers must restart pagination from the first
// page; retrying with the same token cannot succeed.
var ErrMalformedCursor = errors.New("malformed cursor")

// Cursor is a position in the (created_at DESC, id DESC) total order.
// The zero value means "start from the first page".
type Cursor struct {
	// Timestamp is the sort timestamp of the last returned row.
	Timestamp time.Time

	// ID is the row id of the last returned row, breaking timestamp ties.
	ID int64
}

// IsZero reports whether the cursor is the start-of-scan position.
func (c Cursor) IsZero() bool {
	return c.Timestamp.IsZero() && c.ID == 0
}

// Encode serializes the cursor into its opaque wire form.
func (c Cursor) Encode() string {
	raw := c.Timestamp.UTC().Format(time.RFC3339Nano) + ":" + strconv.FormatInt(c.ID, 10)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// Decode parses an opaque cursor token produced by Encode.
// Any token that does not round-trip through base64 and the
// "<timestamp>:<id>" layout fails with ErrMalformedCursor.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, fmt.Errorf("%w: empty token", ErrMalformedCursor)
	}

	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrMalformedCursor, err)
	}

	// The RFC 3339 timestamp itself contains colons, so split on the last one.
	sep := strings.LastIndexByte(string(raw), ':')
	if sep < 0 {
		return Cursor{}, fmt.Errorf("%w: missing id separator", ErrMalformedCursor)
	}

	ts, err := time.Parse(time.RFC3339Nano, string(raw[:sep]))
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: invalid timestamp: %v", ErrMalformedCursor, err)
	}

	id, err := strconv.ParseInt(string(raw[sep+1:]), 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: invalid id: %v", ErrMalformedCursor, err)
	}
	if id < 0 {
		return Cursor{}, fmt.Errorf("%w: negative id %d", ErrMalformedCursor, id)
	}

	return Cursor{Timestamp: ts, ID: id}, nil
}

// Equal reports whether two cursors identify the same position.
// Timestamps are compared as instants, independent of location.
func (c Cursor) Equal(other Cursor) bool {
	return c.Timestamp.Equal(other.Timestamp) && c.ID == other.ID
}
