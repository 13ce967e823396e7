package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/orderdesk/orderdesk/pkg/cursor"
)

// Prometheus metrics for page serving.
var (
	pagesServedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_pages_served_total",
		Help: "Total pages served by resource",
	}, []string{"resource"})

	pageRowsReturned = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orderdesk_page_rows_returned",
		Help:    "Rows returned per page by resource",
		Buckets: []float64{1, 5, 10, 20, 50, 100},
	}, []string{"resource"})

	malformedCursorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_malformed_cursors_total",
		Help: "Total requests rejected for undecodable cursors by resource",
	}, []string{"resource"})
)

// Config holds pagination limits.
type Config struct {
	// DefaultLimit is used when a request does not specify a limit.
	DefaultLimit int

	// MaxLimit is the hard upper bound on page size.
	MaxLimit int
}

// DefaultConfig returns the standard page size bounds.
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 20,
		MaxLimit:     100,
	}
}

// RowSource fetches up to limit rows strictly after the given cursor position
// in (sort timestamp DESC, id DESC) order. A zero cursor means start of scan.
// The search string is an optional source-defined filter and may be ignored
// by sources that do not support filtering.
type RowSource[T any] interface {
	FetchRows(ctx context.Context, limit int, after cursor.Cursor, search string) ([]T, error)
}

// KeyFunc extracts the sort key of a row for cursor construction.
type KeyFunc[T any] func(T) cursor.Cursor

// Request describes one page fetch.
type Request struct {
	// Limit is the requested page size. Values outside [1, MaxLimit] are
	// clamped, never rejected, so stale clients keep working.
	Limit int

	// Cursor is the opaque token from the previous page, empty for the
	// first page.
	Cursor string

	// Search is optional filter text forwarded to the row source.
	Search string
}

// PageInfo is the pagination envelope returned alongside every page.
type PageInfo struct {
	// Limit is the effective (clamped) page size.
	Limit int `json:"limit"`

	// NextCursor resumes the scan after the last row of this page.
	// Empty when HasMore is false.
	NextCursor string `json:"next_cursor,omitempty"`

	// HasMore indicates at least one row exists beyond this page.
	HasMore bool `json:"has_more"`
}

// Page is one page of rows plus its pagination envelope.
type Page[T any] struct {
	Items      []T      `json:"items"`
	Pagination PageInfo `json:"pagination"`
}

// Reader pages through a row source using keyset continuation.
// It holds no database state itself; the source is injected so the reader
// can serve any table exposing a (timestamp, id) sort key.
type Reader[T any] struct {
	resource string
	source   RowSource[T]
	key      KeyFunc[T]
	config   Config
}

// NewReader creates a reader for the named resource. The resource name is
// used for metrics and log labels only.
func NewReader[T any](resource string, source RowSource[T], key KeyFunc[T], config Config) *Reader[T] {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 20
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = 100
	}

	return &Reader[T]{
		resource: resource,
		source:   source,
		key:      key,
		config:   config,
	}
}

// FetchPage returns one page of rows and the cursor for the next page.
//
// The reader fetches limit+1 rows: if the probe row is present, HasMore is
// true and the page is trimmed back to limit. NextCursor is derived from the
// last row actually returned, never from the probe row.
func (r *Reader[T]) FetchPage(ctx context.Context, req Request) (Page[T], error) {
	limit := r.clampLimit(req.Limit)

	var after cursor.Cursor
	if req.Cursor != "" {
		decoded, err := cursor.Decode(req.Cursor)
		if err != nil {
			malformedCursorsTotal.WithLabelValues(r.resource).Inc()
			return Page[T]{}, err
		}
		after = decoded
	}

	start := time.Now()
	rows, err := r.source.FetchRows(ctx, limit+1, after, req.Search)
	if err != nil {
		return Page[T]{}, fmt.Errorf("fetch %s page: %w", r.resource, err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	if rows == nil {
		rows = []T{}
	}

	info := PageInfo{
		Limit:   limit,
		HasMore: hasMore,
	}
	if hasMore {
		info.NextCursor = r.key(rows[len(rows)-1]).Encode()
	}

	pagesServedTotal.WithLabelValues(r.resource).Inc()
	pageRowsReturned.WithLabelValues(r.resource).Observe(float64(len(rows)))

	log.Debug().
		Str("resource", r.resource).
		Int("limit", limit).
		Int("rows", len(rows)).
		Bool("has_more", hasMore).
		Bool("continued", !after.IsZero()).
		Dur("duration", time.Since(start)).
		Msg("Page served")

	return Page[T]{Items: rows, Pagination: info}, nil
}

// EffectiveLimit returns the page size the reader will actually use for a
// requested limit, after clamping. Callers keying caches on page shape need
// this before fetching.
func (r *Reader[T]) EffectiveLimit(limit int) int {
	return r.clampLimit(limit)
}

// clampLimit applies the [1, MaxLimit] bound, substituting the default for
// unset values. Out-of-range limits are clamped rather than rejected.
func (r *Reader[T]) clampLimit(limit int) int {
	if limit == 0 {
		return r.config.DefaultLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > r.config.MaxLimit {
		return r.config.MaxLimit
	}
	return limit
}
