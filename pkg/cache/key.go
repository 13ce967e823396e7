package cache

import (
	"fmt"
	"strings"
)

// keyPrefix namespaces every page cache key in Redis.
const keyPrefix = "orderdesk:page"

// Key identifies one cached first page.
type Key struct {
	// Resource is the listing name (e.g. "orders", "audit").
	Resource string

	// Limit is the effective (clamped) page size.
	Limit int

	// Search is the optional filter text, empty for unfiltered pages.
	Search string
}

// String generates the deterministic Redis key.
// Format: orderdesk:page:<resource>:limit=<n>[:q=<search>]
//
// Example:
//
//	orderdesk:page:orders:limit=20:q=acme
func (k Key) String() string {
	parts := []string{keyPrefix, k.Resource, fmt.Sprintf("limit=%d", k.Limit)}
	if k.Search != "" {
		parts = append(parts, "q="+k.Search)
	}
	return strings.Join(parts, ":")
}

// resourcePattern matches every key of one resource, for invalidation scans.
func resourcePattern(resource string) string {
	return keyPrefix + ":" + resource + ":*"
}
