// Package pagination implements keyset (cursor-based) pagination over rows
// ordered by (sort timestamp DESC, id DESC).
//
// Unlike numeric offsets, a keyset cursor compares against the last seen sort
// key, so concurrent inserts and deletes can never cause a row to be skipped
// or returned twice. The reader over-fetches one row per page to detect
// whether more rows remain without issuing a COUNT query.
//
// Example usage:
//
//	reader := pagination.NewReader("orders", source, func(o store.Order) cursor.Cursor {
//		return cursor.Cursor{Timestamp: o.CreatedAt, ID: o.ID}
//	}, pagination.DefaultConfig())
//
//	page, err := reader.FetchPage(ctx, pagination.Request{Limit: 20})
//	for page.Pagination.HasMore {
//		page, err = reader.FetchPage(ctx, pagination.Request{
//			Limit:  20,
//			Cursor: page.Pagination.NextCursor,
//		})
//	}
//
// Row sources must honor the continuation contract: return rows strictly
// after the cursor position in (timestamp DESC, id DESC) order, expressed as
//
//	sort_ts < cursor.ts OR (sort_ts = cursor.ts AND id < cursor.id)
//
// The OR form is required for correctness when many rows share one timestamp
// (bulk inserts landing in the same millisecond).
package pagination
