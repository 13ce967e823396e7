package pagination

import (
	"context"

	"github.com/orderdesk/orderdesk/pkg/cursor"
)

// SourceFunc adapts an ordinary function to the RowSource interface, so a
// store method with a matching signature can feed a Reader directly:
//
//	pagination.NewReader("orders", pagination.SourceFunc[store.Order](st.ListOrders), ...)
type SourceFunc[T any] func(ctx context.Context, limit int, after cursor.Cursor, search string) ([]T, error)

// FetchRows implements RowSource.
func (f SourceFunc[T]) FetchRows(ctx context.Context, limit int, after cursor.Cursor, search string) ([]T, error) {
	return f(ctx, limit, after, search)
}
