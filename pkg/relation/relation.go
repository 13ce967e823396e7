// Package relation batches child-row loading for a page of parent rows,
// avoiding the N+1 query pattern: instead of one child query per parent, the
// whole page is enriched with a single query over the parent id set.
package relation

import (
	"context"
	"fmt"
)

// LoadFunc fetches all children whose foreign key is in parentIDs, in one
// query. Implementations typically run
//
//	SELECT ... FROM child_table WHERE fk_column = ANY($1)
//
// and should pre-sort by a display-order column so grouped children keep a
// stable order.
type LoadFunc[C any] func(ctx context.Context, parentIDs []int64) ([]C, error)

// GroupByParent buckets children by their foreign key, preserving input
// order within each bucket.
func GroupByParent[C any](children []C, childKey func(C) int64) map[int64][]C {
	grouped := make(map[int64][]C, len(children))
	for _, c := range children {
		k := childKey(c)
		grouped[k] = append(grouped[k], c)
	}
	return grouped
}

// Attach enriches parents with their children using exactly one load call.
//
// parentID extracts a parent's id, childKey a child's foreign key, and assign
// stores the grouped children on the parent. Parents without children are
// assigned an empty (non-nil) slice; a childless parent is not an error.
// An empty parents slice short-circuits without calling load at all.
func Attach[P, C any](
	ctx context.Context,
	parents []P,
	parentID func(P) int64,
	load LoadFunc[C],
	childKey func(C) int64,
	assign func(parent *P, children []C),
) error {
	if len(parents) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(parents))
	seen := make(map[int64]bool, len(parents))
	for _, p := range parents {
		id := parentID(p)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	children, err := load(ctx, ids)
	if err != nil {
		return fmt.Errorf("load children: %w", err)
	}

	grouped := GroupByParent(children, childKey)
	for i := range parents {
		group := grouped[parentID(parents[i])]
		if group == nil {
			group = []C{}
		}
		assign(&parents[i], group)
	}
	return nil
}
