// Package testutil provides in-memory test doubles for orderdesk.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/orderdesk/orderdesk/pkg/cursor"
	"github.com/orderdesk/orderdesk/pkg/store"
)

// FakeStore is an in-memory stand-in for store.Store. It honors the same
// keyset continuation and batching contracts as the SQL implementation and
// counts queries so tests can assert on query budgets.
type FakeStore struct {
	mu     sync.Mutex
	orders []store.Order
	items  []store.OrderItem
	tags   []store.OrderTag
	audit  []store.AuditEvent
	nextID int64

	// Query counters, by method name.
	Queries map[string]int

	// FailWith, when set, is returned by every read method.
	FailWith error
}

// NewFakeStore creates an empty fake store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		nextID:  1,
		Queries: make(map[string]int),
	}
}

// SeedOrder inserts an order with the given creation time and returns it.
// Items and tags are registered for the batched child queries.
func (f *FakeStore) SeedOrder(createdAt time.Time, reference string, items []store.OrderItem, tags []string) store.Order {
	f.mu.Lock()
	defer f.mu.Unlock()

	o := store.Order{
		ID:        f.nextID,
		Reference: reference,
		Status:    "pending",
		CreatedAt: createdAt,
	}
	f.nextID++

	for i, it := range items {
		it.ID = f.nextID
		f.nextID++
		it.OrderID = o.ID
		it.Position = i
		o.TotalCents += int64(it.Quantity) * it.UnitCents
		f.items = append(f.items, it)
	}
	for _, label := range tags {
		f.tags = append(f.tags, store.OrderTag{ID: f.nextID, OrderID: o.ID, Label: label})
		f.nextID++
	}

	f.orders = append(f.orders, o)
	return o
}

// SeedAudit inserts an audit event with the given creation time.
func (f *FakeStore) SeedAudit(createdAt time.Time, action, entity string, entityID int64) store.AuditEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	e := store.AuditEvent{
		ID:        f.nextID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		CreatedAt: createdAt,
	}
	f.nextID++
	f.audit = append(f.audit, e)
	return e
}

func (f *FakeStore) count(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Queries[method]++
	return f.FailWith
}

// ListOrders mirrors the SQL keyset query: (created_at DESC, id DESC) with the
// tie-break continuation predicate and ILIKE-style search.
func (f *FakeStore) ListOrders(ctx context.Context, limit int, after cursor.Cursor, search string) ([]store.Order, error) {
	if err := f.count("ListOrders"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	sorted := append([]store.Order(nil), f.orders...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})

	needle := strings.ToLower(search)
	out := []store.Order{}
	for _, o := range sorted {
		if search != "" &&
			!strings.Contains(strings.ToLower(o.Reference), needle) &&
			!strings.Contains(strings.ToLower(o.CustomerName), needle) {
			continue
		}
		if !after.IsZero() {
			before := o.CreatedAt.Before(after.Timestamp) ||
				(o.CreatedAt.Equal(after.Timestamp) && o.ID < after.ID)
			if !before {
				continue
			}
		}
		out = append(out, o)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// OrderItemsFor mirrors the batched child query, sorted by (order_id, position).
func (f *FakeStore) OrderItemsFor(ctx context.Context, orderIDs []int64) ([]store.OrderItem, error) {
	if err := f.count("OrderItemsFor"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	want := idSet(orderIDs)
	var out []store.OrderItem
	for _, it := range f.items {
		if want[it.OrderID] {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderID != out[j].OrderID {
			return out[i].OrderID < out[j].OrderID
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

// OrderTagsFor mirrors the batched tag query, sorted by (order_id, label).
func (f *FakeStore) OrderTagsFor(ctx context.Context, orderIDs []int64) ([]store.OrderTag, error) {
	if err := f.count("OrderTagsFor"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	want := idSet(orderIDs)
	var out []store.OrderTag
	for _, tag := range f.tags {
		if want[tag.OrderID] {
			out = append(out, tag)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderID != out[j].OrderID {
			return out[i].OrderID < out[j].OrderID
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

// CreateOrder validates and stores a draft, mirroring the SQL transaction.
func (f *FakeStore) CreateOrder(ctx context.Context, draft store.OrderDraft) (store.Order, error) {
	if err := f.count("CreateOrder"); err != nil {
		return store.Order{}, err
	}
	if err := draft.Validate(); err != nil {
		return store.Order{}, err
	}

	items := make([]store.OrderItem, 0, len(draft.Items))
	for _, it := range draft.Items {
		items = append(items, store.OrderItem{
			SKU:       it.SKU,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitCents: it.UnitCents,
		})
	}

	o := f.SeedOrder(time.Now().UTC(), draft.Reference, items, draft.Tags)
	o.CustomerName = draft.CustomerName
	if draft.Status != "" {
		o.Status = draft.Status
	}

	f.mu.Lock()
	for i := range f.orders {
		if f.orders[i].ID == o.ID {
			f.orders[i] = o
		}
	}
	f.mu.Unlock()

	f.SeedAudit(o.CreatedAt, "create", "order", o.ID)
	return o, nil
}

// ListAuditEvents mirrors the SQL keyset query over the audit trail.
func (f *FakeStore) ListAuditEvents(ctx context.Context, limit int, after cursor.Cursor, search string) ([]store.AuditEvent, error) {
	if err := f.count("ListAuditEvents"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	sorted := append([]store.AuditEvent(nil), f.audit...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})

	out := []store.AuditEvent{}
	for _, e := range sorted {
		if !after.IsZero() {
			before := e.CreatedAt.Before(after.Timestamp) ||
				(e.CreatedAt.Equal(after.Timestamp) && e.ID < after.ID)
			if !before {
				continue
			}
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// OrderStats computes the per-status rollup over seeded orders.
func (f *FakeStore) OrderStats(ctx context.Context) ([]store.StatusStat, error) {
	if err := f.count("OrderStats"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	byStatus := make(map[string]*store.StatusStat)
	for _, o := range f.orders {
		st, ok := byStatus[o.Status]
		if !ok {
			st = &store.StatusStat{Status: o.Status}
			byStatus[o.Status] = st
		}
		st.Orders++
		st.RevenueCents += o.TotalCents
	}

	stats := make([]store.StatusStat, 0, len(byStatus))
	for _, st := range byStatus {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Status < stats[j].Status })
	return stats, nil
}

// QueryCount returns how many times the named method was called.
func (f *FakeStore) QueryCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Queries[method]
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// Reference builds a deterministic order reference for seeding helpers.
func Reference(n int) string {
	return fmt.Sprintf("ORD-%05d", n)
}
