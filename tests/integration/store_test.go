package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/orderdesk/orderdesk/pkg/cursor"
	"github.com/orderdesk/orderdesk/pkg/pagination"
	"github.com/orderdesk/orderdesk/pkg/relation"
	"github.com/orderdesk/orderdesk/pkg/store"
)

// setupPostgres starts a PostgreSQL container and returns a connected store.
func setupPostgres(t *testing.T) *store.Store {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "orderdesk",
			"POSTGRES_PASSWORD": "orderdesk",
			"POSTGRES_DB":       "orderdesk",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://orderdesk:orderdesk@%s:%s/orderdesk", host, port.Port())

	st, err := store.New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect store: %v", err)
	}
	t.Cleanup(st.Close)

	return st
}

// seedOrders creates n orders via the intake path, pausing between inserts so
// each gets a distinct created_at.
func seedOrders(t *testing.T, st *store.Store, n int) {
	t.Helper()
	ctx := context.Background()

	for i := 0; i < n; i++ {
		draft := store.OrderDraft{
			Reference:    fmt.Sprintf("ORD-%05d", i+1),
			CustomerName: "Integration Test AG",
			Items: []store.ItemDraft{
				{SKU: fmt.Sprintf("SKU-%d", i%3), Name: "Widget", Quantity: 1 + i%4, UnitCents: 199},
			},
			Tags:  []string{"integration"},
			Actor: "tester",
		}
		if _, err := st.CreateOrder(ctx, draft); err != nil {
			t.Fatalf("CreateOrder %d: %v", i+1, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestPaginationWalk_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	st := setupPostgres(t)
	seedOrders(t, st, 25)

	reader := pagination.NewReader("orders",
		pagination.SourceFunc[store.Order](st.ListOrders),
		store.Order.SortKey, pagination.DefaultConfig())

	ctx := context.Background()
	seen := make(map[int64]bool)
	wantSizes := []int{10, 10, 5}
	wantMore := []bool{true, true, false}

	req := pagination.Request{Limit: 10}
	for i := 0; i < 3; i++ {
		page, err := reader.FetchPage(ctx, req)
		if err != nil {
			t.Fatalf("page %d: %v", i+1, err)
		}
		if len(page.Items) != wantSizes[i] {
			t.Errorf("page %d: %d rows, want %d", i+1, len(page.Items), wantSizes[i])
		}
		if page.Pagination.HasMore != wantMore[i] {
			t.Errorf("page %d: HasMore = %v, want %v", i+1, page.Pagination.HasMore, wantMore[i])
		}
		for _, o := range page.Items {
			if seen[o.ID] {
				t.Errorf("order %d returned twice", o.ID)
			}
			seen[o.ID] = true
		}
		req.Cursor = page.Pagination.NextCursor
	}

	if len(seen) != 25 {
		t.Errorf("walk saw %d distinct orders, want 25", len(seen))
	}
}

func TestPaginationWalk_SharedTimestamps(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	st := setupPostgres(t)
	ctx := context.Background()

	// Insert five orders in one statement so created_at is identical for all
	// of them; only the id tie-break keeps the scan deterministic.
	_, err := st.Pool().Exec(ctx, `
		INSERT INTO orders (reference, created_at)
		SELECT 'BULK-' || n, now()
		FROM   generate_series(1, 5) AS n`)
	if err != nil {
		t.Fatalf("bulk insert: %v", err)
	}

	reader := pagination.NewReader("orders",
		pagination.SourceFunc[store.Order](st.ListOrders),
		store.Order.SortKey, pagination.DefaultConfig())

	seen := make(map[int64]bool)
	req := pagination.Request{Limit: 2}
	for i := 0; ; i++ {
		if i > 10 {
			t.Fatal("walk did not terminate")
		}
		page, err := reader.FetchPage(ctx, req)
		if err != nil {
			t.Fatalf("page %d: %v", i+1, err)
		}
		for _, o := range page.Items {
			if seen[o.ID] {
				t.Errorf("order %d returned twice under timestamp ties", o.ID)
			}
			seen[o.ID] = true
		}
		if !page.Pagination.HasMore {
			break
		}
		req.Cursor = page.Pagination.NextCursor
	}

	if len(seen) != 5 {
		t.Errorf("walk saw %d distinct orders, want 5", len(seen))
	}
}

func TestRelationAttachment_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	st := setupPostgres(t)
	ctx := context.Background()

	// Order with items, order without.
	withItems, err := st.CreateOrder(ctx, store.OrderDraft{
		Reference: "ORD-ITEMS",
		Items: []store.ItemDraft{
			{SKU: "SKU-B", Name: "Bolt", Quantity: 10, UnitCents: 25},
			{SKU: "SKU-A", Name: "Anchor", Quantity: 1, UnitCents: 4500},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	bare, err := st.CreateOrder(ctx, store.OrderDraft{Reference: "ORD-BARE"})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	orders, err := st.ListOrders(ctx, 10, cursor.Cursor{}, "")
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}

	if err := relation.Attach(ctx, orders,
		func(o store.Order) int64 { return o.ID },
		st.OrderItemsFor,
		func(it store.OrderItem) int64 { return it.OrderID },
		func(o *store.Order, items []store.OrderItem) { o.Items = items },
	); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	for _, o := range orders {
		switch o.ID {
		case withItems.ID:
			if len(o.Items) != 2 {
				t.Errorf("order %d has %d items, want 2", o.ID, len(o.Items))
			}
			// Intake position order, not alphabetical.
			if len(o.Items) == 2 && (o.Items[0].SKU != "SKU-B" || o.Items[1].SKU != "SKU-A") {
				t.Errorf("items out of display order: %+v", o.Items)
			}
		case bare.ID:
			if o.Items == nil {
				t.Errorf("order %d items should be empty non-nil slice", o.ID)
			}
			if len(o.Items) != 0 {
				t.Errorf("order %d has %d items, want 0", o.ID, len(o.Items))
			}
		}
	}
}

func TestIntakeAndAuditTrail_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	st := setupPostgres(t)
	ctx := context.Background()

	order, err := st.CreateOrder(ctx, store.OrderDraft{
		Reference: "ORD-AUDIT",
		Items:     []store.ItemDraft{{SKU: "S", Quantity: 2, UnitCents: 100}},
		Actor:     "alice",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.TotalCents != 200 {
		t.Errorf("total = %d, want 200", order.TotalCents)
	}

	if err := st.RecordAudit(ctx, store.AuditEvent{
		Actor: "bob", Action: "update", Entity: "order", EntityID: order.ID,
	}); err != nil {
		t.Fatalf("RecordAudit: %v", err)
	}

	events, err := st.ListAuditEvents(ctx, 10, cursor.Cursor{}, "")
	if err != nil {
		t.Fatalf("ListAuditEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d audit events, want 2", len(events))
	}
	// Newest first: bob's update precedes alice's create in the listing.
	if events[0].Actor != "bob" || events[1].Actor != "alice" {
		t.Errorf("audit order wrong: %+v", events)
	}

	stats, err := st.OrderStats(ctx)
	if err != nil {
		t.Fatalf("OrderStats: %v", err)
	}
	if len(stats) != 1 || stats[0].Status != "pending" || stats[0].Orders != 1 {
		t.Errorf("stats = %+v, want single pending row", stats)
	}
}
