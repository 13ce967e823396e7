// Package api exposes the HTTP boundary of the orderdesk service: paginated
// listing endpoints, order intake, the stats rollup, and operational routes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/orderdesk/orderdesk/pkg/cache"
	"github.com/orderdesk/orderdesk/pkg/cursor"
	"github.com/orderdesk/orderdesk/pkg/logging"
	"github.com/orderdesk/orderdesk/pkg/pagination"
	"github.com/orderdesk/orderdesk/pkg/store"
)

// OrderStore is the data access dependency of the HTTP layer. *store.Store
// implements it; tests inject an in-memory fake.
type OrderStore interface {
	ListOrders(ctx context.Context, limit int, after cursor.Cursor, search string) ([]store.Order, error)
	OrderItemsFor(ctx context.Context, orderIDs []int64) ([]store.OrderItem, error)
	OrderTagsFor(ctx context.Context, orderIDs []int64) ([]store.OrderTag, error)
	CreateOrder(ctx context.Context, draft store.OrderDraft) (store.Order, error)
	ListAuditEvents(ctx context.Context, limit int, after cursor.Cursor, search string) ([]store.AuditEvent, error)
	OrderStats(ctx context.Context) ([]store.StatusStat, error)
}

// Compile-time interface check.
var _ OrderStore = (*store.Store)(nil)

// Server holds the wired HTTP handlers.
type Server struct {
	store  OrderStore
	cache  *cache.Manager // nil disables page caching
	orders *pagination.Reader[store.Order]
	audit  *pagination.Reader[store.AuditEvent]
	logger zerolog.Logger

	// requestTimeout bounds each request's database work.
	requestTimeout time.Duration
}

// NewServer wires the pagination readers over the injected store. cacheManager
// may be nil to disable first-page caching.
func NewServer(st OrderStore, cacheManager *cache.Manager, pageConfig pagination.Config) *Server {
	return &Server{
		store: st,
		cache: cacheManager,
		orders: pagination.NewReader("orders",
			pagination.SourceFunc[store.Order](st.ListOrders),
			store.Order.SortKey, pageConfig),
		audit: pagination.NewReader("audit",
			pagination.SourceFunc[store.AuditEvent](st.ListAuditEvents),
			store.AuditEvent.SortKey, pageConfig),
		logger:         logging.NewLogger("api"),
		requestTimeout: 30 * time.Second,
	}
}

// Routes returns the service's HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders", s.handleListOrders)
	mux.HandleFunc("POST /api/orders", s.handleCreateOrder)
	mux.HandleFunc("GET /api/orders/stats", s.handleOrderStats)
	mux.HandleFunc("GET /api/audit", s.handleListAudit)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
