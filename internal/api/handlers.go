package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/orderdesk/orderdesk/pkg/cache"
	"github.com/orderdesk/orderdesk/pkg/cursor"
	"github.com/orderdesk/orderdesk/pkg/pagination"
	"github.com/orderdesk/orderdesk/pkg/relation"
	"github.com/orderdesk/orderdesk/pkg/store"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	req := pageRequest(r)

	// Only cursor-less pages are cached. The key uses the clamped limit so
	// limit=0 and limit=20 share one entry.
	key := cache.Key{Resource: "orders", Limit: s.orders.EffectiveLimit(req.Limit), Search: req.Search}
	if req.Cursor == "" && s.cache != nil {
		if entry, err := s.cache.Get(ctx, key); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			w.Write(entry.Payload)
			return
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Msg("Page cache get failed, serving from database")
		}
	}

	page, err := s.orders.FetchPage(ctx, req)
	if err != nil {
		s.writePageError(w, err)
		return
	}

	// Enrich the page: one batched query per relation, never one per order.
	if err := relation.Attach(ctx, page.Items,
		func(o store.Order) int64 { return o.ID },
		s.store.OrderItemsFor,
		func(it store.OrderItem) int64 { return it.OrderID },
		func(o *store.Order, items []store.OrderItem) { o.Items = items },
	); err != nil {
		s.writePageError(w, err)
		return
	}
	if err := relation.Attach(ctx, page.Items,
		func(o store.Order) int64 { return o.ID },
		s.store.OrderTagsFor,
		func(tag store.OrderTag) int64 { return tag.OrderID },
		func(o *store.Order, tags []store.OrderTag) { o.Tags = tags },
	); err != nil {
		s.writePageError(w, err)
		return
	}

	body, err := json.Marshal(page)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "encoding failed")
		return
	}

	if req.Cursor == "" && s.cache != nil {
		if err := s.cache.Set(ctx, key, &cache.Entry{Payload: body}); err != nil {
			s.logger.Warn().Err(err).Msg("Page cache set failed")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	var draft store.OrderDraft
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&draft); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid order payload: "+err.Error())
		return
	}

	order, err := s.store.CreateOrder(ctx, draft)
	if err != nil {
		if isValidationError(err) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("Order intake failed")
		s.writeError(w, http.StatusInternalServerError, "order intake failed")
		return
	}

	if s.cache != nil {
		if err := s.cache.InvalidateResource(ctx, "orders"); err != nil {
			s.logger.Warn().Err(err).Msg("Page cache invalidation failed")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(order)
}

func (s *Server) handleOrderStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	stats, err := s.store.OrderStats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Stats rollup failed")
		s.writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"stats": stats})
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	page, err := s.audit.FetchPage(ctx, pageRequest(r))
	if err != nil {
		s.writePageError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page)
}

// pageRequest extracts pagination parameters from the query string.
// A non-numeric limit is treated as unset; the reader applies its default.
func pageRequest(r *http.Request) pagination.Request {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	return pagination.Request{
		Limit:  limit,
		Cursor: q.Get("cursor"),
		Search: q.Get("q"),
	}
}

// writePageError maps pagination failures to status codes: malformed cursors
// are the caller's fault, everything else is a server error.
func (s *Server) writePageError(w http.ResponseWriter, err error) {
	if errors.Is(err, cursor.ErrMalformedCursor) {
		s.writeError(w, http.StatusBadRequest, "malformed cursor: restart pagination without a cursor")
		return
	}
	s.logger.Error().Err(err).Msg("Page fetch failed")
	s.writeError(w, http.StatusInternalServerError, "listing unavailable")
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: msg})
}

// isValidationError distinguishes intake payload problems from database
// failures so they map to 400 instead of 500.
func isValidationError(err error) bool {
	var draftErr *store.DraftError
	return errors.As(err, &draftErr)
}
