// Package ordering exposes the guest ordering surface over HTTP.
package ordering

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/appetiteclub/seatside/pkg/ledgerapi"
	"github.com/appetiteclub/seatside/pkg/lib/core"
	"github.com/appetiteclub/seatside/services/ordering/internal/cart"
	"github.com/appetiteclub/seatside/services/ordering/internal/lifecycle"
	"github.com/appetiteclub/seatside/services/ordering/internal/menu"
	"github.com/appetiteclub/seatside/services/ordering/internal/reconcile"
	"github.com/appetiteclub/seatside/services/ordering/internal/session"
	"github.com/appetiteclub/seatside/services/ordering/internal/window"
	"github.com/go-chi/chi/v5"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	registry *session.Registry
	logger   core.Logger
}

func NewHandler(registry *session.Registry, logger core.Logger) *Handler {
	if logger == nil {
		logger = core.NewNoopLogger()
	}
	return &Handler{registry: registry, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets/{ticketID}", func(r chi.Router) {
		r.Get("/", h.GetTicket)
		r.Get("/window", h.GetWindow)
		r.Get("/menu", h.GetMenu)
		r.Post("/refresh", h.Refresh)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/", h.AddToCart)
			r.Post("/decoration", h.AddDecoration)
			r.Patch("/{lineID}", h.ChangeCartQuantity)
			r.Delete("/{lineID}", h.RemoveFromCart)
		})

		r.Route("/orders/{ledger}", func(r chi.Router) {
			r.Get("/", h.GetOrder)
			r.Post("/", h.PlaceOrder)
			r.Delete("/", h.CancelOrder)
			r.Delete("/items/{itemID}", h.CancelItem)
			r.Patch("/items/{itemID}", h.ChangeOrderedQuantity)
			r.Post("/ready", h.MarkReady)
			r.Post("/delivered", h.MarkDelivered)
		})
	})
}

// Ticket handlers

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}
	core.RespondSuccess(w, NewTicketView(s.Reservation(), s.Window(), s.Orders()))
}

func (h *Handler) GetWindow(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}
	core.RespondSuccess(w, NewWindowView(s.Window()))
}

// GetMenu is only served while the ordering window is open.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}

	if err := s.Window().Err(); err != nil {
		h.respondErr(w, log, "menu requested outside ordering window", err)
		return
	}

	core.RespondSuccess(w, NewMenuView(s.Menu(r.Context())))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}

	if err := s.Refresh(r.Context()); err != nil {
		h.respondErr(w, log, "cannot refresh ticket", err)
		return
	}
	core.RespondSuccess(w, NewTicketView(s.Reservation(), s.Window(), s.Orders()))
}

// Cart handlers

type AddToCartRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Variant    string `json:"variant,omitempty"`
	Quantity   int    `json:"quantity"`
}

type QuantityRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}
	core.RespondSuccess(w, NewCartView(s.Cart()))
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}

	req, ok := decodePayload[AddToCartRequest](w, r, log)
	if !ok {
		return
	}
	if req.MenuItemID == "" {
		log.Debug("missing menu item id in add to cart request")
		core.RespondError(w, http.StatusBadRequest, "menu_item_id is required")
		return
	}

	c, err := s.AddToCart(r.Context(), req.MenuItemID, req.Variant, req.Quantity)
	if err != nil {
		h.respondErr(w, log, "cannot add to cart", err, "menu_item_id", req.MenuItemID)
		return
	}
	core.RespondCreated(w, NewCartView(c))
}

func (h *Handler) AddDecoration(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}

	c, err := s.AddDecoration(r.Context())
	if err != nil {
		h.respondErr(w, log, "cannot add decoration", err)
		return
	}
	core.RespondCreated(w, NewCartView(c))
}

func (h *Handler) ChangeCartQuantity(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}

	req, ok := decodePayload[QuantityRequest](w, r, log)
	if !ok {
		return
	}

	lineID := chi.URLParam(r, "lineID")
	c, err := s.ChangeCartQuantity(r.Context(), lineID, req.Delta)
	if err != nil {
		h.respondErr(w, log, "cannot change cart quantity", err, "line_id", lineID)
		return
	}
	core.RespondSuccess(w, NewCartView(c))
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}

	lineID := chi.URLParam(r, "lineID")
	c, err := s.RemoveFromCart(r.Context(), lineID)
	if err != nil {
		h.respondErr(w, log, "cannot remove cart line", err, "line_id", lineID)
		return
	}
	core.RespondSuccess(w, NewCartView(c))
}

// Order handlers

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}
	ledger := chi.URLParam(r, "ledger")
	if !ledgerapi.ValidLedgerName(ledger) {
		h.respondErr(w, log, "cannot read order", fmt.Errorf("%w: %q", session.ErrInvalidLedgerName, ledger), "ledger", ledger)
		return
	}
	core.RespondSuccess(w, NewOrderView(s.Order(ledger)))
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}

	ledger := chi.URLParam(r, "ledger")
	rec, err := s.PlaceOrder(r.Context(), ledger)
	if err != nil {
		h.respondErr(w, log, "cannot place order", err, "ledger", ledger)
		return
	}

	log.Info("order placed", "ticket_id", s.TicketID(), "ledger", ledger, "items", len(rec.Items), "total", rec.Total)
	core.RespondCreated(w, NewOrderView(rec))
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}

	ledger := chi.URLParam(r, "ledger")
	rec, err := s.CancelOrder(r.Context(), ledger)
	if err != nil {
		h.respondErr(w, log, "cannot cancel order", err, "ledger", ledger)
		return
	}

	log.Info("order cancelled", "ticket_id", s.TicketID(), "ledger", ledger)
	core.RespondSuccess(w, NewOrderView(rec))
}

func (h *Handler) CancelItem(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}

	ledger, itemID := chi.URLParam(r, "ledger"), chi.URLParam(r, "itemID")
	rec, err := s.CancelItem(r.Context(), ledger, itemID)
	if err != nil {
		h.respondErr(w, log, "cannot cancel item", err, "ledger", ledger, "item_id", itemID)
		return
	}
	core.RespondSuccess(w, NewOrderView(rec))
}

func (h *Handler) ChangeOrderedQuantity(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}

	req, ok := decodePayload[QuantityRequest](w, r, log)
	if !ok {
		return
	}

	ledger, itemID := chi.URLParam(r, "ledger"), chi.URLParam(r, "itemID")
	rec, err := s.ChangeOrderedQuantity(r.Context(), ledger, itemID, req.Delta)
	if err != nil {
		h.respondErr(w, log, "cannot change ordered quantity", err, "ledger", ledger, "item_id", itemID)
		return
	}
	core.RespondSuccess(w, NewOrderView(rec))
}

func (h *Handler) MarkReady(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}

	ledger := chi.URLParam(r, "ledger")
	rec, err := s.MarkReady(r.Context(), ledger)
	if err != nil {
		h.respondErr(w, log, "cannot mark order ready", err, "ledger", ledger)
		return
	}
	core.RespondSuccess(w, NewOrderView(rec))
}

func (h *Handler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	s, ok := h.session(w, r, log)
	if !ok {
		return
	}

	ledger := chi.URLParam(r, "ledger")
	rec, err := s.MarkDelivered(r.Context(), ledger)
	if err != nil {
		h.respondErr(w, log, "cannot mark order delivered", err, "ledger", ledger)
		return
	}
	core.RespondSuccess(w, NewOrderView(rec))
}

// Helpers

func (h *Handler) session(w http.ResponseWriter, r *http.Request, log core.Logger) (*session.Session, bool) {
	ticketID := chi.URLParam(r, "ticketID")
	if ticketID == "" {
		log.Debug("missing ticket id parameter")
		core.RespondError(w, http.StatusBadRequest, "Missing ticket id")
		return nil, false
	}

	s, err := h.registry.Open(r.Context(), ticketID)
	if err != nil {
		h.respondErr(w, log, "cannot open ticket", err, "ticket_id", ticketID)
		return nil, false
	}
	return s, true
}

func (h *Handler) respondErr(w http.ResponseWriter, log core.Logger, msg string, err error, kv ...interface{}) {
	status, code := statusFor(err)
	args := append(kv, "status", status, "error", err)
	if status >= http.StatusInternalServerError {
		log.Error(msg, args...)
	} else {
		log.Debug(msg, args...)
	}
	core.RespondErrorCode(w, status, code, err.Error())
}

// statusFor maps domain errors onto HTTP statuses and machine codes.
func statusFor(err error) (int, string) {
	var werr *window.Error
	if errors.As(err, &werr) {
		return http.StatusForbidden, "window_" + werr.Kind.String()
	}

	var rejected *ledgerapi.RejectedError
	switch {
	case errors.Is(err, ledgerapi.ErrAlreadyDelivered):
		return http.StatusConflict, ledgerapi.CodeAlreadyDelivered
	case errors.Is(err, reconcile.ErrMutationInFlight):
		return http.StatusConflict, "in_flight"
	case errors.Is(err, session.ErrDecorationOrdered):
		return http.StatusConflict, "decoration_ordered"
	case errors.Is(err, lifecycle.ErrNothingToCancel),
		errors.Is(err, lifecycle.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, ledgerapi.ErrTicketNotFound):
		return http.StatusNotFound, ledgerapi.CodeTicketNotFound
	case errors.Is(err, session.ErrMenuItemNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, lifecycle.ErrItemNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, lifecycle.ErrEmptyCart):
		return http.StatusBadRequest, "empty_cart"
	case errors.Is(err, cart.ErrInvalidLine),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, menu.ErrUnknownVariant),
		errors.Is(err, session.ErrNoDecoration),
		errors.Is(err, session.ErrInvalidLedgerName):
		return http.StatusBadRequest, "invalid_request"
	case errors.As(err, &rejected):
		return http.StatusUnprocessableEntity, rejected.Code
	default:
		return http.StatusBadGateway, "ledger_unavailable"
	}
}

func decodePayload[T any](w http.ResponseWriter, r *http.Request, log core.Logger) (T, bool) {
	var req T

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		core.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return req, false
	}

	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		core.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return req, false
	}

	return req, true
}

func (h *Handler) log(r *http.Request) core.Logger {
	return core.RequestLogger(h.logger, r)
}
