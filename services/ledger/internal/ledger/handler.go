package ledger

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/appetiteclub/seatside/pkg/ledgerapi"
	"github.com/appetiteclub/seatside/pkg/lib/core"
	"github.com/go-chi/chi/v5"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	service *Service
	logger  core.Logger
}

func NewHandler(service *Service, logger core.Logger) *Handler {
	if logger == nil {
		logger = core.NewNoopLogger()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets/{ticketID}", func(r chi.Router) {
		r.Get("/", h.GetReservation)
		r.Post("/ledgers/{ledger}/mutations", h.MutateOrder)
	})

	r.Get("/menu/items", h.ListMenuItems)
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	ticketID := chi.URLParam(r, "ticketID")

	snap, err := h.service.Reservation(r.Context(), ticketID)
	if errors.Is(err, ErrTicketNotFound) {
		log.Debug("reservation not found", "ticket_id", ticketID)
		core.RespondErrorCode(w, http.StatusNotFound, ledgerapi.CodeTicketNotFound, "Ticket not found")
		return
	}
	if err != nil {
		log.Error("cannot get reservation", "ticket_id", ticketID, "error", err)
		core.RespondError(w, http.StatusInternalServerError, "Could not get reservation")
		return
	}

	core.RespondSuccess(w, snap)
}

func (h *Handler) MutateOrder(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	ticketID, ledger := chi.URLParam(r, "ticketID"), chi.URLParam(r, "ledger")

	req, ok := h.decodeMutationPayload(w, r, log)
	if !ok {
		return
	}

	res, err := h.service.Mutate(r.Context(), ticketID, ledger, req)
	if err != nil {
		log.Error("cannot mutate order", "ticket_id", ticketID, "ledger", ledger, "error", err)
		core.RespondErrorCode(w, http.StatusInternalServerError, ledgerapi.CodeInternal, "Could not update order")
		return
	}

	core.RespondSuccess(w, res)
}

func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)

	items, err := h.service.MenuFeed(r.Context())
	if err != nil {
		log.Error("cannot list menu items", "error", err)
		core.RespondError(w, http.StatusInternalServerError, "Could not list menu items")
		return
	}

	core.RespondSuccess(w, items)
}

func (h *Handler) decodeMutationPayload(w http.ResponseWriter, r *http.Request, log core.Logger) (ledgerapi.OrderMutation, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		core.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return ledgerapi.OrderMutation{}, false
	}

	var req ledgerapi.OrderMutation
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		core.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return ledgerapi.OrderMutation{}, false
	}

	return req, true
}

func (h *Handler) log(r *http.Request) core.Logger {
	return core.RequestLogger(h.logger, r)
}
