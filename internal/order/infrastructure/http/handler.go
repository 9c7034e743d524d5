package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	catalogdomain "github.com/shopmono/storefront/internal/catalog/domain"
	identityhttp "github.com/shopmono/storefront/internal/identity/infrastructure/http"
	"github.com/shopmono/storefront/internal/order/application"
	"github.com/shopmono/storefront/internal/order/domain"
	"github.com/shopmono/storefront/pkg/idempotency"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	idem    *idempotency.Store
	tracer  trace.Tracer
}

// NewHandler builds the orders HTTP surface. idem may be nil, disabling
// duplicate-submission suppression.
func NewHandler(log *slog.Logger, service *application.Service, idem *idempotency.Store) *Handler {
	return &Handler{
		log:     log,
		service: service,
		idem:    idem,
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/create", h.placeOrder)
	r.Get("/", h.listOrders)
	r.Get("/{id}", h.getOrder)
	return r
}

type addressReq struct {
	Line1 string `json:"line1"`
	City  string `json:"city"`
	Pin   string `json:"pin"`
}

type createOrderReq struct {
	Address addressReq `json:"address"`
}

type orderItemResp struct {
	ProductID       string `json:"product_id"`
	Qty             int    `json:"qty"`
	PriceAtAddCents int64  `json:"price_at_add_cents"`
	Title           string `json:"title,omitempty"`
	Slug            string `json:"slug,omitempty"`
}

type orderResp struct {
	ID            string          `json:"id"`
	Items         []orderItemResp `json:"items"`
	SubtotalCents int64           `json:"subtotal_cents"`
	Address       addressReq      `json:"address"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toOrderResp(v application.View) orderResp {
	out := orderResp{
		ID:            v.Order.ID.String(),
		Items:         make([]orderItemResp, 0, len(v.Items)),
		SubtotalCents: v.Order.SubtotalCents,
		Address:       addressReq{Line1: v.Order.Address.Line1, City: v.Order.Address.City, Pin: v.Order.Address.Pin},
		PaymentMethod: v.Order.Payment.Method,
		PaymentStatus: v.Order.Payment.Status,
		Status:        string(v.Order.Status),
		CreatedAt:     v.Order.CreatedAt,
	}
	for _, it := range v.Items {
		item := orderItemResp{
			ProductID:       it.ProductID.String(),
			Qty:             it.Qty,
			PriceAtAddCents: it.PriceAtAddCents,
		}
		if it.Product != nil {
			item.Title = it.Product.Title
			item.Slug = it.Product.Slug
		}
		out.Items = append(out.Items, item)
	}
	return out
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlaceOrder")
	defer span.End()

	userID, ok := identityhttp.UserID(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if key := r.Header.Get("Idempotency-Key"); key != "" && h.idem != nil {
		seen, err := h.idem.Seen(ctx, h.idem.RequestKey(userID.String(), key))
		if err != nil {
			h.log.Error("idempotency check failed", "err", err)
		} else if seen {
			http.Error(w, "duplicate request", http.StatusConflict)
			return
		}
	}

	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	view, err := h.service.PlaceOrder(ctx, userID, domain.Address{
		Line1: req.Address.Line1,
		City:  req.Address.City,
		Pin:   req.Address.Pin,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("order placed", "order_id", view.Order.ID, "user_id", userID, "subtotal_cents", view.Order.SubtotalCents)
	writeJSON(w, http.StatusCreated, toOrderResp(view))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrders")
	defer span.End()

	userID, ok := identityhttp.UserID(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	views, err := h.service.ListOrders(ctx, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]orderResp, 0, len(views))
	for _, v := range views {
		out = append(out, toOrderResp(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	userID, ok := identityhttp.UserID(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	view, err := h.service.GetOrder(ctx, userID, orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(view))
}

type errorResp struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAddress):
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "valid address is required"})
	case errors.Is(err, application.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "cart is empty"})
	case errors.Is(err, application.ErrStockChanged):
		writeJSON(w, http.StatusConflict, errorResp{Error: "stock changed while ordering, please retry", Retryable: true})
	case errors.Is(err, catalogdomain.ErrNotFound), errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResp{Error: "not found"})
	default:
		h.log.Error("order request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: "server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
