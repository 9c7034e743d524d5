package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopmono/storefront/internal/cart/application"
	catalogdomain "github.com/shopmono/storefront/internal/catalog/domain"
	identityhttp "github.com/shopmono/storefront/internal/identity/infrastructure/http"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("cart-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.getCart)
	r.Post("/add", h.addItem)
	r.Post("/update", h.updateQty)
	return r
}

type mutateReq struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type itemResp struct {
	ProductID       string `json:"product_id"`
	Qty             int    `json:"qty"`
	PriceAtAddCents int64  `json:"price_at_add_cents"`
	Title           string `json:"title,omitempty"`
	Slug            string `json:"slug,omitempty"`
	Image           string `json:"image,omitempty"`
}

type cartResp struct {
	Items      []itemResp `json:"items"`
	TotalCents int64      `json:"total_cents"`
}

func toCartResp(v application.View) cartResp {
	out := cartResp{Items: make([]itemResp, 0, len(v.Items)), TotalCents: v.TotalCents}
	for _, it := range v.Items {
		item := itemResp{
			ProductID:       it.ProductID.String(),
			Qty:             it.Qty,
			PriceAtAddCents: it.PriceAtAddCents,
		}
		if it.Product != nil {
			item.Title = it.Product.Title
			item.Slug = it.Product.Slug
			if len(it.Product.Images) > 0 {
				item.Image = it.Product.Images[0]
			}
		}
		out.Items = append(out.Items, item)
	}
	return out
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetCart")
	defer span.End()

	userID, ok := identityhttp.UserID(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	view, err := h.service.GetCart(ctx, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResp(view))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddToCart")
	defer span.End()

	userID, ok := identityhttp.UserID(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	req, productID, err := decodeMutation(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.service.AddItem(ctx, userID, productID, req.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResp(view))
}

func (h *Handler) updateQty(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateCartQty")
	defer span.End()

	userID, ok := identityhttp.UserID(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	req, productID, err := decodeMutation(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.service.UpdateQty(ctx, userID, productID, req.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResp(view))
}

func decodeMutation(r *http.Request) (mutateReq, uuid.UUID, error) {
	var req mutateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, uuid.Nil, errors.New("invalid body")
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return req, uuid.Nil, errors.New("product_id required")
	}
	return req, productID, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrInvalidQty):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, catalogdomain.ErrNotFound):
		http.Error(w, "product not found", http.StatusNotFound)
	case errors.Is(err, application.ErrInsufficientStock):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.log.Error("cart request failed", "err", err)
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
