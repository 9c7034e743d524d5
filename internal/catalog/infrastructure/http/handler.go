package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopmono/storefront/internal/catalog/application"
	"github.com/shopmono/storefront/internal/catalog/domain"
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
		tracer:  otel.Tracer("catalog-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/categories", h.listCategories)
	r.Get("/products", h.listProducts)
	r.Get("/products/{slug}", h.getProduct)
	return r
}

type productResp struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Stock       int       `json:"stock"`
	CategoryID  string    `json:"category_id"`
	Images      []string  `json:"images"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
}

func toProductResp(p domain.Product) productResp {
	return productResp{
		ID:          p.ID.String(),
		Title:       p.Title,
		Slug:        p.Slug,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Stock:       p.Stock,
		CategoryID:  p.CategoryID.String(),
		Images:      p.Images,
		Tags:        p.Tags,
		CreatedAt:   p.CreatedAt,
	}
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListCategories")
	defer span.End()

	cats, err := h.service.ListCategories(ctx)
	if err != nil {
		h.log.Error("list categories failed", "err", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	type categoryResp struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	out := make([]categoryResp, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryResp{ID: c.ID.String(), Name: c.Name, Slug: c.Slug})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListProducts")
	defer span.End()

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	products, err := h.service.ListProducts(ctx, application.ListQuery{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		h.log.Error("list products failed", "err", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]productResp, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResp(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetProduct")
	defer span.End()

	p, err := h.service.GetProductBySlug(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("get product failed", "err", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toProductResp(p))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
