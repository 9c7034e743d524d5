package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a product or category does not exist.
var ErrNotFound = errors.New("not found")

type Product struct {
	ID          uuid.UUID
	Title       string
	Slug        string
	Description string
	PriceCents  int64
	Stock       int
	CategoryID  uuid.UUID
	Images      []string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Category struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	CreatedAt time.Time
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a title: lowercase, runs of non-alphanumeric
// characters collapsed to single hyphens, edges trimmed.
func Slugify(s string) string {
	s = nonSlug.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

func NewProduct(title, description string, priceCents int64, stock int, categoryID uuid.UUID) Product {
	now := time.Now().UTC()
	return Product{
		ID:          uuid.New(),
		Title:       title,
		Slug:        Slugify(title),
		Description: description,
		PriceCents:  priceCents,
		Stock:       stock,
		CategoryID:  categoryID,
		Images:      []string{},
		Tags:        []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func NewCategory(name string) Category {
	return Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      Slugify(name),
		CreatedAt: time.Now().UTC(),
	}
}
