package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/shopmono/storefront/internal/identity/domain"
)

type Repository struct {
	mu    sync.Mutex
	users map[string]domain.User // keyed by email
}

func NewRepository() *Repository {
	return &Repository{users: make(map[string]domain.User)}
}

func (r *Repository) Create(ctx context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := r.users[key]; ok {
		return domain.ErrEmailTaken
	}
	r.users[key] = u
	return nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[strings.ToLower(email)]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}
