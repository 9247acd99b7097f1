package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/eventhub/internal/model"
)

// MemoryUserRepo keeps users in memory, indexed by id and by normalized
// email.
type MemoryUserRepo struct {
	mu      sync.RWMutex
	byID    map[string]model.User
	byEmail map[string]string
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:    make(map[string]model.User),
		byEmail: make(map[string]string),
	}
}

// Create stores u and returns it with id and CreatedAt filled in. A second
// account with the same email yields ErrAlreadyExists.
func (r *MemoryUserRepo) Create(_ context.Context, u model.User) (model.User, error) {
	u.Email = normalizeEmail(u.Email)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[u.Email]; exists {
		return model.User{}, fmt.Errorf("email %s: %w", u.Email, ErrAlreadyExists)
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (model.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return model.User{}, false, nil
	}
	return r.byID[id], true, nil
}

// GetByID fetches a user by id.
func (r *MemoryUserRepo) GetByID(_ context.Context, id string) (model.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	return u, ok, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
