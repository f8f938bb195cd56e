package admins

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/siteadmin/internal/common"
	"github.com/dmitrijs2005/siteadmin/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps admins in process memory. It enforces the same
// email uniqueness as the Postgres schema and hands out copies so callers
// cannot mutate stored entries.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.Admin
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]models.Admin),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, admin *models.Admin) (*models.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[admin.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	now := r.now()
	admin.ID = uuid.NewString()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	r.byID[admin.ID] = *admin
	r.byEmail[admin.Email] = admin.ID

	return admin, nil
}

func (r *MemoryRepository) Update(_ context.Context, admin *models.Admin) (*models.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[admin.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}

	if owner, taken := r.byEmail[admin.Email]; taken && owner != admin.ID {
		return nil, common.ErrorAlreadyExists
	}

	delete(r.byEmail, stored.Email)

	admin.CreatedAt = stored.CreatedAt
	admin.UpdatedAt = r.now()

	r.byID[admin.ID] = *admin
	r.byEmail[admin.Email] = admin.ID

	return admin, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}

	a := r.byID[id]
	return &a, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}

	return &a, nil
}
