package repository

import (
	"context"
	"sort"
	"sync"

	"eventfair/backend/internal/listing/domain"
)

// MemoryRepository implements Repository in memory. Used in tests and when the
// server runs without a database.
type MemoryRepository struct {
	mu       sync.RWMutex
	listings map[string]*domain.Listing
}

// NewMemoryRepository returns an empty in-memory listing repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{listings: make(map[string]*domain.Listing)}
}

func (r *MemoryRepository) Create(ctx context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.listings[l.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.listings[id]
	if !ok || l.TenantID != tenantID {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *MemoryRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int32) ([]*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*domain.Listing
	for _, l := range r.listings {
		if l.TenantID == tenantID {
			cp := *l
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if int(offset) >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if int(limit) < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryRepository) Update(ctx context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.listings[l.ID]; !ok || existing.TenantID != l.TenantID {
		return nil
	}
	cp := *l
	r.listings[l.ID] = &cp
	return nil
}
