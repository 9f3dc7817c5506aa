package repository

import (
	"context"

	"eventfair/backend/internal/listing/domain"
)

// Repository defines persistence for listings. All reads are tenant-scoped.
type Repository interface {
	Create(ctx context.Context, l *domain.Listing) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Listing, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int32) ([]*domain.Listing, error)
	Update(ctx context.Context, l *domain.Listing) error
}
