package repository

import (
	"context"

	"eventfair/backend/internal/audit/domain"
)

// Repository defines persistence for session audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	GetByID(ctx context.Context, id string) (*domain.AuditLog, error)
	ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.AuditLog, error)
}
