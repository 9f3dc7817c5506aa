package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventfair/backend/internal/listing/domain"
)

// Sentinel errors for the listing service; handler maps them to HTTP statuses.
var (
	ErrNotFound = errors.New("listing not found")
)

// Repo is the minimal listing repository needed by the service.
type Repo interface {
	Create(ctx context.Context, l *domain.Listing) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Listing, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int32) ([]*domain.Listing, error)
	Update(ctx context.Context, l *domain.Listing) error
}

// Service implements tenant-scoped listing management.
type Service struct {
	repo Repo
	now  func() time.Time
}

// New returns a listing Service backed by repo.
func New(repo Repo) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateInput holds the caller-supplied fields for a new listing.
type CreateInput struct {
	Title      string
	Kind       domain.ListingKind
	City       string
	Capacity   int32
	PriceCents int64
}

// Create validates and persists a new listing for the tenant.
func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput) (*domain.Listing, error) {
	now := s.now().UTC()
	l := &domain.Listing{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		Title:      in.Title,
		Kind:       in.Kind,
		City:       in.City,
		Capacity:   in.Capacity,
		PriceCents: in.PriceCents,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return l, nil
}

// Get returns the tenant's listing by id.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*domain.Listing, error) {
	l, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if l == nil {
		return nil, ErrNotFound
	}
	return l, nil
}

// List returns the tenant's listings, newest first. limit defaults to 50 and is capped at 200.
func (s *Service) List(ctx context.Context, tenantID string, limit, offset int32) ([]*domain.Listing, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	out, err := s.repo.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return out, nil
}

// SetPublished toggles the published flag on the tenant's listing.
func (s *Service) SetPublished(ctx context.Context, tenantID, id string, published bool) (*domain.Listing, error) {
	l, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	l.Published = published
	l.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}
	return l, nil
}
