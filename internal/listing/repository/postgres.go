package repository

import (
	"context"
	"database/sql"
	"errors"

	"eventfair/backend/internal/listing/domain"
)

// PostgresRepository implements Repository on a database/sql connection.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a listing repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the listing. The listing must have ID and timestamps set.
func (r *PostgresRepository) Create(ctx context.Context, l *domain.Listing) error {
	query := `
		INSERT INTO listings (id, tenant_id, title, kind, city, capacity, price_cents, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.TenantID, l.Title, string(l.Kind), l.City, l.Capacity, l.PriceCents, l.Published, l.CreatedAt, l.UpdatedAt,
	)
	return err
}

// GetByID returns the listing for id within the tenant, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Listing, error) {
	query := `
		SELECT id, tenant_id, title, kind, city, capacity, price_cents, published, created_at, updated_at
		FROM listings
		WHERE tenant_id = $1 AND id = $2
	`
	var l domain.Listing
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&l.ID, &l.TenantID, &l.Title, &l.Kind, &l.City, &l.Capacity, &l.PriceCents, &l.Published, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// ListByTenant returns listings for the given tenant, newest first, paginated by limit and offset.
func (r *PostgresRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int32) ([]*domain.Listing, error) {
	query := `
		SELECT id, tenant_id, title, kind, city, capacity, price_cents, published, created_at, updated_at
		FROM listings
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := rows.Scan(&l.ID, &l.TenantID, &l.Title, &l.Kind, &l.City, &l.Capacity, &l.PriceCents, &l.Published, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// Update rewrites the mutable listing fields. The listing is matched by tenant and id.
func (r *PostgresRepository) Update(ctx context.Context, l *domain.Listing) error {
	query := `
		UPDATE listings
		SET title = $3, kind = $4, city = $5, capacity = $6, price_cents = $7, published = $8, updated_at = $9
		WHERE tenant_id = $1 AND id = $2
	`
	_, err := r.db.ExecContext(ctx, query,
		l.TenantID, l.ID, l.Title, string(l.Kind), l.City, l.Capacity, l.PriceCents, l.Published, l.UpdatedAt,
	)
	return err
}
