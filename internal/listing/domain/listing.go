package domain

import (
	"errors"
	"time"
)

// Listing represents a venue or event listing owned by a tenant.
type Listing struct {
	ID         string
	TenantID   string
	Title      string
	Kind       ListingKind
	City       string
	Capacity   int32
	PriceCents int64
	Published  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type ListingKind string

const (
	KindVenue ListingKind = "venue"
	KindEvent ListingKind = "event"
)

// Validate validates the listing for persistence. Returns an error describing the first validation failure.
func (l *Listing) Validate() error {
	if l.TenantID == "" {
		return errors.New("tenant id is required")
	}
	if l.Title == "" {
		return errors.New("title is required")
	}
	if l.Kind != KindVenue && l.Kind != KindEvent {
		return errors.New("kind must be venue or event")
	}
	if l.Capacity < 0 {
		return errors.New("capacity must not be negative")
	}
	if l.PriceCents < 0 {
		return errors.New("price must not be negative")
	}
	return nil
}
