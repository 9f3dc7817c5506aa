// Package handler exposes tenant-scoped listing management over HTTP.
// All routes run behind the session middleware; the tenant is taken from the
// authenticated session, never from the request.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"eventfair/backend/internal/listing/domain"
	"eventfair/backend/internal/listing/service"
	sessionhandler "eventfair/backend/internal/session/handler"
)

const maxBodySize = 64 << 10

// Handler owns the /api/listings routes.
type Handler struct {
	svc *service.Service
	log zerolog.Logger
}

// New returns a listing Handler.
func New(svc *service.Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes returns the /api/listings router. Mount behind session middleware.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{listingID}", h.Get)
	r.Put("/{listingID}/published", h.SetPublished)
	return r
}

type createRequest struct {
	Title      string `json:"title"`
	Kind       string `json:"kind"`
	City       string `json:"city"`
	Capacity   int32  `json:"capacity"`
	PriceCents int64  `json:"priceCents"`
}

type publishRequest struct {
	Published bool `json:"published"`
}

type listingResponse struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenantId"`
	Title      string    `json:"title"`
	Kind       string    `json:"kind"`
	City       string    `json:"city,omitempty"`
	Capacity   int32     `json:"capacity"`
	PriceCents int64     `json:"priceCents"`
	Published  bool      `json:"published"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Create handles POST /api/listings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	req, ok := decodeJSON[createRequest](w, r)
	if !ok {
		return
	}
	l, err := h.svc.Create(r.Context(), tenantID, service.CreateInput{
		Title:      req.Title,
		Kind:       domain.ListingKind(req.Kind),
		City:       req.City,
		Capacity:   req.Capacity,
		PriceCents: req.PriceCents,
	})
	if err != nil {
		h.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(l))
}

// List handles GET /api/listings with optional limit and offset query params.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	limit := queryInt32(r, "limit")
	offset := queryInt32(r, "offset")
	out, err := h.svc.List(r.Context(), tenantID, limit, offset)
	if err != nil {
		h.mapError(w, err)
		return
	}
	resp := make([]listingResponse, len(out))
	for i, l := range out {
		resp[i] = toResponse(l)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/listings/{listingID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	l, err := h.svc.Get(r.Context(), tenantID, chi.URLParam(r, "listingID"))
	if err != nil {
		h.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(l))
}

// SetPublished handles PUT /api/listings/{listingID}/published.
func (h *Handler) SetPublished(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	req, ok := decodeJSON[publishRequest](w, r)
	if !ok {
		return
	}
	l, err := h.svc.SetPublished(r.Context(), tenantID, chi.URLParam(r, "listingID"), req.Published)
	if err != nil {
		h.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(l))
}

// tenant resolves the tenant from the authenticated session. Organizers act
// under their profile when one exists, otherwise under their user id.
func (h *Handler) tenant(w http.ResponseWriter, r *http.Request) (string, bool) {
	sess := sessionhandler.FromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "notAuthenticated")
		return "", false
	}
	if sess.User.ProfileID != "" {
		return sess.User.ProfileID, true
	}
	return sess.User.ID, true
}

func (h *Handler) mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "listingNotFound")
	case errors.Unwrap(err) == nil:
		// Validation errors come back unwrapped from the domain.
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("listing request failed")
		writeError(w, http.StatusInternalServerError, "internal")
	}
}

func toResponse(l *domain.Listing) listingResponse {
	return listingResponse{
		ID:         l.ID,
		TenantID:   l.TenantID,
		Title:      l.Title,
		Kind:       string(l.Kind),
		City:       l.City,
		Capacity:   l.Capacity,
		PriceCents: l.PriceCents,
		Published:  l.Published,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func queryInt32(r *http.Request, key string) int32 {
	v, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 32)
	if err != nil {
		return 0
	}
	return int32(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalidJSON")
		return v, false
	}
	return v, true
}
