// Package handler exposes the donation lifecycle over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dana/internal/donation/models"
	"dana/internal/donation/service"
	"dana/internal/platform/middleware"
	"dana/internal/transport/http/shared"
	id "dana/pkg/domain"
	dErrors "dana/pkg/domain-errors"
)

type Handler struct {
	donations *service.Service
	logger    *slog.Logger
}

func New(donations *service.Service, logger *slog.Logger) *Handler {
	return &Handler{donations: donations, logger: logger}
}

// Register mounts the donation routes. All of them sit behind RequireAuth.
func (h *Handler) Register(r chi.Router) {
	r.Route("/donations", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid JSON body"))
		return
	}

	actor := middleware.ActorFrom(r.Context())
	donation, err := h.donations.Create(r.Context(), actor, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, donation)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.ListFilter{
		Status:      models.Status(query.Get("status")),
		DonorID:     query.Get("donor"),
		NgoID:       query.Get("ngo"),
		RecipientID: query.Get("recipient"),
		Search:      query.Get("search"),
		Ordering:    query.Get("ordering"),
	}
	// Actor filters land in UUID columns; reject junk here instead of
	// letting the database error on it.
	for _, param := range []string{"donor", "ngo", "recipient"} {
		if raw := query.Get(param); raw != "" {
			if _, err := id.ParseActorID(raw); err != nil {
				shared.WriteError(w, dErrors.Newf(dErrors.CodeValidation, "%s must be a valid actor id", param))
				return
			}
		}
	}
	if raw := query.Get("expiry_date"); raw != "" {
		bound, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "expiry_date must be an RFC 3339 timestamp"))
			return
		}
		filter.ExpiresBefore = &bound
	}

	donations, err := h.donations.List(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if donations == nil {
		donations = []*models.Donation{}
	}
	shared.WriteJSON(w, http.StatusOK, donations)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	donationID, err := id.ParseDonationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	donation, err := h.donations.Get(r.Context(), donationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, donation)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	donationID, err := id.ParseDonationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid JSON body"))
		return
	}

	actor := middleware.ActorFrom(r.Context())
	donation, err := h.donations.Update(r.Context(), actor, donationID, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, donation)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	donationID, err := id.ParseDonationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	actor := middleware.ActorFrom(r.Context())
	if err := h.donations.Delete(r.Context(), actor, donationID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
