// Package handler exposes NGO verification submission and review over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dana/internal/platform/middleware"
	"dana/internal/transport/http/shared"
	"dana/internal/verification/models"
	"dana/internal/verification/service"
	id "dana/pkg/domain"
	dErrors "dana/pkg/domain-errors"
)

type Handler struct {
	verifications *service.Service
	logger        *slog.Logger
}

func New(verifications *service.Service, logger *slog.Logger) *Handler {
	return &Handler{verifications: verifications, logger: logger}
}

// Register mounts the verification routes. All of them sit behind
// RequireAuth; role checks happen in the service.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/ngo-upload", h.submit)
	r.Get("/auth/ngo-upload", h.own)
	r.Get("/ngo-verifications", h.list)
	r.Post("/admin/ngo-review/{id}", h.review)
}

type submitRequest struct {
	DocumentRef string `json:"document_ref"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid JSON body"))
		return
	}

	actor := middleware.ActorFrom(r.Context())
	verification, err := h.verifications.Submit(r.Context(), actor, req.DocumentRef)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, verification)
}

func (h *Handler) own(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFrom(r.Context())
	verification, err := h.verifications.GetForActor(r.Context(), actor.ID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, verification)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFrom(r.Context())
	filter := models.ListFilter{
		Status: models.Status(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("actor"); raw != "" {
		if _, err := id.ParseActorID(raw); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "actor must be a valid actor id"))
			return
		}
		filter.ActorID = raw
	}
	verifications, err := h.verifications.List(r.Context(), actor, filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if verifications == nil {
		verifications = []*models.NGOVerification{}
	}
	shared.WriteJSON(w, http.StatusOK, verifications)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	verificationID, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid JSON body"))
		return
	}

	actor := middleware.ActorFrom(r.Context())
	verification, err := h.verifications.Review(r.Context(), actor, verificationID, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, verification)
}
