// Package handler exposes the actor directory over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dana/internal/actor/models"
	"dana/internal/actor/service"
	"dana/internal/platform/middleware"
	"dana/internal/transport/http/shared"
	id "dana/pkg/domain"
	dErrors "dana/pkg/domain-errors"
)

type Handler struct {
	actors *service.Service
	logger *slog.Logger
}

func New(actors *service.Service, logger *slog.Logger) *Handler {
	return &Handler{actors: actors, logger: logger}
}

// Register mounts the actor routes. All of them sit behind RequireAuth.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/sync", h.sync)
	r.Get("/users", h.list)
	r.Get("/users/{id}", h.get)
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	var req models.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid JSON body"))
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	actor, err := h.actors.Sync(r.Context(), ident, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, actor)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := models.ListFilter{
		Role:     models.Role(r.URL.Query().Get("role")),
		Search:   r.URL.Query().Get("search"),
		Ordering: r.URL.Query().Get("ordering"),
	}
	switch r.URL.Query().Get("verified") {
	case "true":
		verified := true
		filter.Verified = &verified
	case "false":
		verified := false
		filter.Verified = &verified
	}

	actors, err := h.actors.List(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if actors == nil {
		actors = []*models.Actor{}
	}
	shared.WriteJSON(w, http.StatusOK, actors)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actorID, err := id.ParseActorID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	actor, err := h.actors.Get(r.Context(), actorID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, actor)
}
