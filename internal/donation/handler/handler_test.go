package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	actormodels "dana/internal/actor/models"
	"dana/internal/donation/handler"
	"dana/internal/donation/models"
	"dana/internal/donation/service"
	"dana/internal/donation/store"
	"dana/internal/platform/middleware"
	id "dana/pkg/domain"
	dErrors "dana/pkg/domain-errors"
)

type stubDirectory struct {
	actors map[id.ActorID]*actormodels.Actor
}

func (s *stubDirectory) Get(_ context.Context, actorID id.ActorID) (*actormodels.Actor, error) {
	if actor, ok := s.actors[actorID]; ok {
		return actor, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "actor not found")
}

type stubVerifier struct {
	verified map[id.ActorID]bool
}

func (s *stubVerifier) IsVerified(_ context.Context, actorID id.ActorID) (bool, error) {
	return s.verified[actorID], nil
}

type harness struct {
	router    chi.Router
	directory *stubDirectory
	verifier  *stubVerifier
	donor     *actormodels.Actor
	ngo       *actormodels.Actor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	directory := &stubDirectory{actors: make(map[id.ActorID]*actormodels.Actor)}
	verifier := &stubVerifier{verified: make(map[id.ActorID]bool)}

	donor := &actormodels.Actor{ID: id.NewActorID(), Role: actormodels.RoleDonor}
	ngo := &actormodels.Actor{ID: id.NewActorID(), Role: actormodels.RoleNGO}
	directory.actors[donor.ID] = donor
	directory.actors[ngo.ID] = ngo
	verifier.verified[ngo.ID] = true

	svc := service.New(store.NewInMemory(), directory, verifier)
	router := chi.NewRouter()
	handler.New(svc, slog.Default()).Register(router)

	return &harness{router: router, directory: directory, verifier: verifier, donor: donor, ngo: ngo}
}

func (h *harness) do(t *testing.T, actor *actormodels.Actor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(middleware.WithActor(req.Context(), actor))
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) createDonation(t *testing.T) models.Donation {
	t.Helper()
	rec := h.do(t, h.donor, http.MethodPost, "/donations", map[string]any{
		"title":       "Bakery surplus",
		"pickup_time": time.Now().Add(2 * time.Hour).Format(time.RFC3339),
		"location":    map[string]any{"address": "12 Market St"},
		"items": []map[string]any{
			{"name": "Bread", "quantity": "20 loaves"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var donation models.Donation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &donation))
	return donation
}

func TestCreateDonation(t *testing.T) {
	t.Run("returns 201 with the donation", func(t *testing.T) {
		h := newHarness(t)
		donation := h.createDonation(t)
		assert.Equal(t, models.StatusAvailable, donation.Status)
		assert.Equal(t, h.donor.ID, donation.DonorID)
		require.NotNil(t, donation.Location)
		assert.Equal(t, "12 Market St", donation.Location.Address)
	})

	t.Run("malformed JSON is 400", func(t *testing.T) {
		h := newHarness(t)
		req := httptest.NewRequest(http.MethodPost, "/donations", bytes.NewBufferString("{"))
		req = req.WithContext(middleware.WithActor(req.Context(), h.donor))
		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing title is 400", func(t *testing.T) {
		h := newHarness(t)
		rec := h.do(t, h.donor, http.MethodPost, "/donations", map[string]any{
			"pickup_time": time.Now().Add(time.Hour).Format(time.RFC3339),
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetDonation(t *testing.T) {
	t.Run("round-trips", func(t *testing.T) {
		h := newHarness(t)
		created := h.createDonation(t)

		rec := h.do(t, h.donor, http.MethodGet, "/donations/"+created.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got models.Donation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		h := newHarness(t)
		rec := h.do(t, h.donor, http.MethodGet, "/donations/"+id.NewDonationID().String(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		h := newHarness(t)
		rec := h.do(t, h.donor, http.MethodGet, "/donations/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTransitionStatusCodes(t *testing.T) {
	t.Run("claim wins with 200", func(t *testing.T) {
		h := newHarness(t)
		created := h.createDonation(t)

		rec := h.do(t, h.ngo, http.MethodPatch, "/donations/"+created.ID.String(), map[string]any{
			"status": "claimed",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got models.Donation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, models.StatusClaimed, got.Status)
	})

	t.Run("losing claim is 409", func(t *testing.T) {
		h := newHarness(t)
		created := h.createDonation(t)

		rec := h.do(t, h.ngo, http.MethodPatch, "/donations/"+created.ID.String(), map[string]any{
			"status": "claimed",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rival := &actormodels.Actor{ID: id.NewActorID(), Role: actormodels.RoleNGO}
		h.directory.actors[rival.ID] = rival
		h.verifier.verified[rival.ID] = true

		rec = h.do(t, rival, http.MethodPatch, "/donations/"+created.ID.String(), map[string]any{
			"status": "claimed",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "conflict", body["error"])
	})

	t.Run("unverified NGO claim is 400", func(t *testing.T) {
		h := newHarness(t)
		created := h.createDonation(t)
		unverified := &actormodels.Actor{ID: id.NewActorID(), Role: actormodels.RoleNGO}
		h.directory.actors[unverified.ID] = unverified

		rec := h.do(t, unverified, http.MethodPatch, "/donations/"+created.ID.String(), map[string]any{
			"status": "claimed",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("complete without recipient is 400", func(t *testing.T) {
		h := newHarness(t)
		created := h.createDonation(t)
		h.do(t, h.ngo, http.MethodPatch, "/donations/"+created.ID.String(), map[string]any{
			"status": "claimed",
		})

		rec := h.do(t, h.ngo, http.MethodPatch, "/donations/"+created.ID.String(), map[string]any{
			"status": "completed",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("full lifecycle to completed", func(t *testing.T) {
		h := newHarness(t)
		created := h.createDonation(t)
		recipient := &actormodels.Actor{ID: id.NewActorID(), Role: actormodels.RoleRecipient}
		h.directory.actors[recipient.ID] = recipient

		for _, step := range []map[string]any{
			{"status": "claimed"},
			{"status": "picked_up"},
			{"status": "completed", "recipient_id": recipient.ID.String()},
		} {
			rec := h.do(t, h.ngo, http.MethodPatch, "/donations/"+created.ID.String(), step)
			require.Equal(t, http.StatusOK, rec.Code, fmt.Sprintf("step %v: %s", step, rec.Body.String()))
		}

		rec := h.do(t, h.donor, http.MethodGet, "/donations/"+created.ID.String(), nil)
		var got models.Donation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, models.StatusCompleted, got.Status)
		require.NotNil(t, got.RecipientID)
		assert.Equal(t, recipient.ID, *got.RecipientID)
	})
}

func TestListDonations(t *testing.T) {
	h := newHarness(t)
	h.createDonation(t)
	h.createDonation(t)

	rec := h.do(t, h.donor, http.MethodGet, "/donations?status=available", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.Donation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)

	// Junk in an actor-id filter is a client error, not a database one.
	rec = h.do(t, h.donor, http.MethodGet, "/donations?donor=not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteDonation(t *testing.T) {
	t.Run("donor delete is 204", func(t *testing.T) {
		h := newHarness(t)
		created := h.createDonation(t)

		rec := h.do(t, h.donor, http.MethodDelete, "/donations/"+created.ID.String(), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = h.do(t, h.donor, http.MethodGet, "/donations/"+created.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-donor delete is 400", func(t *testing.T) {
		h := newHarness(t)
		created := h.createDonation(t)

		rec := h.do(t, h.ngo, http.MethodDelete, "/donations/"+created.ID.String(), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
