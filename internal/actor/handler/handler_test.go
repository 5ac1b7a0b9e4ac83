package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dana/internal/actor/handler"
	"dana/internal/actor/models"
	"dana/internal/actor/service"
	"dana/internal/actor/store"
	"dana/internal/identity"
	"dana/internal/platform/middleware"
	id "dana/pkg/domain"
)

type harness struct {
	router chi.Router
	svc    *service.Service
}

func newHarness() *harness {
	svc := service.New(store.NewInMemory())
	r := chi.NewRouter()
	handler.New(svc, slog.Default()).Register(r)
	return &harness{router: r, svc: svc}
}

func (h *harness) do(t *testing.T, ident identity.Identity, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)

	ctx := middleware.WithIdentity(req.Context(), ident)
	actor, err := h.svc.EnsureForIdentity(ctx, ident)
	require.NoError(t, err)
	req = req.WithContext(middleware.WithActor(ctx, actor))

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestSyncEndpoint(t *testing.T) {
	ident := identity.Identity{ExternalID: "uid-1", Email: "user@example.com"}

	t.Run("applies role claim", func(t *testing.T) {
		h := newHarness()
		rec := h.do(t, ident, http.MethodPost, "/auth/sync", map[string]string{
			"role":         "ngo",
			"phone_number": "123",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got models.Actor
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, models.RoleNGO, got.Role)
		assert.Equal(t, "123", got.PhoneNumber)
	})

	t.Run("unknown role is 400", func(t *testing.T) {
		h := newHarness()
		rec := h.do(t, ident, http.MethodPost, "/auth/sync", map[string]string{
			"role": "root",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUserEndpoints(t *testing.T) {
	ident := identity.Identity{ExternalID: "uid-1", Email: "user@example.com"}

	t.Run("lists with role filter", func(t *testing.T) {
		h := newHarness()
		rec := h.do(t, ident, http.MethodPost, "/auth/sync", map[string]string{"role": "ngo"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = h.do(t, ident, http.MethodGet, "/users?role=ngo", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got []models.Actor
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "user@example.com", got[0].Email)
	})

	t.Run("fetches by id", func(t *testing.T) {
		h := newHarness()
		rec := h.do(t, ident, http.MethodPost, "/auth/sync", map[string]string{})
		require.Equal(t, http.StatusOK, rec.Code)
		var created models.Actor
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

		rec = h.do(t, ident, http.MethodGet, "/users/"+created.ID.String(), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown user is 404", func(t *testing.T) {
		h := newHarness()
		rec := h.do(t, ident, http.MethodGet, "/users/"+id.NewActorID().String(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
