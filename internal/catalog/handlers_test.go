package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/micromasters/dashboard-api/internal/common"
)

type fakeStore struct {
	programs []Program
	calls    int
	lastUser string
	err      error
}

func (f *fakeStore) Programs(ctx context.Context, userID string, now time.Time) ([]Program, error) {
	f.calls++
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.programs, nil
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestProgramsAnonymousUsesCache(t *testing.T) {
	store := &fakeStore{programs: []Program{{ID: 1, Title: "Supply Chain Management"}}}
	svc, err := NewService(ServiceConfig{Store: store, Cache: newTestCache(t)})
	require.NoError(t, err)
	handler := NewHandler(svc)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/programs", nil)
		rec := httptest.NewRecorder()
		handler.Programs(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "Supply Chain Management")
	}
	require.Equal(t, 1, store.calls)
}

func TestProgramsAuthenticatedBypassesCache(t *testing.T) {
	store := &fakeStore{programs: []Program{{ID: 1, Title: "Data Science"}}}
	svc, err := NewService(ServiceConfig{Store: store, Cache: newTestCache(t)})
	require.NoError(t, err)
	handler := NewHandler(svc)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/programs", nil)
		req = req.WithContext(common.WithUserID(req.Context(), "user-1"))
		rec := httptest.NewRecorder()
		handler.Programs(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, 2, store.calls)
	require.Equal(t, "user-1", store.lastUser)
}

func TestProgramsEmptyCatalog(t *testing.T) {
	store := &fakeStore{}
	svc, err := NewService(ServiceConfig{Store: store, Cache: newTestCache(t)})
	require.NoError(t, err)
	handler := NewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/programs", nil)
	rec := httptest.NewRecorder()
	handler.Programs(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestProgramDetail(t *testing.T) {
	store := &fakeStore{programs: []Program{
		{ID: 1, Title: "Supply Chain Management"},
		{ID: 2, Title: "Data Science"},
	}}
	svc, err := NewService(ServiceConfig{Store: store, Cache: newTestCache(t)})
	require.NoError(t, err)
	handler := NewHandler(svc)

	router := chi.NewRouter()
	router.Get("/api/v1/programs/{programID}", handler.Program)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/programs/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Data Science")
	require.NotContains(t, rec.Body.String(), "Supply Chain Management")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/programs/99", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/programs/abc", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidateAnonymous(t *testing.T) {
	store := &fakeStore{programs: []Program{{ID: 1, Title: "Analytics"}}}
	svc, err := NewService(ServiceConfig{Store: store, Cache: newTestCache(t)})
	require.NoError(t, err)

	_, err = svc.AnonymousPrograms(context.Background())
	require.NoError(t, err)
	_, err = svc.AnonymousPrograms(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, store.calls)

	require.NoError(t, svc.InvalidateAnonymous(context.Background()))
	_, err = svc.AnonymousPrograms(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, store.calls)
}
