package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/midhun-sadanand/couchd-sub001/internal/auth"
	"github.com/midhun-sadanand/couchd-sub001/internal/models"
	"github.com/midhun-sadanand/couchd-sub001/internal/store"
	"github.com/midhun-sadanand/couchd-sub001/internal/tmdb"
)

// testEnv wires handlers onto a chi router backed by an in-memory
// database, with a header-based stand-in for the JWT middleware.
type testEnv struct {
	store  *store.Store
	router chi.Router
}

var testDBSeq atomic.Int64

func newTestEnv(t *testing.T, tmdbClient *tmdb.Client) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:handlertest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	st := store.New(db)

	log := zap.NewNop()
	wl := NewWatchlistHandler(st, tmdbClient, log)
	fr := NewFriendHandler(st, log)
	pr := NewProfileHandler(st, log)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if uid := req.Header.Get("X-Test-User"); uid != "" {
				req = req.WithContext(auth.WithUser(req.Context(), uid))
			}
			next.ServeHTTP(w, req)
		})
	})
	pr.Routes(r)
	r.Route("/friends", fr.Routes)
	r.Route("/watchlists", wl.Routes)

	return &testEnv{store: st, router: r}
}

func (e *testEnv) do(t *testing.T, method, path, uid string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if uid != "" {
		req.Header.Set("X-Test-User", uid)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedProfile(t *testing.T, id, username string) {
	t.Helper()
	p := &models.Profile{ID: id, Username: username, Email: username + "@example.com"}
	require.NoError(t, e.store.UpsertProfile(context.Background(), p))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}
