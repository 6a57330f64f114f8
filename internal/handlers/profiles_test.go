package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/midhun-sadanand/couchd-sub001/internal/models"
)

func TestMe(t *testing.T) {
	e := newTestEnv(t, nil)
	e.seedProfile(t, "user_1", "ada")

	rec := e.do(t, http.MethodGet, "/me", "user_1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[models.Profile](t, rec)
	require.Equal(t, "ada", p.Username)

	rec = e.do(t, http.MethodGet, "/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateMe(t *testing.T) {
	e := newTestEnv(t, nil)
	e.seedProfile(t, "user_1", "ada")
	e.seedProfile(t, "user_2", "grace")

	rec := e.do(t, http.MethodPatch, "/me", "user_1", map[string]any{
		"username": "ada99", "bio": "watching everything",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[models.Profile](t, rec)
	require.Equal(t, "ada99", p.Username)
	require.Equal(t, "watching everything", p.Bio)

	// Taken username is a conflict.
	rec = e.do(t, http.MethodPatch, "/me", "user_1", map[string]any{"username": "grace"})
	require.Equal(t, http.StatusConflict, rec.Code)

	// Bad username shape fails validation.
	rec = e.do(t, http.MethodPatch, "/me", "user_1", map[string]any{"username": "a"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProfileByUsername(t *testing.T) {
	e := newTestEnv(t, nil)
	e.seedProfile(t, "user_1", "ada")

	rec := e.do(t, http.MethodGet, "/profiles/ada", "user_2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[models.Profile](t, rec)
	require.Equal(t, "user_1", p.ID)

	rec = e.do(t, http.MethodGet, "/profiles/nobody", "user_2", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchProfilesEndpoint(t *testing.T) {
	e := newTestEnv(t, nil)
	e.seedProfile(t, "user_1", "ada")
	e.seedProfile(t, "user_2", "adam")

	rec := e.do(t, http.MethodGet, "/profiles?q=ada", "user_1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[[]models.Profile](t, rec)
	require.Len(t, out, 2)

	rec = e.do(t, http.MethodGet, "/profiles?q=", "user_1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
