package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/midhun-sadanand/couchd-sub001/internal/models"
)

func TestFriendRequestFlow(t *testing.T) {
	e := newTestEnv(t, nil)
	e.seedProfile(t, "user_a", "alice")
	e.seedProfile(t, "user_b", "bob")

	rec := e.do(t, http.MethodPost, "/friends/requests", "user_a", map[string]any{"receiver_id": "user_b"})
	require.Equal(t, http.StatusCreated, rec.Code)
	req := decode[models.FriendRequest](t, rec)
	require.Equal(t, models.RequestPending, req.Status)

	// Duplicate is a conflict.
	rec = e.do(t, http.MethodPost, "/friends/requests", "user_a", map[string]any{"receiver_id": "user_b"})
	require.Equal(t, http.StatusConflict, rec.Code)

	// Receiver sees it incoming.
	rec = e.do(t, http.MethodGet, "/friends/requests?direction=incoming", "user_b", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	incoming := decode[[]models.FriendRequest](t, rec)
	require.Len(t, incoming, 1)

	// Sender cannot accept their own request.
	rec = e.do(t, http.MethodPost, "/friends/requests/"+req.ID+"/accept", "user_a", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/friends/requests/"+req.ID+"/accept", "user_b", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Both sides list each other.
	rec = e.do(t, http.MethodGet, "/friends", "user_a", nil)
	friendsOfA := decode[[]models.Profile](t, rec)
	require.Len(t, friendsOfA, 1)
	require.Equal(t, "bob", friendsOfA[0].Username)

	rec = e.do(t, http.MethodGet, "/friends", "user_b", nil)
	friendsOfB := decode[[]models.Profile](t, rec)
	require.Len(t, friendsOfB, 1)
	require.Equal(t, "alice", friendsOfB[0].Username)

	// Accepting again conflicts.
	rec = e.do(t, http.MethodPost, "/friends/requests/"+req.ID+"/accept", "user_b", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	// Unfriend removes both directions.
	rec = e.do(t, http.MethodDelete, "/friends/user_b", "user_a", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(t, http.MethodGet, "/friends", "user_b", nil)
	require.Empty(t, decode[[]models.Profile](t, rec))
}

func TestFriendRequestReject(t *testing.T) {
	e := newTestEnv(t, nil)
	e.seedProfile(t, "user_a", "alice")
	e.seedProfile(t, "user_b", "bob")

	rec := e.do(t, http.MethodPost, "/friends/requests", "user_a", map[string]any{"receiver_id": "user_b"})
	req := decode[models.FriendRequest](t, rec)

	rec = e.do(t, http.MethodPost, "/friends/requests/"+req.ID+"/reject", "user_b", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// No friendship came out of it.
	rec = e.do(t, http.MethodGet, "/friends", "user_a", nil)
	require.Empty(t, decode[[]models.Profile](t, rec))

	// The request is gone.
	rec = e.do(t, http.MethodPost, "/friends/requests/"+req.ID+"/accept", "user_b", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFriendRequestValidation(t *testing.T) {
	e := newTestEnv(t, nil)
	e.seedProfile(t, "user_a", "alice")

	rec := e.do(t, http.MethodPost, "/friends/requests", "user_a", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/friends/requests", "user_a", map[string]any{"receiver_id": "user_a"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/friends/requests", "user_a", map[string]any{"receiver_id": "ghost"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}
