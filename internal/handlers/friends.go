package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/midhun-sadanand/couchd-sub001/internal/auth"
	"github.com/midhun-sadanand/couchd-sub001/internal/store"
	"github.com/midhun-sadanand/couchd-sub001/internal/validate"
)

type FriendHandler struct {
	Store *store.Store
	Log   *zap.Logger
}

func NewFriendHandler(s *store.Store, log *zap.Logger) *FriendHandler {
	return &FriendHandler{Store: s, Log: log}
}

// Routes is mounted under /friends in main.
func (h *FriendHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Delete("/{friendId}", h.remove)
	r.Get("/requests", h.listRequests)
	r.Post("/requests", h.createRequest)
	r.Post("/requests/{id}/accept", h.accept)
	r.Post("/requests/{id}/reject", h.reject)
}

func (h *FriendHandler) createRequest(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	type bodyT struct {
		ReceiverID string `json:"receiver_id" validate:"required"`
	}
	var b bodyT
	if !decodeBody(w, r, &b) {
		return
	}
	if errs := validate.Map(b); errs != nil {
		writeValidation(w, errs)
		return
	}
	req, err := h.Store.CreateFriendRequest(r.Context(), uid, b.ReceiverID)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *FriendHandler) accept(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Store.AcceptFriendRequest(r.Context(), id, uid); err != nil {
		writeErr(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FriendHandler) reject(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Store.RejectFriendRequest(r.Context(), id, uid); err != nil {
		writeErr(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FriendHandler) listRequests(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	direction := r.URL.Query().Get("direction")
	reqs, err := h.Store.ListFriendRequests(r.Context(), uid, direction)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (h *FriendHandler) list(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	friends, err := h.Store.ListFriends(r.Context(), uid)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

func (h *FriendHandler) remove(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	friendID := chi.URLParam(r, "friendId")
	if err := h.Store.RemoveFriend(r.Context(), uid, friendID); err != nil {
		writeErr(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
