package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/midhun-sadanand/couchd-sub001/internal/apperr"
	"github.com/midhun-sadanand/couchd-sub001/internal/auth"
	"github.com/midhun-sadanand/couchd-sub001/internal/models"
	"github.com/midhun-sadanand/couchd-sub001/internal/store"
	"github.com/midhun-sadanand/couchd-sub001/internal/tmdb"
	"github.com/midhun-sadanand/couchd-sub001/internal/validate"
)

type WatchlistHandler struct {
	Store *store.Store
	TMDB  *tmdb.Client
	Log   *zap.Logger
}

func NewWatchlistHandler(s *store.Store, t *tmdb.Client, log *zap.Logger) *WatchlistHandler {
	return &WatchlistHandler{Store: s, TMDB: t, Log: log}
}

// Routes is mounted under /watchlists in main.
func (h *WatchlistHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	// sharing
	r.Get("/{id}/share", h.getShares)
	r.Put("/{id}/share", h.putShares)
	// items
	r.Post("/{id}/items", h.addItem)
	r.Patch("/{id}/items/{itemId}", h.updateItem)
	r.Delete("/{id}/items/{itemId}", h.removeItem)
	r.Put("/{id}/items/order", h.reorder)
}

func (h *WatchlistHandler) create(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	type bodyT struct {
		Name        string `json:"name" validate:"required,min=1,max=200"`
		Description string `json:"description" validate:"max=1000"`
		Image       string `json:"image" validate:"omitempty,url"`
		IsPublic    bool   `json:"is_public"`
	}
	var b bodyT
	if !decodeBody(w, r, &b) {
		return
	}
	if errs := validate.Map(b); errs != nil {
		writeValidation(w, errs)
		return
	}
	wl := &models.Watchlist{OwnerID: uid, Name: b.Name, Description: b.Description, Image: b.Image, IsPublic: b.IsPublic}
	if err := h.Store.CreateWatchlist(r.Context(), wl); err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, wl)
}

func (h *WatchlistHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	wl, err := h.Store.GetWatchlist(r.Context(), id)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	uid := auth.UserID(r.Context())
	ok, err := h.Store.CanViewWatchlist(r.Context(), wl, uid)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	if !ok {
		// Private lists stay invisible to outsiders.
		writeErr(w, h.Log, apperr.New(apperr.CodeNotFound, "watchlist not found"))
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

// list returns the caller's own lists by default; ?filter=shared for
// lists shared with the caller, ?owner=<id> for another user's public
// lists.
func (h *WatchlistHandler) list(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	var (
		lists []models.Watchlist
		err   error
	)
	switch {
	case r.URL.Query().Get("filter") == "shared":
		lists, err = h.Store.ListSharedWithUser(r.Context(), uid)
	case r.URL.Query().Get("owner") != "" && r.URL.Query().Get("owner") != uid:
		lists, err = h.Store.ListPublicWatchlistsByOwner(r.Context(), r.URL.Query().Get("owner"))
	default:
		lists, err = h.Store.ListWatchlistsByOwner(r.Context(), uid)
	}
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *WatchlistHandler) update(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	type bodyT struct {
		Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
		Description *string `json:"description" validate:"omitempty,max=1000"`
		Image       *string `json:"image" validate:"omitempty,url"`
		IsPublic    *bool   `json:"is_public"`
	}
	var b bodyT
	if !decodeBody(w, r, &b) {
		return
	}
	if errs := validate.Map(b); errs != nil {
		writeValidation(w, errs)
		return
	}
	fields := map[string]any{}
	if b.Name != nil {
		fields["name"] = *b.Name
	}
	if b.Description != nil {
		fields["description"] = *b.Description
	}
	if b.Image != nil {
		fields["image"] = *b.Image
	}
	if b.IsPublic != nil {
		fields["is_public"] = *b.IsPublic
	}
	wl, err := h.Store.UpdateWatchlist(r.Context(), id, uid, fields)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

func (h *WatchlistHandler) delete(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteWatchlist(r.Context(), id, uid); err != nil {
		writeErr(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WatchlistHandler) getShares(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	viewers, err := h.Store.ListShares(r.Context(), id, uid)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"viewer_ids": viewers})
}

func (h *WatchlistHandler) putShares(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	type bodyT struct {
		ViewerIDs []string `json:"viewer_ids" validate:"max=100"`
	}
	var b bodyT
	if !decodeBody(w, r, &b) {
		return
	}
	if errs := validate.Map(b); errs != nil {
		writeValidation(w, errs)
		return
	}
	if err := h.Store.ReconcileShares(r.Context(), id, uid, b.ViewerIDs); err != nil {
		writeErr(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WatchlistHandler) addItem(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	wlID := chi.URLParam(r, "id")
	type bodyT struct {
		Title      string  `json:"title" validate:"omitempty,max=500"`
		Medium     string  `json:"medium" validate:"required,oneof=movie tv youtube book"`
		Status     string  `json:"status" validate:"omitempty,oneof=to_consume consuming consumed"`
		Rating     float64 `json:"rating" validate:"half_step_rating"`
		Notes      string  `json:"notes" validate:"max=2000"`
		ExternalID string  `json:"external_id" validate:"max=100"`
		Image      string  `json:"image" validate:"omitempty,url"`
	}
	var b bodyT
	if !decodeBody(w, r, &b) {
		return
	}
	if errs := validate.Map(b); errs != nil {
		writeValidation(w, errs)
		return
	}
	item := &models.MediaItem{
		WatchlistID: wlID,
		Title:       b.Title,
		Medium:      b.Medium,
		Status:      b.Status,
		Rating:      b.Rating,
		Notes:       b.Notes,
		ExternalID:  b.ExternalID,
		Image:       b.Image,
	}
	if item.Status == "" {
		item.Status = models.StatusToConsume
	}
	// For TMDB-backed media an external id is enough; the metadata
	// lookup fills in title and artwork.
	if item.Title == "" && b.ExternalID != "" {
		if err := h.enrichFromTMDB(r, item, b.Medium, b.ExternalID); err != nil {
			writeErr(w, h.Log, err)
			return
		}
	}
	if item.Title == "" {
		writeErr(w, h.Log, apperr.New(apperr.CodeValidation, "title or a resolvable external_id is required"))
		return
	}
	if err := h.Store.AddItem(r.Context(), item, uid); err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *WatchlistHandler) enrichFromTMDB(r *http.Request, item *models.MediaItem, medium, externalID string) error {
	tmdbID, err := strconv.ParseInt(externalID, 10, 64)
	if err != nil {
		return apperr.New(apperr.CodeValidation, "external_id must be a TMDB id for movie/tv items")
	}
	switch medium {
	case models.MediumMovie:
		mv, err := h.TMDB.GetMovie(r.Context(), tmdbID)
		if err != nil {
			return apperr.Wrap(err, apperr.CodeUpstream, "metadata lookup failed")
		}
		item.Title = mv.Title
		if item.Image == "" {
			item.Image = mv.PosterPath
		}
	case models.MediumTV:
		show, err := h.TMDB.GetTVShow(r.Context(), tmdbID)
		if err != nil {
			return apperr.Wrap(err, apperr.CodeUpstream, "metadata lookup failed")
		}
		item.Title = show.Name
		if item.Image == "" {
			item.Image = show.PosterPath
		}
	default:
		return apperr.New(apperr.CodeValidation, "title is required for "+medium+" items")
	}
	return nil
}

func (h *WatchlistHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	wlID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemId")
	type bodyT struct {
		Title  *string  `json:"title" validate:"omitempty,min=1,max=500"`
		Status *string  `json:"status" validate:"omitempty,oneof=to_consume consuming consumed"`
		Rating *float64 `json:"rating" validate:"omitempty,half_step_rating"`
		Notes  *string  `json:"notes" validate:"omitempty,max=2000"`
	}
	var b bodyT
	if !decodeBody(w, r, &b) {
		return
	}
	if errs := validate.Map(b); errs != nil {
		writeValidation(w, errs)
		return
	}
	fields := map[string]any{}
	if b.Title != nil {
		fields["title"] = *b.Title
	}
	if b.Status != nil {
		fields["status"] = *b.Status
	}
	if b.Rating != nil {
		fields["rating"] = *b.Rating
	}
	if b.Notes != nil {
		fields["notes"] = *b.Notes
	}
	if len(fields) == 0 {
		writeErr(w, h.Log, apperr.New(apperr.CodeValidation, "no fields to update"))
		return
	}
	item, err := h.Store.UpdateItem(r.Context(), wlID, itemID, uid, fields)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *WatchlistHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	wlID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemId")
	if err := h.Store.RemoveItem(r.Context(), wlID, itemID, uid); err != nil {
		writeErr(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WatchlistHandler) reorder(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	wlID := chi.URLParam(r, "id")
	type bodyT struct {
		ItemIDs []string `json:"item_ids" validate:"required"`
	}
	var b bodyT
	if !decodeBody(w, r, &b) {
		return
	}
	if errs := validate.Map(b); errs != nil {
		writeValidation(w, errs)
		return
	}
	if err := h.Store.ReorderItems(r.Context(), wlID, uid, b.ItemIDs); err != nil {
		writeErr(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
