package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/midhun-sadanand/couchd-sub001/internal/apperr"
	"github.com/midhun-sadanand/couchd-sub001/internal/auth"
	"github.com/midhun-sadanand/couchd-sub001/internal/models"
	"github.com/midhun-sadanand/couchd-sub001/internal/store"
	"github.com/midhun-sadanand/couchd-sub001/internal/validate"
)

type ProfileHandler struct {
	Store *store.Store
	Log   *zap.Logger
}

func NewProfileHandler(s *store.Store, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{Store: s, Log: log}
}

func (h *ProfileHandler) Routes(r chi.Router) {
	r.Get("/me", h.me)
	r.Patch("/me", h.updateMe)
	r.Get("/profiles/{username}", h.getByUsername)
	r.Get("/profiles", h.search)
}

// ensureProfile lazily provisions a profile from token claims on the
// first authenticated request, covering users the webhook has not
// delivered yet.
func (h *ProfileHandler) ensureProfile(r *http.Request, uid string) (*models.Profile, error) {
	p, err := h.Store.GetProfile(r.Context(), uid)
	if err == nil {
		return p, nil
	}
	if apperr.Code(err) != apperr.CodeNotFound {
		return nil, err
	}
	claims := auth.Claims(r.Context())
	if claims == nil {
		return nil, err
	}
	p = &models.Profile{ID: uid, Email: claims.Email, Username: claims.Username, Avatar: claims.Avatar}
	if p.Username == "" && p.Email != "" {
		p.Username = strings.SplitN(p.Email, "@", 2)[0]
	}
	if upErr := h.Store.UpsertProfile(r.Context(), p); upErr != nil {
		return nil, upErr
	}
	return p, nil
}

func (h *ProfileHandler) me(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	p, err := h.ensureProfile(r, uid)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	type bodyT struct {
		Username *string `json:"username" validate:"omitempty,min=3,max=30,alphanum"`
		Bio      *string `json:"bio" validate:"omitempty,max=500"`
		Avatar   *string `json:"avatar" validate:"omitempty,url"`
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
	if b.Username != nil {
		fields["username"] = *b.Username
	}
	if b.Bio != nil {
		fields["bio"] = *b.Bio
	}
	if b.Avatar != nil {
		fields["avatar"] = *b.Avatar
	}
	p, err := h.Store.UpdateProfile(r.Context(), uid, fields)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) getByUsername(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	p, err := h.Store.GetProfileByUsername(r.Context(), username)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeErr(w, h.Log, apperr.New(apperr.CodeValidation, "q is required"))
		return
	}
	out, err := h.Store.SearchProfiles(r.Context(), q, 20)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
