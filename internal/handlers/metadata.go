package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/midhun-sadanand/couchd-sub001/internal/apperr"
	"github.com/midhun-sadanand/couchd-sub001/internal/cache"
	"github.com/midhun-sadanand/couchd-sub001/internal/tmdb"
	"github.com/midhun-sadanand/couchd-sub001/internal/youtube"
)

// MetadataHandler proxies third-party media search so provider keys
// never reach the browser. Responses are cached briefly; these are
// pure lookups and repeat heavily while a user types.
type MetadataHandler struct {
	TMDB    *tmdb.Client
	YouTube *youtube.Client
	Log     *zap.Logger

	searchCache *cache.TTLCache[string, []byte]
}

func NewMetadataHandler(t *tmdb.Client, y *youtube.Client, log *zap.Logger) *MetadataHandler {
	return &MetadataHandler{
		TMDB:        t,
		YouTube:     y,
		Log:         log,
		searchCache: cache.NewTTL[string, []byte](60 * time.Second),
	}
}

func (h *MetadataHandler) serveCached(w http.ResponseWriter, key string) bool {
	b, ok := h.searchCache.Get(key)
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
	return true
}

func (h *MetadataHandler) cacheAndServe(w http.ResponseWriter, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		writeErr(w, h.Log, apperr.Wrap(err, apperr.CodeInternal, "encode failed"))
		return
	}
	h.searchCache.Set(key, b)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// GET /v1/search/movies?q=&page=
func (h *MetadataHandler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeErr(w, h.Log, apperr.New(apperr.CodeValidation, "q is required"))
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	key := "movies|" + strconv.Itoa(page) + "|" + q
	if h.serveCached(w, key) {
		return
	}
	res, err := h.TMDB.SearchMovies(r.Context(), q, page)
	if err != nil {
		writeErr(w, h.Log, apperr.Wrap(err, apperr.CodeUpstream, "movie search failed"))
		return
	}
	h.cacheAndServe(w, key, res)
}

// GET /v1/search/tv?q=&page=
func (h *MetadataHandler) SearchTV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeErr(w, h.Log, apperr.New(apperr.CodeValidation, "q is required"))
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	key := "tv|" + strconv.Itoa(page) + "|" + q
	if h.serveCached(w, key) {
		return
	}
	res, err := h.TMDB.SearchTV(r.Context(), q, page)
	if err != nil {
		writeErr(w, h.Log, apperr.Wrap(err, apperr.CodeUpstream, "tv search failed"))
		return
	}
	h.cacheAndServe(w, key, res)
}

// GET /v1/search/videos?q=&limit=
func (h *MetadataHandler) SearchVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeErr(w, h.Log, apperr.New(apperr.CodeValidation, "q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	key := "videos|" + strconv.Itoa(limit) + "|" + q
	if h.serveCached(w, key) {
		return
	}
	res, err := h.YouTube.SearchVideos(r.Context(), q, limit)
	if err != nil {
		writeErr(w, h.Log, apperr.Wrap(err, apperr.CodeUpstream, "video search failed"))
		return
	}
	h.cacheAndServe(w, key, res)
}
