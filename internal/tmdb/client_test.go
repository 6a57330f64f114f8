package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchMovies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/movie", r.URL.Path)
		require.Equal(t, "secret", r.URL.Query().Get("api_key"))
		require.Equal(t, "matrix", r.URL.Query().Get("query"))
		require.Equal(t, "2", r.URL.Query().Get("page"))
		_ = json.NewEncoder(w).Encode(SearchMoviesResponse{
			Page: 2, TotalResults: 1,
			Results: []Movie{{ID: 603, Title: "The Matrix", PosterPath: "/matrix.jpg"}},
		})
	}))
	defer srv.Close()

	c := New("secret", srv.URL)
	res, err := c.SearchMovies(context.Background(), "matrix", 2)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	require.Equal(t, "The Matrix", res.Results[0].Title)
}

func TestSearchTV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/tv", r.URL.Path)
		_ = json.NewEncoder(w).Encode(SearchTVResponse{
			Results: []TVShow{{ID: 1396, Name: "Breaking Bad"}},
		})
	}))
	defer srv.Close()

	c := New("secret", srv.URL)
	res, err := c.SearchTV(context.Background(), "breaking", 0)
	require.NoError(t, err)
	require.Equal(t, "Breaking Bad", res.Results[0].Name)
}

func TestGetMovieAndTVShow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/603":
			_ = json.NewEncoder(w).Encode(Movie{ID: 603, Title: "The Matrix"})
		case "/tv/1396":
			_ = json.NewEncoder(w).Encode(TVShow{ID: 1396, Name: "Breaking Bad"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New("secret", srv.URL)
	mv, err := c.GetMovie(context.Background(), 603)
	require.NoError(t, err)
	require.Equal(t, "The Matrix", mv.Title)

	show, err := c.GetTVShow(context.Background(), 1396)
	require.NoError(t, err)
	require.Equal(t, "Breaking Bad", show.Name)

	_, err = c.GetMovie(context.Background(), 999)
	require.ErrorContains(t, err, "tmdb status 404")
}
