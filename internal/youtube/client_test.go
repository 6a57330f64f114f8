package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchVideos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "secret", r.URL.Query().Get("key"))
		require.Equal(t, "video", r.URL.Query().Get("type"))
		require.Equal(t, "lofi", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"items":[{
			"id":{"videoId":"abc123"},
			"snippet":{
				"title":"lofi beats",
				"channelTitle":"chill",
				"publishedAt":"2024-01-01T00:00:00Z",
				"thumbnails":{"medium":{"url":"https://img.example/t.jpg"}}
			}
		}]}`))
	}))
	defer srv.Close()

	c := New("secret", srv.URL)
	res, err := c.SearchVideos(context.Background(), "lofi", 5)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	v := res.Results[0]
	require.Equal(t, "abc123", v.ID)
	require.Equal(t, "lofi beats", v.Title)
	require.Equal(t, "chill", v.ChannelTitle)
	require.Equal(t, "https://img.example/t.jpg", v.Thumbnail)
}

func TestSearchVideosUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New("secret", srv.URL)
	_, err := c.SearchVideos(context.Background(), "lofi", 5)
	require.ErrorContains(t, err, "youtube status 403")
}
