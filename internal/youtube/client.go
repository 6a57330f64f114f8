package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client wraps the YouTube Data API v3 search endpoint. Keyed
// server-side for the same reason as the TMDB client.
type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`
	Thumbnail    string `json:"thumbnail"`
	PublishedAt  string `json:"published_at"`
}

type SearchResponse struct {
	Results []Video `json:"results"`
}

func New(apiKey, base string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) SearchVideos(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	u, err := url.Parse(c.BaseURL + "/search")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("key", c.APIKey)
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("q", query)
	q.Set("maxResults", fmt.Sprint(limit))
	u.RawQuery = q.Encode()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube status %d", res.StatusCode)
	}

	var raw struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title        string `json:"title"`
				ChannelTitle string `json:"channelTitle"`
				PublishedAt  string `json:"publishedAt"`
				Thumbnails   struct {
					Medium struct {
						URL string `json:"url"`
					} `json:"medium"`
				} `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, err
	}
	out := &SearchResponse{Results: make([]Video, 0, len(raw.Items))}
	for _, it := range raw.Items {
		out.Results = append(out.Results, Video{
			ID:           it.ID.VideoID,
			Title:        it.Snippet.Title,
			ChannelTitle: it.Snippet.ChannelTitle,
			Thumbnail:    it.Snippet.Thumbnails.Medium.URL,
			PublishedAt:  it.Snippet.PublishedAt,
		})
	}
	return out, nil
}
