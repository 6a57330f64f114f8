package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client talks to the TMDB v3 API. The key stays server-side; browsers
// only ever see our proxy endpoints.
type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

type Movie struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	PosterPath  string `json:"poster_path"`
	ReleaseDate string `json:"release_date"`
}

type TVShow struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	PosterPath   string `json:"poster_path"`
	FirstAirDate string `json:"first_air_date"`
}

type SearchMoviesResponse struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Movie `json:"results"`
}

type SearchTVResponse struct {
	Page         int      `json:"page"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
	Results      []TVShow `json:"results"`
}

func New(apiKey, base string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	params.Set("api_key", c.APIKey)
	u.RawQuery = params.Encode()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb status %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*SearchMoviesResponse, error) {
	q := url.Values{}
	q.Set("query", query)
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	var out SearchMoviesResponse
	if err := c.get(ctx, "/search/movie", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchTV(ctx context.Context, query string, page int) (*SearchTVResponse, error) {
	q := url.Values{}
	q.Set("query", query)
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	var out SearchTVResponse
	if err := c.get(ctx, "/search/tv", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetMovie(ctx context.Context, id int64) (*Movie, error) {
	var out Movie
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), url.Values{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTVShow(ctx context.Context, id int64) (*TVShow, error) {
	var out TVShow
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", id), url.Values{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
