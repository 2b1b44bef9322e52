package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"

	"dining-concierge/internal/domain"
)

const (
	defaultIndex = "restaurants"
	cuisineField = "Cuisine"
	cityField    = "City.keyword"
)

// Request is the minimal OpenSearch query DSL shape used here.
type Request struct {
	Query query `json:"query"`
	Size  int   `json:"size"`
}

type query struct {
	Bool  *boolQuery        `json:"bool,omitempty"`
	Match map[string]string `json:"match,omitempty"`
	Term  map[string]string `json:"term,omitempty"`
}

type boolQuery struct {
	Must               []query `json:"must,omitempty"`
	Should             []query `json:"should,omitempty"`
	MinimumShouldMatch int     `json:"minimum_should_match,omitempty"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string           `json:"_id"`
			Source domain.Candidate `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Credentials is the JSON shape stored in SSM for the search domain user.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CredentialsLoader resolves search credentials, typically from SSM.
type CredentialsLoader func(ctx context.Context) (Credentials, error)

// HTTPStatusError captures non-2xx responses from the search domain.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("search: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client queries the restaurant index of an OpenSearch domain.
type Client struct {
	endpoint string
	index    string
	http     *resty.Client
	loadAuth CredentialsLoader

	authMu     sync.Mutex
	authLoaded bool
	creds      Credentials
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = resty.NewWithClient(hc)
		}
	}
}

func WithIndex(index string) Option {
	return func(c *Client) {
		if s := strings.TrimSpace(index); s != "" {
			c.index = s
		}
	}
}

// WithCredentials sets the loader used for basic auth. A successful load is
// reused for the lifetime of the process.
func WithCredentials(load CredentialsLoader) Option {
	return func(c *Client) {
		c.loadAuth = load
	}
}

func NewClient(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("search: endpoint must not be empty")
	}
	c := &Client{
		endpoint: endpoint,
		index:    defaultIndex,
		http:     resty.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BuildQuery returns the query DSL for restaurants serving cuisine in any of
// cities. A single city is matched with a plain term filter.
func BuildQuery(cuisine string, cities []string, size int) Request {
	var location query
	if len(cities) == 1 {
		location = query{Term: map[string]string{cityField: cities[0]}}
	} else {
		should := make([]query, 0, len(cities))
		for _, city := range cities {
			should = append(should, query{Term: map[string]string{cityField: city}})
		}
		location = query{Bool: &boolQuery{Should: should, MinimumShouldMatch: 1}}
	}
	return Request{
		Query: query{Bool: &boolQuery{Must: []query{
			{Match: map[string]string{cuisineField: cuisine}},
			location,
		}}},
		Size: size,
	}
}

// Search returns up to size candidates for cuisine across cities.
func (c *Client) Search(ctx context.Context, cuisine string, cities []string, size int) ([]domain.Candidate, error) {
	if len(cities) == 0 {
		return nil, errors.New("search: at least one city is required")
	}
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(BuildQuery(cuisine, cities, size)).
		SetResult(&searchResponse{}).
		ForceContentType("application/json")

	if c.loadAuth != nil {
		creds, err := c.credentials(ctx)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(creds.Username, creds.Password)
	}

	url := c.endpoint + "/" + c.index + "/_search"
	resp, err := req.Post(url)
	if err != nil {
		return nil, fmt.Errorf("search: post %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode(), URL: url, Body: resp.String()}
	}

	out, ok := resp.Result().(*searchResponse)
	if !ok {
		return nil, errors.New("search: response was not decoded")
	}
	hits := make([]domain.Candidate, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		cand := h.Source
		if cand.RestaurantID == "" {
			cand.RestaurantID = h.ID
		}
		hits = append(hits, cand)
	}
	return hits, nil
}

func (c *Client) credentials(ctx context.Context) (Credentials, error) {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	if c.authLoaded {
		return c.creds, nil
	}
	creds, err := c.loadAuth(ctx)
	if err != nil {
		return Credentials{}, fmt.Errorf("search: load credentials: %w", err)
	}
	c.creds = creds
	c.authLoaded = true
	return creds, nil
}
