package person

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"minesykmeldte/pkg/platform/sentinel"
)

// Client is the HTTP implementation of Resolver against the person
// registry. The fnr travels in a header, never in the URL, so it stays out
// of access logs.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Resolve(ctx context.Context, fnr string) (*Person, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/person", nil)
	if err != nil {
		return nil, fmt.Errorf("build person request: %w", err)
	}
	req.Header.Set("Sykmeldt-Fnr", fnr)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("person registry: %w", sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("person registry returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var p Person
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode person response: %w", err)
	}
	return &p, nil
}
