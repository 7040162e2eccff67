package remote

import (
	"context"
	"fmt"

	"github.com/rshade/mapgrid/internal/grid"
	"github.com/rshade/mapgrid/internal/logging"
)

// pageEnvelope is the paged list response of the grid endpoint.
type pageEnvelope struct {
	Results  []grid.Row `json:"results"`
	Count    int        `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
}

// PageURL returns the full request URL for req against endpoint. Query
// parameters already on endpoint are kept unless req sets the same name.
func (c *Client) PageURL(endpoint string, req grid.PageRequest) (string, error) {
	u, err := c.Resolve(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range req.Values() {
		q[k] = vs
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchPage fetches one grid page. Cached pages are served unless ctx is
// marked with grid.WithReload; the fresh page then replaces the cached one.
func (c *Client) FetchPage(ctx context.Context, endpoint string, req grid.PageRequest) (grid.PageResult, error) {
	u, err := c.PageURL(endpoint, req)
	if err != nil {
		return grid.PageResult{}, err
	}

	if grid.IsReload(ctx) {
		logging.FromContext(ctx).Debug().
			Str("component", "remote").
			Str("operation", "fetch_page").
			Str("url", u).
			Msg("reload bypasses page cache")
	} else if cached, ok := c.cache.Get(u); ok {
		logging.FromContext(ctx).Debug().
			Str("component", "remote").
			Str("operation", "fetch_page").
			Str("url", u).
			Msg("page served from cache")
		return cached, nil
	}

	var env pageEnvelope
	if getErr := c.getJSON(ctx, u, &env); getErr != nil {
		return grid.PageResult{}, getErr
	}
	if env.Count < 0 {
		return grid.PageResult{}, fmt.Errorf("%w from %s: negative count %d", ErrDecode, u, env.Count)
	}

	result := grid.PageResult{
		Items:       env.Results,
		TotalCount:  env.Count,
		HasNext:     env.Next != nil,
		HasPrevious: env.Previous != nil,
	}
	if result.Items == nil {
		result.Items = []grid.Row{}
	}

	c.cache.Add(u, result)
	return result, nil
}

// Endpoint binds the client to one grid endpoint.
func (c *Client) Endpoint(endpoint string) grid.Fetcher {
	return grid.FetcherFunc(func(ctx context.Context, req grid.PageRequest) (grid.PageResult, error) {
		return c.FetchPage(ctx, endpoint, req)
	})
}
