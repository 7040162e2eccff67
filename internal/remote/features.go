package remote

import (
	"context"
	"fmt"
	"net/url"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/mapgrid/internal/features"
	"github.com/rshade/mapgrid/internal/logging"
)

// featureEnvelope is one page of the paged GeoJSON feature endpoint.
type featureEnvelope struct {
	Results struct {
		Features []*geojson.Feature `json:"features"`
	} `json:"results"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// Icon is a named symbology image.
type Icon struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// MapData is everything the map needs before its first render.
type MapData struct {
	Icons    []Icon
	Features []features.Feature
}

// FetchFeatures follows next links from endpoint until exhausted and returns
// every feature in page order. Any failed page fails the whole fetch.
func (c *Client) FetchFeatures(ctx context.Context, endpoint string, params url.Values) ([]features.Feature, error) {
	u, err := c.Resolve(endpoint)
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			q[k] = vs
		}
		u.RawQuery = q.Encode()
	}

	log := logging.FromContext(ctx)
	var out []features.Feature

	for page := 1; ; page++ {
		if page > c.maxFeaturePages {
			return nil, fmt.Errorf("%w: more than %d pages from %s", ErrPageLimit, c.maxFeaturePages, endpoint)
		}

		var env featureEnvelope
		if getErr := c.getJSON(ctx, u.String(), &env); getErr != nil {
			return nil, getErr
		}

		for _, gf := range env.Results.Features {
			f, convErr := features.FromGeoJSON(gf)
			if convErr != nil {
				return nil, fmt.Errorf("%w from %s: %w", ErrDecode, u, convErr)
			}
			out = append(out, f)
		}

		if env.Next == nil || *env.Next == "" {
			log.Debug().
				Str("component", "remote").
				Str("operation", "fetch_features").
				Int("pages", page).
				Int("features", len(out)).
				Msg("feature drain complete")
			break
		}

		next, parseErr := url.Parse(*env.Next)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: next link %q: %w", ErrDecode, *env.Next, parseErr)
		}
		u = u.ResolveReference(next)
	}

	if out == nil {
		out = []features.Feature{}
	}
	return out, nil
}

// FetchIcons lists the symbology icons. Icon URLs are resolved against the base URL.
func (c *Client) FetchIcons(ctx context.Context) ([]Icon, error) {
	u, err := c.Resolve(c.iconsPath)
	if err != nil {
		return nil, err
	}

	var icons []Icon
	if getErr := c.getJSON(ctx, u.String(), &icons); getErr != nil {
		return nil, getErr
	}

	for i := range icons {
		if resolved, resolveErr := u.Parse(icons[i].URL); resolveErr == nil {
			icons[i].URL = resolved.String()
		}
	}
	return icons, nil
}

// LoadMap fetches icons and features concurrently. It fails as a whole when
// either fetch fails.
func (c *Client) LoadMap(ctx context.Context, endpoint string, params url.Values) (MapData, error) {
	g, gctx := errgroup.WithContext(ctx)

	var data MapData
	g.Go(func() error {
		icons, err := c.FetchIcons(gctx)
		if err != nil {
			return fmt.Errorf("loading icons: %w", err)
		}
		data.Icons = icons
		return nil
	})
	g.Go(func() error {
		fs, err := c.FetchFeatures(gctx, endpoint, params)
		if err != nil {
			return fmt.Errorf("loading features: %w", err)
		}
		data.Features = fs
		return nil
	})

	if err := g.Wait(); err != nil {
		return MapData{}, err
	}
	return data, nil
}
