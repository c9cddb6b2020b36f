package management

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownResource is returned by List for a name with no listing.
var ErrUnknownResource = errors.New("unknown management resource")

// ListOptions narrows a listing. Page and Size apply to users, ParentID to
// geo locations.
type ListOptions struct {
	Page     int
	Size     int
	ParentID string
}

type lister func(ctx context.Context, c *Client, opts ListOptions) (json.RawMessage, error)

// listers is keyed by the last segment of the console route, e.g.
// /management/product-types.
var listers = map[string]lister{
	"users": func(ctx context.Context, c *Client, o ListOptions) (json.RawMessage, error) {
		return c.Users.List(ctx, o.Page, o.Size)
	},
	"roles": func(ctx context.Context, c *Client, _ ListOptions) (json.RawMessage, error) {
		return c.Roles.List(ctx)
	},
	"permissions": func(ctx context.Context, c *Client, _ ListOptions) (json.RawMessage, error) {
		return c.Permissions.List(ctx)
	},
	"product-types": func(ctx context.Context, c *Client, _ ListOptions) (json.RawMessage, error) {
		return c.ProductTypes.List(ctx)
	},
	"products": func(ctx context.Context, c *Client, _ ListOptions) (json.RawMessage, error) {
		return c.Products.List(ctx)
	},
	"aggregation-centers": func(ctx context.Context, c *Client, _ ListOptions) (json.RawMessage, error) {
		return c.AggregationCenters.List(ctx)
	},
	"farmers": func(ctx context.Context, c *Client, _ ListOptions) (json.RawMessage, error) {
		return c.Farmers.List(ctx)
	},
	"geo-locations": func(ctx context.Context, c *Client, o ListOptions) (json.RawMessage, error) {
		return c.GeoLocations.ListByParent(ctx, o.ParentID)
	},
	"smart-contracts": func(ctx context.Context, c *Client, _ ListOptions) (json.RawMessage, error) {
		return c.SmartContracts.List(ctx)
	},
}

// Resources returns the names accepted by List, sorted.
func Resources() []string {
	out := make([]string, 0, len(listers))
	for name := range listers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ResourceForPath maps a console route such as /management/farmers to its
// resource name.
func ResourceForPath(path string) (string, bool) {
	name, ok := strings.CutPrefix(strings.TrimSuffix(path, "/"), "/management/")
	if !ok {
		return "", false
	}
	_, ok = listers[name]
	return name, ok
}

// List fetches the listing for a resource name or its console route.
func (c *Client) List(ctx context.Context, resource string, opts ListOptions) (json.RawMessage, error) {
	if name, ok := ResourceForPath(resource); ok {
		resource = name
	}
	fn, ok := listers[resource]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, resource)
	}
	return fn(ctx, c, opts)
}
