package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/admin-datatable/pkg/logging"
	"github.com/Sternrassler/admin-datatable/pkg/query"
	"github.com/Sternrassler/admin-datatable/pkg/table"
)

// Search fetches one page of resource for q and decodes the
// {"results": [...], "count": n} envelope. A bare JSON array is accepted
// as an unpaginated listing whose count is its length. Fetches issued by a
// controller Reload revalidate cached pages.
func Search[T any](ctx context.Context, c *Client, resource string, q query.State) (query.PageResult[T], error) {
	var page query.PageResult[T]

	if err := q.Validate(); err != nil {
		return page, fmt.Errorf("search %s: %w", resource, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(resource, q.Values()), nil)
	if err != nil {
		return page, fmt.Errorf("create request: %w", err)
	}
	if table.Revalidate(ctx) {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := c.Do(req)
	if err != nil {
		return page, fmt.Errorf("search %s: %w", resource, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return page, fmt.Errorf("read %s page: %w", resource, err)
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &page.Results); err != nil {
			return page, fmt.Errorf("decode %s listing: %w", resource, err)
		}
		page.Count = len(page.Results)
		return page, nil
	}

	if err := json.Unmarshal(body, &page); err != nil {
		return page, fmt.Errorf("decode %s page: %w", resource, err)
	}
	if page.Results == nil {
		page.Results = []T{}
	}

	logger := logging.WithQuery(c.logger.With().Str("resource", resource), q).Logger()
	logger.Debug().
		Int("count", page.Count).
		Msg("Page fetched")

	return page, nil
}

// Searcher binds Search to a resource for use by a table controller.
func Searcher[T any](c *Client, resource string) table.SearchFunc[T] {
	return func(ctx context.Context, q query.State) (query.PageResult[T], error) {
		return Search[T](ctx, c, resource, q)
	}
}

// Delete removes the given ids from resource in one bulk call
// (DELETE resource?id=1,2,3) and drops the cached pages of the resource.
func (c *Client) Delete(ctx context.Context, resource string, ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	values := url.Values{"id": []string{strings.Join(parts, ",")}}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.URL(resource, values), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("delete %s: %w", resource, err)
	}
	resp.Body.Close()

	c.logger.Info().
		Str("resource", resource).
		Ints("ids", ids).
		Msg("Deleted items")

	if _, err := c.Invalidate(ctx, resource); err != nil {
		c.logger.Warn().Err(err).Str("resource", resource).Msg("Failed to invalidate cache after delete")
	}
	return nil
}
