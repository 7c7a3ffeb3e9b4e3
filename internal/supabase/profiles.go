package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"resty.dev/v3"

	"github.com/at-ishikawa/wordday/internal/profile"
)

var _ profile.Repository = (*Client)(nil)

func (c *Client) FindByID(ctx context.Context, id string) (*profile.Profile, error) {
	response, err := c.do(ctx, func() (*resty.Response, error) {
		return c.httpClient.R().
			SetContext(ctx).
			SetHeader("Authorization", c.bearer(ctx)).
			SetHeader("Accept", "application/vnd.pgrst.object+json").
			SetQueryParam("select", "*").
			SetQueryParam("id", "eq."+id).
			Get("/profiles")
	})
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == noRowsCode {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile %s: %w", id, err)
	}

	var p profile.Profile
	if err := json.Unmarshal(response.Bytes(), &p); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(profile) > %w", err)
	}
	return &p, nil
}

func (c *Client) CreateIfAbsent(ctx context.Context, p *profile.Profile) error {
	_, err := c.do(ctx, func() (*resty.Response, error) {
		return c.httpClient.R().
			SetContext(ctx).
			SetHeader("Authorization", c.bearer(ctx)).
			SetHeader("Prefer", "resolution=ignore-duplicates,return=minimal").
			SetQueryParam("on_conflict", "id").
			SetBody(p).
			Post("/profiles")
	})
	if err != nil {
		return fmt.Errorf("create profile %s: %w", p.ID, err)
	}
	return nil
}

func (c *Client) Update(ctx context.Context, id, fullName string) error {
	body := map[string]any{
		"full_name":  fullName,
		"updated_at": time.Now().UTC(),
	}
	response, err := c.do(ctx, func() (*resty.Response, error) {
		return c.httpClient.R().
			SetContext(ctx).
			SetHeader("Authorization", c.bearer(ctx)).
			SetHeader("Prefer", "return=representation").
			SetQueryParam("id", "eq."+id).
			SetBody(body).
			Patch("/profiles")
	})
	if err != nil {
		return fmt.Errorf("update profile %s: %w", id, err)
	}

	var updated []profile.Profile
	if response.StatusCode() == http.StatusOK {
		if err := json.Unmarshal(response.Bytes(), &updated); err != nil {
			return fmt.Errorf("json.Unmarshal(profiles) > %w", err)
		}
		if len(updated) == 0 {
			return fmt.Errorf("update profile %s: %w", id, profile.ErrProfileNotFound)
		}
	}
	return nil
}
