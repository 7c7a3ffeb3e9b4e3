package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resty.dev/v3"

	"github.com/at-ishikawa/wordday/internal/storage"
)

var _ storage.RemoteStore = (*Client)(nil)

type userDataRow struct {
	UserID    string    `json:"user_id,omitempty"`
	DataKey   string    `json:"data_key"`
	DataValue string    `json:"data_value"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Upsert writes one field of the user, replacing the existing value.
func (c *Client) Upsert(ctx context.Context, userID, key string, value []byte) error {
	row := userDataRow{
		UserID:    userID,
		DataKey:   key,
		DataValue: string(value),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := c.do(ctx, func() (*resty.Response, error) {
		return c.httpClient.R().
			SetContext(ctx).
			SetHeader("Authorization", c.bearer(ctx)).
			SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
			SetQueryParam("on_conflict", "user_id,data_key").
			SetBody(row).
			Post("/user_data")
	})
	if err != nil {
		return fmt.Errorf("upsert user_data %s: %w", key, err)
	}
	return nil
}

// Find returns one field of the user, or nil when it was never written.
func (c *Client) Find(ctx context.Context, userID, key string) ([]byte, error) {
	response, err := c.do(ctx, func() (*resty.Response, error) {
		return c.httpClient.R().
			SetContext(ctx).
			SetHeader("Authorization", c.bearer(ctx)).
			SetHeader("Accept", "application/vnd.pgrst.object+json").
			SetQueryParam("select", "data_value").
			SetQueryParam("user_id", "eq."+userID).
			SetQueryParam("data_key", "eq."+key).
			Get("/user_data")
	})
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == noRowsCode {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user_data %s: %w", key, err)
	}

	var row userDataRow
	if err := json.Unmarshal(response.Bytes(), &row); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(user_data) > %w", err)
	}
	return []byte(row.DataValue), nil
}

// FindAll returns every field of the user.
func (c *Client) FindAll(ctx context.Context, userID string) (map[string][]byte, error) {
	response, err := c.do(ctx, func() (*resty.Response, error) {
		return c.httpClient.R().
			SetContext(ctx).
			SetHeader("Authorization", c.bearer(ctx)).
			SetQueryParam("select", "data_key,data_value").
			SetQueryParam("user_id", "eq."+userID).
			Get("/user_data")
	})
	if err != nil {
		return nil, fmt.Errorf("find all user_data: %w", err)
	}

	var rows []userDataRow
	if err := json.Unmarshal(response.Bytes(), &rows); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(user_data) > %w", err)
	}
	result := make(map[string][]byte, len(rows))
	for _, row := range rows {
		result[row.DataKey] = []byte(row.DataValue)
	}
	return result, nil
}
