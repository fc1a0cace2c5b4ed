// Package supabase stores games through Supabase's PostgREST API. The tables
// match postgres.Schema and must be created with a migration.
package supabase

import (
	"context"
	"fmt"

	supa "github.com/supabase-community/supabase-go"

	"weaver/internal/store"
)

var _ store.Store = (*Client)(nil)

const (
	gamesTable    = "games"
	memoriesTable = "memories"
)

type Client struct {
	api *supa.Client
}

func New(url, key string) (*Client, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("supabase url and key are required")
	}
	api, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return &Client{api: api}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return nil
}

// EnsureSchema checks that both tables are reachable.
func (c *Client) EnsureSchema(ctx context.Context) error {
	for _, table := range []string{gamesTable, memoriesTable} {
		if _, _, err := c.api.From(table).Select("*", "", false).Limit(1, "").Execute(); err != nil {
			return fmt.Errorf("checking table %s: %w", table, err)
		}
	}
	return nil
}
