// Package firestore stores games as documents under users/{uid}/games with
// memories in a per-game subcollection.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"weaver/internal/store"
)

var _ store.Store = (*Client)(nil)

const (
	usersCollection    = "users"
	gamesCollection    = "games"
	memoriesCollection = "memories"
)

type Client struct {
	fs *firestore.Client
}

// New connects to projectID. An empty credentialsFile uses application
// default credentials.
func New(ctx context.Context, projectID, credentialsFile string) (*Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	fs, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Client{fs: fs}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.fs.Close()
}

// EnsureSchema is a no-op; collections are created on first write.
func (c *Client) EnsureSchema(ctx context.Context) error {
	return nil
}

func (c *Client) games(userID string) *firestore.CollectionRef {
	return c.fs.Collection(usersCollection).Doc(userID).Collection(gamesCollection)
}
