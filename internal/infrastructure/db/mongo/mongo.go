package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultTimeout = 10 * time.Second
	appName        = "shop-api"
)

type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return c.Timeout
}

func (c Config) clientOptions() *options.ClientOptions {
	return options.Client().
		ApplyURI(c.URI).
		SetAppName(appName).
		SetConnectTimeout(c.timeout()).
		SetServerSelectionTimeout(c.timeout())
}

// Client owns the driver connection and the shop database handle.
type Client struct {
	conn *mongo.Client
	db   *mongo.Database
}

// Connect opens the connection and refuses to return until the primary
// answers a ping.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()

	conn, err := mongo.Connect(ctx, cfg.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	c := &Client{conn: conn, db: conn.Database(cfg.Database)}
	if err := c.Ping(ctx); err != nil {
		_ = conn.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return c, nil
}

func (c *Client) Database() *mongo.Database { return c.db }

// Ping checks the primary. It doubles as the readiness check.
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx, readpref.Primary())
}

func (c *Client) Close(ctx context.Context) error {
	return c.conn.Disconnect(ctx)
}
