package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// defaultTimeout bounds connecting and each session operation.
const defaultTimeout = 10 * time.Second

// Config selects the MongoDB deployment and database holding sessions.
type Config struct {
	URI      string
	Database string
	// Timeout bounds the connect handshake and every operation. Zero means defaultTimeout.
	Timeout time.Duration
}

// Connect dials the deployment, waits for the primary to answer and returns
// the client together with the session database. The caller disconnects.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	wait := cfg.Timeout
	if wait <= 0 {
		wait = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetAppName("valet-site").
		SetTimeout(wait))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo dial: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo primary unreachable: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}
