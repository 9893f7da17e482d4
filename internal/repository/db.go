package repository

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Config struct {
	URI            string
	Database       string
	JobsCollection string
	ConnectTimeout time.Duration
}

// Open connects a Mongo client, verifies it with a ping, and returns it
// together with the jobs collection handle.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*mongo.Client, *mongo.Collection, error) {
	logger.Info("connecting to mongodb", "database", cfg.Database, "collection", cfg.JobsCollection)
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		logger.Error("failed to connect to mongodb", "error", err)
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Error("failed to ping mongodb", "error", err)
		return nil, nil, err
	}

	col := client.Database(cfg.Database).Collection(cfg.JobsCollection)
	logger.Info("successfully connected to mongodb")
	return client, col, nil
}

// Close disconnects the client gracefully
func Close(client *mongo.Client, logger *slog.Logger) {
	if client == nil {
		return
	}
	logger.Info("closing mongodb connection")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Error("failed to disconnect mongodb client", "error", err)
		return
	}
	logger.Info("mongodb connection closed")
}

// HealthCheck pings the deployment to catch URI issues early.
func HealthCheck(ctx context.Context, client *mongo.Client, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging mongodb")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return client.Ping(ctx, nil)
}
