package pipeline

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/tracelay/workspaced/errors"
)

// MongoDestroyer drops workspace databases on a MongoDB deployment. The
// client connects lazily on first use so registering the adapter never fails
// at startup; Close disconnects it through the registry teardown hook.
type MongoDestroyer struct {
	url string
	log *zap.SugaredLogger

	mu     sync.Mutex
	client *mongo.Client
}

// NewMongoDestroyer creates the destroy adapter for mongodb:// URLs.
func NewMongoDestroyer(url string, log *zap.SugaredLogger) *MongoDestroyer {
	return &MongoDestroyer{url: url, log: log}
}

func (d *MongoDestroyer) connect(ctx context.Context) (*mongo.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client != nil {
		return d.client, nil
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(d.url))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mongodb")
	}
	d.client = client
	return client, nil
}

// DeleteWorkspace implements Destroyer.
func (d *MongoDestroyer) DeleteWorkspace(ctx context.Context, req DeleteRequest) error {
	client, err := d.connect(ctx)
	if err != nil {
		return err
	}
	if err := client.Database(req.Name).Drop(ctx); err != nil {
		return errors.Wrapf(err, "failed to drop database %s", req.Name)
	}
	d.log.Infow("Dropped workspace database",
		"workspace", req.Name,
		"database", req.Name)
	return nil
}

// Close disconnects the lazily created client, if any.
func (d *MongoDestroyer) Close(ctx context.Context) error {
	d.mu.Lock()
	client := d.client
	d.client = nil
	d.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}
