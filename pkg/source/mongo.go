package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/errors"
)

// snapshotDoc is the MongoDB document shape for one view's graph.
type snapshotDoc struct {
	ViewID    string           `bson:"view_id"`
	Graph     assetgraph.Graph `bson:"graph"`
	UpdatedAt time.Time        `bson:"updated_at"`
}

// MongoProvider fetches snapshots from a MongoDB collection of per-view
// graph documents, keyed by view ID.
type MongoProvider struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoConfig configures a MongoProvider.
type MongoConfig struct {
	URI        string // connection string, e.g. "mongodb://localhost:27017"
	Database   string // defaults to "graphport"
	Collection string // defaults to "snapshots"
}

// NewMongoProvider connects to MongoDB and verifies the connection.
func NewMongoProvider(ctx context.Context, cfg MongoConfig) (*MongoProvider, error) {
	if cfg.Database == "" {
		cfg.Database = "graphport"
	}
	if cfg.Collection == "" {
		cfg.Collection = "snapshots"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoProvider{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Snapshot implements [Provider].
func (p *MongoProvider) Snapshot(ctx context.Context, viewID string) (*assetgraph.Snapshot, error) {
	var doc snapshotDoc
	err := p.coll.FindOne(ctx, bson.M{"view_id": viewID}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeViewNotFound, "no snapshot for view %q", viewID)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "fetch snapshot for view %q", viewID)
	}
	return assetgraph.FromGraph(doc.Graph), nil
}

// Save writes or replaces the snapshot document for a view. Used by ingest
// tooling; the explorer itself only reads.
func (p *MongoProvider) Save(ctx context.Context, viewID string, snap *assetgraph.Snapshot) error {
	doc := snapshotDoc{ViewID: viewID, Graph: snap.ToGraph(), UpdatedAt: time.Now()}
	_, err := p.coll.ReplaceOne(ctx, bson.M{"view_id": viewID}, doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "save snapshot for view %q", viewID)
	}
	return nil
}

// Close disconnects from MongoDB.
func (p *MongoProvider) Close(ctx context.Context) error {
	return p.client.Disconnect(ctx)
}

var _ Provider = (*MongoProvider)(nil)
