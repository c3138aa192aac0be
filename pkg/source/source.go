// Package source supplies graph snapshots from external backends.
//
// The explorer never fetches graph definitions itself; it consumes them
// through the [Provider] interface. Three backends are provided:
//   - file: snapshot JSON files on disk, for CLI use
//   - http: a graphport API server
//   - mongo: snapshot documents in a MongoDB collection
package source

import (
	"context"

	"github.com/graphport/graphport/pkg/assetgraph"
)

// Provider supplies the graph snapshot for a view.
type Provider interface {
	// Snapshot fetches and indexes the current graph for viewID.
	Snapshot(ctx context.Context, viewID string) (*assetgraph.Snapshot, error)
}
