package source

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/errors"
)

// FileProvider reads snapshot JSON files from a directory, one file per
// view named "<viewID>.json". A single-file provider (every view ID mapped
// to the same snapshot) is available through [NewSingleFile].
type FileProvider struct {
	dir    string
	single string // when set, served for every view ID
}

// NewFileProvider serves snapshots from dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// NewSingleFile serves one snapshot file regardless of view ID. Used by the
// CLI when exploring a local snapshot export.
func NewSingleFile(path string) *FileProvider {
	return &FileProvider{single: path}
}

// Snapshot implements [Provider].
func (p *FileProvider) Snapshot(ctx context.Context, viewID string) (*assetgraph.Snapshot, error) {
	path := p.single
	if path == "" {
		path = filepath.Join(p.dir, viewID+".json")
	}
	snap, err := assetgraph.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.New(errors.ErrCodeViewNotFound, "no snapshot for view %q", viewID)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "load snapshot for view %q", viewID)
	}
	return snap, nil
}

var _ Provider = (*FileProvider)(nil)
