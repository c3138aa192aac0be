package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/cache"
	"github.com/graphport/graphport/pkg/layout"
)

// layoutCommand creates the layout command for computing graph geometry.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output    string
		noCache   bool
		collapsed bool
	)

	cmd := &cobra.Command{
		Use:   "layout [snapshot.json]",
		Short: "Compute layout geometry for a graph snapshot",
		Long: `Compute layout geometry for a graph snapshot.

The layout command takes a snapshot JSON file and runs the graphviz dot
engine over it, writing node bounds, group bounds, and edge routes as a
layout JSON file. This is the same geometry the interactive explorer uses;
the file form is useful for debugging layouts and for downstream tooling.

By default all groups are laid out expanded. With --collapsed every group
is replaced by its placeholder, which matches the explorer's initial view.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, noCache, collapsed)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&collapsed, "collapsed", false, "lay out with all groups collapsed")

	return cmd
}

// runLayout loads the snapshot, computes or restores the layout, and writes
// the geometry file.
func (c *CLI) runLayout(ctx context.Context, input, output string, noCache, collapsed bool) error {
	snap, err := assetgraph.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", input, err)
	}

	var expanded []assetgraph.GroupID
	if !collapsed {
		expanded = snap.GroupIDs()
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store := newArtifactCache(cfg.Cache, noCache)
	defer store.Close()

	engine := layout.NewGraphvizEngine()
	ids := make([]string, len(expanded))
	for i, id := range expanded {
		ids[i] = string(id)
	}
	key := cache.NewDefaultKeyer().LayoutKey(snap.Fingerprint(), cache.LayoutKeyOpts{
		Engine:   engine.Name(),
		Expanded: ids,
	})

	spinner := newSpinnerWithContext(ctx, "Computing dot layout...")
	spinner.Start()

	var res *layout.Result
	cacheHit := false
	if data, hit, err := store.Get(ctx, key); err == nil && hit {
		if r, err := layout.DecodeResult(data); err == nil {
			res, cacheHit = r, true
		}
	}
	if res == nil {
		res, err = engine.Layout(ctx, snap, expanded)
		if err != nil {
			spinner.StopWithError("Layout failed")
			return fmt.Errorf("compute layout: %w", err)
		}
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	data, err := layout.EncodeResult(res)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	if !cacheHit {
		_ = store.Set(ctx, key, data, layout.DefaultResultTTL)
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(snap.NodeCount(), len(snap.Edges()), cacheHit)
	printNewline()
	printNextStep("Explore", "graphport explore "+input)

	return nil
}
