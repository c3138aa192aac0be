package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/graphport/graphport/internal/api"
	"github.com/graphport/graphport/pkg/locate"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		locations string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve graph snapshots and asset locations over HTTP",
		Long: `Serve graph snapshots and asset locations over HTTP.

The server exposes the configured snapshot source to remote explorers:
GET /api/views/{viewID}/graph returns the snapshot for a view, and
GET /api/locate?token=... resolves an asset token to the view that defines
it. Remote instances point their [source] base_url at this server.

Locations are loaded from a JSON file mapping tokens to locations:

  {"analytics/users": {"view_id": "analytics", "token": "analytics/users"}}

Without --locations every locate lookup is a miss.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, locations)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&locations, "locations", "", "JSON file mapping asset tokens to locations")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, locations string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	src, release, err := newSourceProvider(ctx, cfg.Source)
	if err != nil {
		return fmt.Errorf("initialize source: %w", err)
	}
	defer release()

	var resolver locate.Resolver
	if locations != "" {
		static, err := loadLocations(locations)
		if err != nil {
			return err
		}
		resolver = static
	}

	return api.New(src, resolver, c.Logger).ListenAndServe(ctx, addr)
}

// loadLocations reads a static token-to-location table from a JSON file.
func loadLocations(path string) (locate.Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations %s: %w", path, err)
	}
	var table locate.Static
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse locations %s: %w", path, err)
	}
	return table, nil
}
