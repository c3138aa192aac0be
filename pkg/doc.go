// Package pkg provides the core libraries for graphport dependency-graph
// exploration.
//
// # Overview
//
// Graphport renders asset dependency graphs as interactively explorable
// views: groups expand and collapse, selection travels along dependency
// chains, and layout geometry is recomputed asynchronously as the view
// changes. The pkg directory is organized into four main areas:
//
//  1. Domain state - [assetgraph], [explorer], [viewstate]
//  2. Geometry - [layout], [viewport], [memo]
//  3. Backends - [source], [cache], [locate], [httputil]
//  4. Cross-cutting - [config], [errors], [observability], [buildinfo]
//
// # Architecture
//
// The typical data flow through graphport:
//
//	Snapshot source (file / HTTP / MongoDB)
//	         ↓
//	    [assetgraph] (index nodes, edges, groups)
//	         ↓
//	    [explorer] (selection + expanded-group state)
//	         ↓
//	    [layout] (graphviz geometry, async, superseding)
//	         ↓
//	    [viewport] (culling, level of detail, draw plan)
//	         ↓
//	    terminal canvas / HTTP API
//
// # Quick Start
//
// Load a snapshot, start a session, and compute a render plan:
//
//	import (
//	    "context"
//	    "github.com/graphport/graphport/pkg/assetgraph"
//	    "github.com/graphport/graphport/pkg/explorer"
//	    "github.com/graphport/graphport/pkg/layout"
//	    "github.com/graphport/graphport/pkg/viewport"
//	)
//
//	func explore(ctx context.Context, path string) error {
//	    snap, err := assetgraph.ReadFile(path)
//	    if err != nil {
//	        return err
//	    }
//	    session := explorer.NewSession(ctx, "my-view", snap, nil, nil, nil)
//
//	    engine := layout.NewGraphvizEngine()
//	    res, err := engine.Layout(ctx, snap, session.Groups.ExpandedIDs())
//	    if err != nil {
//	        return err
//	    }
//
//	    plan := viewport.NewScheduler().BuildPlan(viewport.Pass{
//	        Snapshot:  snap,
//	        Bounds:    res,
//	        Groups:    session.Groups,
//	        Selection: session.Selection,
//	        Options:   session.Groups.Options(),
//	        View:      viewport.View{Scale: 1, Visible: layout.Rect{Width: 1e9, Height: 1e9}},
//	    })
//	    _ = plan
//	    return nil
//	}
//
// Interactive use goes through [layout.Coordinator] instead of calling the
// engine directly, so stale results from rapid group toggling are never
// applied.
package pkg
