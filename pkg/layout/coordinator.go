package layout

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/cache"
	"github.com/graphport/graphport/pkg/observability"
)

// DefaultResultTTL is how long completed layouts stay cached.
const DefaultResultTTL = 24 * time.Hour

// ApplyFunc receives a completed, still-current layout result. It is
// called from the coordinator's worker goroutine; implementations must
// hand off to their own loop if they are not safe to call concurrently.
type ApplyFunc func(*Result)

// Coordinator runs layout asynchronously with supersede semantics: each
// request gets a monotonically increasing sequence number, a new request
// cancels the in-flight one, and a result is applied only while no newer
// request exists. Interactions that trigger several relayouts in quick
// succession therefore settle on the newest geometry, never a stale one.
type Coordinator struct {
	provider Provider
	store    cache.Cache
	keyer    cache.Keyer
	ttl      time.Duration
	apply    ApplyFunc
	logger   *log.Logger

	mu      sync.Mutex
	seq     uint64
	applied uint64
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// deliverMu serializes the stale gate together with the apply call:
	// a result that passes the gate finishes delivering before any later
	// result is gated, so applies always land in sequence order.
	deliverMu sync.Mutex
}

// NewCoordinator creates a coordinator. store may be nil to disable
// result caching; logger may be nil for silence.
func NewCoordinator(provider Provider, store cache.Cache, apply ApplyFunc, logger *log.Logger) *Coordinator {
	if store == nil {
		store = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{
		provider: provider,
		store:    store,
		keyer:    cache.NewDefaultKeyer(),
		ttl:      DefaultResultTTL,
		apply:    apply,
		logger:   logger,
	}
}

// Request schedules a layout pass and returns its sequence number. The
// previous in-flight pass, if any, is cancelled. The call itself never
// blocks on layout work.
func (c *Coordinator) Request(ctx context.Context, snap *assetgraph.Snapshot, expanded []assetgraph.GroupID) uint64 {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	requestID := uuid.New().String()
	observability.Layout().OnLayoutRequested(ctx, seq, snap.NodeCount())
	c.logger.Debug("layout requested",
		"request", requestID, "seq", seq, "nodes", snap.NodeCount())

	go c.run(runCtx, requestID, seq, snap, expanded)
	return seq
}

func (c *Coordinator) run(ctx context.Context, requestID string, seq uint64, snap *assetgraph.Snapshot, expanded []assetgraph.GroupID) {
	defer c.wg.Done()
	start := time.Now()

	res, cached, err := c.compute(ctx, snap, expanded)
	if err != nil {
		if ctx.Err() != nil {
			observability.Layout().OnLayoutSuperseded(ctx, seq)
			return
		}
		observability.Layout().OnLayoutFailed(ctx, seq, err)
		c.logger.Error("layout failed", "request", requestID, "seq", seq, "err", err)
		return
	}
	res.Seq = seq

	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	stale := seq < c.seq || seq <= c.applied
	if !stale {
		c.applied = seq
	}
	c.mu.Unlock()

	if stale {
		observability.Layout().OnLayoutSuperseded(ctx, seq)
		c.logger.Debug("layout superseded", "request", requestID, "seq", seq)
		return
	}

	c.apply(res)
	observability.Layout().OnLayoutApplied(ctx, seq, time.Since(start))
	c.logger.Debug("layout applied",
		"request", requestID, "seq", seq, "cached", cached, "duration", time.Since(start))
}

// compute returns the cached result when present, otherwise runs the
// provider and stores the outcome. Cache failures degrade to recompute.
func (c *Coordinator) compute(ctx context.Context, snap *assetgraph.Snapshot, expanded []assetgraph.GroupID) (*Result, bool, error) {
	key := c.cacheKey(snap, expanded)

	if data, hit, err := c.store.Get(ctx, key); err == nil && hit {
		if res, err := DecodeResult(data); err == nil {
			return res, true, nil
		}
		// Corrupt entry: drop it and recompute.
		_ = c.store.Delete(ctx, key)
	}

	res, err := c.provider.Layout(ctx, snap, expanded)
	if err != nil {
		return nil, false, err
	}
	if data, err := EncodeResult(res); err == nil {
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("cache layout result failed", "err", err)
		}
	}
	return res, false, nil
}

func (c *Coordinator) cacheKey(snap *assetgraph.Snapshot, expanded []assetgraph.GroupID) string {
	ids := make([]string, len(expanded))
	for i, id := range expanded {
		ids[i] = string(id)
	}
	engine := "custom"
	if n, ok := c.provider.(interface{ Name() string }); ok {
		engine = n.Name()
	}
	return c.keyer.LayoutKey(snap.Fingerprint(), cache.LayoutKeyOpts{Engine: engine, Expanded: ids})
}

// Close cancels any in-flight pass and waits for the worker to exit.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// cachedRoute is the serialized form of one edge route. EdgeKey is a
// struct key and cannot be a JSON map key directly.
type cachedRoute struct {
	From   assetgraph.NodeID `json:"from"`
	To     assetgraph.NodeID `json:"to"`
	Points []Point           `json:"points"`
}

type cachedResult struct {
	NodeBounds  map[assetgraph.NodeID]Rect  `json:"node_bounds"`
	GroupBounds map[assetgraph.GroupID]Rect `json:"group_bounds"`
	Routes      []cachedRoute               `json:"routes,omitempty"`
}

// EncodeResult serializes a result for cache storage or debug output.
func EncodeResult(res *Result) ([]byte, error) {
	out := cachedResult{
		NodeBounds:  res.NodeBounds,
		GroupBounds: res.GroupBounds,
	}
	for key, pts := range res.EdgeRoutes {
		out.Routes = append(out.Routes, cachedRoute{From: key.From, To: key.To, Points: pts})
	}
	return json.Marshal(out)
}

// DecodeResult is the inverse of [EncodeResult].
func DecodeResult(data []byte) (*Result, error) {
	var in cachedResult
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	res := &Result{
		NodeBounds:  in.NodeBounds,
		GroupBounds: in.GroupBounds,
		EdgeRoutes:  make(map[EdgeKey][]Point, len(in.Routes)),
	}
	if res.NodeBounds == nil {
		res.NodeBounds = make(map[assetgraph.NodeID]Rect)
	}
	if res.GroupBounds == nil {
		res.GroupBounds = make(map[assetgraph.GroupID]Rect)
	}
	for _, r := range in.Routes {
		res.EdgeRoutes[EdgeKey{From: r.From, To: r.To}] = r.Points
	}
	return res, nil
}
