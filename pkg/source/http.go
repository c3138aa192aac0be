package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/errors"
	"github.com/graphport/graphport/pkg/httputil"
	"github.com/graphport/graphport/pkg/observability"
)

// HTTPProvider fetches snapshots from a graphport API server
// (GET {base}/api/views/{viewID}/graph).
type HTTPProvider struct {
	base   string
	client *http.Client
}

// NewHTTPProvider creates a provider for the given base URL.
// A nil client uses a default with a 30 second timeout.
func NewHTTPProvider(base string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPProvider{base: base, client: client}
}

// Snapshot implements [Provider]. Transient failures are retried with
// backoff before giving up.
func (p *HTTPProvider) Snapshot(ctx context.Context, viewID string) (*assetgraph.Snapshot, error) {
	u := fmt.Sprintf("%s/api/views/%s/graph", p.base, url.PathEscape(viewID))

	var snap *assetgraph.Snapshot
	err := httputil.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}

		observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
		start := time.Now()
		resp, err := p.client.Do(req)
		if err != nil {
			observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
			return &httputil.RetryableError{Err: err}
		}
		defer resp.Body.Close()
		observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path,
			resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return errors.New(errors.ErrCodeViewNotFound, "no snapshot for view %q", viewID)
		case resp.StatusCode >= 500:
			return &httputil.RetryableError{Err: fmt.Errorf("fetch snapshot: server returned %d", resp.StatusCode)}
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("fetch snapshot: unexpected status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &httputil.RetryableError{Err: err}
		}
		snap, err = assetgraph.Unmarshal(body)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "parse snapshot for view %q", viewID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

var _ Provider = (*HTTPProvider)(nil)
