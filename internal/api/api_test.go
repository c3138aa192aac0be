package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/errors"
	"github.com/graphport/graphport/pkg/locate"
)

// stubSource serves one snapshot for one view ID.
type stubSource struct {
	viewID string
	snap   *assetgraph.Snapshot
}

func (s *stubSource) Snapshot(ctx context.Context, viewID string) (*assetgraph.Snapshot, error) {
	if viewID != s.viewID {
		return nil, errors.New(errors.ErrCodeViewNotFound, "no snapshot for view %q", viewID)
	}
	return s.snap, nil
}

func testServer() *Server {
	snap := assetgraph.Build(
		[]assetgraph.Node{
			{ID: "A", Definition: &assetgraph.Definition{Path: []string{"A"}}},
			{ID: "B", Definition: &assetgraph.Definition{Path: []string{"B"}}},
		},
		[]assetgraph.Edge{{From: "A", To: "B"}},
	)
	resolver := locate.Static{
		"analytics/users": {ViewID: "analytics", Token: "analytics/users"},
	}
	return New(&stubSource{viewID: "view-1", snap: snap}, resolver, nil)
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(testServer().Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestGetGraph(t *testing.T) {
	srv := httptest.NewServer(testServer().Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/views/view-1/graph")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var g assetgraph.Graph
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Errorf("graph = %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}
}

func TestGetGraphErrors(t *testing.T) {
	srv := httptest.NewServer(testServer().Router())
	defer srv.Close()

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"unknown view", "/api/views/ghost/graph", http.StatusNotFound, "VIEW_NOT_FOUND"},
		{"invalid view id", "/api/views/..bad/graph", http.StatusBadRequest, "INVALID_VIEW_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body errorBody
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
		})
	}
}

func TestLocate(t *testing.T) {
	srv := httptest.NewServer(testServer().Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/locate?token=analytics/users")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var loc locate.Location
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loc.ViewID != "analytics" {
		t.Errorf("location = %+v", loc)
	}

	// Miss is a 404.
	resp2, err := http.Get(srv.URL + "/api/locate?token=ghost/asset")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("miss status = %d, want 404", resp2.StatusCode)
	}

	// Empty token is rejected.
	resp3, err := http.Get(srv.URL + "/api/locate")
	if err != nil {
		t.Fatal(err)
	}
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusBadRequest {
		t.Errorf("empty token status = %d, want 400", resp3.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidToken, http.StatusBadRequest},
		{errors.ErrCodeViewNotFound, http.StatusNotFound},
		{errors.ErrCodeRateLimited, http.StatusTooManyRequests},
		{errors.ErrCodeTimeout, http.StatusGatewayTimeout},
		{errors.ErrCodeStoreUnavailable, http.StatusBadGateway},
		{errors.ErrCodeLayoutFailed, http.StatusInternalServerError},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
