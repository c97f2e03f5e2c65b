package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tutu-network/rasterq/internal/domain"
	"github.com/tutu-network/rasterq/internal/infra/tiling"
	"github.com/tutu-network/rasterq/internal/raster"
)

func buildServer(t *testing.T) (*Server, *tiling.Registry) {
	t.Helper()
	registry := tiling.NewRegistry()
	queue := raster.Build(nil, domain.SmoothnessTakesPriority)
	retry := raster.NewRetryQueue(raster.DefaultRetryConfig())
	return NewServer(nil, queue, retry, registry, nil, domain.SmoothnessTakesPriority), registry
}

func TestHandleHealthz_NoCheckerReportsHealthy(t *testing.T) {
	s, _ := buildServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHandleStats_EmptyQueue(t *testing.T) {
	s, _ := buildServer(t)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var resp statsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.QueueEmpty {
		t.Error("QueueEmpty should be true for a queue built with no pairs")
	}
	if resp.Policy != "SMOOTHNESS_TAKES_PRIORITY" {
		t.Errorf("Policy = %q, want %q", resp.Policy, "SMOOTHNESS_TAKES_PRIORITY")
	}
}

func TestHandlePostLayers_RegistersPair(t *testing.T) {
	s, registry := buildServer(t)

	body := registerLayersRequest{
		ID: "layer-1",
		Active: []tileSpec{
			{ID: "t1", Bin: "now", Resolution: "high"},
		},
	}
	raw, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/layers", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body=%s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if registry.Len() != 1 {
		t.Fatalf("registry.Len() = %d, want 1", registry.Len())
	}

	pair, ok := registry.Get("layer-1")
	if !ok {
		t.Fatal("registered pair not found")
	}
	q := pair.Active.CreateRasterQueue(false)
	if q.Empty() || q.Top().ID() != "t1" {
		t.Error("registered layer did not carry through the posted tile")
	}
}

func TestHandlePostLayers_AssignsIDWhenOmitted(t *testing.T) {
	s, registry := buildServer(t)

	raw, _ := json.Marshal(registerLayersRequest{
		Active: []tileSpec{{ID: "t1", Bin: "now", Resolution: "high"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/layers", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body=%s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["id"] == "" || resp["id"] == nil {
		t.Error("response should carry an auto-assigned id")
	}
	if registry.Len() != 1 {
		t.Fatalf("registry.Len() = %d, want 1", registry.Len())
	}
}

func TestHandlePostLayers_RejectsMalformedBody(t *testing.T) {
	s, _ := buildServer(t)

	req := httptest.NewRequest(http.MethodPost, "/layers", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleMetrics_Served(t *testing.T) {
	s, _ := buildServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
