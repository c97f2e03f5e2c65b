// Package api provides the HTTP surface for the raster dispatcher daemon:
// health, stats, layer-pair registration, and Prometheus metrics.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tutu-network/rasterq/internal/domain"
	"github.com/tutu-network/rasterq/internal/health"
	"github.com/tutu-network/rasterq/internal/infra/sqlite"
	"github.com/tutu-network/rasterq/internal/infra/tiling"
	"github.com/tutu-network/rasterq/internal/raster"
)

// Server is the dispatcher daemon's HTTP API server.
type Server struct {
	checker  *health.Checker
	queue    *raster.RasterTilePriorityQueue
	retry    *raster.RetryQueue
	registry *tiling.Registry
	db       *sqlite.DB
	policy   domain.TreePriority
}

// NewServer wires a Server around the daemon's live components. Any of
// checker, retry, and db may be nil, in which case the routes that depend on
// them report reduced information rather than failing.
func NewServer(checker *health.Checker, queue *raster.RasterTilePriorityQueue, retry *raster.RetryQueue, registry *tiling.Registry, db *sqlite.DB, policy domain.TreePriority) *Server {
	return &Server{
		checker:  checker,
		queue:    queue,
		retry:    retry,
		registry: registry,
		db:       db,
		policy:   policy,
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/stats", s.handleStats)
	r.Post("/layers", s.handlePostLayers)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ─── /healthz ───────────────────────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeJSON(w, http.StatusOK, map[string]any{"healthy": true, "checks": []health.Status{}})
		return
	}

	statuses := s.checker.Statuses()
	status := http.StatusOK
	if !s.checker.IsHealthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"healthy": s.checker.IsHealthy(),
		"checks":  statuses,
	})
}

// ─── /stats ─────────────────────────────────────────────────────────────────

type statsResponse struct {
	Policy          string `json:"policy"`
	QueueDepth      int    `json:"queue_depth"`
	QueueEmpty      bool   `json:"queue_empty"`
	TopBin          string `json:"top_bin,omitempty"`
	TopResolution   string `json:"top_resolution,omitempty"`
	RetryDepth      int    `json:"retry_depth"`
	LifetimeEmitted int64  `json:"lifetime_emitted"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{Policy: s.policy.String()}

	if s.queue != nil {
		resp.QueueDepth = s.queue.Len()
		resp.QueueEmpty = s.queue.Empty()
		if !resp.QueueEmpty {
			if tile, err := s.queue.Top(); err == nil {
				top := tile.PriorityForTreePriority(s.policy)
				resp.TopBin = top.Bin.String()
				resp.TopResolution = top.Resolution.String()
			}
		}
	}
	if s.retry != nil {
		resp.RetryDepth = s.retry.Len()
	}
	if s.db != nil {
		if n, err := s.db.CountTileEvents(); err == nil {
			resp.LifetimeEmitted = n
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ─── POST /layers ───────────────────────────────────────────────────────────

// tileSpec is the wire format for one tile within a registerLayersRequest.
type tileSpec struct {
	ID         string  `json:"id"`
	Bin        string  `json:"bin"`        // "now" | "soon" | "eventually"
	Resolution string  `json:"resolution"` // "high" | "low" | "non_ideal"
	Distance   float32 `json:"distance"`
	Shared     bool    `json:"shared"`
}

type registerLayersRequest struct {
	ID      string     `json:"id"`
	Active  []tileSpec `json:"active"`
	Pending []tileSpec `json:"pending"`
}

func (s *Server) handlePostLayers(w http.ResponseWriter, r *http.Request) {
	var req registerLayersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString() // anonymous pair: the request carried no id
	}
	if s.registry == nil {
		writeError(w, http.StatusServiceUnavailable, "no tiling registry configured")
		return
	}

	pair := domain.LayerPair{}
	if len(req.Active) > 0 {
		pair.Active = tiling.NewMemoryLayer(tilesFromSpecs(req.Active))
	}
	if len(req.Pending) > 0 {
		pair.Pending = tiling.NewMemoryLayer(tilesFromSpecs(req.Pending))
	}

	s.registry.Put(req.ID, pair)
	writeJSON(w, http.StatusCreated, map[string]any{"id": req.ID, "registered": true})
}

func tilesFromSpecs(specs []tileSpec) []domain.Tile {
	tiles := make([]domain.Tile, len(specs))
	for i, spec := range specs {
		p := domain.TilePriority{
			Bin:               parseBin(spec.Bin),
			Resolution:        parseResolution(spec.Resolution),
			DistanceToVisible: spec.Distance,
		}
		tiles[i] = domain.StaticTile{
			Identity: domain.TileID(spec.ID),
			Active:   p,
			Pending:  p,
			Shared:   spec.Shared,
		}
	}
	return tiles
}

func parseBin(s string) domain.PriorityBin {
	switch s {
	case "now":
		return domain.Now
	case "soon":
		return domain.Soon
	default:
		return domain.Eventually
	}
}

func parseResolution(s string) domain.Resolution {
	switch s {
	case "low":
		return domain.LowResolution
	case "non_ideal":
		return domain.NonIdealResolution
	default:
		return domain.HighResolution
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
