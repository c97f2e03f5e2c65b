package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tutu-network/rasterq/internal/domain"
	"github.com/tutu-network/rasterq/internal/infra/tiling"
	"github.com/tutu-network/rasterq/internal/raster"
)

func init() {
	rootCmd.AddCommand(benchCmd)
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a fixed set of scheduling scenarios through a real queue",
	Long: `bench builds a RasterTilePriorityQueue from hand-authored layer pairs and
prints the emission order each scenario produces — a runnable demonstration
of the dispatcher's ordering rules, not a performance benchmark.`,
	RunE: runBench,
}

type benchScenario struct {
	name   string
	policy domain.TreePriority
	pairs  []domain.LayerPair
}

func runBench(cmd *cobra.Command, args []string) error {
	for _, sc := range benchScenarios() {
		q := raster.BuildDebug(sc.pairs, sc.policy)
		fmt.Printf("=== %s (%s) ===\n", sc.name, sc.policy)
		for !q.Empty() {
			tile, err := q.Pop()
			if err != nil {
				return fmt.Errorf("%s: %w", sc.name, err)
			}
			p := tile.PriorityForTreePriority(sc.policy)
			fmt.Printf("  %-8s bin=%-10s res=%-20s dist=%.1f\n", tile.ID(), p.Bin, p.Resolution, p.DistanceToVisible)
		}
	}
	return nil
}

func staticTile(id string, bin domain.PriorityBin, res domain.Resolution, dist float32) domain.StaticTile {
	p := domain.TilePriority{Bin: bin, Resolution: res, DistanceToVisible: dist}
	return domain.StaticTile{Identity: domain.TileID(id), Active: p, Pending: p}
}

func onlyActive(tiles ...domain.Tile) domain.LayerPair {
	return domain.LayerPair{Active: tiling.NewMemoryLayer(tiles)}
}

// benchScenarios mirrors the concrete scenarios used to seed the core's test
// suite: single-pair distance ordering, smoothness arbitration promoting a
// pending NOW tile, shared-tile dedup, low-res preference under smoothness,
// non-ideal resolution always losing, and empty-pair coexistence.
func benchScenarios() []benchScenario {
	// sharedX sits on both trees; active's copy is nearer, so only active emits it.
	sharedX := domain.StaticTile{Identity: "X", Shared: true,
		Active:  domain.TilePriority{Bin: domain.Now, Resolution: domain.HighResolution, DistanceToVisible: 1.0},
		Pending: domain.TilePriority{Bin: domain.Now, Resolution: domain.HighResolution, DistanceToVisible: 2.0}}
	return []benchScenario{
		{
			name:   "single pair, distance order",
			policy: domain.SamePriorityForBothTrees,
			pairs: []domain.LayerPair{onlyActive(
				staticTile("A", domain.Now, domain.HighResolution, 1.0),
				staticTile("B", domain.Now, domain.HighResolution, 2.0),
				staticTile("C", domain.Now, domain.HighResolution, 3.0),
			)},
		},
		{
			name:   "smoothness promotes pending NOW",
			policy: domain.SmoothnessTakesPriority,
			pairs: []domain.LayerPair{
				{
					Active:  tiling.NewMemoryLayer([]domain.Tile{staticTile("p1-active", domain.Eventually, domain.HighResolution, 1.0)}),
					Pending: tiling.NewMemoryLayer([]domain.Tile{staticTile("p1-pending", domain.Now, domain.HighResolution, 1.0)}),
				},
				onlyActive(staticTile("p2-active", domain.Soon, domain.HighResolution, 1.0)),
			},
		},
		{
			name:   "shared tile emitted once",
			policy: domain.SamePriorityForBothTrees,
			pairs: []domain.LayerPair{{
				Active:  tiling.NewMemoryLayer([]domain.Tile{sharedX}),
				Pending: tiling.NewMemoryLayer([]domain.Tile{sharedX}),
			}},
		},
		{
			name:   "low-res preferred under smoothness",
			policy: domain.SmoothnessTakesPriority,
			pairs: []domain.LayerPair{onlyActive(
				staticTile("low", domain.Soon, domain.LowResolution, 5.0),
				staticTile("high", domain.Soon, domain.HighResolution, 1.0),
			)},
		},
		{
			name:   "non-ideal resolution always loses",
			policy: domain.SamePriorityForBothTrees,
			pairs: []domain.LayerPair{onlyActive(
				staticTile("non-ideal", domain.Soon, domain.NonIdealResolution, 0.1),
				staticTile("high", domain.Soon, domain.HighResolution, 100.0),
			)},
		},
		{
			name:   "empty pair coexistence",
			policy: domain.SamePriorityForBothTrees,
			pairs: []domain.LayerPair{
				onlyActive(staticTile("p1", domain.Now, domain.HighResolution, 1.0)),
				{}, // P2: empty at Build, must never surface
				onlyActive(staticTile("p3", domain.Soon, domain.HighResolution, 1.0)),
			},
		},
	}
}
