package domain

import "time"

// TileEvent is one tile emission recorded for offline analysis of dispatch
// behavior — bin/resolution mix over time, policy switches, and so on.
type TileEvent struct {
	ID         int64
	TileID     TileID
	Bin        PriorityBin
	Resolution Resolution
	Policy     TreePriority
	EmittedAt  time.Time
}
