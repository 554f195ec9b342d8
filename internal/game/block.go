package game

import "time"

// Block is one falling note block. The queue owns and mutates it; the
// engine only reads Pitch/Config and signals hit or reset through the
// queue.
type Block struct {
	Pitch  Pitch
	Config *StyleConfig

	SpawnTime time.Duration // session time when spawned

	// Destruction progress
	Hits      int
	Holding   bool
	HoldStart time.Duration // session time the current hold began
	HeldFor   time.Duration
}

// Progress is how far this block is towards destruction, [0,1].
// Both thresholds must complete, so the lower ratio wins.
func (b *Block) Progress() float64 {
	hits, hold := 1.0, 1.0
	if b.Config.RequiredHits > 0 {
		hits = float64(b.Hits) / float64(b.Config.RequiredHits)
	}
	if b.Config.RequiredTime > 0 {
		hold = float64(b.HeldFor) / float64(b.Config.RequiredTime)
	}
	if hits < hold {
		return clamp(hits)
	}
	return clamp(hold)
}

// Destroyed reports whether both thresholds are satisfied.
func (b *Block) Destroyed() bool {
	return b.Hits >= b.Config.RequiredHits && b.HeldFor >= b.Config.RequiredTime
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
