package blocks

import (
	"time"

	"git.lost.host/meutraa/musicblocks/internal/game"
)

// Queue is the falling-block collaborator as the rest of the program
// sees it. The engine consumes the narrower engine.BlockQueue slice of
// this.
type Queue interface {
	Current() *game.Block
	ApplyHit(hitTime time.Duration) bool
	ResetProgress()
	Clear()
	StartGeneration()
	StopGeneration()
	PastDangerZone() bool

	Tick(now time.Duration)
	Active() []*game.Block
	Fallen(b *game.Block) float64
}
