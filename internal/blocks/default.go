package blocks

import (
	"log"
	"math/rand"
	"time"

	"git.lost.host/meutraa/musicblocks/internal/game"
)

type DefaultQueue struct {
	level *game.Level
	rng   *rand.Rand

	active     []*game.Block
	generating bool
	now        time.Duration
	nextSpawn  time.Duration
}

func NewDefaultQueue(level *game.Level, seed int64) *DefaultQueue {
	return &DefaultQueue{
		level: level,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Tick advances the queue clock and spawns while generation is on.
func (q *DefaultQueue) Tick(now time.Duration) {
	q.now = now
	if !q.generating {
		return
	}
	for q.now >= q.nextSpawn {
		q.spawn()
		q.nextSpawn += q.level.SpawnInterval
	}
}

func (q *DefaultQueue) spawn() {
	style := q.pickStyle()
	note := style.Notes[q.rng.Intn(len(style.Notes))]
	pitch, err := game.ParsePitch(note)
	if nil != err {
		// Levels are validated on load, this is unreachable
		log.Println("unable to parse spawn note", note, err)
		return
	}
	q.active = append(q.active, &game.Block{
		Pitch:     pitch,
		Config:    style,
		SpawnTime: q.now,
	})
}

// pickStyle draws a weighted style from the level.
func (q *DefaultQueue) pickStyle() *game.StyleConfig {
	total := 0
	for _, s := range q.level.Styles {
		total += s.Weight
	}
	n := q.rng.Intn(total)
	for i := range q.level.Styles {
		n -= q.level.Styles[i].Weight
		if n < 0 {
			return &q.level.Styles[i]
		}
	}
	return &q.level.Styles[0]
}

// Current is the oldest block, the one eligible for matching.
func (q *DefaultQueue) Current() *game.Block {
	if len(q.active) == 0 {
		return nil
	}
	return q.active[0]
}

// ApplyHit advances the current block's destruction progress and
// reports whether it is now destroyed. Destroyed blocks leave the
// queue.
func (q *DefaultQueue) ApplyHit(hitTime time.Duration) bool {
	b := q.Current()
	if b == nil {
		return false
	}
	if !b.Holding {
		b.Holding = true
		b.HoldStart = hitTime
	}
	b.HeldFor = hitTime - b.HoldStart
	b.Hits++
	if !b.Destroyed() {
		return false
	}
	q.active = q.active[1:]
	return true
}

// ResetProgress clears the current block's progress, not its position.
func (q *DefaultQueue) ResetProgress() {
	b := q.Current()
	if b == nil {
		return
	}
	b.Hits = 0
	b.Holding = false
	b.HoldStart = 0
	b.HeldFor = 0
}

// Clear drops all blocks, for a fresh session.
func (q *DefaultQueue) Clear() {
	q.active = q.active[:0]
}

// StartGeneration turns spawning on. Blocks already on screen are kept
// so pause/resume does not wipe the field.
func (q *DefaultQueue) StartGeneration() {
	q.generating = true
	q.nextSpawn = q.now + q.level.SpawnInterval/2
}

func (q *DefaultQueue) StopGeneration() {
	q.generating = false
}

// PastDangerZone reports whether any block has fallen the full way.
func (q *DefaultQueue) PastDangerZone() bool {
	for _, b := range q.active {
		if q.now-b.SpawnTime >= q.level.FallTime {
			return true
		}
	}
	return false
}

func (q *DefaultQueue) Active() []*game.Block {
	return q.active
}

// Fallen is the fall fraction of a block, 0 at spawn, 1 at the danger
// zone. May exceed 1 briefly before the overflow check ends the game.
func (q *DefaultQueue) Fallen(b *game.Block) float64 {
	if q.level.FallTime == 0 {
		return 1
	}
	return float64(q.now-b.SpawnTime) / float64(q.level.FallTime)
}
