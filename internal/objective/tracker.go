package objective

import (
	"time"

	"git.lost.host/meutraa/musicblocks/internal/game"
)

// Progress is the accumulator the tracker evaluates objectives against.
type Progress struct {
	Score                int
	NotesHit             int
	AccuracySum          float64
	AccuracyCount        int
	BlocksByType         map[string]int
	TotalBlocksDestroyed int
	TimeElapsed          time.Duration
}

// AverageAccuracy over all recorded measurements, 0 before the first.
func (p *Progress) AverageAccuracy() float64 {
	if p.AccuracyCount == 0 {
		return 0
	}
	return p.AccuracySum / float64(p.AccuracyCount)
}

// Update is a partial progress update. Zero fields leave the
// corresponding counters untouched. Score carries the engine's running
// total and replaces; the rest are additive.
type Update struct {
	Score          int
	HasScore       bool
	NoteHit        bool
	Accuracy       float64
	HasAccuracy    bool
	DestroyedStyle string
	DeltaTime      time.Duration
}

// Tracker evaluates one typed level objective against accumulated
// session progress.
type Tracker struct {
	objective game.Objective
	styles    []string
	progress  Progress
}

// NewTracker seeds per-style counters from the objective's details, or
// from the level's styles when the objective has none.
func NewTracker(obj game.Objective, styles []string) *Tracker {
	t := &Tracker{objective: obj, styles: styles}
	t.Reset()
	return t
}

func (t *Tracker) Record(u Update) {
	if u.HasScore {
		t.progress.Score = u.Score
	}
	if u.NoteHit {
		t.progress.NotesHit++
	}
	if u.HasAccuracy {
		t.progress.AccuracySum += u.Accuracy
		t.progress.AccuracyCount++
	}
	if u.DestroyedStyle != "" {
		t.progress.BlocksByType[u.DestroyedStyle]++
		t.progress.TotalBlocksDestroyed++
	}
	t.progress.TimeElapsed += u.DeltaTime
}

// Complete reports whether the objective predicate holds.
func (t *Tracker) Complete() bool {
	p := &t.progress
	o := &t.objective
	switch o.Type {
	case game.ObjectiveScore:
		return p.Score >= o.Target
	case game.ObjectiveTotalNotes:
		return p.NotesHit >= o.Target
	case game.ObjectiveNoteAccuracy:
		return p.NotesHit >= o.Target && p.AverageAccuracy() >= o.MinimumAccuracy
	case game.ObjectiveBlockDestruction:
		for style, required := range o.Details {
			if p.BlocksByType[style] < required {
				return false
			}
		}
		return true
	case game.ObjectiveTotalBlocks:
		return p.TotalBlocksDestroyed >= o.Target
	}
	return false
}

// Ratio is the completion fraction in [0,1]. Objectives with several
// components report the least complete one.
func (t *Tracker) Ratio() float64 {
	p := &t.progress
	o := &t.objective
	switch o.Type {
	case game.ObjectiveScore:
		return ratio(p.Score, o.Target)
	case game.ObjectiveTotalNotes:
		return ratio(p.NotesHit, o.Target)
	case game.ObjectiveNoteAccuracy:
		notes := ratio(p.NotesHit, o.Target)
		acc := 1.0
		if o.MinimumAccuracy > 0 {
			acc = clamp(p.AverageAccuracy() / o.MinimumAccuracy)
		}
		if acc < notes {
			return acc
		}
		return notes
	case game.ObjectiveBlockDestruction:
		lowest := 1.0
		for style, required := range o.Details {
			r := ratio(p.BlocksByType[style], required)
			if r < lowest {
				lowest = r
			}
		}
		return lowest
	case game.ObjectiveTotalBlocks:
		return ratio(p.TotalBlocksDestroyed, o.Target)
	}
	return 0
}

// Reset zeroes the accumulator and re-seeds the per-style counters.
func (t *Tracker) Reset() {
	byType := map[string]int{}
	if len(t.objective.Details) > 0 {
		for style := range t.objective.Details {
			byType[style] = 0
		}
	} else {
		for _, style := range t.styles {
			byType[style] = 0
		}
	}
	t.progress = Progress{BlocksByType: byType}
}

// Snapshot copies the accumulator for display.
func (t *Tracker) Snapshot() Progress {
	p := t.progress
	p.BlocksByType = make(map[string]int, len(t.progress.BlocksByType))
	for k, v := range t.progress.BlocksByType {
		p.BlocksByType[k] = v
	}
	return p
}

// Objective returns the tracked objective.
func (t *Tracker) Objective() game.Objective {
	return t.objective
}

func ratio(have, want int) float64 {
	if want <= 0 {
		return 1
	}
	return clamp(float64(have) / float64(want))
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
