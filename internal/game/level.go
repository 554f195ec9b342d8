package game

import "time"

// Objective types understood by the tracker.
const (
	ObjectiveScore            = "score"
	ObjectiveTotalNotes       = "total_notes"
	ObjectiveNoteAccuracy     = "note_accuracy"
	ObjectiveBlockDestruction = "block_destruction"
	ObjectiveTotalBlocks      = "total_blocks"
)

// Objective is the single typed win condition of a level.
type Objective struct {
	Type            string         `json:"type"`
	Target          int            `json:"target,omitempty"`
	MinimumAccuracy float64        `json:"minimum_accuracy,omitempty"`
	Details         map[string]int `json:"details,omitempty"` // style → required count
	TimeLimit       time.Duration  `json:"time_limit,omitempty"`
}

// StyleConfig describes one block style a level may spawn.
type StyleConfig struct {
	Name         string        `json:"name"`
	Notes        []string      `json:"notes"` // pitches this style spawns with
	RequiredHits int           `json:"required_hits"`
	RequiredTime time.Duration `json:"required_time"`
	BasePoints   int           `json:"base_points"`
	Weight       int           `json:"weight"` // spawn weight, default 1
}

// Tier is one accuracy→score band.
type Tier struct {
	Name       string  `json:"name"`
	Threshold  float64 `json:"threshold"` // minimum accuracy for this tier
	Multiplier float64 `json:"multiplier"`
}

// Accuracy holds the tuning band and score tiers of a level.
// Tiers are ordered best first (perfect, excellent, good).
type Accuracy struct {
	ToleranceCents float64 `json:"tolerance_cents"`
	InnerBandCents float64 `json:"inner_band_cents"`
	Tiers          []Tier  `json:"tiers"`
}

// Level is a parsed level configuration. Immutable once loaded.
type Level struct {
	Name            string             `json:"name"`
	Lives           int                `json:"lives"`
	MaxExtraLives   int                `json:"max_extra_lives"`
	ExtraLifeScores []int              `json:"extra_life_scores"` // ascending, consumed once each
	SpawnInterval   time.Duration      `json:"spawn_interval"`
	FallTime        time.Duration      `json:"fall_time"` // spawn to danger zone
	RequiredHold    time.Duration      `json:"required_hold"`
	Styles          []StyleConfig      `json:"styles"`
	Objective       Objective          `json:"objective"`
	Accuracy        Accuracy           `json:"accuracy"`
	NoteMultipliers map[string]float64 `json:"note_multipliers,omitempty"` // pitch → complexity multiplier
}

// Style returns the config for a style name, nil if the level does not
// contain it.
func (l *Level) Style(name string) *StyleConfig {
	for i := range l.Styles {
		if l.Styles[i].Name == name {
			return &l.Styles[i]
		}
	}
	return nil
}

// StyleNames in level order, used to seed per-style counters.
func (l *Level) StyleNames() []string {
	names := make([]string, len(l.Styles))
	for i, s := range l.Styles {
		names[i] = s.Name
	}
	return names
}
