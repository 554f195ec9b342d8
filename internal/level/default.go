package level

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"sort"
	"time"

	"git.lost.host/meutraa/musicblocks/internal/game"
)

type DefaultParser struct{}

// Level files are JSON with // and /* */ comments allowed. Durations
// are given in milliseconds.
type levelFile struct {
	Name            string             `json:"name"`
	Lives           int                `json:"lives"`
	MaxExtraLives   int                `json:"max_extra_lives"`
	ExtraLifeScores []int              `json:"extra_life_scores"`
	SpawnIntervalMs int64              `json:"spawn_interval_ms"`
	FallTimeMs      int64              `json:"fall_time_ms"`
	RequiredHoldMs  int64              `json:"required_hold_ms"`
	Styles          []styleFile        `json:"styles"`
	Objective       objectiveFile      `json:"objective"`
	Accuracy        *accuracyFile      `json:"accuracy"`
	NoteMultipliers map[string]float64 `json:"note_multipliers"`
}

type styleFile struct {
	Name           string   `json:"name"`
	Notes          []string `json:"notes"`
	RequiredHits   int      `json:"required_hits"`
	RequiredTimeMs int64    `json:"required_time_ms"`
	BasePoints     int      `json:"base_points"`
	Weight         int      `json:"weight"`
}

type objectiveFile struct {
	Type            string         `json:"type"`
	Target          int            `json:"target"`
	MinimumAccuracy float64        `json:"minimum_accuracy"`
	Details         map[string]int `json:"details"`
	TimeLimitMs     int64          `json:"time_limit_ms"`
}

type accuracyFile struct {
	ToleranceCents float64     `json:"tolerance_cents"`
	InnerBandCents float64     `json:"inner_band_cents"`
	Tiers          []game.Tier `json:"tiers"`
}

func (p *DefaultParser) Parse(file string) (*game.Level, error) {
	data, err := ioutil.ReadFile(file)
	if nil != err {
		return nil, err
	}

	var lf levelFile
	if err := json.Unmarshal(stripComments(data), &lf); nil != err {
		return nil, fmt.Errorf("unable to parse level %v: %w", file, err)
	}

	l := &game.Level{
		Name:            lf.Name,
		Lives:           lf.Lives,
		MaxExtraLives:   lf.MaxExtraLives,
		ExtraLifeScores: append([]int{}, lf.ExtraLifeScores...),
		SpawnInterval:   time.Duration(lf.SpawnIntervalMs) * time.Millisecond,
		FallTime:        time.Duration(lf.FallTimeMs) * time.Millisecond,
		RequiredHold:    time.Duration(lf.RequiredHoldMs) * time.Millisecond,
		Objective: game.Objective{
			Type:            lf.Objective.Type,
			Target:          lf.Objective.Target,
			MinimumAccuracy: lf.Objective.MinimumAccuracy,
			Details:         lf.Objective.Details,
			TimeLimit:       time.Duration(lf.Objective.TimeLimitMs) * time.Millisecond,
		},
		NoteMultipliers: lf.NoteMultipliers,
	}

	for _, s := range lf.Styles {
		weight := s.Weight
		if weight < 1 {
			weight = 1
		}
		l.Styles = append(l.Styles, game.StyleConfig{
			Name:         s.Name,
			Notes:        s.Notes,
			RequiredHits: s.RequiredHits,
			RequiredTime: time.Duration(s.RequiredTimeMs) * time.Millisecond,
			BasePoints:   s.BasePoints,
			Weight:       weight,
		})
	}

	if lf.Accuracy != nil {
		l.Accuracy = game.Accuracy{
			ToleranceCents: lf.Accuracy.ToleranceCents,
			InnerBandCents: lf.Accuracy.InnerBandCents,
			Tiers:          lf.Accuracy.Tiers,
		}
	}
	applyDefaults(l)

	if err := validate(l); nil != err {
		return nil, fmt.Errorf("invalid level %v: %w", file, err)
	}
	return l, nil
}

func applyDefaults(l *game.Level) {
	if l.Lives == 0 {
		l.Lives = 3
	}
	if l.SpawnInterval == 0 {
		l.SpawnInterval = 4 * time.Second
	}
	if l.FallTime == 0 {
		l.FallTime = 10 * time.Second
	}
	if l.RequiredHold == 0 {
		l.RequiredHold = 300 * time.Millisecond
	}
	if l.Accuracy.ToleranceCents == 0 {
		l.Accuracy.ToleranceCents = 30
	}
	if l.Accuracy.InnerBandCents == 0 {
		l.Accuracy.InnerBandCents = 10
	}
	if len(l.Accuracy.Tiers) == 0 {
		l.Accuracy.Tiers = []game.Tier{
			{Name: "Perfect", Threshold: 0.9, Multiplier: 2.0},
			{Name: "Excellent", Threshold: 0.7, Multiplier: 1.5},
			{Name: "Good", Threshold: 0.4, Multiplier: 1.0},
		}
	}
	sort.Ints(l.ExtraLifeScores)
}

func validate(l *game.Level) error {
	if len(l.Styles) == 0 {
		return fmt.Errorf("no block styles")
	}
	for _, s := range l.Styles {
		if len(s.Notes) == 0 {
			return fmt.Errorf("style %q has no notes", s.Name)
		}
		for _, n := range s.Notes {
			if _, err := game.ParsePitch(n); nil != err {
				return err
			}
		}
		if s.RequiredHits < 1 && s.RequiredTime == 0 {
			return fmt.Errorf("style %q requires nothing", s.Name)
		}
	}
	if l.Accuracy.InnerBandCents >= l.Accuracy.ToleranceCents {
		return fmt.Errorf("inner band %v not inside tolerance %v",
			l.Accuracy.InnerBandCents, l.Accuracy.ToleranceCents)
	}
	switch l.Objective.Type {
	case game.ObjectiveScore, game.ObjectiveTotalNotes, game.ObjectiveTotalBlocks:
		if l.Objective.Target < 1 {
			return fmt.Errorf("objective %v needs a target", l.Objective.Type)
		}
	case game.ObjectiveNoteAccuracy:
		if l.Objective.Target < 1 || l.Objective.MinimumAccuracy <= 0 {
			return fmt.Errorf("objective %v needs a target and minimum accuracy", l.Objective.Type)
		}
	case game.ObjectiveBlockDestruction:
		if len(l.Objective.Details) == 0 {
			return fmt.Errorf("objective %v needs style counts", l.Objective.Type)
		}
		for style := range l.Objective.Details {
			if l.Style(style) == nil {
				return fmt.Errorf("objective requires unknown style %q", style)
			}
		}
	default:
		return fmt.Errorf("unknown objective type %q", l.Objective.Type)
	}
	return nil
}

// stripComments removes // and /* */ comments outside of JSON strings.
func stripComments(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			if c == '\\' && i+1 < len(data) {
				i++
				out = append(out, data[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i++ // skip the trailing /
		default:
			out = append(out, c)
		}
	}
	return out
}
