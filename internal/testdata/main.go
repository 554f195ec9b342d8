package testdata

import (
	"io/ioutil"
	"os"

	"git.lost.host/meutraa/musicblocks/internal/game"
	"git.lost.host/meutraa/musicblocks/internal/level"
)

// GetLevel parses the canonical test level through the real parser so
// tests exercise the same defaulting and validation as the game.
func GetLevel() (*game.Level, error) {
	f, err := ioutil.TempFile("", "level-*.json")
	if nil != err {
		return nil, err
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(data); nil != err {
		return nil, err
	}
	if err := f.Close(); nil != err {
		return nil, err
	}
	p := &level.DefaultParser{}
	return p.Parse(f.Name())
}

const data = `
// Canonical level used across tests.
{
	"name": "Test Garden",
	"lives": 3,
	"max_extra_lives": 2,
	"extra_life_scores": [500, 1000],
	"spawn_interval_ms": 4000,
	"fall_time_ms": 10000,
	"required_hold_ms": 300,
	"styles": [
		{
			"name": "ghost",
			"notes": ["DO4", "RE4", "MI4"],
			"required_hits": 1,
			"base_points": 10
		},
		{
			"name": "ice",
			"notes": ["FA#4", "SOL4"],
			"required_hits": 2,
			"base_points": 20,
			"weight": 2
		},
		{
			"name": "hard",
			"notes": ["LA4"],
			"required_hits": 1,
			"required_time_ms": 600,
			"base_points": 30
		}
	],
	/* One typed win condition per level. */
	"objective": {
		"type": "score",
		"target": 100
	},
	"accuracy": {
		"tolerance_cents": 30,
		"inner_band_cents": 10,
		"tiers": [
			{"name": "Perfect", "threshold": 0.9, "multiplier": 2.0},
			{"name": "Excellent", "threshold": 0.7, "multiplier": 1.5},
			{"name": "Good", "threshold": 0.4, "multiplier": 1.0}
		]
	},
	"note_multipliers": {
		"LA4": 1.5
	}
}
`
