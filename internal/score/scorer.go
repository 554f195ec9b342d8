package score

import (
	"git.lost.host/meutraa/musicblocks/internal/game"
)

type Recorder interface {
	Init() error
	Deinit()

	// Persist the finalized result of one session
	RecordResult(level *game.Level, result game.Result)

	// Load up previous results for the level
	Load(level *game.Level) []Entry
}

type Entry struct {
	Sum    string
	Result game.Result
}

// Best returns the highest scoring entry, or false if there are none.
func Best(entries []Entry) (Entry, bool) {
	if len(entries) == 0 {
		return Entry{}, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Result.Score > best.Result.Score {
			best = e
		}
	}
	return best, true
}
