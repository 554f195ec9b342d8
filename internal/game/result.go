package game

import "time"

// Result is a finalized game session, handed to the results database
// when a session ends.
type Result struct {
	Score      int
	NotesHit   int
	BestStreak int
	Accuracy   float64 // mean per-note accuracy, [0,1]
	PlayTime   time.Duration
	Won        bool
	StyleHits  map[string]int // destroyed blocks per style
}
