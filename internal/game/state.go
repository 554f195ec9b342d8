package game

type State uint8

const (
	StateCountdown State = iota
	StatePlaying
	StatePaused
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateCountdown:
		return "countdown"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateGameOver:
		return "game over"
	}
	return "unknown"
}

// EndReason is why a session reached StateGameOver.
type EndReason uint8

const (
	EndNone EndReason = iota
	EndNoLives
	EndBlocksOverflow
	EndVictory
)

func (r EndReason) String() string {
	switch r {
	case EndNoLives:
		return "out of lives"
	case EndBlocksOverflow:
		return "blocks overflowed"
	case EndVictory:
		return "victory"
	}
	return "none"
}

// Won reports whether the reason counts as a win for the results db.
func (r EndReason) Won() bool {
	return r == EndVictory
}

type Feedback uint8

const (
	FeedbackWaiting Feedback = iota
	FeedbackCorrect
	FeedbackWrong
	FeedbackSuccess
)

// NoteState is the transient per-note feedback signal shown to the
// player. It is not persisted; the engine resets it to waiting after a
// fixed display delay.
type NoteState struct {
	Feedback   Feedback
	Deviation  float64 // cents, for FeedbackCorrect
	Multiplier float64 // finalScore / basePoints, for FeedbackSuccess
	Message    string  // tier message, for FeedbackSuccess
}
