// Package engine holds the game rules state machine: it consumes pitch
// events, applies accuracy/combo/scoring, tracks the level objective
// and decides when the game ends. It knows nothing about rendering or
// audio capture; those arrive through the injected collaborators.
package engine

import (
	"log"
	"sync"
	"time"

	"git.lost.host/meutraa/musicblocks/internal/game"
	"git.lost.host/meutraa/musicblocks/internal/objective"
)

const (
	wrongNoteDelay = 2 * time.Second
	successDelay   = 500 * time.Millisecond
)

// BlockQueue is the falling-block collaborator as the engine consumes
// it. Calls return immediately; the queue is mutated only through
// these signals.
type BlockQueue interface {
	Current() *game.Block
	ApplyHit(hitTime time.Duration) bool
	ResetProgress()
	Clear()
	StartGeneration()
	StopGeneration()
	PastDangerZone() bool
}

// Recorder persists a finalized game result.
type Recorder interface {
	RecordResult(level *game.Level, result game.Result)
}

// Observer receives state updates for display. Implementations must
// not call back into the engine.
type Observer interface {
	OnStateChanged(score, lives, combo int, note game.NoteState)
	OnGameOver(reason game.EndReason, result game.Result)
}

// Engine methods are safe for concurrent use; deferred cooldown
// callbacks fire on timer goroutines and re-enter under the mutex.
// All times are session durations from the caller's frame clock, which
// only advances while the game is playing.
type Engine struct {
	mu sync.Mutex

	level    *game.Level
	queue    BlockQueue
	recorder Recorder
	observer Observer
	tracker  *objective.Tracker

	// after schedules a deferred callback, swappable in tests.
	after func(d time.Duration, f func())

	state  game.State
	reason game.EndReason
	note   game.NoteState

	score int
	lives int
	combo int

	// Remaining extra-life score thresholds, ascending, each consumed
	// at most once.
	extraLives []int

	// Drop-if-busy latch: while either is set no new pitch events are
	// evaluated.
	showingError bool
	inSuccess    bool

	// session invalidates outstanding cooldown timers whenever the
	// game restarts or ends.
	session uint64

	startTime time.Duration
	lastTick  time.Duration

	// Per-game aggregates, finalized into a game.Result on end.
	notesHit      int
	bestStreak    int
	accuracySum   float64
	accuracyCount int
	hitsByStyle   map[string]int
}

func New(level *game.Level, queue BlockQueue, recorder Recorder, observer Observer) *Engine {
	e := &Engine{
		level:    level,
		queue:    queue,
		recorder: recorder,
		observer: observer,
		state:    game.StateCountdown,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		hitsByStyle: map[string]int{},
	}
	if level != nil {
		e.tracker = objective.NewTracker(level.Objective, level.StyleNames())
	}
	return e
}

// StartNewGame resets the session and begins play. A no-op while
// already playing, or if no level is loaded.
func (e *Engine) StartNewGame(now time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.level == nil {
		log.Println("unable to start game, no level loaded")
		return
	}
	if e.state == game.StatePlaying {
		return
	}

	e.session++
	e.state = game.StatePlaying
	e.reason = game.EndNone
	e.note = game.NoteState{}
	e.score = 0
	e.combo = 0
	e.lives = e.level.Lives
	e.extraLives = append([]int{}, e.level.ExtraLifeScores...)
	e.showingError = false
	e.inSuccess = false
	e.startTime = now
	e.lastTick = now
	e.notesHit = 0
	e.bestStreak = 0
	e.accuracySum = 0
	e.accuracyCount = 0
	e.hitsByStyle = map[string]int{}
	e.tracker.Reset()

	e.queue.Clear()
	e.queue.StartGeneration()
	e.notify()
}

// PauseGame is valid only while playing.
func (e *Engine) PauseGame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != game.StatePlaying {
		return
	}
	e.state = game.StatePaused
	e.queue.StopGeneration()
	e.notify()
}

// ResumeGame is valid only while paused.
func (e *Engine) ResumeGame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != game.StatePaused {
		return
	}
	e.state = game.StatePlaying
	e.queue.StartGeneration()
	e.notify()
}

// EndGame finalizes the session from any non-terminal state.
func (e *Engine) EndGame(reason game.EndReason, now time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endGame(reason, now)
}

func (e *Engine) endGame(reason game.EndReason, now time.Duration) {
	if e.state == game.StateGameOver {
		return
	}
	e.state = game.StateGameOver
	e.reason = reason
	e.session++ // outstanding cooldown timers are now stale
	e.showingError = false
	e.inSuccess = false
	e.note = game.NoteState{}
	e.queue.StopGeneration()

	hits := make(map[string]int, len(e.hitsByStyle))
	for k, v := range e.hitsByStyle {
		hits[k] = v
	}
	result := game.Result{
		Score:      e.score,
		NotesHit:   e.notesHit,
		BestStreak: e.bestStreak,
		Accuracy:   average(e.accuracySum, e.accuracyCount),
		PlayTime:   now - e.startTime,
		Won:        reason.Won(),
		StyleHits:  hits,
	}
	if e.recorder != nil {
		e.recorder.RecordResult(e.level, result)
	}
	if e.observer != nil {
		e.observer.OnGameOver(reason, result)
	}
	e.notify()
}

// Tick advances session time: feeds elapsed time to the objective
// tracker and ends the game when a block crosses the danger zone.
func (e *Engine) Tick(now time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != game.StatePlaying {
		e.lastTick = now
		return
	}
	e.tracker.Record(objective.Update{DeltaTime: now - e.lastTick})
	e.lastTick = now

	if e.queue.PastDangerZone() {
		e.endGame(game.EndBlocksOverflow, now)
	}
}

// CheckNote evaluates one pitch event against the current target
// block. Dropped while not playing, while an error or success display
// cooldown is active, without a target block, or for inactive events.
func (e *Engine) CheckNote(ev game.PitchEvent, now time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != game.StatePlaying || e.showingError || e.inSuccess || !ev.Active {
		return
	}
	block := e.queue.Current()
	if block == nil {
		return
	}

	if ev.Pitch.Equivalent(block.Pitch) {
		e.handleCorrectNote(ev.Deviation, block, now)
	} else {
		e.handleWrongNote(now)
	}
}

func (e *Engine) handleCorrectNote(deviation float64, block *game.Block, now time.Duration) {
	destroyed := e.queue.ApplyHit(now)
	if destroyed {
		e.handleSuccess(deviation, block, now)
		// Victory ends the game inside handleSuccess; nothing may be
		// reported after the game over.
		if e.state != game.StatePlaying {
			return
		}
	} else {
		e.note = game.NoteState{Feedback: game.FeedbackCorrect, Deviation: deviation}
	}
	// The streak grows on every correct event, destroyed or not. The
	// success bonus above is computed against the streak before this
	// event.
	e.combo++
	e.notify()
}

func (e *Engine) handleWrongNote(now time.Duration) {
	if e.showingError {
		return
	}
	e.showingError = true
	e.lives--
	e.combo = 0
	e.note = game.NoteState{Feedback: game.FeedbackWrong}
	e.queue.ResetProgress()

	if e.lives <= 0 {
		e.endGame(game.EndNoLives, now)
		return
	}
	e.notify()

	session := e.session
	e.after(wrongNoteDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.session != session || e.state != game.StatePlaying {
			return
		}
		e.showingError = false
		e.note = game.NoteState{}
		e.notify()
	})
}

func (e *Engine) handleSuccess(deviation float64, block *game.Block, now time.Duration) {
	e.inSuccess = true

	style := block.Config.Name
	e.hitsByStyle[style]++

	accuracy := e.calculateAccuracy(deviation)
	baseScore, message := e.calculateScore(accuracy, block)
	finalScore := baseScore + comboBonus(baseScore, e.combo)
	e.score += finalScore

	e.notesHit++
	e.accuracySum += accuracy
	e.accuracyCount++
	if e.combo > e.bestStreak {
		e.bestStreak = e.combo
	}

	e.checkForExtraLife()

	e.tracker.Record(objective.Update{
		Score:          e.score,
		HasScore:       true,
		NoteHit:        true,
		Accuracy:       accuracy,
		HasAccuracy:    true,
		DestroyedStyle: style,
	})
	if e.tracker.Complete() {
		e.endGame(game.EndVictory, now)
		return
	}

	multiplier := 0.0
	if block.Config.BasePoints > 0 {
		multiplier = float64(finalScore) / float64(block.Config.BasePoints)
	}
	e.note = game.NoteState{
		Feedback:   game.FeedbackSuccess,
		Multiplier: multiplier,
		Message:    message,
	}

	session := e.session
	e.after(successDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.session != session || e.state != game.StatePlaying {
			return
		}
		e.inSuccess = false
		e.note = game.NoteState{}
		e.notify()
	})
}

// calculateAccuracy maps an absolute deviation in cents to [0,1]: a
// perfect plateau inside the inner band, zero beyond the tolerance,
// linear in between.
func (e *Engine) calculateAccuracy(deviation float64) float64 {
	abs := deviation
	if abs < 0 {
		abs = -abs
	}
	inner := e.level.Accuracy.InnerBandCents
	tolerance := e.level.Accuracy.ToleranceCents
	if abs > tolerance {
		return 0
	}
	if abs <= inner {
		return 1
	}
	return 1 - (abs-inner)/(tolerance-inner)
}

// calculateScore looks the accuracy up in the level's tiers, best tier
// first. Base points are scaled by the per-note complexity multiplier
// before the tier multiplier applies.
func (e *Engine) calculateScore(accuracy float64, block *game.Block) (int, string) {
	base := float64(block.Config.BasePoints) * e.noteMultiplier(block.Pitch)
	for _, tier := range e.level.Accuracy.Tiers {
		if accuracy >= tier.Threshold {
			return int(base * tier.Multiplier), tier.Name
		}
	}
	return 0, "Fail"
}

func (e *Engine) noteMultiplier(p game.Pitch) float64 {
	if m, ok := e.level.NoteMultipliers[p.String()]; ok {
		return m
	}
	return 1
}

// comboBonus caps the streak at the 10x multiplier tier. Integer
// division, never negative.
func comboBonus(baseScore, combo int) int {
	if combo > 10 {
		combo = 10
	}
	if combo < 1 {
		return 0
	}
	return baseScore * (combo - 1) / 2
}

// checkForExtraLife consumes the lowest crossed threshold, granting
// one life, never past initial + max extra.
func (e *Engine) checkForExtraLife() {
	for i, threshold := range e.extraLives {
		if threshold > e.score {
			break
		}
		if e.lives < e.level.Lives+e.level.MaxExtraLives {
			e.lives++
			e.extraLives = append(e.extraLives[:i], e.extraLives[i+1:]...)
			return
		}
	}
}

func (e *Engine) notify() {
	if e.observer == nil {
		return
	}
	e.observer.OnStateChanged(e.score, e.lives, e.combo, e.note)
}

func average(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func (e *Engine) State() game.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Reason() game.EndReason {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reason
}

func (e *Engine) Score() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.score
}

func (e *Engine) Lives() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lives
}

func (e *Engine) Combo() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.combo
}

func (e *Engine) NoteState() game.NoteState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.note
}

// ObjectiveRatio is the tracked objective's completion in [0,1].
func (e *Engine) ObjectiveRatio() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Ratio()
}

// ObjectiveProgress copies the tracker accumulator for display.
func (e *Engine) ObjectiveProgress() objective.Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Snapshot()
}
