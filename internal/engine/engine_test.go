package engine

import (
	"math"
	"testing"
	"time"

	"git.lost.host/meutraa/musicblocks/internal/game"
)

type fakeQueue struct {
	block        *game.Block
	destroyAfter int // hits until ApplyHit reports destruction
	hits         int
	resets       int
	starts       int
	stops        int
	clears       int
	past         bool
}

func (q *fakeQueue) Current() *game.Block { return q.block }
func (q *fakeQueue) ApplyHit(hitTime time.Duration) bool {
	q.hits++
	return q.destroyAfter > 0 && q.hits >= q.destroyAfter
}
func (q *fakeQueue) ResetProgress()       { q.resets++ }
func (q *fakeQueue) Clear()               { q.clears++ }
func (q *fakeQueue) StartGeneration()     { q.starts++ }
func (q *fakeQueue) StopGeneration()      { q.stops++ }
func (q *fakeQueue) PastDangerZone() bool { return q.past }

type fakeRecorder struct {
	results []game.Result
}

func (r *fakeRecorder) RecordResult(level *game.Level, result game.Result) {
	r.results = append(r.results, result)
}

// timers collects deferred cooldown callbacks so tests fire them by
// hand.
type timers struct {
	fns []func()
}

func (t *timers) fire(i int) {
	t.fns[i]()
}

func testLevel() *game.Level {
	return &game.Level{
		Name:            "test",
		Lives:           3,
		MaxExtraLives:   2,
		ExtraLifeScores: []int{50, 1000},
		Styles: []game.StyleConfig{
			{Name: "ghost", Notes: []string{"DO4"}, RequiredHits: 1, BasePoints: 10},
			{Name: "ice", Notes: []string{"FA#4"}, RequiredHits: 2, BasePoints: 20},
		},
		Objective: game.Objective{Type: game.ObjectiveScore, Target: 1 << 20},
		Accuracy: game.Accuracy{
			ToleranceCents: 30,
			InnerBandCents: 10,
			Tiers: []game.Tier{
				{Name: "Perfect", Threshold: 0.9, Multiplier: 2},
				{Name: "Excellent", Threshold: 0.7, Multiplier: 1.5},
				{Name: "Good", Threshold: 0.4, Multiplier: 1},
			},
		},
		NoteMultipliers: map[string]float64{"LA4": 1.5},
	}
}

func testEngine(level *game.Level, q *fakeQueue) (*Engine, *fakeRecorder, *timers) {
	rec := &fakeRecorder{}
	tm := &timers{}
	e := New(level, q, rec, nil)
	e.after = func(d time.Duration, f func()) {
		tm.fns = append(tm.fns, f)
	}
	return e, rec, tm
}

func mustPitch(t *testing.T, s string) game.Pitch {
	p, err := game.ParsePitch(s)
	if nil != err {
		t.Fatal(err)
	}
	return p
}

func event(t *testing.T, name string, deviation float64) game.PitchEvent {
	p := mustPitch(t, name)
	return game.PitchEvent{Pitch: p, Deviation: deviation, Active: true}
}

func block(t *testing.T, level *game.Level, style, note string) *game.Block {
	return &game.Block{Pitch: mustPitch(t, note), Config: level.Style(style)}
}

func TestCalculateAccuracy(t *testing.T) {
	e, _, _ := testEngine(testLevel(), &fakeQueue{})

	// Beyond the tolerance accuracy is zero
	for _, d := range []float64{30.1, 31, 50, 100, -31, -100} {
		if a := e.calculateAccuracy(d); a != 0 {
			t.Log("deviation", d, "accuracy", a)
			t.Fail()
		}
	}
	// Inside the inner band it is perfect
	for _, d := range []float64{0, 3, 10, -10, -7} {
		if a := e.calculateAccuracy(d); a != 1 {
			t.Log("deviation", d, "accuracy", a)
			t.Fail()
		}
	}
	// Monotonically non-increasing across the band
	prev := 1.0
	for d := 10.0; d <= 30.0; d += 0.5 {
		a := e.calculateAccuracy(d)
		if a > prev {
			t.Log("accuracy increased at", d)
			t.Fail()
		}
		if e.calculateAccuracy(-d) != a {
			t.Log("accuracy not symmetric at", d)
			t.Fail()
		}
		prev = a
	}
	// Midpoint of the band
	if a := e.calculateAccuracy(20); math.Abs(a-0.5) > 1e-9 {
		t.Log("accuracy at 20 cents", a)
		t.Fail()
	}
}

func TestCalculateScore(t *testing.T) {
	level := testLevel()
	e, _, _ := testEngine(level, &fakeQueue{})
	ghost := block(t, level, "ghost", "DO4")

	scores := map[float64]struct {
		points  int
		message string
	}{
		1.0:  {20, "Perfect"},
		0.9:  {20, "Perfect"},
		0.8:  {15, "Excellent"},
		0.5:  {10, "Good"},
		0.39: {0, "Fail"},
		0.0:  {0, "Fail"},
	}
	for accuracy, expected := range scores {
		points, message := e.calculateScore(accuracy, ghost)
		if points != expected.points || message != expected.message {
			t.Log("accuracy", accuracy)
			t.Log("out     ", points, message)
			t.Log("expected", expected.points, expected.message)
			t.Fail()
		}
	}
}

func TestCalculateScoreNoteMultiplier(t *testing.T) {
	level := testLevel()
	level.Styles = append(level.Styles, game.StyleConfig{
		Name: "gold", Notes: []string{"LA4"}, RequiredHits: 1, BasePoints: 10,
	})
	e, _, _ := testEngine(level, &fakeQueue{})

	// LA4 carries a 1.5 complexity multiplier, applied before the tier
	points, _ := e.calculateScore(1.0, block(t, level, "gold", "LA4"))
	if points != 30 {
		t.Log("points", points)
		t.Fail()
	}
}

func TestComboBonus(t *testing.T) {
	bonuses := map[[2]int]int{
		{10, 0}:  0,
		{10, 1}:  0,
		{10, 3}:  10,
		{10, 5}:  20,
		{10, 10}: 45,
		{10, 25}: 45, // capped at the 10x tier
		{0, 5}:   0,
	}
	for in, expected := range bonuses {
		if out := comboBonus(in[0], in[1]); out != expected {
			t.Log("base", in[0], "combo", in[1])
			t.Log("out     ", out)
			t.Log("expected", expected)
			t.Fail()
		}
	}
}

func TestSuccessScoring(t *testing.T) {
	level := testLevel()
	q := &fakeQueue{destroyAfter: 4}
	q.block = block(t, level, "ghost", "DO4")
	e, _, _ := testEngine(level, q)
	e.StartNewGame(0)

	// Three correct non-destroying hits build the streak to 3
	good := event(t, "DO4", 20) // accuracy 0.5, Good tier
	for i := 0; i < 3; i++ {
		e.CheckNote(good, 0)
	}
	if e.Combo() != 3 || e.Score() != 0 {
		t.Log("combo", e.Combo(), "score", e.Score())
		t.Fail()
	}

	// Fourth hit destroys: base 10, bonus 10*(3-1)/2 = 10, final 20
	e.CheckNote(good, 0)
	if e.Score() != 20 {
		t.Log("score", e.Score())
		t.Fail()
	}
	if e.Combo() != 4 {
		t.Log("combo", e.Combo())
		t.Fail()
	}
	note := e.NoteState()
	if note.Feedback != game.FeedbackSuccess || note.Message != "Good" || note.Multiplier != 2.0 {
		t.Log("note state", note)
		t.Fail()
	}
}

func TestSuccessCooldownDropsEvents(t *testing.T) {
	level := testLevel()
	q := &fakeQueue{destroyAfter: 1}
	q.block = block(t, level, "ghost", "DO4")
	e, _, tm := testEngine(level, q)
	e.StartNewGame(0)

	e.CheckNote(event(t, "DO4", 0), 0)
	if e.NoteState().Feedback != game.FeedbackSuccess {
		t.Fatal("expected success state")
	}

	// Events during the success display are dropped
	hits := q.hits
	e.CheckNote(event(t, "DO4", 0), 0)
	if q.hits != hits {
		t.Log("event processed during success cooldown")
		t.Fail()
	}

	tm.fire(0)
	if e.NoteState().Feedback != game.FeedbackWaiting {
		t.Log("success cooldown did not clear")
		t.Fail()
	}
	e.CheckNote(event(t, "DO4", 0), 0)
	if q.hits == hits {
		t.Log("event dropped after cooldown cleared")
		t.Fail()
	}
}

func TestWrongNote(t *testing.T) {
	level := testLevel()
	q := &fakeQueue{destroyAfter: 100}
	q.block = block(t, level, "ghost", "DO4")
	e, _, tm := testEngine(level, q)
	e.StartNewGame(0)

	e.CheckNote(event(t, "DO4", 0), 0)
	e.CheckNote(event(t, "RE4", 0), 0)

	if e.Lives() != 2 {
		t.Log("lives", e.Lives())
		t.Fail()
	}
	if e.Combo() != 0 {
		t.Log("combo not reset:", e.Combo())
		t.Fail()
	}
	if e.NoteState().Feedback != game.FeedbackWrong {
		t.Log("note state", e.NoteState())
		t.Fail()
	}
	if q.resets != 1 {
		t.Log("block progress resets", q.resets)
		t.Fail()
	}

	// Error cooldown drops both wrong and correct events
	hits := q.hits
	e.CheckNote(event(t, "RE4", 0), 0)
	e.CheckNote(event(t, "DO4", 0), 0)
	if e.Lives() != 2 || q.hits != hits {
		t.Log("events processed during error cooldown")
		t.Fail()
	}

	tm.fire(0)
	if e.NoteState().Feedback != game.FeedbackWaiting {
		t.Log("error cooldown did not clear")
		t.Fail()
	}
}

func TestLastLifeEndsGameSynchronously(t *testing.T) {
	level := testLevel()
	level.Lives = 1
	q := &fakeQueue{}
	q.block = block(t, level, "ghost", "DO4")
	e, rec, tm := testEngine(level, q)
	e.StartNewGame(0)

	e.CheckNote(event(t, "RE4", 0), 5*time.Second)

	if e.State() != game.StateGameOver || e.Reason() != game.EndNoLives {
		t.Log("state", e.State(), "reason", e.Reason())
		t.Fail()
	}
	if len(rec.results) != 1 || rec.results[0].Won || rec.results[0].PlayTime != 5*time.Second {
		t.Log("results", rec.results)
		t.Fail()
	}
	// No cooldown timer may fire afterwards and resurrect play
	for i := range tm.fns {
		tm.fire(i)
	}
	if e.State() != game.StateGameOver {
		t.Log("deferred callback resurrected the game")
		t.Fail()
	}
}

func TestStaleCooldownCannotTouchNewSession(t *testing.T) {
	level := testLevel()
	q := &fakeQueue{}
	q.block = block(t, level, "ghost", "DO4")
	e, _, tm := testEngine(level, q)
	e.StartNewGame(0)

	// Wrong note queues cooldown timer 0 for session one
	e.CheckNote(event(t, "RE4", 0), 0)
	e.EndGame(game.EndBlocksOverflow, time.Second)
	e.StartNewGame(time.Second)

	// Wrong note in the new session queues timer 1
	e.CheckNote(event(t, "RE4", 0), time.Second)
	if e.Lives() != 2 {
		t.Fatal("setup failed, lives", e.Lives())
	}

	// The stale timer must not clear the new session's error display
	tm.fire(0)
	if e.NoteState().Feedback != game.FeedbackWrong {
		t.Log("stale timer cleared the new session's cooldown")
		t.Fail()
	}
	tm.fire(1)
	if e.NoteState().Feedback != game.FeedbackWaiting {
		t.Log("live timer failed to clear")
		t.Fail()
	}
}

func TestExtraLife(t *testing.T) {
	level := testLevel()
	level.ExtraLifeScores = []int{30, 60}
	q := &fakeQueue{destroyAfter: 1}
	q.block = block(t, level, "ghost", "DO4")
	e, _, tm := testEngine(level, q)
	e.StartNewGame(0)

	perfect := event(t, "DO4", 0) // 20 points each
	clear := func() {
		tm.fire(len(tm.fns) - 1)
	}

	e.CheckNote(perfect, 0) // score 20
	clear()
	if e.Lives() != 3 {
		t.Log("lives granted early:", e.Lives())
		t.Fail()
	}
	e.CheckNote(perfect, 0) // score 40, crosses 30
	clear()
	if e.Lives() != 4 {
		t.Log("lives", e.Lives())
		t.Fail()
	}
	e.CheckNote(perfect, 0) // score 60+bonus, crosses 60
	clear()
	if e.Lives() != 5 {
		t.Log("lives", e.Lives())
		t.Fail()
	}
	// Thresholds are consumed; no further grants
	e.CheckNote(perfect, 0)
	clear()
	if e.Lives() != 5 {
		t.Log("lives granted past thresholds:", e.Lives())
		t.Fail()
	}
}

func TestExtraLifeCap(t *testing.T) {
	level := testLevel()
	level.Lives = 1
	level.MaxExtraLives = 0
	level.ExtraLifeScores = []int{10}
	q := &fakeQueue{destroyAfter: 1}
	q.block = block(t, level, "ghost", "DO4")
	e, _, _ := testEngine(level, q)
	e.StartNewGame(0)

	e.CheckNote(event(t, "DO4", 0), 0)
	if e.Lives() != 1 {
		t.Log("lives raised above initial + max extra:", e.Lives())
		t.Fail()
	}
}

func TestEnharmonicMatch(t *testing.T) {
	level := testLevel()
	q := &fakeQueue{destroyAfter: 100}
	q.block = block(t, level, "ice", "FA#4")
	e, _, _ := testEngine(level, q)
	e.StartNewGame(0)

	e.CheckNote(event(t, "SOL♭4", 0), 0)
	if e.Combo() != 1 || e.Lives() != 3 {
		t.Log("enharmonic spelling treated as a miss")
		t.Fail()
	}
}

func TestVictoryShortCircuits(t *testing.T) {
	level := testLevel()
	level.Objective = game.Objective{Type: game.ObjectiveScore, Target: 10}
	q := &fakeQueue{destroyAfter: 1}
	q.block = block(t, level, "ghost", "DO4")
	e, rec, _ := testEngine(level, q)
	e.StartNewGame(0)

	e.CheckNote(event(t, "DO4", 0), 2*time.Second)
	if e.State() != game.StateGameOver || e.Reason() != game.EndVictory {
		t.Log("state", e.State(), "reason", e.Reason())
		t.Fail()
	}
	// Step 10 is skipped on victory, no success display remains
	if e.NoteState().Feedback != game.FeedbackWaiting {
		t.Log("note state", e.NoteState())
		t.Fail()
	}
	if len(rec.results) != 1 || !rec.results[0].Won {
		t.Log("results", rec.results)
		t.Fail()
	}
	if rec.results[0].StyleHits["ghost"] != 1 {
		t.Log("style hits", rec.results[0].StyleHits)
		t.Fail()
	}
}

type fakeObserver struct {
	over      bool
	afterOver []int // combos reported after the game over
}

func (o *fakeObserver) OnStateChanged(score, lives, combo int, note game.NoteState) {
	if o.over {
		o.afterOver = append(o.afterOver, combo)
	}
}

func (o *fakeObserver) OnGameOver(reason game.EndReason, result game.Result) {
	o.over = true
}

func TestVictoryStopsObserverUpdates(t *testing.T) {
	level := testLevel()
	level.Objective = game.Objective{Type: game.ObjectiveScore, Target: 10}
	q := &fakeQueue{destroyAfter: 1}
	q.block = block(t, level, "ghost", "DO4")
	obs := &fakeObserver{}
	e := New(level, q, &fakeRecorder{}, obs)
	e.StartNewGame(0)

	e.CheckNote(event(t, "DO4", 0), time.Second)

	// The game over carries one final snapshot; the streak must not
	// grow behind it
	if len(obs.afterOver) != 1 {
		t.Log("updates after game over", obs.afterOver)
		t.Fail()
	}
	for _, combo := range obs.afterOver {
		if combo != 0 {
			t.Log("streak grew after game over", combo)
			t.Fail()
		}
	}
	if e.Combo() != 0 {
		t.Log("combo", e.Combo())
		t.Fail()
	}
}

func TestCheckNoteGuards(t *testing.T) {
	level := testLevel()
	q := &fakeQueue{}
	e, _, _ := testEngine(level, q)

	// Not playing
	e.CheckNote(event(t, "DO4", 0), 0)
	if q.hits != 0 || e.Lives() != 0 {
		t.Fail()
	}

	e.StartNewGame(0)
	// No target block
	e.CheckNote(event(t, "DO4", 0), 0)
	if q.hits != 0 || e.Lives() != 3 {
		t.Log("event processed without a block")
		t.Fail()
	}

	// Inactive events are the silence signal
	q.block = block(t, level, "ghost", "DO4")
	ev := event(t, "RE4", 0)
	ev.Active = false
	e.CheckNote(ev, 0)
	if e.Lives() != 3 {
		t.Log("inactive event processed")
		t.Fail()
	}
}

func TestStateTransitions(t *testing.T) {
	level := testLevel()
	q := &fakeQueue{}
	e, _, _ := testEngine(level, q)

	if e.State() != game.StateCountdown {
		t.Fatal("initial state", e.State())
	}
	// Pause and resume require playing and paused respectively
	e.PauseGame()
	if e.State() != game.StateCountdown {
		t.Fail()
	}
	e.StartNewGame(0)
	if e.State() != game.StatePlaying || q.starts != 1 || q.clears != 1 {
		t.Log("state", e.State(), "starts", q.starts, "clears", q.clears)
		t.Fail()
	}
	// Starting again while playing is a no-op
	e.StartNewGame(0)
	if q.starts != 1 {
		t.Log("start repeated while playing")
		t.Fail()
	}
	e.PauseGame()
	if e.State() != game.StatePaused || q.stops != 1 {
		t.Fail()
	}
	e.ResumeGame()
	if e.State() != game.StatePlaying || q.starts != 2 {
		t.Fail()
	}
	// Resuming the field must not wipe it
	if q.clears != 1 {
		t.Log("resume cleared the queue")
		t.Fail()
	}
}

func TestBlocksOverflowEndsGame(t *testing.T) {
	level := testLevel()
	q := &fakeQueue{}
	e, rec, _ := testEngine(level, q)
	e.StartNewGame(0)

	e.Tick(time.Second)
	if e.State() != game.StatePlaying {
		t.Fatal("ended without overflow")
	}
	q.past = true
	e.Tick(2 * time.Second)
	if e.State() != game.StateGameOver || e.Reason() != game.EndBlocksOverflow {
		t.Log("state", e.State(), "reason", e.Reason())
		t.Fail()
	}
	if len(rec.results) != 1 || rec.results[0].PlayTime != 2*time.Second {
		t.Log("results", rec.results)
		t.Fail()
	}
}

func TestTickFeedsElapsedTime(t *testing.T) {
	level := testLevel()
	q := &fakeQueue{}
	e, _, _ := testEngine(level, q)
	e.StartNewGame(0)

	e.Tick(time.Second)
	e.Tick(3 * time.Second)
	if p := e.ObjectiveProgress(); p.TimeElapsed != 3*time.Second {
		t.Log("time elapsed", p.TimeElapsed)
		t.Fail()
	}
}

func TestStartNewGameWithoutLevel(t *testing.T) {
	e := New(nil, &fakeQueue{}, nil, nil)
	e.StartNewGame(0)
	if e.State() != game.StateCountdown {
		t.Log("started without a level")
		t.Fail()
	}
}
