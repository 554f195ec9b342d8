package main

import (
	"fmt"
	"sync"
	"time"

	"git.lost.host/meutraa/musicblocks/internal/blocks"
	"git.lost.host/meutraa/musicblocks/internal/config"
	"git.lost.host/meutraa/musicblocks/internal/engine"
	"git.lost.host/meutraa/musicblocks/internal/game"
	"git.lost.host/meutraa/musicblocks/internal/pitch"
	"git.lost.host/meutraa/musicblocks/internal/render"
	"git.lost.host/meutraa/musicblocks/internal/theme"
	"github.com/eiannone/keyboard"
	"github.com/faiface/beep/speaker"
)

type Program struct {
	Renderer render.Renderer
	Theme    theme.Theme
	Engine   *engine.Engine
	Queue    blocks.Queue
	Detector *pitch.DefaultDetector

	Level *game.Level
	Keys  <-chan keyboard.KeyEvent

	columns, rows int
	sideCol       uint16
	dangerRow     uint16

	// gameTime only advances while playing, so pausing freezes the
	// field and the spawn schedule.
	gameTime  time.Duration
	lastFrame time.Duration

	mu     sync.Mutex
	score  int
	lives  int
	combo  int
	note   game.NoteState
	over   bool
	reason game.EndReason
	result game.Result
}

var _ engine.Observer = (*Program)(nil)
var _ pitch.Handler = (*Program)(nil)

// OnNoteDetected implements pitch.Handler: a microphone analyzer
// pushes its events straight into the engine.
func (p *Program) OnNoteDetected(ev game.PitchEvent, now time.Duration) {
	p.Engine.CheckNote(ev, now)
}

// OnSilenceDetected implements pitch.Handler.
func (p *Program) OnSilenceDetected(now time.Duration) {
	p.Engine.CheckNote(game.PitchEvent{}, now)
}

// OnStateChanged implements engine.Observer.
func (p *Program) OnStateChanged(score, lives, combo int, note game.NoteState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.score = score
	p.lives = lives
	p.combo = combo
	p.note = note
}

// OnGameOver implements engine.Observer.
func (p *Program) OnGameOver(reason game.EndReason, result game.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.over = true
	p.reason = reason
	p.result = result
	speaker.Clear()
}

func (p *Program) Resize() error {
	columns, rows, err := p.Renderer.Size()
	if nil != err {
		return err
	}
	p.columns, p.rows = columns, rows
	p.dangerRow = uint16(rows - int(*config.DangerRow))
	p.sideCol = uint16(columns - 30)
	if p.sideCol < 2 {
		p.sideCol = 2
	}
	return nil
}

func (p *Program) Run() {
	p.Renderer.RenderLoop(*config.Delay, func(startTime time.Time, duration time.Duration) bool {
		dt := duration - p.lastFrame
		p.lastFrame = duration

		if p.Engine.State() == game.StatePlaying {
			p.gameTime += dt
			p.Queue.Tick(p.gameTime)
			p.Engine.Tick(p.gameTime)
		}

		// get the key inputs that occured so far
		for i := 0; i < len(p.Keys); i++ {
			key := <-p.Keys
			if key.Key == keyboard.KeyEsc {
				switch p.Engine.State() {
				case game.StatePlaying, game.StatePaused:
					p.Engine.EndGame(game.EndNoLives, p.gameTime)
				}
				return false
			}
			if key.Key == keyboard.KeySpace {
				switch p.Engine.State() {
				case game.StateCountdown, game.StateGameOver:
					p.mu.Lock()
					p.over = false
					p.mu.Unlock()
					p.Engine.StartNewGame(p.gameTime)
				case game.StatePlaying:
					p.Engine.PauseGame()
				case game.StatePaused:
					p.Engine.ResumeGame()
				}
				continue
			}
			ev, ok := p.Detector.KeyEvent(key.Rune, int(*config.Octave))
			if !ok {
				continue
			}
			p.OnNoteDetected(ev, p.gameTime)
		}

		p.draw()
		return true
	})
}

// column positions a block by its pitch class so neighbouring
// semitones fall side by side.
func (p *Program) column(pt game.Pitch) uint16 {
	key := pt.Key() % 12
	if key < 0 {
		key += 12
	}
	spacing := (p.columns - 34) / 12
	if spacing < 3 {
		spacing = 3
	}
	return uint16(2 + key*spacing)
}

func (p *Program) draw() {
	p.mu.Lock()
	score, lives, combo := p.score, p.lives, p.combo
	note := p.note
	over, reason, result := p.over, p.reason, p.result
	p.mu.Unlock()

	r := p.Renderer
	r.Clear()

	// Danger zone
	r.Fill(p.dangerRow, 1, p.Theme.RenderDangerLine(p.columns))

	// Falling blocks
	for _, b := range p.Queue.Active() {
		fallen := p.Queue.Fallen(b)
		if fallen < 0 {
			continue
		}
		row := 1 + int(fallen*float64(p.dangerRow-1))
		if row >= int(p.dangerRow) {
			row = int(p.dangerRow) - 1
		}
		r.Fill(uint16(row), p.column(b.Pitch), p.Theme.RenderBlock(b))
	}

	// Note feedback above the danger line
	if note.Feedback != game.FeedbackWaiting {
		r.Fill(p.dangerRow+1, uint16(p.columns/2-4), p.Theme.RenderNoteState(note))
	}

	// Side stats
	r.Fill(2, p.sideCol, p.Level.Name)
	r.Fill(3, p.sideCol, fmt.Sprintf("     State:  %v", p.Engine.State()))
	r.Fill(5, p.sideCol, fmt.Sprintf("     Score:  %6v", score))
	r.Fill(6, p.sideCol, fmt.Sprintf("     Combo:  %6v", combo))
	r.Fill(7, p.sideCol, fmt.Sprintf("     Lives:  %v", p.Theme.RenderLives(lives)))
	r.Fill(8, p.sideCol, fmt.Sprintf(" Objective:  %5.1f%%", 100*p.Engine.ObjectiveRatio()))
	progress := p.Engine.ObjectiveProgress()
	r.Fill(9, p.sideCol, fmt.Sprintf("     Notes:  %6v", progress.NotesHit))
	r.Fill(10, p.sideCol, fmt.Sprintf("  Accuracy:  %5.1f%%", 100*progress.AverageAccuracy()))
	r.Fill(11, p.sideCol, fmt.Sprintf("    Blocks:  %6v", progress.TotalBlocksDestroyed))

	switch p.Engine.State() {
	case game.StateCountdown:
		r.Fill(uint16(p.rows/2), uint16(p.columns/2-12), "Press space to start")
	case game.StatePaused:
		r.Fill(uint16(p.rows/2), uint16(p.columns/2-4), "Paused")
	case game.StateGameOver:
		if over {
			mid := uint16(p.rows / 2)
			r.Fill(mid-1, uint16(p.columns/2-10), fmt.Sprintf("Game over: %v", reason))
			r.Fill(mid, uint16(p.columns/2-10), fmt.Sprintf("Score %v, best streak %v", result.Score, result.BestStreak))
			r.Fill(mid+1, uint16(p.columns/2-10), fmt.Sprintf("Accuracy %.0f%%, %v",
				100*result.Accuracy, result.PlayTime.Round(time.Second)))
			r.Fill(mid+3, uint16(p.columns/2-10), "Press space to retry")
		}
	}
}
