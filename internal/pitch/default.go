package pitch

import (
	"time"

	"git.lost.host/meutraa/musicblocks/internal/config"
	"git.lost.host/meutraa/musicblocks/internal/game"
)

// DefaultDetector converts raw detections into pitch events. It is the
// back half of the analyzer contract: anything that can produce a
// frequency and an amplitude (a microphone front end, the keyboard
// practice mode, a test) funnels through here.
type DefaultDetector struct {
	// AmplitudeThreshold gates silence; detections below it collapse
	// to an inactive event.
	AmplitudeThreshold float64
	Hold               time.Duration

	handler Handler
}

var _ Source = (*DefaultDetector)(nil)

func NewDefaultDetector(hold time.Duration) *DefaultDetector {
	return &DefaultDetector{
		AmplitudeThreshold: 0.02,
		Hold:               hold,
	}
}

func (d *DefaultDetector) Start(h Handler) error {
	d.handler = h
	return nil
}

func (d *DefaultDetector) Stop() {
	d.handler = nil
}

func (d *DefaultDetector) RequiredHoldTime() time.Duration {
	return d.Hold
}

// Sample feeds one frequency/amplitude reading to the handler. A
// microphone front end calls this per analysis window.
func (d *DefaultDetector) Sample(frequency, amplitude float64, now time.Duration) {
	if nil == d.handler {
		return
	}
	ev := d.Detect(frequency, amplitude)
	if !ev.Active {
		d.handler.OnSilenceDetected(now)
		return
	}
	d.handler.OnNoteDetected(ev, now)
}

// Detect maps a frequency/amplitude sample to a pitch event.
func (d *DefaultDetector) Detect(frequency, amplitude float64) game.PitchEvent {
	if amplitude < d.AmplitudeThreshold || frequency <= 0 {
		return game.PitchEvent{Amplitude: amplitude}
	}
	p, cents := game.NearestPitch(frequency)
	return game.PitchEvent{
		Pitch:     p,
		Frequency: frequency,
		Amplitude: amplitude,
		Deviation: cents,
		Active:    true,
	}
}

// KeyEvent synthesizes an in-tune event from a practice key, for
// playing without a microphone.
func (d *DefaultDetector) KeyEvent(r rune, octave int) (game.PitchEvent, bool) {
	semitone := config.KeySemitone(r)
	if semitone < 0 {
		return game.PitchEvent{}, false
	}
	p, _ := game.ParsePitch(keyNames[semitone])
	p.Octave = octave
	return game.PitchEvent{
		Pitch:     p,
		Frequency: p.Frequency(),
		Amplitude: 1,
		Active:    true,
	}, true
}

var keyNames = []string{"DO", "DO#", "RE", "RE#", "MI", "FA", "FA#", "SOL", "SOL#", "LA", "LA#", "SI"}
