package pitch

import (
	"time"

	"git.lost.host/meutraa/musicblocks/internal/game"
)

// Handler consumes the event stream a Source produces.
type Handler interface {
	OnNoteDetected(ev game.PitchEvent, now time.Duration)
	OnSilenceDetected(now time.Duration)
}

// Source is a pushing audio analyzer. A microphone analyzer implements
// this; it queries RequiredHoldTime to know how long a pitch must be
// stable before an event is emitted.
type Source interface {
	Start(h Handler) error
	Stop()
	RequiredHoldTime() time.Duration
}
