package game

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Solfège note names in chromatic order, semitones above DO.
var noteOffsets = map[string]int{
	"DO":  0,
	"RE":  2,
	"MI":  4,
	"FA":  5,
	"SOL": 7,
	"LA":  9,
	"SI":  11,
}

var noteNames = []string{"DO", "DO#", "RE", "RE#", "MI", "FA", "FA#", "SOL", "SOL#", "LA", "LA#", "SI"}

var ErrBadPitch = errors.New("unparseable pitch name")

// Pitch is a musical pitch with its spelling preserved.
// Two different spellings of the same key (FA#4 and SOL♭4) compare
// equivalent but keep their own names.
type Pitch struct {
	Name       string // note letter group, e.g. "SOL"
	Accidental int    // +1 sharp, -1 flat, 0 natural
	Octave     int
}

// Key is the absolute semitone index, octave * 12 + offset.
// Enharmonic spellings share a key.
func (p Pitch) Key() int {
	return p.Octave*12 + noteOffsets[p.Name] + p.Accidental
}

// Equivalent reports whether q names the same key as p.
func (p Pitch) Equivalent(q Pitch) bool {
	return p.Key() == q.Key()
}

// Frequency in Hz, LA4 = 440.
func (p Pitch) Frequency() float64 {
	return 440.0 * math.Pow(2, float64(p.Key()-57)/12.0)
}

func (p Pitch) String() string {
	acc := ""
	switch p.Accidental {
	case 1:
		acc = "#"
	case -1:
		acc = "♭"
	}
	return fmt.Sprintf("%s%s%d", p.Name, acc, p.Octave)
}

// ParsePitch reads names like "SOL♭4", "FA#4", "LA3" or "MI".
// A missing octave defaults to 4.
func ParsePitch(s string) (Pitch, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	// Longest name first, so the B in "SOLB4" is a flat and not part
	// of the note name.
	name := ""
	for n := 3; n >= 2; n-- {
		if len(s) < n {
			continue
		}
		if _, ok := noteOffsets[s[:n]]; ok {
			name = s[:n]
			break
		}
	}
	if name == "" {
		return Pitch{}, fmt.Errorf("%w: %q", ErrBadPitch, s)
	}
	rest := s[len(name):]

	p := Pitch{Name: name, Octave: 4}
	if strings.HasPrefix(rest, "#") {
		p.Accidental = 1
		rest = rest[1:]
	} else if strings.HasPrefix(rest, "♭") || strings.HasPrefix(rest, "B") {
		p.Accidental = -1
		rest = strings.TrimPrefix(strings.TrimPrefix(rest, "♭"), "B")
	}

	if rest != "" {
		oct, err := strconv.Atoi(rest)
		if nil != err {
			return Pitch{}, fmt.Errorf("%w: %q", ErrBadPitch, s)
		}
		p.Octave = oct
	}
	return p, nil
}

// NearestPitch converts a frequency to the closest pitch and the
// deviation from it in cents.
func NearestPitch(frequency float64) (Pitch, float64) {
	if frequency <= 0 {
		return Pitch{Name: "LA", Octave: 4}, 0
	}
	semitones := 12 * math.Log2(frequency/440.0)
	rounded := math.Round(semitones)
	cents := 100 * (semitones - rounded)

	key := 57 + int(rounded)
	octave := key / 12
	index := key % 12
	if index < 0 {
		index += 12
		octave--
	}

	p, _ := ParsePitch(noteNames[index])
	p.Octave = octave
	return p, cents
}

// PitchEvent is one sample from the audio analysis front end.
// Inactive events are the amplitude-gated silence signal.
type PitchEvent struct {
	Pitch     Pitch
	Frequency float64
	Amplitude float64
	Deviation float64 // cents from the detected pitch
	Active    bool
}
