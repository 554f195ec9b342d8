package config

import (
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	Directory   = kingpin.Arg("directory", "Level directory").Required().ExistingDir()
	Delay       = kingpin.Flag("delay", "Start delay").Default("1.5s").Short('d').Duration()
	FramePeriod = kingpin.Flag("frame-period", "Render frame period").Default("16ms").Short('p').Duration()
	DangerRow   = kingpin.Flag("danger-row", "Console rows between danger zone and bottom").Default("6").Uint()
	Tolerance   = kingpin.Flag("tolerance", "Override tuning tolerance in cents, 0 keeps the level value").Default("0").Short('t').Float64()
	Database    = kingpin.Flag("database", "Results database path").Default("./results.db").String()
	practiceKey = kingpin.Flag("keys", "Practice mode keys, one per semitone from DO").Default("zsxdcvgbhnjm").Short('k').String()
	Octave      = kingpin.Flag("octave", "Practice mode octave").Default("4").Uint()
)

// PracticeKeys maps a chromatic octave onto the keyboard for playing
// without a microphone.
func PracticeKeys() []rune {
	return []rune(*practiceKey)
}

// KeySemitone returns the semitone above DO for a practice key, or -1.
func KeySemitone(r rune) int {
	for i, c := range PracticeKeys() {
		if r == c {
			return i
		}
	}
	return -1
}

// Parse is called by main before any flag is read; importing this
// package from a test must not parse the test binary's arguments.
func init() {
	kingpin.Version("0.1.0")
}
