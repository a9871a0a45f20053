package sequence

import "math"

// DivisionType selects how a Sequence's timing resolution is interpreted:
// pulses-per-quarter-note, or one of the four SMPTE frame rates. The
// constants mirror javax.sound.midi.Sequence's float division-type values
// (this lineage's ancestor), which is why DivisionType is a float32 rather
// than an enum of small integers and why equality needs a tolerance.
type DivisionType float32

const (
	PPQ         DivisionType = 0.0
	SMPTE24     DivisionType = 24.0
	SMPTE25     DivisionType = 25.0
	SMPTE30Drop DivisionType = 29.97
	SMPTE30     DivisionType = 30.0
)

const divisionTypeTolerance = 1e-5

func divisionTypeEquals(a, b DivisionType) bool {
	return math.Abs(float64(a-b)) < divisionTypeTolerance
}

// Valid reports whether d is one of the five recognized division types.
func (d DivisionType) Valid() bool {
	for _, candidate := range [...]DivisionType{PPQ, SMPTE24, SMPTE25, SMPTE30Drop, SMPTE30} {
		if divisionTypeEquals(d, candidate) {
			return true
		}
	}
	return false
}

// IsPPQ reports whether d is the pulses-per-quarter-note division type.
func (d DivisionType) IsPPQ() bool {
	return divisionTypeEquals(d, PPQ)
}

// FrameRate returns the SMPTE frames-per-second rate d represents. Calling
// this on PPQ returns 0; callers must check IsPPQ first.
func (d DivisionType) FrameRate() float64 {
	if d.IsPPQ() {
		return 0
	}
	return float64(d)
}

func (d DivisionType) String() string {
	switch {
	case d.IsPPQ():
		return "PPQ"
	case divisionTypeEquals(d, SMPTE24):
		return "SMPTE24"
	case divisionTypeEquals(d, SMPTE25):
		return "SMPTE25"
	case divisionTypeEquals(d, SMPTE30Drop):
		return "SMPTE30Drop"
	case divisionTypeEquals(d, SMPTE30):
		return "SMPTE30"
	default:
		return "Invalid"
	}
}

// ResolutionValid reports whether resolution is within range for d: 1-0x7FFF
// ticks per quarter note for PPQ, 1-0xFF ticks per frame for SMPTE. Stricter
// than the literal 0..=0x7FFF/0..=0xFF spec range: a zero resolution would
// make ticks-per-microsecond undefined everywhere it's used as a divisor.
func (d DivisionType) ResolutionValid(resolution uint16) bool {
	if resolution == 0 {
		return false
	}
	if d.IsPPQ() {
		return resolution <= 0x7FFF
	}
	return resolution <= 0xFF
}
