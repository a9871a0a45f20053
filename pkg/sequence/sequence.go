package sequence

import (
	"github.com/zurustar/smfseq/pkg/midierr"
	"github.com/zurustar/smfseq/pkg/midimessage"
)

// Sequence is a collection of Tracks sharing one timing division and
// resolution.
type Sequence struct {
	divisionType DivisionType
	resolution   uint16
	tracks       []*Track
}

// New returns an empty Sequence with the given division and resolution.
func New(divisionType DivisionType, resolution uint16) (*Sequence, error) {
	if !divisionType.Valid() {
		return nil, midierr.Invalid("invalid division type %v", divisionType)
	}
	if !divisionType.ResolutionValid(resolution) {
		return nil, midierr.Invalid("resolution %d out of range for division type %v", resolution, divisionType)
	}
	return &Sequence{divisionType: divisionType, resolution: resolution}, nil
}

// NewWithTracks is like New but pre-populates numberOfTracks empty tracks.
func NewWithTracks(divisionType DivisionType, resolution uint16, numberOfTracks int) (*Sequence, error) {
	seq, err := New(divisionType, resolution)
	if err != nil {
		return nil, err
	}
	for i := 0; i < numberOfTracks; i++ {
		seq.CreateTrack()
	}
	return seq, nil
}

// DivisionType returns the sequence's timing division type.
func (s *Sequence) DivisionType() DivisionType { return s.divisionType }

// Resolution returns ticks-per-quarter-note (PPQ) or ticks-per-frame (SMPTE).
func (s *Sequence) Resolution() uint16 { return s.resolution }

// CreateTrack appends a new empty track and returns it.
func (s *Sequence) CreateTrack() *Track {
	t := NewTrack()
	s.tracks = append(s.tracks, t)
	return t
}

// DeleteTrack removes t from the sequence, reporting whether it was found.
func (s *Sequence) DeleteTrack(t *Track) bool {
	for i, existing := range s.tracks {
		if existing == t {
			s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)
			return true
		}
	}
	return false
}

// Tracks returns the sequence's tracks in index order. The returned slice
// shares storage; callers must not retain it across a subsequent
// CreateTrack/DeleteTrack call.
func (s *Sequence) Tracks() []*Track {
	return s.tracks
}

// TickLength returns the tick of the last event across every track, i.e.
// the duration of the sequence measured in ticks.
func (s *Sequence) TickLength() int64 {
	var max int64
	for _, t := range s.tracks {
		if tk := t.Ticks(); tk > max {
			max = tk
		}
	}
	return max
}

// MicrosecondLength estimates the sequence's duration in microseconds at a
// constant 120 BPM for PPQ sequences (matching the MIDI default tempo before
// any tempo meta event is seen), or from the frame rate directly for SMPTE
// sequences.
func (s *Sequence) MicrosecondLength() int64 {
	ticks := s.TickLength()
	if s.divisionType.IsPPQ() {
		const defaultMicrosecondsPerQuarter = 500000
		if s.resolution == 0 {
			return 0
		}
		return ticks * defaultMicrosecondsPerQuarter / int64(s.resolution)
	}
	framesPerSecond := s.divisionType.FrameRate()
	if framesPerSecond == 0 || s.resolution == 0 {
		return 0
	}
	microsecondsPerTick := 1e6 / (framesPerSecond * float64(s.resolution))
	return int64(float64(ticks) * microsecondsPerTick)
}

// Patches scans every track for Program Change messages and returns the
// distinct (channel, program) pairs in first-seen order.
func (s *Sequence) Patches() [][2]int {
	seen := make(map[[2]int]bool)
	var out [][2]int
	for _, t := range s.tracks {
		for _, e := range t.Events() {
			sm, ok := e.Message.(*midimessage.ShortMessage)
			if !ok || sm.Command() != midimessage.ProgramChange {
				continue
			}
			pair := [2]int{int(sm.Channel()), int(sm.Data1())}
			if !seen[pair] {
				seen[pair] = true
				out = append(out, pair)
			}
		}
	}
	return out
}
