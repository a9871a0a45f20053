package sequencer

import (
	"math"
	"time"

	"github.com/zurustar/smfseq/pkg/midierr"
	"github.com/zurustar/smfseq/pkg/midimessage"
	"github.com/zurustar/smfseq/pkg/sequence"
)

// recordingReceiver is the sequencer's own midiio.Receiver, handed to every
// external transmitter via UpdateDeviceConnections. It holds only a
// non-owning back-reference to the Sequencer so the Sequencer itself is free
// to own both ends of the cycle.
type recordingReceiver struct {
	owner *Sequencer
}

// Send timestamps msg at the owner's current recording position and appends
// it to the in-progress recording track. It is a no-op when no recording is
// in progress.
func (r *recordingReceiver) Send(msg midimessage.Message, timestamp int64) error {
	r.owner.recordIncoming(msg)
	return nil
}

func (r *recordingReceiver) Close() {}

// recordIncoming appends msg to the recording track at the tick position
// implied by how much wall-clock time has elapsed since start_recording.
func (s *Sequencer) recordIncoming(msg midimessage.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRecording.Load() || s.recordingTrack == nil {
		return
	}
	elapsed := time.Since(s.recordingStartedTime)
	tpus := s.ticksPerMicrosecondLocked()
	tick := s.recordStartedTick
	if !math.IsNaN(tpus) {
		tick += int64(float64(elapsed.Microseconds()) * tpus)
	}
	s.recordingTrack.Add(sequence.NewEvent(msg, tick))
	s.fireListeners(msg)
}

// StartRecording creates a new, all-channels record-enabled track in the
// current sequence, marks recording in progress, and begins playback so the
// transport and the incoming stream share one clock.
func (s *Sequencer) StartRecording() error {
	s.mu.Lock()
	if s.seq == nil {
		s.mu.Unlock()
		return midierr.Invalid("cannot start recording: no sequence is loaded")
	}
	track := s.seq.CreateTrack()
	s.recordEnable[track] = map[int]bool{-1: true}
	s.recordingTrack = track
	s.recordingStartedTime = time.Now()
	s.recordStartedTick = s.tickPositionLocked()
	s.needsRefresh = true
	s.isRecording.Store(true)
	s.mu.Unlock()

	s.Start()
	return nil
}

// StopRecording ends recording and merges the captured track back into
// every other track whose record-enabled channel set it matches: offending
// events within the recorded window are replaced by the captured ones and
// the destination is re-sorted. The recording track itself is left in the
// sequence as the unmerged record of what was captured.
func (s *Sequencer) StopRecording() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRecording.Load() {
		return
	}
	s.isRecording.Store(false)

	recTrack := s.recordingTrack
	s.recordingTrack = nil
	if recTrack == nil {
		return
	}

	windowStart := s.recordStartedTick
	windowEnd := s.tickPositionLocked()
	recorded := recTrack.Events()

	for t, channels := range s.recordEnable {
		if t == recTrack || len(channels) == 0 {
			continue
		}
		t.RemoveWhere(func(e *sequence.Event) bool {
			if e.Tick < windowStart || e.Tick > windowEnd {
				return true
			}
			return !isRecordable(e, channels)
		})
		for _, e := range recorded {
			if isRecordable(e, channels) {
				t.Add(e.Clone())
			}
		}
		sequence.SortEvents(t)
	}

	s.needsRefresh = true
}
