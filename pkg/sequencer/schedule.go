package sequencer

import (
	"math"
	"time"

	"github.com/zurustar/smfseq/pkg/midimessage"
)

// schedulerLoop is the sequencer's single worker goroutine: it parks on the
// condition variable while paused, exits once the sequencer is closed, and
// otherwise walks the merged
// playing track in tick order, sleeping between events at the current tempo
// before dispatching each one.
func (s *Sequencer) schedulerLoop() {
	defer close(s.doneCh)
	for {
		s.mu.Lock()
		for s.isOpen.Load() && !s.isRunning.Load() {
			s.cond.Wait()
		}
		if !s.isOpen.Load() {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.playUntilPausedOrClosed()
	}
}

// playUntilPausedOrClosed runs the event walk until the sequencer is
// stopped, closed, or plays off the end of its last loop pass.
func (s *Sequencer) playUntilPausedOrClosed() {
	for {
		s.mu.Lock()
		if !s.isOpen.Load() || !s.isRunning.Load() {
			s.mu.Unlock()
			return
		}
		if s.playingTrack == nil {
			s.rebuildPlayingTrackLocked()
		}
		if s.needsRefresh {
			s.cursor = s.fastForwardLocked()
			s.needsRefresh = false
		}

		events := s.playingTrack.Events()
		atEnd := s.cursor >= len(events)
		atLoopBoundary := atEnd
		if !atEnd && s.loopEnd >= 0 && events[s.cursor].Tick > s.loopEnd {
			atLoopBoundary = true
		}

		if atLoopBoundary && s.loopCount != 0 {
			if s.loopCount > 0 {
				s.loopCount--
			}
			s.tickPosition = s.loopStart
			s.tickPositionSetTime = time.Now()
			s.cursor = s.fastForwardLocked()
			s.mu.Unlock()
			continue
		}
		if atEnd {
			s.isRunning.Store(false)
			s.mu.Unlock()
			return
		}

		event := events[s.cursor]
		sleepDur := s.sleepDurationLocked(event.Tick)
		s.mu.Unlock()

		if sleepDur > 0 {
			time.Sleep(sleepDur)
		}

		s.mu.Lock()
		if !s.isOpen.Load() || !s.isRunning.Load() {
			s.mu.Unlock()
			return
		}
		if s.needsRefresh {
			// Sequence, position, or mute/solo state changed while asleep;
			// re-evaluate from the top rather than dispatch a stale event.
			s.mu.Unlock()
			continue
		}
		s.tickPosition = event.Tick
		s.tickPositionSetTime = time.Now()
		s.cursor++
		msg := event.Message
		s.mu.Unlock()

		s.dispatchEvent(msg)
	}
}

// fastForwardLocked finds the index of the first event at or after the
// current tick position. Every event it skips over is handled per the
// seeking design note: a tempo-change meta is applied (so the clock stays
// correct) but not forwarded; a note-on/note-off is suppressed entirely (so
// a jump never leaves a stuck note); everything else — program changes,
// control changes, sysex, other meta — is emitted to receivers and
// listeners with timestamp 0 so non-note state stays consistent after the
// jump. Must be called with mu held.
func (s *Sequencer) fastForwardLocked() int {
	events := s.playingTrack.Events()
	i := 0
	for ; i < len(events); i++ {
		if events[i].Tick >= s.tickPosition {
			break
		}
		msg := events[i].Message
		if mpq, ok := detectTempoChange(msg); ok {
			s.tempoBPM = float32(6e7 / mpq)
			continue
		}
		if isNoteOnOrOff(msg) {
			continue
		}
		if err := s.dispatchToReceivers(msg, 0); err != nil {
			s.log.Warn("error dispatching skipped event to receivers", "error", err)
		}
		s.fireListeners(msg)
	}
	return i
}

// isNoteOnOrOff reports whether msg is a channel note-on or note-off short
// message.
func isNoteOnOrOff(msg midimessage.Message) bool {
	sm, ok := msg.(*midimessage.ShortMessage)
	if !ok {
		return false
	}
	switch sm.Command() {
	case midimessage.NoteOn, midimessage.NoteOff:
		return true
	default:
		return false
	}
}

// sleepDurationLocked computes how long to sleep before the event at
// targetTick fires, given the current tempo and tempo factor. Must be
// called with mu held.
func (s *Sequencer) sleepDurationLocked(targetTick int64) time.Duration {
	deltaTicks := targetTick - s.tickPosition
	if deltaTicks <= 0 {
		return 0
	}
	tpus := s.ticksPerMicrosecondLocked()
	factor := float64(s.TempoFactor())
	if math.IsNaN(tpus) || tpus <= 0 || factor <= 0 {
		return 0
	}
	micros := float64(deltaTicks) / tpus / factor
	return time.Duration(micros * float64(time.Microsecond))
}

// dispatchEvent applies a tempo change if msg carries one, then forwards
// msg to every attached receiver and fires any matching listeners.
func (s *Sequencer) dispatchEvent(msg midimessage.Message) {
	if mpq, ok := detectTempoChange(msg); ok {
		s.mu.Lock()
		s.tempoBPM = float32(6e7 / mpq)
		s.mu.Unlock()
	}
	if err := s.dispatchToReceivers(msg, 0); err != nil {
		s.log.Warn("error dispatching event to receivers", "error", err)
	}
	s.fireListeners(msg)
}
