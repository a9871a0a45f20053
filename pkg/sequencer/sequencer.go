// Package sequencer implements the real-time playback and recording
// scheduler: a single worker goroutine that walks a merged, tick-ordered
// view of a sequence.Sequence, sleeping between events according to the
// current tempo, and dispatching each one to every attached receiver.
package sequencer

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zurustar/smfseq/pkg/logger"
	"github.com/zurustar/smfseq/pkg/midierr"
	"github.com/zurustar/smfseq/pkg/sequence"
)

const defaultTempoBPM = 120.0

// Sequencer drives playback and recording of a sequence.Sequence. The zero
// value is not usable; construct with New.
type Sequencer struct {
	mu   sync.Mutex
	cond *sync.Cond

	isOpen      atomic.Bool
	isRunning   atomic.Bool
	isRecording atomic.Bool

	tempoFactorBits atomic.Uint32 // math.Float32bits(tempoFactor)

	// Guarded by mu.
	seq                 *sequence.Sequence
	playingTrack        *sequence.Track
	cursor              int
	needsRefresh        bool
	tempoBPM            float32
	loopCount           int64
	loopStart           int64
	loopEnd             int64
	tickPosition        int64
	tickPositionSetTime time.Time
	runningStoppedTime  time.Time
	trackMute           map[*sequence.Track]bool
	trackSolo           map[*sequence.Track]bool
	recordEnable        map[*sequence.Track]map[int]bool

	recordingTrack       *sequence.Track
	recordingStartedTime time.Time
	recordStartedTick    int64
	recordingReceiver    *recordingReceiver

	transMu      sync.RWMutex
	transmitters map[*trackTransmitter]struct{}

	ctrlMu              sync.RWMutex
	controllerListeners [128]map[ControllerEventListener]struct{}

	metaMu        sync.RWMutex
	metaListeners map[MetaEventListener]struct{}

	doneCh chan struct{}
	log    *slog.Logger
}

// New returns a closed Sequencer ready to be opened.
func New() *Sequencer {
	s := &Sequencer{
		tempoBPM:     defaultTempoBPM,
		loopCount:    0,
		loopEnd:      -1,
		trackMute:    make(map[*sequence.Track]bool),
		trackSolo:    make(map[*sequence.Track]bool),
		recordEnable: make(map[*sequence.Track]map[int]bool),
		transmitters:  make(map[*trackTransmitter]struct{}),
		metaListeners: make(map[MetaEventListener]struct{}),
		log:           logger.GetLogger().With("component", "sequencer"),
	}
	for i := range s.controllerListeners {
		s.controllerListeners[i] = make(map[ControllerEventListener]struct{})
	}
	s.cond = sync.NewCond(&s.mu)
	s.tempoFactorBits.Store(math.Float32bits(1.0))
	s.recordingReceiver = &recordingReceiver{owner: s}
	return s
}

// Open spawns the scheduler goroutine. Calling Open on an already-open
// sequencer is a no-op.
func (s *Sequencer) Open() {
	if s.isOpen.Swap(true) {
		return
	}
	s.doneCh = make(chan struct{})
	go s.schedulerLoop()
}

// Close stops playback, releases listener and connection sets, and waits
// for the scheduler goroutine to exit.
func (s *Sequencer) Close() {
	if !s.isOpen.Swap(false) {
		return
	}
	s.isRunning.Store(false)
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
	<-s.doneCh

	s.transMu.Lock()
	s.transmitters = make(map[*trackTransmitter]struct{})
	s.transMu.Unlock()

	s.ctrlMu.Lock()
	for i := range s.controllerListeners {
		s.controllerListeners[i] = make(map[ControllerEventListener]struct{})
	}
	s.ctrlMu.Unlock()

	s.metaMu.Lock()
	s.metaListeners = make(map[MetaEventListener]struct{})
	s.metaMu.Unlock()
}

// IsOpen reports whether the sequencer has been opened and not yet closed.
func (s *Sequencer) IsOpen() bool { return s.isOpen.Load() }

// Start begins or resumes playback.
func (s *Sequencer) Start() {
	s.isRunning.Store(true)
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Stop pauses playback; the scheduler retains its position and resumes from
// it on the next Start.
func (s *Sequencer) Stop() {
	s.isRunning.Store(false)
	s.mu.Lock()
	s.runningStoppedTime = time.Now()
	s.cond.Broadcast()
	s.mu.Unlock()
}

// IsRunning reports whether the scheduler is actively playing.
func (s *Sequencer) IsRunning() bool { return s.isRunning.Load() }

// SetSequence replaces the sequence being played. The scheduler rebuilds its
// merged playing track and fast-forwards silently to the current tick
// position on its next iteration.
func (s *Sequencer) SetSequence(seq *sequence.Sequence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = seq
	s.playingTrack = nil
	s.needsRefresh = true
	s.trackMute = make(map[*sequence.Track]bool)
	s.trackSolo = make(map[*sequence.Track]bool)
	s.recordEnable = make(map[*sequence.Track]map[int]bool)
}

// Sequence returns the currently loaded sequence, or nil.
func (s *Sequencer) Sequence() *sequence.Sequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// SetTickPosition seeks playback to tick t.
func (s *Sequencer) SetTickPosition(t int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickPosition = t
	if s.isRunning.Load() {
		s.tickPositionSetTime = time.Now()
	}
	s.needsRefresh = true
}

// GetTickPosition returns the current playback position, extrapolated
// forward from the last recorded position and timestamp while running.
func (s *Sequencer) GetTickPosition() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickPositionLocked()
}

func (s *Sequencer) tickPositionLocked() int64 {
	if !s.isRunning.Load() {
		return s.tickPosition
	}
	elapsed := time.Since(s.tickPositionSetTime)
	tpus := s.ticksPerMicrosecondLocked()
	if math.IsNaN(tpus) {
		return s.tickPosition
	}
	return s.tickPosition + int64(float64(elapsed.Microseconds())*tpus)
}

// GetMicrosecondPosition converts the current tick position to microseconds
// at the current tempo.
func (s *Sequencer) GetMicrosecondPosition() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	tpus := s.ticksPerMicrosecondLocked()
	if tpus == 0 || math.IsNaN(tpus) {
		return 0
	}
	return int64(float64(s.tickPositionLocked()) / tpus)
}

// ticksPerMicrosecondLocked must be called with mu held.
func (s *Sequencer) ticksPerMicrosecondLocked() float64 {
	if s.seq == nil {
		return math.NaN()
	}
	resolution := float64(s.seq.Resolution())
	if s.seq.DivisionType().IsPPQ() {
		return float64(s.tempoBPM) / 60 * resolution / 1e6
	}
	return s.seq.DivisionType().FrameRate() * resolution / 1e6
}

// SetTempoBPM sets the playback tempo directly in beats per minute.
func (s *Sequencer) SetTempoBPM(bpm float32) {
	s.mu.Lock()
	s.tempoBPM = bpm
	s.mu.Unlock()
}

// TempoBPM returns the current tempo in beats per minute.
func (s *Sequencer) TempoBPM() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempoBPM
}

// SetTempoMPQ sets the playback tempo from microseconds per quarter note.
func (s *Sequencer) SetTempoMPQ(mpq float64) {
	if mpq <= 0 {
		return
	}
	s.SetTempoBPM(float32(6e7 / mpq))
}

// SetTempoFactor sets a tempo multiplier applied on top of the BPM-derived
// playback rate (1.0 is normal speed). Lock-free: read by the scheduler on
// every event.
func (s *Sequencer) SetTempoFactor(factor float32) {
	s.tempoFactorBits.Store(math.Float32bits(factor))
}

// TempoFactor returns the current tempo multiplier.
func (s *Sequencer) TempoFactor() float32 {
	return math.Float32frombits(s.tempoFactorBits.Load())
}

// SetLoopCount sets how many additional times the loop range replays after
// the first pass; -1 means loop forever.
func (s *Sequencer) SetLoopCount(count int64) {
	s.mu.Lock()
	s.loopCount = count
	s.mu.Unlock()
}

// SetLoopStartPoint sets the tick at which looped playback resumes. Requires
// a sequence to be loaded, since the tick is validated against its length.
func (s *Sequencer) SetLoopStartPoint(tick int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq == nil {
		return midierr.Invalid("cannot set loop start point: no sequence is loaded")
	}
	if tick < 0 || tick > s.seq.TickLength() {
		return midierr.Invalid("loop start tick %d out of range [0, %d]", tick, s.seq.TickLength())
	}
	s.loopStart = tick
	return nil
}

// SetLoopEndPoint sets the tick at which a loop pass ends; -1 means the end
// of the sequence.
func (s *Sequencer) SetLoopEndPoint(tick int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tick == -1 {
		s.loopEnd = -1
		return nil
	}
	if s.seq == nil {
		return midierr.Invalid("cannot set loop end point: no sequence is loaded")
	}
	if tick < 0 || tick > s.seq.TickLength() {
		return midierr.Invalid("loop end tick %d out of range [0, %d]", tick, s.seq.TickLength())
	}
	s.loopEnd = tick
	return nil
}

// SetTrackMute mutes or unmutes t. Muted tracks are excluded from the merged
// playing track on the next refresh.
func (s *Sequencer) SetTrackMute(t *sequence.Track, mute bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackMute[t] = mute
	s.needsRefresh = true
}

// TrackMute reports whether t is muted.
func (s *Sequencer) TrackMute(t *sequence.Track) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackMute[t]
}

// SetTrackSolo solos or unsolos t. While any track is soloed, only soloed
// tracks are included in the merged playing track.
func (s *Sequencer) SetTrackSolo(t *sequence.Track, solo bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackSolo[t] = solo
	s.needsRefresh = true
}

// TrackSolo reports whether t is soloed.
func (s *Sequencer) TrackSolo(t *sequence.Track) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackSolo[t]
}

// SetRecordEnable enables recording into t for the given channel (0-15), or
// every channel if channel is -1. Repeated calls accumulate channels.
func (s *Sequencer) SetRecordEnable(t *sequence.Track, channel int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.recordEnable[t]
	if !ok {
		set = make(map[int]bool)
		s.recordEnable[t] = set
	}
	set[channel] = true
}

// RecordDisable disables recording into t entirely.
func (s *Sequencer) RecordDisable(t *sequence.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recordEnable, t)
}

// RecordDisableAll disables recording for every track.
func (s *Sequencer) RecordDisableAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordEnable = make(map[*sequence.Track]map[int]bool)
}

func (s *Sequencer) rebuildPlayingTrackLocked() {
	merged, err := mergeSequenceToTrack(s.seq, s.trackMute, s.trackSolo, s.recordEnable)
	if err != nil {
		s.log.Warn("discarding malformed track during merge", "error", err)
	}
	s.playingTrack = merged
	s.needsRefresh = true
}
