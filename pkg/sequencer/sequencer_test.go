package sequencer

import (
	"sync"
	"testing"
	"time"

	"github.com/zurustar/smfseq/pkg/midierr"
	"github.com/zurustar/smfseq/pkg/midimessage"
	"github.com/zurustar/smfseq/pkg/sequence"
)

type fakeReceiver struct {
	mu   sync.Mutex
	msgs []midimessage.Message
}

func (f *fakeReceiver) Send(msg midimessage.Message, _ int64) error {
	f.mu.Lock()
	f.msgs = append(f.msgs, msg)
	f.mu.Unlock()
	return nil
}

func (f *fakeReceiver) Close() {}

func (f *fakeReceiver) snapshot() []midimessage.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]midimessage.Message, len(f.msgs))
	copy(out, f.msgs)
	return out
}

func buildTwoNoteTrack(t *testing.T, seq *sequence.Sequence) *sequence.Track {
	t.Helper()
	track := seq.CreateTrack()
	on, err := midimessage.NewShortMessageChannel(midimessage.NoteOn, 0, 60, 100)
	if err != nil {
		t.Fatalf("NewShortMessageChannel: %v", err)
	}
	off, err := midimessage.NewShortMessageChannel(midimessage.NoteOff, 0, 60, 0)
	if err != nil {
		t.Fatalf("NewShortMessageChannel: %v", err)
	}
	track.Add(sequence.NewEvent(on, 0))
	track.Add(sequence.NewEvent(off, 10))
	return track
}

func TestSequencerPlaysEventsInOrder(t *testing.T) {
	seq, err := sequence.New(sequence.PPQ, 480)
	if err != nil {
		t.Fatalf("sequence.New: %v", err)
	}
	buildTwoNoteTrack(t, seq)

	s := New()
	s.Open()
	defer s.Close()

	recv := &fakeReceiver{}
	s.GetTransmitter().SetReceiver(recv)

	s.SetSequence(seq)
	s.SetTempoBPM(120000) // fast enough that the whole track completes quickly
	s.Start()

	deadline := time.After(2 * time.Second)
	for {
		if len(recv.snapshot()) >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for playback; got %d messages", len(recv.snapshot()))
		case <-time.After(5 * time.Millisecond):
		}
	}

	msgs := recv.snapshot()
	sm0, ok := msgs[0].(*midimessage.ShortMessage)
	if !ok || sm0.Command() != midimessage.NoteOn {
		t.Fatalf("expected first dispatched message to be NoteOn, got %#v", msgs[0])
	}
	sm1, ok := msgs[1].(*midimessage.ShortMessage)
	if !ok || sm1.Command() != midimessage.NoteOff {
		t.Fatalf("expected second dispatched message to be NoteOff, got %#v", msgs[1])
	}
}

func TestSequencerLoopsBetweenLoopPoints(t *testing.T) {
	seq, err := sequence.New(sequence.PPQ, 480)
	if err != nil {
		t.Fatalf("sequence.New: %v", err)
	}
	buildTwoNoteTrack(t, seq)

	s := New()
	s.Open()
	defer s.Close()

	recv := &fakeReceiver{}
	s.GetTransmitter().SetReceiver(recv)

	s.SetSequence(seq)
	s.SetTempoBPM(120000)
	if err := s.SetLoopStartPoint(0); err != nil {
		t.Fatalf("SetLoopStartPoint: %v", err)
	}
	if err := s.SetLoopEndPoint(10); err != nil {
		t.Fatalf("SetLoopEndPoint: %v", err)
	}
	s.SetLoopCount(2) // first pass plus two loop repeats
	s.Start()

	deadline := time.After(2 * time.Second)
	for {
		if len(recv.snapshot()) >= 6 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for looped playback; got %d messages", len(recv.snapshot()))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSetLoopStartPointRejectsWithoutSequence(t *testing.T) {
	s := New()
	if err := s.SetLoopStartPoint(0); !midierr.Is(err, midierr.InvalidMidiData) {
		t.Fatalf("expected InvalidMidiData error, got %v", err)
	}
}

func TestSetLoopEndPointRejectsOutOfRange(t *testing.T) {
	seq, err := sequence.New(sequence.PPQ, 480)
	if err != nil {
		t.Fatalf("sequence.New: %v", err)
	}
	buildTwoNoteTrack(t, seq)

	s := New()
	s.SetSequence(seq)
	if err := s.SetLoopEndPoint(9999); !midierr.Is(err, midierr.InvalidMidiData) {
		t.Fatalf("expected InvalidMidiData error, got %v", err)
	}
	if err := s.SetLoopEndPoint(-1); err != nil {
		t.Fatalf("SetLoopEndPoint(-1) should always succeed, got %v", err)
	}
}

func TestDetectTempoChangeRoundTripsMicrosecondsPerQuarter(t *testing.T) {
	meta, err := midimessage.NewMetaMessage(midimessage.MetaTempo, []byte{0x07, 0xA1, 0x20}) // 500000
	if err != nil {
		t.Fatalf("NewMetaMessage: %v", err)
	}
	mpq, ok := detectTempoChange(meta)
	if !ok {
		t.Fatalf("expected tempo message to be detected")
	}
	if mpq != 500000 {
		t.Fatalf("expected 500000 microseconds per quarter, got %v", mpq)
	}
}

func TestDetectTempoChangeIgnoresOtherMeta(t *testing.T) {
	meta, err := midimessage.NewMetaMessage(midimessage.MetaTrackName, []byte("piano"))
	if err != nil {
		t.Fatalf("NewMetaMessage: %v", err)
	}
	if _, ok := detectTempoChange(meta); ok {
		t.Fatalf("expected non-tempo meta message to not be detected as a tempo change")
	}
}

func TestStartRecordingRequiresSequence(t *testing.T) {
	s := New()
	if err := s.StartRecording(); !midierr.Is(err, midierr.InvalidMidiData) {
		t.Fatalf("expected InvalidMidiData error, got %v", err)
	}
}

func TestStopRecordingMergesCapturedEventsIntoEnabledTrack(t *testing.T) {
	seq, err := sequence.New(sequence.PPQ, 480)
	if err != nil {
		t.Fatalf("sequence.New: %v", err)
	}
	dest := seq.CreateTrack()

	s := New()
	s.SetSequence(seq)
	s.SetRecordEnable(dest, -1)

	if err := s.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}

	on, err := midimessage.NewShortMessageChannel(midimessage.NoteOn, 2, 64, 90)
	if err != nil {
		t.Fatalf("NewShortMessageChannel: %v", err)
	}
	s.recordIncoming(on)
	time.Sleep(5 * time.Millisecond)
	s.StopRecording()

	found := false
	for _, e := range dest.Events() {
		if sm, ok := e.Message.(*midimessage.ShortMessage); ok && sm.Command() == midimessage.NoteOn && sm.Channel() == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected recorded NoteOn to be merged into the record-enabled track, got %d events", dest.Size())
	}
}

func TestTrackMuteExcludesFromPlayback(t *testing.T) {
	seq, err := sequence.New(sequence.PPQ, 480)
	if err != nil {
		t.Fatalf("sequence.New: %v", err)
	}
	muted := buildTwoNoteTrack(t, seq)

	s := New()
	s.SetSequence(seq)
	s.SetTrackMute(muted, true)

	s.mu.Lock()
	s.rebuildPlayingTrackLocked()
	size := s.playingTrack.Size()
	s.mu.Unlock()

	if size != 1 {
		t.Fatalf("expected muted track to be excluded from merge (only the end-of-track event remains), got %d events", size)
	}
}

func TestTrackSoloExcludesUnsoloedTracks(t *testing.T) {
	seq, err := sequence.New(sequence.PPQ, 480)
	if err != nil {
		t.Fatalf("sequence.New: %v", err)
	}
	a := buildTwoNoteTrack(t, seq)
	_ = buildTwoNoteTrack(t, seq)

	s := New()
	s.SetSequence(seq)
	s.SetTrackSolo(a, true)

	s.mu.Lock()
	s.rebuildPlayingTrackLocked()
	size := s.playingTrack.Size()
	s.mu.Unlock()

	if size != 3 {
		t.Fatalf("expected only the soloed track's 2 events plus end-of-track, got %d", size)
	}
}
