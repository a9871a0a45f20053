package smf

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/zurustar/smfseq/pkg/midimessage"
	"github.com/zurustar/smfseq/pkg/sequence"
)

func TestWriteMinimalType0(t *testing.T) {
	seq, err := sequence.New(sequence.PPQ, 480)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	track := seq.CreateTrack()
	noteOn, _ := midimessage.NewShortMessageChannel(midimessage.NoteOn, 0, 0x3C, 0x64)
	noteOff, _ := midimessage.NewShortMessageChannel(midimessage.NoteOff, 0, 0x3C, 0x00)
	track.Add(sequence.NewEvent(noteOn, 0))
	track.Add(sequence.NewEvent(noteOff, 480))

	var buf bytes.Buffer
	if _, err := Write(&buf, seq, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}

	wantHeader := []byte{0x4D, 0x54, 0x68, 0x64, 0x00, 0x00, 0x00, 0x06, 0x00, 0x00, 0x00, 0x01, 0x01, 0xE0}
	wantTrackPayload := []byte{0x00, 0x90, 0x3C, 0x64, 0x83, 0x60, 0x80, 0x3C, 0x00, 0x00, 0xFF, 0x2F, 0x00}

	got := buf.Bytes()
	if !bytes.Equal(got[:len(wantHeader)], wantHeader) {
		t.Fatalf("header = % X, want % X", got[:len(wantHeader)], wantHeader)
	}
	trackChunk := got[len(wantHeader):]
	if !bytes.Equal(trackChunk[:4], []byte{0x4D, 0x54, 0x72, 0x6B}) {
		t.Fatalf("missing MTrk magic: % X", trackChunk[:4])
	}
	payload := trackChunk[8:]
	if !bytes.Equal(payload, wantTrackPayload) {
		t.Fatalf("track payload = % X, want % X", payload, wantTrackPayload)
	}
}

func TestReadMinimalType0RoundTrip(t *testing.T) {
	raw := append([]byte{0x4D, 0x54, 0x68, 0x64, 0x00, 0x00, 0x00, 0x06, 0x00, 0x00, 0x00, 0x01, 0x01, 0xE0},
		[]byte{0x4D, 0x54, 0x72, 0x6B, 0x00, 0x00, 0x00, 0x0D,
			0x00, 0x90, 0x3C, 0x64, 0x83, 0x60, 0x80, 0x3C, 0x00, 0x00, 0xFF, 0x2F, 0x00}...)

	seq, err := Read(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if seq.DivisionType() != sequence.PPQ || seq.Resolution() != 480 {
		t.Fatalf("division = %v/%d, want PPQ/480", seq.DivisionType(), seq.Resolution())
	}
	if len(seq.Tracks()) != 1 {
		t.Fatalf("want 1 track, got %d", len(seq.Tracks()))
	}
	tr := seq.Tracks()[0]
	if tr.Size() != 3 { // note on, note off, end of track
		t.Fatalf("want 3 events, got %d", tr.Size())
	}
	if tr.Get(0).Tick != 0 || tr.Get(1).Tick != 480 {
		t.Fatalf("unexpected ticks: %d, %d", tr.Get(0).Tick, tr.Get(1).Tick)
	}
}

func TestReadRunningStatus(t *testing.T) {
	trackBody := []byte{
		0x00, 0x90, 0x3C, 0x64, // NoteOn 60 100 @ tick 0
		0x0A, 0x3E, 0x64, // running status NoteOn 62 100 @ tick 10
		0x0A, 0x40, 0x64, // running status NoteOn 64 100 @ tick 20
		0x0A, 0x3C, 0x00, // running status NoteOn 60 0 @ tick 30
		0x0A, 0x3E, 0x00, // running status NoteOn 62 0 @ tick 40
		0x00, 0xFF, 0x2F, 0x00,
	}
	raw := buildSMF(t, sequence.PPQ, 480, [][]byte{trackBody})
	seq, err := Read(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	tr := seq.Tracks()[0]
	wantTicks := []int64{0, 10, 20, 30, 40}
	for i, want := range wantTicks {
		got := tr.Get(i).Tick
		if got != want {
			t.Errorf("event %d tick = %d, want %d", i, got, want)
		}
		sm, ok := tr.Get(i).Message.(*midimessage.ShortMessage)
		if !ok || sm.Status() != midimessage.NoteOn {
			t.Errorf("event %d status = %v, want NoteOn", i, tr.Get(i).Message)
		}
	}
}

func TestDivisionDecodeSMPTE30(t *testing.T) {
	dt, resolution, err := decodeDivision(0xE250)
	if err != nil {
		t.Fatalf("decodeDivision: %v", err)
	}
	if dt != sequence.SMPTE30 || resolution != 0x50 {
		t.Fatalf("got %v/%d, want SMPTE30/0x50", dt, resolution)
	}
	encoded, err := encodeDivision(dt, resolution)
	if err != nil {
		t.Fatalf("encodeDivision: %v", err)
	}
	if encoded != 0xE250 {
		t.Fatalf("encodeDivision round-trip = 0x%04X, want 0xE250", encoded)
	}
}

func TestWriterDropsSystemRealtimeMessages(t *testing.T) {
	seq, _ := sequence.New(sequence.PPQ, 480)
	track := seq.CreateTrack()
	clock, _ := midimessage.NewShortMessage(midimessage.TimingClock, 0, 0)
	noteOn, _ := midimessage.NewShortMessageChannel(midimessage.NoteOn, 0, 60, 100)
	track.Add(sequence.NewEvent(clock, 0))
	track.Add(sequence.NewEvent(noteOn, 10))

	var buf bytes.Buffer
	if _, err := Write(&buf, seq, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	readBack, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	tr := readBack.Tracks()[0]
	if tr.Get(0).Message.Status() != midimessage.NoteOn {
		t.Fatalf("first event should be the note-on (timing clock dropped), got status 0x%02X", tr.Get(0).Message.Status())
	}
	if tr.Get(0).Tick != 10 {
		t.Fatalf("dropped real-time message's delta should fold into the note-on: tick = %d, want 10", tr.Get(0).Tick)
	}
}

func TestProbeDoesNotRequireTrackData(t *testing.T) {
	raw := []byte{0x4D, 0x54, 0x68, 0x64, 0x00, 0x00, 0x00, 0x06, 0x00, 0x01, 0x00, 0x02, 0x01, 0xE0}
	header, err := Probe(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if header.Format != 1 || header.NumberOfTracks != 2 || header.Resolution != 480 {
		t.Fatalf("unexpected header: %+v", header)
	}
}

func TestGetMidiFileTypes(t *testing.T) {
	seq, _ := sequence.New(sequence.PPQ, 480)
	seq.CreateTrack()
	if types := GetMidiFileTypes(seq); len(types) != 2 {
		t.Errorf("single-track types = %v, want {0,1}", types)
	}
	seq.CreateTrack()
	if types := GetMidiFileTypes(seq); len(types) != 1 || types[0] != 1 {
		t.Errorf("multi-track types = %v, want {1}", types)
	}
}

func TestReadWriteRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("read(write(s)) preserves tick-ordered note events", prop.ForAll(
		func(ticks []int64) bool {
			seq, _ := sequence.New(sequence.PPQ, 480)
			track := seq.CreateTrack()
			var cum int64
			for i, d := range ticks {
				cum += d
				pitch := byte(60 + i%20)
				msg, _ := midimessage.NewShortMessageChannel(midimessage.NoteOn, 0, pitch, 100)
				track.Add(sequence.NewEvent(msg, cum))
			}
			sequence.SortEvents(track)

			var buf bytes.Buffer
			if _, err := Write(&buf, seq, 0); err != nil {
				return false
			}
			readBack, err := Read(bytes.NewReader(buf.Bytes()))
			if err != nil {
				return false
			}
			rt := readBack.Tracks()[0]
			// one event per input note plus a single end-of-track event
			if rt.Size() != len(ticks)+1 {
				return false
			}
			for i := 0; i < len(ticks); i++ {
				if rt.Get(i).Tick != track.Get(i).Tick {
					return false
				}
			}
			last := rt.Get(rt.Size() - 1)
			meta, ok := last.Message.(*midimessage.MetaMessage)
			return ok && meta.Type() == midimessage.MetaEndOfTrack
		},
		gen.SliceOfN(5, gen.Int64Range(0, 1000)),
	))

	properties.TestingRun(t)
}

// buildSMF assembles a minimal SMF byte stream from raw track bodies, for
// tests that want to hand-construct an edge case the writer would never
// itself produce (e.g. running status).
func buildSMF(t *testing.T, dt sequence.DivisionType, resolution uint16, trackBodies [][]byte) []byte {
	t.Helper()
	division, err := encodeDivision(dt, resolution)
	if err != nil {
		t.Fatalf("encodeDivision: %v", err)
	}
	buf := []byte{0x4D, 0x54, 0x68, 0x64, 0x00, 0x00, 0x00, 0x06}
	fileType := 0
	if len(trackBodies) > 1 {
		fileType = 1
	}
	buf = append(buf, 0x00, byte(fileType))
	buf = append(buf, byte(len(trackBodies)>>8), byte(len(trackBodies)))
	buf = append(buf, byte(division>>8), byte(division))
	for _, body := range trackBodies {
		buf = append(buf, 0x4D, 0x54, 0x72, 0x6B)
		buf = append(buf, byte(len(body)>>24), byte(len(body)>>16), byte(len(body)>>8), byte(len(body)))
		buf = append(buf, body...)
	}
	return buf
}
