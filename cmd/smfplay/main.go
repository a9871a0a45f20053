// Command smfplay loads a Standard MIDI File and plays it back through the
// sequencer runtime, optionally rendering audio through a SoundFont
// synthesizer.
package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/zurustar/smfseq/pkg/cliconfig"
	"github.com/zurustar/smfseq/pkg/fileutil"
	"github.com/zurustar/smfseq/pkg/logger"
	"github.com/zurustar/smfseq/pkg/midimessage"
	"github.com/zurustar/smfseq/pkg/sequencer"
	"github.com/zurustar/smfseq/pkg/smf"
)

const sampleRate = 44100

func main() {
	cfg, err := cliconfig.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg.ShowHelp || cfg.MidiPath == "" {
		cliconfig.PrintHelp()
		if cfg.MidiPath == "" && !cfg.ShowHelp {
			os.Exit(2)
		}
		return
	}

	if err := logger.InitLogger(cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.GetLogger().With("component", "smfplay")

	data, err := readMidiFile(cfg.MidiPath)
	if err != nil {
		log.Error("failed to read MIDI file", "path", cfg.MidiPath, "error", err)
		os.Exit(1)
	}

	seq, err := smf.Read(bytes.NewReader(data))
	if err != nil {
		log.Error("failed to parse SMF data", "error", err)
		os.Exit(1)
	}
	log.Info("loaded sequence", "tracks", len(seq.Tracks()), "resolution", seq.Resolution(), "ticks", seq.TickLength())

	seqr := sequencer.New()
	seqr.Open()
	defer seqr.Close()

	seqr.SetSequence(seq)
	seqr.SetTempoFactor(float32(cfg.TempoFactor))
	if cfg.Loop {
		seqr.SetLoopCount(-1)
	}

	var synthReceiver *synthReceiver
	if !cfg.Headless {
		synthReceiver, err = newSynthReceiver(filepath.Dir(cfg.MidiPath))
		if err != nil {
			log.Warn("continuing without audio synthesis", "error", err)
		}
	}
	if synthReceiver != nil {
		seqr.GetTransmitter().SetReceiver(synthReceiver)
		defer synthReceiver.Close()
	}

	done := make(chan struct{})
	var closeDone sync.Once
	markDone := func() { closeDone.Do(func() { close(done) }) }
	if cfg.Timeout > 0 {
		go func() {
			select {
			case <-time.After(cfg.Timeout):
				seqr.Stop()
				markDone()
			case <-done:
			}
		}()
	}

	seqr.Start()
	for seqr.IsRunning() {
		time.Sleep(20 * time.Millisecond)
	}
	markDone()
	log.Info("playback finished")
}

// readMidiFile reads path directly, falling back to a case-insensitive
// search of its containing directory (the common failure mode on a
// case-sensitive filesystem when a filename was typed from a DOS-era
// source).
func readMidiFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	actual, findErr := fileutil.FindFileCaseInsensitive(filepath.Dir(path), filepath.Base(path))
	if findErr != nil {
		return nil, err
	}
	return os.ReadFile(actual)
}

// synthReceiver implements midiio.Receiver, forwarding every dispatched
// short message into a meltysynth.Synthesizer and streaming its rendered
// output through an ebiten/v2/audio.Player.
type synthReceiver struct {
	mu          sync.Mutex
	synthesizer *meltysynth.Synthesizer
	player      *audio.Player
}

var (
	audioContext      *audio.Context
	audioContextMutex sync.Mutex
)

func getAudioContext() *audio.Context {
	audioContextMutex.Lock()
	defer audioContextMutex.Unlock()
	if audioContext == nil {
		audioContext = audio.NewContext(sampleRate)
	}
	return audioContext
}

// newSynthReceiver looks for default.sf2 alongside the MIDI file
// (case-insensitively) and, if found, sets up a synthesizer and audio
// player. It returns an error when the SoundFont is missing or cannot be
// loaded; main logs that and plays on without audio.
func newSynthReceiver(dir string) (*synthReceiver, error) {
	sf2Path, err := fileutil.FindFileCaseInsensitive(dir, "default.sf2")
	if err != nil {
		return nil, fmt.Errorf("no SoundFont found in %s: %w", dir, err)
	}
	data, err := os.ReadFile(sf2Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read SoundFont %s: %w", sf2Path, err)
	}
	soundFont, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SoundFont %s: %w", sf2Path, err)
	}

	settings := meltysynth.NewSynthesizerSettings(sampleRate)
	synth, err := meltysynth.NewSynthesizer(soundFont, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}

	r := &synthReceiver{synthesizer: synth}
	player, err := getAudioContext().NewPlayer(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio player: %w", err)
	}
	r.player = player
	player.Play()
	return r, nil
}

// Send implements midiio.Receiver: it forwards short messages to the
// synthesizer. Meta and sysex messages produce no sound and are ignored.
func (r *synthReceiver) Send(msg midimessage.Message, _ int64) error {
	sm, ok := msg.(*midimessage.ShortMessage)
	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synthesizer.ProcessMidiMessage(int32(sm.Channel()), int32(sm.Command()), int32(sm.Data1()), int32(sm.Data2()))
	return nil
}

// Close implements midiio.Receiver.
func (r *synthReceiver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.player != nil {
		r.player.Close()
		r.player = nil
	}
}

// Read implements io.Reader, rendering synthesizer output as interleaved
// 16-bit stereo PCM for ebiten's audio player.
func (r *synthReceiver) Read(p []byte) (int, error) {
	sampleCount := len(p) / 4
	left := make([]float32, sampleCount)
	right := make([]float32, sampleCount)

	r.mu.Lock()
	r.synthesizer.Render(left, right)
	r.mu.Unlock()

	for i := 0; i < sampleCount; i++ {
		binary.LittleEndian.PutUint16(p[i*4:], uint16(int16(left[i]*32767)))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(int16(right[i]*32767)))
	}
	// Only sampleCount*4 bytes were actually written; report that, not
	// len(p), in case the caller ever hands us a buffer not a multiple of 4.
	return sampleCount * 4, nil
}
