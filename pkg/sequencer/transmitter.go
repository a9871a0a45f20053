package sequencer

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/zurustar/smfseq/pkg/midiio"
	"github.com/zurustar/smfseq/pkg/midimessage"
)

// trackTransmitter is the sequencer's own playback output: one per caller
// that asked for a connection via GetTransmitter, each forwarding every
// dispatched message to whatever Receiver is currently attached.
type trackTransmitter struct {
	mu    sync.Mutex
	recv  midiio.Receiver
	owner *Sequencer
}

func (t *trackTransmitter) SetReceiver(r midiio.Receiver) {
	t.mu.Lock()
	t.recv = r
	t.mu.Unlock()
}

func (t *trackTransmitter) Receiver() midiio.Receiver {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recv
}

func (t *trackTransmitter) Close() {
	t.owner.transMu.Lock()
	delete(t.owner.transmitters, t)
	t.owner.transMu.Unlock()
	t.SetReceiver(nil)
}

// GetTransmitter creates a new output connection. The caller attaches a
// destination via SetReceiver; every message the sequencer plays back is
// then forwarded to it.
func (s *Sequencer) GetTransmitter() midiio.Transmitter {
	t := &trackTransmitter{owner: s}
	s.transMu.Lock()
	s.transmitters[t] = struct{}{}
	s.transMu.Unlock()
	return t
}

// GetTransmitters returns every live output connection.
func (s *Sequencer) GetTransmitters() []midiio.Transmitter {
	s.transMu.RLock()
	defer s.transMu.RUnlock()
	out := make([]midiio.Transmitter, 0, len(s.transmitters))
	for t := range s.transmitters {
		out = append(out, t)
	}
	return out
}

// UpdateDeviceConnections attaches the sequencer's internal recording
// receiver to every transmitter supplied (typically every transmitter
// currently published in an external device registry), so messages those
// external sources produce get captured by start_recording.
func (s *Sequencer) UpdateDeviceConnections(transmitters []midiio.Transmitter) error {
	g, _ := errgroup.WithContext(context.Background())
	for _, t := range transmitters {
		t := t
		g.Go(func() error {
			t.SetReceiver(s.recordingReceiver)
			return nil
		})
	}
	return g.Wait()
}

// dispatchToReceivers forwards msg concurrently to every attached
// transmitter's receiver, collecting the first error without blocking fast
// receivers on slow ones.
func (s *Sequencer) dispatchToReceivers(msg midimessage.Message, timestamp int64) error {
	s.transMu.RLock()
	recvs := make([]midiio.Receiver, 0, len(s.transmitters))
	for t := range s.transmitters {
		if r := t.Receiver(); r != nil {
			recvs = append(recvs, r)
		}
	}
	s.transMu.RUnlock()

	if len(recvs) == 0 {
		return nil
	}
	g, _ := errgroup.WithContext(context.Background())
	for _, r := range recvs {
		r := r
		g.Go(func() error {
			return r.Send(msg, timestamp)
		})
	}
	return g.Wait()
}
