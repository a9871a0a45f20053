// Package registry implements the process-wide name→receiver and
// name→transmitter maps an external MIDI device layer would publish into;
// the sequencer only ever reads from one via UpdateDeviceConnections.
package registry

import (
	"sync"

	"github.com/zurustar/smfseq/pkg/midierr"
	"github.com/zurustar/smfseq/pkg/midiio"
)

// Registry is a thread-safe name→receiver/transmitter lookup table.
type Registry struct {
	mu           sync.RWMutex
	receivers    map[string]midiio.Receiver
	transmitters map[string]midiio.Transmitter
}

// New returns an empty, ready-to-use registry. Prefer holding an explicit
// instance over the package-level singleton wherever a caller can thread one
// through.
func New() *Registry {
	return &Registry{
		receivers:    make(map[string]midiio.Receiver),
		transmitters: make(map[string]midiio.Transmitter),
	}
}

func (r *Registry) AddReceiver(name string, recv midiio.Receiver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receivers[name] = recv
}

func (r *Registry) RemoveReceiver(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.receivers, name)
}

func (r *Registry) GetReceiver(name string) (midiio.Receiver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recv, ok := r.receivers[name]
	if !ok {
		return nil, midierr.Unavailable("no receiver registered as %q", name)
	}
	return recv, nil
}

// ReceiverNames returns every registered receiver name, in no particular
// order.
func (r *Registry) ReceiverNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.receivers))
	for name := range r.receivers {
		names = append(names, name)
	}
	return names
}

func (r *Registry) AddTransmitter(name string, t midiio.Transmitter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transmitters[name] = t
}

func (r *Registry) RemoveTransmitter(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.transmitters, name)
}

func (r *Registry) GetTransmitter(name string) (midiio.Transmitter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transmitters[name]
	if !ok {
		return nil, midierr.Unavailable("no transmitter registered as %q", name)
	}
	return t, nil
}

// Transmitters returns every registered transmitter, in no particular
// order — the shape UpdateDeviceConnections consumes directly.
func (r *Registry) Transmitters() []midiio.Transmitter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]midiio.Transmitter, 0, len(r.transmitters))
	for _, t := range r.transmitters {
		out = append(out, t)
	}
	return out
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the lazily-initialized process-wide registry. It exists
// only for parity with MidiSystem-style global lookup; callers that can
// hold an explicit handle should use New instead.
func Global() *Registry {
	globalOnce.Do(func() {
		global = New()
	})
	return global
}
