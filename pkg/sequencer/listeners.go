package sequencer

import "github.com/zurustar/smfseq/pkg/midimessage"

// ControllerEventListener is notified of every dispatched Control Change
// message whose controller number (data1) matches one it registered for.
type ControllerEventListener interface {
	ControlChange(msg *midimessage.ShortMessage)
}

// MetaEventListener is notified of every dispatched Meta message.
type MetaEventListener interface {
	MetaMessage(msg *midimessage.MetaMessage)
}

// AddControllerEventListener registers l for the given controller numbers
// (0-127).
func (s *Sequencer) AddControllerEventListener(l ControllerEventListener, controllers ...int) {
	s.ctrlMu.Lock()
	defer s.ctrlMu.Unlock()
	for _, c := range controllers {
		if c < 0 || c > 127 {
			continue
		}
		s.controllerListeners[c][l] = struct{}{}
	}
}

// RemoveControllerEventListener unregisters l from the given controller
// numbers. Passing no controllers removes l from all of them.
func (s *Sequencer) RemoveControllerEventListener(l ControllerEventListener, controllers ...int) {
	s.ctrlMu.Lock()
	defer s.ctrlMu.Unlock()
	if len(controllers) == 0 {
		for c := range s.controllerListeners {
			delete(s.controllerListeners[c], l)
		}
		return
	}
	for _, c := range controllers {
		if c < 0 || c > 127 {
			continue
		}
		delete(s.controllerListeners[c], l)
	}
}

// AddMetaEventListener registers l to receive every dispatched Meta message.
func (s *Sequencer) AddMetaEventListener(l MetaEventListener) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	s.metaListeners[l] = struct{}{}
}

// RemoveMetaEventListener unregisters l.
func (s *Sequencer) RemoveMetaEventListener(l MetaEventListener) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	delete(s.metaListeners, l)
}

// fireListeners dispatches msg to the registered meta or controller
// listeners it matches. Called both from playback dispatch and from the
// recording receiver.
func (s *Sequencer) fireListeners(msg midimessage.Message) {
	switch m := msg.(type) {
	case *midimessage.MetaMessage:
		s.metaMu.RLock()
		for l := range s.metaListeners {
			l.MetaMessage(m)
		}
		s.metaMu.RUnlock()
	case *midimessage.ShortMessage:
		if m.Command() != midimessage.ControlChange {
			return
		}
		controller := int(m.Data1())
		s.ctrlMu.RLock()
		if controller >= 0 && controller < len(s.controllerListeners) {
			for l := range s.controllerListeners[controller] {
				l.ControlChange(m)
			}
		}
		s.ctrlMu.RUnlock()
	}
}
