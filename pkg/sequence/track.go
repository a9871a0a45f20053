package sequence

import (
	"sort"

	"github.com/zurustar/smfseq/pkg/midimessage"
)

// Track is an ordered, growable list of timestamped events. A Track is not
// safe for concurrent use; callers that share one across goroutines (the
// sequencer's playback/record split) must provide their own synchronization.
type Track struct {
	events []*Event
}

// NewTrack returns an empty track.
func NewTrack() *Track {
	return &Track{}
}

// Add appends e to the track. It does not sort; call SortEvents once all
// events for a batch have been added.
func (t *Track) Add(e *Event) {
	t.events = append(t.events, e)
}

// Remove deletes the first occurrence of e (by pointer identity) and reports
// whether anything was removed.
func (t *Track) Remove(e *Event) bool {
	for i, existing := range t.events {
		if existing == e {
			t.events = append(t.events[:i], t.events[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveWhere deletes every event for which keep returns false.
func (t *Track) RemoveWhere(keep func(*Event) bool) {
	kept := t.events[:0]
	for _, e := range t.events {
		if keep(e) {
			kept = append(kept, e)
		}
	}
	t.events = kept
}

// Get returns the event at index i.
func (t *Track) Get(i int) *Event {
	return t.events[i]
}

// Size returns the number of events in the track.
func (t *Track) Size() int {
	return len(t.events)
}

// Ticks returns the tick of the last event, or 0 for an empty track.
func (t *Track) Ticks() int64 {
	if len(t.events) == 0 {
		return 0
	}
	return t.events[len(t.events)-1].Tick
}

// Events returns the track's events in their current order. The returned
// slice shares storage with the track; callers must not retain it across a
// subsequent Add/Remove/SortEvents call.
func (t *Track) Events() []*Event {
	return t.events
}

// eventPriority ranks an event's message for tie-breaking simultaneous
// ticks: system, meta, sysex, and controller-class messages are scheduled
// ahead of note-on, which in turn is scheduled ahead of note-off. Playing a
// note-off before the note-on that shares its tick would mean a freshly
// retriggered note never sounds.
func eventPriority(msg midimessage.Message) int {
	var status byte
	if msg != nil {
		if raw := msg.Bytes(); len(raw) > 0 {
			status = raw[0]
		}
	}
	switch status & 0xF0 {
	case 0x90: // note on
		return 1
	case 0x80: // note off
		return 0
	case 0x00:
		return 2
	default: // system common/real-time, meta, sysex, and all other channel messages
		return 2
	}
}

// less implements the tick-ascending, priority-descending ordering used by
// SortEvents.
func less(a, b *Event) bool {
	if a.Tick != b.Tick {
		return a.Tick < b.Tick
	}
	return eventPriority(a.Message) > eventPriority(b.Message)
}

// isEndOfTrack reports whether msg is exactly the end-of-track meta event
// (0xFF 0x2F 0x00, no payload).
func isEndOfTrack(msg midimessage.Message) bool {
	meta, ok := msg.(*midimessage.MetaMessage)
	if !ok {
		return false
	}
	raw := meta.Bytes()
	return len(raw) == 3 && raw[1] == midimessage.MetaEndOfTrack && raw[2] == 0x00
}

// SortEvents normalizes a track: any existing end-of-track event is
// discarded, the remaining events are stable-sorted by ascending tick
// (breaking ties per eventPriority), and a single fresh end-of-track event
// is appended — at tick 0 if the track is now empty, otherwise one tick
// past the last remaining event. Stable so that two events of equal tick
// and priority keep their relative insertion order.
func SortEvents(t *Track) {
	kept := t.events[:0]
	for _, e := range t.events {
		if !isEndOfTrack(e.Message) {
			kept = append(kept, e)
		}
	}
	t.events = kept

	sort.SliceStable(t.events, func(i, j int) bool {
		return less(t.events[i], t.events[j])
	})

	var eotTick int64
	if n := len(t.events); n > 0 {
		eotTick = t.events[n-1].Tick + 1
	}
	eot, _ := midimessage.NewMetaMessage(midimessage.MetaEndOfTrack, nil)
	t.events = append(t.events, NewEvent(eot, eotTick))
}
