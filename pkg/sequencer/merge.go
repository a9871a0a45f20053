package sequencer

import "github.com/zurustar/smfseq/pkg/sequence"

// mergeSequenceToTrack concatenates every source track that is not muted,
// that is soloed if any track is soloed, and that is not currently
// record-enabled (i.e. absent from recordEnable or mapped to an empty
// channel set), then normalizes the result.
func mergeSequenceToTrack(seq *sequence.Sequence, mute, solo map[*sequence.Track]bool, recordEnable map[*sequence.Track]map[int]bool) (*sequence.Track, error) {
	merged := sequence.NewTrack()
	if seq == nil {
		sequence.SortEvents(merged)
		return merged, nil
	}

	anySoloed := false
	for _, soloed := range solo {
		if soloed {
			anySoloed = true
			break
		}
	}

	for _, t := range seq.Tracks() {
		if mute[t] {
			continue
		}
		if anySoloed && !solo[t] {
			continue
		}
		if channels, recording := recordEnable[t]; recording && len(channels) > 0 {
			continue
		}
		for _, e := range t.Events() {
			merged.Add(e.Clone())
		}
	}

	sequence.SortEvents(merged)
	return merged, nil
}

// isRecordable reports whether an event belongs in the recording window for
// the given enabled-channel set: C contains -1 (wildcard), or the event is a
// channel message whose channel is in C. Non-channel messages are always
// recordable.
func isRecordable(e *sequence.Event, channels map[int]bool) bool {
	if channels[-1] {
		return true
	}
	ch, ok := channelOf(e)
	if !ok {
		return true
	}
	return channels[ch]
}
