package sequencer

import "github.com/zurustar/smfseq/pkg/midimessage"

// detectTempoChange reports the microseconds-per-quarter-note value carried
// by msg if it is a well-formed Set Tempo meta event (type 0x51, a 3-byte
// payload) with a strictly positive value, and false otherwise. A zero or
// negative mpq is rejected here rather than left for callers to guard,
// matching SetTempoMPQ's own validation — a malformed or adversarial tempo
// of 0 would otherwise divide out to an infinite BPM.
func detectTempoChange(msg midimessage.Message) (float64, bool) {
	meta, ok := msg.(*midimessage.MetaMessage)
	if !ok || meta.Type() != midimessage.MetaTempo {
		return 0, false
	}
	payload := meta.Data()
	if len(payload) != 3 {
		return 0, false
	}
	mpq := int(payload[0])<<16 | int(payload[1])<<8 | int(payload[2])
	if mpq <= 0 {
		return 0, false
	}
	return float64(mpq), true
}
