package midimessage

import "github.com/zurustar/smfseq/pkg/midierr"

// Meta message type bytes (second byte of a 0xFF-led meta event) for the
// standard SMF meta events.
const (
	MetaSequenceNumber     byte = 0x00
	MetaText               byte = 0x01
	MetaCopyright          byte = 0x02
	MetaTrackName          byte = 0x03
	MetaInstrumentName     byte = 0x04
	MetaLyric              byte = 0x05
	MetaMarker             byte = 0x06
	MetaCuePoint           byte = 0x07
	MetaChannelPrefix      byte = 0x20
	MetaEndOfTrack         byte = 0x2F
	MetaTempo              byte = 0x51
	MetaSMPTEOffset        byte = 0x54
	MetaTimeSignature      byte = 0x58
	MetaKeySignature       byte = 0x59
	MetaSequencerSpecific  byte = 0x7F
)

// MetaMessage carries an SMF-only meta event: 0xFF, a type byte, a
// variable-length payload length, and the payload itself. Meta messages
// never appear on the wire outside an SMF track.
type MetaMessage struct {
	data []byte
}

// NewMetaMessage builds a meta message from its type byte and payload,
// validating that mtype is within the meta-type range (0x00-0x7F).
func NewMetaMessage(mtype byte, payload []byte) (*MetaMessage, error) {
	if mtype > 0x7F {
		return nil, midierr.Invalid("meta type 0x%02X out of range", mtype)
	}
	buf := make([]byte, 0, 2+5+len(payload))
	buf = append(buf, SystemReset, mtype)
	buf = append(buf, EncodeVLQ(uint32(len(payload)))...)
	buf = append(buf, payload...)
	return &MetaMessage{data: buf}, nil
}

// NewMetaMessageFromBytes parses a meta message out of raw, which must begin
// with 0xFF and may carry trailing bytes beyond the message's own framing
// (the SMF track reader hands this function the remainder of the track
// buffer, not an exact slice). The payload length is derived by walking the
// variable-length quantity starting at offset 2; a length that would run the
// payload past the end of raw fails with InvalidMidiData.
func NewMetaMessageFromBytes(raw []byte) (*MetaMessage, error) {
	if len(raw) < 2 || raw[0] != SystemReset {
		return nil, midierr.Invalid("meta message must start with 0xFF and a type byte")
	}
	length, n, err := DecodeVLQBytes(raw, 2)
	if err != nil {
		return nil, err
	}
	payloadStart := 2 + n
	payloadEnd := payloadStart + int(length)
	if payloadEnd < payloadStart || payloadEnd > len(raw) {
		return nil, midierr.Invalid("meta message payload length %d runs past end of buffer", length)
	}
	buf := make([]byte, payloadEnd)
	copy(buf, raw[:payloadEnd])
	return &MetaMessage{data: buf}, nil
}

func (m *MetaMessage) Bytes() []byte { return cloneBytes(m.data) }
func (m *MetaMessage) Status() byte  { return m.data[0] }
func (m *MetaMessage) Len() int      { return len(m.data) }
func (m *MetaMessage) Clone() Message {
	return &MetaMessage{data: cloneBytes(m.data)}
}

// Type returns the meta type byte (second byte of the message).
func (m *MetaMessage) Type() byte { return m.data[1] }

// Data returns the meta payload, excluding the 0xFF/type/length header.
func (m *MetaMessage) Data() []byte {
	_, n, err := DecodeVLQBytes(m.data, 2)
	if err != nil {
		return nil
	}
	return cloneBytes(m.data[2+n:])
}
