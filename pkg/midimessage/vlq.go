package midimessage

import (
	"io"

	"github.com/zurustar/smfseq/pkg/midierr"
)

// MaxVLQ is the largest value a 4-byte variable-length quantity can encode
// (28 significant bits).
const MaxVLQ uint32 = 0x0FFFFFFF

// EncodeVLQ encodes v as a MIDI variable-length quantity: 7 bits per byte,
// most-significant byte first, every byte but the last with its high bit
// set. EncodeVLQ never rejects a value: one above MaxVLQ is encoded in five
// bytes, which DecodeVLQ and DecodeVLQBytes reject.
func EncodeVLQ(v uint32) []byte {
	buf := []byte{byte(v & 0x7F)}
	v >>= 7
	for v > 0 {
		buf = append(buf, byte(v&0x7F)|0x80)
		v >>= 7
	}
	// buf was built least-significant-first; reverse it.
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}

// DecodeVLQ reads a variable-length quantity from r, one byte at a time,
// stopping at the first byte whose high bit is clear. A quantity spanning
// more than 4 bytes fails with InvalidMidiData, matching the 28-bit range a
// real SMF delta-time or meta-length field is limited to.
func DecodeVLQ(r io.ByteReader) (uint32, error) {
	var value uint32
	for i := 0; i < 4; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, midierr.InvalidWrap(err, "truncated variable-length quantity")
		}
		value = (value << 7) | uint32(b&0x7F)
		if b&0x80 == 0 {
			return value, nil
		}
	}
	return 0, midierr.Invalid("variable-length quantity exceeds 4 bytes")
}

// DecodeVLQBytes decodes a variable-length quantity starting at offset off
// in b, returning the value and the number of bytes consumed.
func DecodeVLQBytes(b []byte, off int) (value uint32, n int, err error) {
	for n = 0; n < 4; n++ {
		if off+n >= len(b) {
			return 0, 0, midierr.Invalid("truncated variable-length quantity")
		}
		c := b[off+n]
		value = (value << 7) | uint32(c&0x7F)
		if c&0x80 == 0 {
			return value, n + 1, nil
		}
	}
	return 0, 0, midierr.Invalid("variable-length quantity exceeds 4 bytes")
}
