// Package textenc decodes the raw byte payloads carried by SMF meta text
// events (track name, lyric, marker, and similar) using a caller-chosen
// charset. Meta messages themselves always store raw bytes — decoding is a
// separate, optional step so the core message model never assumes a text
// encoding.
package textenc

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Decoder turns a raw meta payload into a string.
type Decoder interface {
	Decode(payload []byte) (string, error)
}

// identityDecoder treats the payload as already being valid text (Latin-1/
// ASCII passthrough), the default when no charset is configured.
type identityDecoder struct{}

func (identityDecoder) Decode(payload []byte) (string, error) {
	return string(payload), nil
}

// Identity returns the raw-bytes-as-string decoder.
func Identity() Decoder {
	return identityDecoder{}
}

// encodingDecoder adapts a golang.org/x/text/encoding.Encoding to Decoder.
type encodingDecoder struct {
	enc encoding.Encoding
}

func (d encodingDecoder) Decode(payload []byte) (string, error) {
	out, _, err := transform.Bytes(d.enc.NewDecoder(), payload)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ShiftJIS returns a decoder for Shift_JIS-encoded meta text payloads, the
// charset commonly used by Japanese sequencer and game tooling that does not
// restrict itself to ASCII track names and lyrics.
func ShiftJIS() Decoder {
	return encodingDecoder{enc: japanese.ShiftJIS}
}

// FromEncoding adapts any golang.org/x/text/encoding.Encoding to Decoder.
func FromEncoding(enc encoding.Encoding) Decoder {
	return encodingDecoder{enc: enc}
}

// Decode is a convenience wrapper around Decoder.Decode, using Identity if
// dec is nil.
func Decode(payload []byte, dec Decoder) (string, error) {
	if dec == nil {
		dec = Identity()
	}
	return dec.Decode(payload)
}
