package midimessage

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEncodeVLQKnownValues(t *testing.T) {
	cases := []struct {
		value uint32
		want  []byte
	}{
		{0x00000000, []byte{0x00}},
		{0x00000040, []byte{0x40}},
		{0x0000007F, []byte{0x7F}},
		{0x00000080, []byte{0x81, 0x00}},
		{0x00002000, []byte{0xC0, 0x00}},
		{0x00003FFF, []byte{0xFF, 0x7F}},
		{0x00004000, []byte{0x81, 0x80, 0x00}},
		{0x001FFFFF, []byte{0xFF, 0xFF, 0x7F}},
		{0x00200000, []byte{0x81, 0x80, 0x80, 0x00}},
		{0x0FFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}
	for _, c := range cases {
		got := EncodeVLQ(c.value)
		if !bytes.Equal(got, c.want) {
			t.Errorf("EncodeVLQ(0x%X) = % X, want % X", c.value, got, c.want)
		}
	}
}

func TestDecodeVLQBytesRoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 0x7F, 0x80, 0x2000, 0x3FFF, 0x4000, 0x1FFFFF, 0x200000, 0x0FFFFFFF}
	for _, v := range cases {
		enc := EncodeVLQ(v)
		got, n, err := DecodeVLQBytes(enc, 0)
		if err != nil {
			t.Fatalf("DecodeVLQBytes(%v): %v", enc, err)
		}
		if n != len(enc) {
			t.Errorf("consumed %d bytes, want %d", n, len(enc))
		}
		if got != v {
			t.Errorf("round-trip %d -> %v -> %d", v, enc, got)
		}
	}
}

func TestDecodeVLQTruncated(t *testing.T) {
	// A byte with the continuation bit set but nothing following.
	_, _, err := DecodeVLQBytes([]byte{0x81}, 0)
	if err == nil {
		t.Fatal("expected error for truncated VLQ")
	}
}

func TestDecodeVLQTooLong(t *testing.T) {
	_, _, err := DecodeVLQBytes([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00}, 0)
	if err == nil {
		t.Fatal("expected error for 5-byte VLQ")
	}
}

func TestVLQRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("encode then decode returns the original value", prop.ForAll(
		func(v uint32) bool {
			enc := EncodeVLQ(v)
			if len(enc) == 0 || len(enc) > 4 {
				return false
			}
			got, n, err := DecodeVLQBytes(enc, 0)
			return err == nil && n == len(enc) && got == v
		},
		gen.UInt32Range(0, MaxVLQ),
	))

	properties.Property("every byte but the last carries the continuation bit", prop.ForAll(
		func(v uint32) bool {
			enc := EncodeVLQ(v)
			for i := 0; i < len(enc)-1; i++ {
				if enc[i]&0x80 == 0 {
					return false
				}
			}
			return enc[len(enc)-1]&0x80 == 0
		},
		gen.UInt32Range(0, MaxVLQ),
	))

	properties.TestingRun(t)
}
