package smf

import (
	"testing"

	"github.com/zurustar/smfseq/pkg/midimessage"
	"github.com/zurustar/smfseq/pkg/textenc"
)

func TestDecodeMetaTextIdentity(t *testing.T) {
	meta, err := midimessage.NewMetaMessage(midimessage.MetaTrackName, []byte("Piano 1"))
	if err != nil {
		t.Fatalf("NewMetaMessage: %v", err)
	}
	text, err := DecodeMetaText(meta, nil)
	if err != nil {
		t.Fatalf("DecodeMetaText: %v", err)
	}
	if text != "Piano 1" {
		t.Fatalf("expected %q, got %q", "Piano 1", text)
	}
}

func TestDecodeMetaTextRejectsNonTextMeta(t *testing.T) {
	meta, err := midimessage.NewMetaMessage(midimessage.MetaTempo, []byte{0x07, 0xA1, 0x20})
	if err != nil {
		t.Fatalf("NewMetaMessage: %v", err)
	}
	if _, err := DecodeMetaText(meta, textenc.Identity()); err == nil {
		t.Fatalf("expected an error decoding a non-text meta type as text")
	}
}
