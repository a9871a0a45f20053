package smf

import (
	"github.com/zurustar/smfseq/pkg/midierr"
	"github.com/zurustar/smfseq/pkg/midimessage"
	"github.com/zurustar/smfseq/pkg/textenc"
)

// textMetaTypes are the meta event types whose payload is free-form text
// rather than binary data.
var textMetaTypes = map[byte]bool{
	midimessage.MetaText:           true,
	midimessage.MetaCopyright:      true,
	midimessage.MetaTrackName:      true,
	midimessage.MetaInstrumentName: true,
	midimessage.MetaLyric:          true,
	midimessage.MetaMarker:         true,
	midimessage.MetaCuePoint:       true,
}

// DecodeMetaText decodes a text-class meta message's payload through dec
// (textenc.Identity() if dec is nil). Reading an SMF never assumes a text
// encoding on its own — this is an explicit, optional step a caller takes
// when it knows a file's source charset, e.g. Shift_JIS track names from
// Japanese sequencer tooling.
func DecodeMetaText(m *midimessage.MetaMessage, dec textenc.Decoder) (string, error) {
	if !textMetaTypes[m.Type()] {
		return "", midierr.Invalid("meta type 0x%02X does not carry free-form text", m.Type())
	}
	return textenc.Decode(m.Data(), dec)
}
