package midimessage

import "github.com/zurustar/smfseq/pkg/midierr"

// Channel voice/mode command nibbles (status & 0xF0).
const (
	NoteOff         byte = 0x80
	NoteOn          byte = 0x90
	PolyPressure    byte = 0xA0
	ControlChange   byte = 0xB0
	ProgramChange   byte = 0xC0
	ChannelPressure byte = 0xD0
	PitchBend       byte = 0xE0
)

// System common / real-time status bytes.
const (
	SysexStart     byte = 0xF0
	MTCQuarter     byte = 0xF1
	SongPosition   byte = 0xF2
	SongSelect     byte = 0xF3
	TuneRequest    byte = 0xF6
	SysexEnd       byte = 0xF7
	TimingClock    byte = 0xF8
	Start          byte = 0xFA
	Continue       byte = 0xFB
	Stop           byte = 0xFC
	ActiveSensing  byte = 0xFE
	SystemReset    byte = 0xFF
)

// ShortMessageDataLength exposes dataLength for callers outside this package
// that need to know how many data bytes follow a given status byte — the
// SMF reader's running-status decode loop being the primary one.
func ShortMessageDataLength(status byte) (int, error) {
	return dataLength(status)
}

// dataLength returns the number of data bytes that follow a given status
// byte in a short message, or an error if the status byte is not a valid
// short-message leader (0xF0 and 0xF7 are sysex framing bytes, handled by
// SysexMessage instead).
func dataLength(status byte) (int, error) {
	switch status {
	case TuneRequest, TimingClock, 0xF9, Start, Continue, Stop, 0xFD, ActiveSensing, SystemReset:
		return 0, nil
	case MTCQuarter, SongSelect:
		return 1, nil
	case SongPosition:
		return 2, nil
	}
	if status < 0x80 || status >= 0xF0 {
		return 0, midierr.Invalid("status byte 0x%02X is not a valid short message leader", status)
	}
	switch status & 0xF0 {
	case ProgramChange, ChannelPressure:
		return 1, nil
	default:
		return 2, nil
	}
}

// ShortMessage is a channel voice/mode message or a system common/real-time
// message: 1 to 3 bytes, no variable-length framing.
type ShortMessage struct {
	data []byte
}

// NewShortMessage builds a short message from an explicit status byte plus
// up to two data bytes, validating both the status byte and the data byte
// count/range against the MIDI 1.0 length table.
func NewShortMessage(status, data1, data2 byte) (*ShortMessage, error) {
	n, err := dataLength(status)
	if err != nil {
		return nil, err
	}
	if n >= 1 && data1 > 0x7F {
		return nil, midierr.Invalid("data1 byte 0x%02X out of range", data1)
	}
	if n >= 2 && data2 > 0x7F {
		return nil, midierr.Invalid("data2 byte 0x%02X out of range", data2)
	}
	buf := make([]byte, 1+n)
	buf[0] = status
	if n >= 1 {
		buf[1] = data1
	}
	if n >= 2 {
		buf[2] = data2
	}
	return &ShortMessage{data: buf}, nil
}

// NewShortMessageChannel builds a channel voice/mode message from a command
// nibble (e.g. NoteOn), a channel number (0-15), and up to two data bytes.
func NewShortMessageChannel(command, channel, data1, data2 byte) (*ShortMessage, error) {
	if channel > 0x0F {
		return nil, midierr.Invalid("channel %d out of range", channel)
	}
	if command < 0x80 || command > 0xE0 || command&0x0F != 0 {
		return nil, midierr.Invalid("command 0x%02X is not a channel voice/mode command", command)
	}
	return NewShortMessage(command|channel, data1, data2)
}

// NewShortMessageFromBytes validates and wraps an already-assembled short
// message, as produced by the SMF reader's running-status decode loop.
func NewShortMessageFromBytes(raw []byte) (*ShortMessage, error) {
	if len(raw) == 0 {
		return nil, midierr.Invalid("empty short message")
	}
	n, err := dataLength(raw[0])
	if err != nil {
		return nil, err
	}
	if len(raw) != 1+n {
		return nil, midierr.Invalid("short message for status 0x%02X needs %d data bytes, got %d", raw[0], n, len(raw)-1)
	}
	for _, b := range raw[1:] {
		if b > 0x7F {
			return nil, midierr.Invalid("data byte 0x%02X out of range", b)
		}
	}
	return &ShortMessage{data: cloneBytes(raw)}, nil
}

func (m *ShortMessage) Bytes() []byte { return cloneBytes(m.data) }
func (m *ShortMessage) Status() byte  { return m.data[0] }
func (m *ShortMessage) Len() int      { return len(m.data) }
func (m *ShortMessage) Clone() Message {
	return &ShortMessage{data: cloneBytes(m.data)}
}

// Command returns the channel-command nibble (status & 0xF0).
func (m *ShortMessage) Command() byte { return m.data[0] &^ 0x0F }

// Channel returns the channel number (status & 0x0F). Meaningless for
// system common/real-time messages.
func (m *ShortMessage) Channel() byte { return m.data[0] & 0x0F }

// Data1 returns the first data byte, or 0 if the message carries none.
func (m *ShortMessage) Data1() byte {
	if len(m.data) > 1 {
		return m.data[1]
	}
	return 0
}

// Data2 returns the second data byte, or 0 if the message carries none.
func (m *ShortMessage) Data2() byte {
	if len(m.data) > 2 {
		return m.data[2]
	}
	return 0
}

// IsSystemRealtime reports whether the status byte is one of the 0xF8-0xFF
// system real-time bytes, 0xFF (System Reset) included. The writer applies
// it only to ShortMessage values, so 0xFF-led meta events are not affected.
func IsSystemRealtime(status byte) bool {
	return status >= 0xF8
}
