package midimessage

import "github.com/zurustar/smfseq/pkg/midierr"

// SysexMessage carries a system-exclusive payload. SMF files also use the
// 0xF7 "escape" leader for sysex continuation packets and for raw-byte
// escapes inside a track; both leaders are accepted here, distinguished by
// Status().
type SysexMessage struct {
	data []byte
}

// NewSysexMessage builds a sysex message from a leader byte (SysexStart or
// SysexEnd) and a payload.
func NewSysexMessage(status byte, payload []byte) (*SysexMessage, error) {
	if status != SysexStart && status != SysexEnd {
		return nil, midierr.Invalid("status byte 0x%02X is not a valid sysex leader", status)
	}
	buf := make([]byte, 1+len(payload))
	buf[0] = status
	copy(buf[1:], payload)
	return &SysexMessage{data: buf}, nil
}

func (m *SysexMessage) Bytes() []byte { return cloneBytes(m.data) }
func (m *SysexMessage) Status() byte  { return m.data[0] }
func (m *SysexMessage) Len() int      { return len(m.data) }
func (m *SysexMessage) Clone() Message {
	return &SysexMessage{data: cloneBytes(m.data)}
}

// Data returns the payload, excluding the leading status byte.
func (m *SysexMessage) Data() []byte { return cloneBytes(m.data[1:]) }
