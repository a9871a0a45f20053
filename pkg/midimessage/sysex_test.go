package midimessage

import (
	"bytes"
	"testing"
)

func TestNewSysexMessage(t *testing.T) {
	msg, err := NewSysexMessage(SysexStart, []byte{0x41, 0x10, 0xF7})
	if err != nil {
		t.Fatalf("NewSysexMessage: %v", err)
	}
	if msg.Status() != SysexStart {
		t.Errorf("Status() = 0x%02X, want 0x%02X", msg.Status(), SysexStart)
	}
	if !bytes.Equal(msg.Data(), []byte{0x41, 0x10, 0xF7}) {
		t.Errorf("Data() = % X", msg.Data())
	}
}

func TestNewSysexMessageRejectsBadLeader(t *testing.T) {
	if _, err := NewSysexMessage(NoteOn, nil); err == nil {
		t.Fatal("expected error for non-sysex leader")
	}
}
