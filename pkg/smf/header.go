// Package smf reads and writes Standard MIDI Files (type 0 and type 1;
// type 2 is parsed but not interpreted) into and out of a sequence.Sequence.
package smf

import (
	"github.com/zurustar/smfseq/pkg/midierr"
	"github.com/zurustar/smfseq/pkg/sequence"
)

const (
	mthdMagic uint32 = 0x4D546864 // "MThd"
	mtrkMagic uint32 = 0x4D54726B // "MTrk"
)

// FileHeader is the information carried in an SMF header chunk, without any
// of the track data — what Probe returns.
type FileHeader struct {
	Format         int
	DivisionType   sequence.DivisionType
	Resolution     uint16
	NumberOfTracks int
}

// decodeDivision interprets the 16-bit SMF division field: MSB set selects
// an SMPTE frame rate, clear selects PPQ.
func decodeDivision(div uint16) (sequence.DivisionType, uint16, error) {
	if div&0x8000 != 0 {
		resolution := div & 0xFF
		topByte := int((div >> 8) & 0xFF)
		frames := 256 - topByte
		var dt sequence.DivisionType
		switch frames {
		case 24:
			dt = sequence.SMPTE24
		case 25:
			dt = sequence.SMPTE25
		case 29:
			dt = sequence.SMPTE30Drop
		case 30:
			dt = sequence.SMPTE30
		default:
			return 0, 0, midierr.Invalid("unsupported SMPTE frame rate %d", frames)
		}
		return dt, resolution, nil
	}
	return sequence.PPQ, div & 0x7FFF, nil
}

// encodeDivision is decodeDivision's inverse.
func encodeDivision(dt sequence.DivisionType, resolution uint16) (uint16, error) {
	if dt.IsPPQ() {
		return resolution & 0x7FFF, nil
	}
	frames := int(dt.FrameRate())
	if frames == 0 {
		return 0, midierr.Invalid("invalid division type %v", dt)
	}
	value := int32(-(frames << 8)) + int32(resolution&0xFF)
	return uint16(value), nil
}
