package smf

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/zurustar/smfseq/pkg/midierr"
	"github.com/zurustar/smfseq/pkg/midimessage"
	"github.com/zurustar/smfseq/pkg/sequence"
)

// Probe reads only the MThd header and returns the file's format,
// resolution, division type, and declared track count without parsing any
// track — a cheap way to inspect a file before committing to a full Read.
func Probe(r io.Reader) (*FileHeader, error) {
	br := bufio.NewReader(r)
	return readHeader(br)
}

func readHeader(br *bufio.Reader) (*FileHeader, error) {
	magic, err := readUint32(br)
	if err != nil {
		return nil, midierr.InvalidWrap(err, "reading MThd magic")
	}
	if magic != mthdMagic {
		return nil, midierr.Invalid("not an SMF file: missing MThd header")
	}
	headerLen, err := readUint32(br)
	if err != nil {
		return nil, midierr.InvalidWrap(err, "reading MThd length")
	}
	if headerLen < 6 {
		return nil, midierr.Invalid("MThd length %d is shorter than the minimum 6", headerLen)
	}
	format, err := readUint16(br)
	if err != nil {
		return nil, midierr.InvalidWrap(err, "reading format")
	}
	if format > 2 {
		return nil, midierr.Invalid("unsupported SMF format %d", format)
	}
	numTracks, err := readUint16(br)
	if err != nil {
		return nil, midierr.InvalidWrap(err, "reading number of tracks")
	}
	if numTracks == 0 {
		return nil, midierr.Invalid("SMF header declares zero tracks")
	}
	divisionRaw, err := readUint16(br)
	if err != nil {
		return nil, midierr.InvalidWrap(err, "reading division")
	}
	divisionType, resolution, err := decodeDivision(divisionRaw)
	if err != nil {
		return nil, err
	}
	if extra := int(headerLen) - 6; extra > 0 {
		if _, err := io.CopyN(io.Discard, br, int64(extra)); err != nil {
			return nil, midierr.InvalidWrap(err, "skipping trailing MThd bytes")
		}
	}
	return &FileHeader{
		Format:         int(format),
		DivisionType:   divisionType,
		Resolution:     resolution,
		NumberOfTracks: int(numTracks),
	}, nil
}

// Read parses a complete SMF byte stream into a Sequence.
func Read(r io.Reader) (*sequence.Sequence, error) {
	br := bufio.NewReader(r)
	header, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	seq, err := sequence.New(header.DivisionType, header.Resolution)
	if err != nil {
		return nil, err
	}
	for i := 0; i < header.NumberOfTracks; i++ {
		track, err := readTrack(br)
		if err != nil {
			return nil, midierr.InvalidWrap(err, "parsing track %d", i)
		}
		dst := seq.CreateTrack()
		for _, e := range track.Events() {
			dst.Add(e)
		}
		sequence.SortEvents(dst)
	}
	return seq, nil
}

func readTrack(br *bufio.Reader) (*sequence.Track, error) {
	magic, err := readUint32(br)
	if err != nil {
		return nil, midierr.InvalidWrap(err, "reading MTrk magic")
	}
	if magic != mtrkMagic {
		return nil, midierr.Invalid("not a track chunk: missing MTrk header")
	}
	// The declared chunk length is consumed but deliberately not used to
	// bound parsing: a track whose length field lies is still readable as
	// long as its event stream itself is well-formed.
	if _, err := readUint32(br); err != nil {
		return nil, midierr.InvalidWrap(err, "reading MTrk length")
	}

	track := sequence.NewTrack()
	runningStatus := -1
	var ticks int64
	for {
		delta, err := midimessage.DecodeVLQ(br)
		if err != nil {
			return nil, midierr.InvalidWrap(err, "reading delta time")
		}
		ticks += int64(delta)

		d, err := br.ReadByte()
		if err != nil {
			return nil, midierr.InvalidWrap(err, "reading event status byte")
		}

		var msg midimessage.Message
		stop := false

		switch {
		case d < 0x80:
			msg, err = readRunningStatusContinuation(br, runningStatus, d)
			if err != nil {
				return nil, err
			}
		case d >= 0x80 && d < 0xF0:
			data1, err := br.ReadByte()
			if err != nil {
				return nil, midierr.InvalidWrap(err, "reading channel message data byte")
			}
			msg, err = readChannelMessage(br, d, data1)
			if err != nil {
				return nil, err
			}
			runningStatus = int(d)
		case d == midimessage.SysexStart || d == midimessage.SysexEnd:
			length, err := midimessage.DecodeVLQ(br)
			if err != nil {
				return nil, midierr.InvalidWrap(err, "reading sysex length")
			}
			payload := make([]byte, length)
			if _, err := io.ReadFull(br, payload); err != nil {
				return nil, midierr.InvalidWrap(err, "reading sysex payload")
			}
			msg, err = midimessage.NewSysexMessage(d, payload)
			if err != nil {
				return nil, err
			}
			runningStatus = -1
		case d == midimessage.SystemReset: // meta event leader inside an SMF track
			mtype, err := br.ReadByte()
			if err != nil {
				return nil, midierr.InvalidWrap(err, "reading meta type")
			}
			length, err := midimessage.DecodeVLQ(br)
			if err != nil {
				return nil, midierr.InvalidWrap(err, "reading meta length")
			}
			payload := make([]byte, length)
			if _, err := io.ReadFull(br, payload); err != nil {
				return nil, midierr.InvalidWrap(err, "reading meta payload")
			}
			msg, err = midimessage.NewMetaMessage(mtype, payload)
			if err != nil {
				return nil, err
			}
			runningStatus = -1
			if mtype == midimessage.MetaEndOfTrack {
				stop = true
			}
		default: // system common/real-time: 0xF1-0xF6, 0xF8-0xFE
			n, err := midimessage.ShortMessageDataLength(d)
			if err != nil {
				return nil, err
			}
			var data1, data2 byte
			if n >= 1 {
				data1, err = br.ReadByte()
				if err != nil {
					return nil, midierr.InvalidWrap(err, "reading system message data byte")
				}
			}
			if n >= 2 {
				data2, err = br.ReadByte()
				if err != nil {
					return nil, midierr.InvalidWrap(err, "reading system message data byte")
				}
			}
			msg, err = midimessage.NewShortMessage(d, data1, data2)
			if err != nil {
				return nil, err
			}
			runningStatus = int(d)
		}

		track.Add(sequence.NewEvent(msg, ticks))
		if stop {
			break
		}
	}
	return track, nil
}

// readRunningStatusContinuation handles a data byte (d < 0x80) encountered
// where a status byte was expected: it belongs to whatever running status
// is in effect.
func readRunningStatusContinuation(br *bufio.Reader, runningStatus int, d byte) (midimessage.Message, error) {
	switch {
	case runningStatus >= 0 && runningStatus < 0xF0:
		return readChannelMessage(br, byte(runningStatus), d)
	case runningStatus >= 0xF0 && runningStatus <= 0xFF:
		n, err := midimessage.ShortMessageDataLength(byte(runningStatus))
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, midierr.Invalid("unexpected data byte under a zero-data running status 0x%02X", runningStatus)
		}
		data1 := d
		var data2 byte
		if n >= 2 {
			b, err := br.ReadByte()
			if err != nil {
				return nil, midierr.InvalidWrap(err, "reading system message data byte")
			}
			data2 = b
		}
		return midimessage.NewShortMessage(byte(runningStatus), data1, data2)
	default:
		return nil, midierr.Invalid("data byte 0x%02X with no running status in effect", d)
	}
}

// readChannelMessage implements the running-status decoder: status s with
// first data byte data1 either takes a second data byte (note on/off, poly
// pressure, control change, pitch bend) or does not (program change,
// channel pressure).
func readChannelMessage(br *bufio.Reader, status, data1 byte) (midimessage.Message, error) {
	switch status & 0xF0 {
	case midimessage.NoteOff, midimessage.NoteOn, midimessage.PolyPressure, midimessage.ControlChange, midimessage.PitchBend:
		data2, err := br.ReadByte()
		if err != nil {
			return nil, midierr.InvalidWrap(err, "reading channel message data byte")
		}
		return midimessage.NewShortMessage(status, data1, data2)
	case midimessage.ProgramChange, midimessage.ChannelPressure:
		return midimessage.NewShortMessage(status, data1, 0)
	default:
		return nil, midierr.Invalid("status 0x%02X is not a channel message", status)
	}
}

func readUint32(br *bufio.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readUint16(br *bufio.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}
