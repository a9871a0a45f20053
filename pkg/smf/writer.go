package smf

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/zurustar/smfseq/pkg/midierr"
	"github.com/zurustar/smfseq/pkg/midimessage"
	"github.com/zurustar/smfseq/pkg/sequence"
)

// GetMidiFileTypes returns the SMF format numbers seq can legally be written
// as: {1} if it has more than one track, else {0, 1}.
func GetMidiFileTypes(seq *sequence.Sequence) []int {
	if len(seq.Tracks()) > 1 {
		return []int{1}
	}
	return []int{0, 1}
}

// Write serializes seq as an SMF byte stream of the given format (0 or 1).
func Write(w io.Writer, seq *sequence.Sequence, fileType int) (int64, error) {
	if fileType != 0 && fileType != 1 {
		return 0, midierr.Invalid("unsupported SMF file type %d", fileType)
	}
	tracks := seq.Tracks()
	if fileType == 0 && len(tracks) > 1 {
		return 0, midierr.Invalid("file type 0 cannot carry %d tracks", len(tracks))
	}

	division, err := encodeDivision(seq.DivisionType(), seq.Resolution())
	if err != nil {
		return 0, err
	}

	var total int64
	n, err := writeHeader(w, fileType, len(tracks), division)
	total += n
	if err != nil {
		return total, err
	}

	for _, t := range tracks {
		n, err := writeTrack(w, t)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func writeHeader(w io.Writer, fileType, numTracks int, division uint16) (int64, error) {
	buf := make([]byte, 0, 14)
	buf = appendUint32(buf, mthdMagic)
	buf = appendUint32(buf, 6)
	buf = appendUint16(buf, uint16(fileType))
	buf = appendUint16(buf, uint16(numTracks))
	buf = appendUint16(buf, division)
	n, err := w.Write(buf)
	return int64(n), err
}

func writeTrack(w io.Writer, t *sequence.Track) (int64, error) {
	var body bytes.Buffer
	var lastTick int64
	lastWrittenIsEOT := false

	events := t.Events()
	for _, e := range events {
		sm, isShort := e.Message.(*midimessage.ShortMessage)
		if isShort && midimessage.IsSystemRealtime(sm.Status()) {
			// System real-time messages are dropped; their delta time
			// folds into whatever event comes next.
			continue
		}

		delta := e.Tick - lastTick
		if delta < 0 {
			delta = 0
		}
		body.Write(midimessage.EncodeVLQ(uint32(delta)))
		lastTick = e.Tick

		switch msg := e.Message.(type) {
		case *midimessage.SysexMessage:
			body.WriteByte(msg.Status())
			data := msg.Data()
			body.Write(midimessage.EncodeVLQ(uint32(len(data))))
			body.Write(data)
		default:
			body.Write(e.Message.Bytes())
		}

		meta, ok := e.Message.(*midimessage.MetaMessage)
		lastWrittenIsEOT = ok && meta.Type() == midimessage.MetaEndOfTrack
	}

	if !lastWrittenIsEOT {
		body.Write(midimessage.EncodeVLQ(0))
		body.WriteByte(midimessage.SystemReset)
		body.WriteByte(midimessage.MetaEndOfTrack)
		body.Write(midimessage.EncodeVLQ(0))
	}

	var total int64
	header := make([]byte, 0, 8)
	header = appendUint32(header, mtrkMagic)
	header = appendUint32(header, uint32(body.Len()))
	n, err := w.Write(header)
	total += int64(n)
	if err != nil {
		return total, err
	}
	n, err = w.Write(body.Bytes())
	total += int64(n)
	return total, err
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendUint16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}
