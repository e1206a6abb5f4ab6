package wire

import (
	"bytes"
	"fmt"

	"github.com/quic-go/quic-go/quicvarint"
)

// Header is the out-of-band metadata a recovery packet must travel with:
// the sequence span it covers and its matrix row. Spec §6 leaves framing
// of this metadata to the transport; EncodeHeader/DecodeHeader are an
// optional convenience for transports that don't already have a place
// to put it, built on the same varint primitive the underlying QUIC FEC
// frames (RepairFrame, SourceSymbolFrame) use for their own headers.
type Header struct {
	SequenceStart uint64
	Count         uint32
	Row           uint8
}

// EncodeHeader appends h's varint encoding to b.
func EncodeHeader(b []byte, h Header) []byte {
	b = quicvarint.Append(b, h.SequenceStart)
	b = quicvarint.Append(b, uint64(h.Count))
	b = quicvarint.Append(b, uint64(h.Row))
	return b
}

// HeaderLen returns the encoded length of h in bytes.
func HeaderLen(h Header) int {
	return int(quicvarint.Len(h.SequenceStart) + quicvarint.Len(uint64(h.Count)) + quicvarint.Len(uint64(h.Row)))
}

// DecodeHeader reads a Header from the front of r.
func DecodeHeader(r *bytes.Reader) (Header, error) {
	seqStart, err := quicvarint.Read(r)
	if err != nil {
		return Header{}, fmt.Errorf("wire: reading sequence start: %w", err)
	}
	count, err := quicvarint.Read(r)
	if err != nil {
		return Header{}, fmt.Errorf("wire: reading count: %w", err)
	}
	row, err := quicvarint.Read(r)
	if err != nil {
		return Header{}, fmt.Errorf("wire: reading row: %w", err)
	}
	if count > 1<<32-1 || row > 1<<8-1 {
		return Header{}, fmt.Errorf("wire: header field out of range (count=%d row=%d)", count, row)
	}
	return Header{SequenceStart: seqStart, Count: uint32(count), Row: uint8(row)}, nil
}
