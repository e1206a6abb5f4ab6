// Package wire implements the codec's two stable wire conventions: the
// mandatory 2-byte length-prefix framing of an original's payload within
// a window/decoder slot, and an optional varint encoding of recovery
// metadata for transports that want the codec to own that framing too.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/catid/ccat-go/internal/protocol"
)

// EncodeOriginalPayload prepends data with a 2-byte big-endian length
// field, per the codec's decoder-visible wire format. data must be
// nonempty and no longer than 65535 bytes.
func EncodeOriginalPayload(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data) > protocol.MaxOriginalPayloadBytes {
		return nil, fmt.Errorf("wire: payload length %d out of range [1, %d]", len(data), protocol.MaxOriginalPayloadBytes)
	}
	out := make([]byte, protocol.OriginalLengthPrefixBytes+len(data))
	binary.BigEndian.PutUint16(out, uint16(len(data)))
	copy(out[protocol.OriginalLengthPrefixBytes:], data)
	return out, nil
}

// DecodeOriginalPayload strips and validates the 2-byte length prefix
// from a (possibly zero-padded) slot buffer, returning the user payload.
func DecodeOriginalPayload(framed []byte) ([]byte, error) {
	if len(framed) < protocol.OriginalLengthPrefixBytes {
		return nil, fmt.Errorf("wire: framed payload too short (%d bytes)", len(framed))
	}
	length := binary.BigEndian.Uint16(framed)
	end := protocol.OriginalLengthPrefixBytes + int(length)
	if end > len(framed) {
		return nil, fmt.Errorf("wire: length prefix %d exceeds available payload bytes %d", length, len(framed)-protocol.OriginalLengthPrefixBytes)
	}
	return framed[protocol.OriginalLengthPrefixBytes:end], nil
}
