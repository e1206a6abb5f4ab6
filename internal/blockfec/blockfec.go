// Package blockfec implements the additive batch scheme described by
// SPEC_FULL.md's domain-stack expansion: a fixed group of K source
// payloads plus M parity shards, reconstructed with a classic
// Reed-Solomon decoder rather than the convolutional Cauchy generator
// internal/fec uses for the streaming path. It exists for callers that
// batch packets (a keyframe, a file chunk) instead of streaming them,
// and would rather pay one shot of O(K*M) work up front than carry a
// sliding window.
package blockfec

import (
	"fmt"

	"github.com/klauspost/reedsolomon"

	"github.com/catid/ccat-go/internal/protocol"
)

// BatchCoder encodes and reconstructs one fixed-shape group of shards. It is
// not safe for concurrent use by multiple goroutines without external
// synchronization, matching the rest of this codec's collaborators.
type BatchCoder struct {
	enc          reedsolomon.Encoder
	dataShards   int
	parityShards int
}

// NewBatchCoder builds a batch coder for a group of dataShards source
// payloads protected by parityShards parity shards.
func NewBatchCoder(dataShards, parityShards int) (*BatchCoder, error) {
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, fmt.Errorf("blockfec: %w", err)
	}
	return &BatchCoder{enc: enc, dataShards: dataShards, parityShards: parityShards}, nil
}

// Encode takes exactly c.dataShards source payloads (each may be a
// different length, up to MaxOriginalPayloadBytes) and returns
// c.parityShards parity shards. The returned shards, together with the
// framed source shards Reconstruct expects, all share the padded width
// of the largest input payload.
func (c *BatchCoder) Encode(payloads [][]byte) ([][]byte, error) {
	if len(payloads) != c.dataShards {
		return nil, fmt.Errorf("blockfec: expected %d data shards, got %d", c.dataShards, len(payloads))
	}

	width := 0
	for _, p := range payloads {
		if len(p) > protocol.MaxOriginalPayloadBytes {
			return nil, fmt.Errorf("blockfec: payload length %d exceeds max %d", len(p), protocol.MaxOriginalPayloadBytes)
		}
		if framed := len(p) + protocol.OriginalLengthPrefixBytes; framed > width {
			width = framed
		}
	}

	shards := make([][]byte, c.dataShards+c.parityShards)
	for i, p := range payloads {
		shards[i] = frame(p, width)
	}
	for i := c.dataShards; i < len(shards); i++ {
		shards[i] = make([]byte, width)
	}

	if err := c.enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("blockfec: encode: %w", err)
	}
	return shards[c.dataShards:], nil
}

// Reconstruct fills in missing source shards given whatever data and
// parity shards are present. shards must have length
// dataShards+parityShards, with missing entries set to nil. On success
// it returns the dataShards source payloads in order, with the length
// framing stripped back off.
func (c *BatchCoder) Reconstruct(shards [][]byte) ([][]byte, error) {
	if len(shards) != c.dataShards+c.parityShards {
		return nil, fmt.Errorf("blockfec: expected %d total shards, got %d", c.dataShards+c.parityShards, len(shards))
	}

	if err := c.enc.ReconstructData(shards); err != nil {
		return nil, fmt.Errorf("blockfec: reconstruct: %w", err)
	}

	out := make([][]byte, c.dataShards)
	for i := 0; i < c.dataShards; i++ {
		payload, err := unframe(shards[i])
		if err != nil {
			return nil, fmt.Errorf("blockfec: shard %d: %w", i, err)
		}
		out[i] = payload
	}
	return out, nil
}

// frame prepends a 2-byte big-endian length and zero-pads to width,
// the same length-prefix convention internal/wire uses for streamed
// originals, so a batch shard round-trips through the same rule.
func frame(payload []byte, width int) []byte {
	out := make([]byte, width)
	out[0] = byte(len(payload) >> 8)
	out[1] = byte(len(payload))
	copy(out[protocol.OriginalLengthPrefixBytes:], payload)
	return out
}

func unframe(shard []byte) ([]byte, error) {
	if len(shard) < protocol.OriginalLengthPrefixBytes {
		return nil, fmt.Errorf("shard too short (%d bytes)", len(shard))
	}
	length := int(shard[0])<<8 | int(shard[1])
	end := protocol.OriginalLengthPrefixBytes + length
	if end > len(shard) {
		return nil, fmt.Errorf("length prefix %d exceeds shard capacity %d", length, len(shard)-protocol.OriginalLengthPrefixBytes)
	}
	return shard[protocol.OriginalLengthPrefixBytes:end], nil
}
