// Package ccat implements a convolutional Cauchy-matrix erasure code
// for real-time packet streams: a sender interleaves recovery packets
// with originals; a receiver reconstructs whatever originals it lost
// from whichever recovery packets arrive, within a bounded sliding
// window.
package ccat

import (
	"fmt"

	"github.com/catid/ccat-go/internal/blockfec"
	"github.com/catid/ccat-go/internal/fec"
	"github.com/catid/ccat-go/internal/protocol"
)

// Session owns one encoder, one decoder, and the allocator they share.
// Every entry point must be called from a single goroutine at a time —
// the four entry points are externally serialized by the caller, per
// design; reentrant or concurrent use is detected and panics rather
// than silently corrupting state.
type Session struct {
	settings Settings
	alloc    fec.Allocator
	encoder  *fec.Encoder
	decoder  *fec.Decoder

	inCall bool
}

// Create validates settings and returns a ready-to-use Session.
func Create(settings Settings) (*Session, protocol.Result, error) {
	if err := settings.validate(); err != nil {
		return nil, protocol.InvalidInput, err
	}

	clock := settings.Clock
	if clock == nil {
		clock = fec.SystemClock{}
	}

	s := &Session{
		settings: settings,
		alloc:    fec.NewPoolAllocator(),
	}
	s.encoder = fec.NewEncoder(s.alloc, clock, settings.WindowPackets, settings.WindowMsec)
	s.decoder = fec.NewDecoder(s.alloc, s.deliverRecovered, nil, settings.DecoderWindowPackets)
	return s, protocol.Success, nil
}

// enter guards against reentrant or concurrent calls into the four
// entry points — a caller that violates the single-threaded contract
// gets a panic, not silent corruption.
func (s *Session) enter() func() {
	if s.inCall {
		panic(ErrReentrant)
	}
	s.inCall = true
	return func() { s.inCall = false }
}

func (s *Session) deliverRecovered(seq protocol.Sequence, data []byte, _ any) {
	if s.settings.OnRecoveredData != nil {
		s.settings.OnRecoveredData(uint64(seq), data, s.settings.AppContextPtr)
	}
}

// EncodeOriginal assigns the next sequence number to data and returns
// it via sequence.
func (s *Session) EncodeOriginal(data []byte, sendUsec int64) (result protocol.Result, sequence uint64, err error) {
	defer s.enter()()
	res, seq, err := s.encoder.EncodeOriginal(data, sendUsec)
	return res, uint64(seq), err
}

// EncodeRecovery emits a recovery packet covering every original the
// encoder currently retains, or Skip if it has none.
func (s *Session) EncodeRecovery() (result protocol.Result, data []byte, sequenceStart uint64, count int, row uint8, err error) {
	defer s.enter()()
	res, recovery, seqStart, n, r, err := s.encoder.EncodeRecovery()
	return res, recovery, uint64(seqStart), n, r, err
}

// DecodeOriginal ingests an original arriving at sequence.
func (s *Session) DecodeOriginal(sequence uint64, data []byte) (protocol.Result, error) {
	defer s.enter()()
	return s.decoder.DecodeOriginal(protocol.Sequence(sequence), data)
}

// DecodeRecovery ingests a recovery packet covering [sequenceStart,
// sequenceStart+count) at matrix row row.
func (s *Session) DecodeRecovery(sequenceStart uint64, count int, row uint8, data []byte) (protocol.Result, error) {
	defer s.enter()()
	return s.decoder.DecodeRecovery(protocol.Sequence(sequenceStart), count, row, data)
}

// EncodeBatch is the additive, non-streaming companion to the
// convolutional path: it protects a fully-buffered group of payloads
// with a classic (dataShards, parityShards) Reed-Solomon code instead
// of a sliding window. It never touches streaming state.
func (s *Session) EncodeBatch(dataShards, parityShards int, payloads [][]byte) ([][]byte, error) {
	coder, err := blockfec.NewBatchCoder(dataShards, parityShards)
	if err != nil {
		return nil, fmt.Errorf("ccat: %w", err)
	}
	return coder.Encode(payloads)
}

// DecodeBatch reconstructs missing shards for a group encoded by
// EncodeBatch. shards must have length dataShards+parityShards, with
// missing entries set to nil.
func (s *Session) DecodeBatch(dataShards, parityShards int, shards [][]byte) ([][]byte, error) {
	coder, err := blockfec.NewBatchCoder(dataShards, parityShards)
	if err != nil {
		return nil, fmt.Errorf("ccat: %w", err)
	}
	return coder.Reconstruct(shards)
}
