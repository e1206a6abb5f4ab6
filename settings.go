package ccat

import (
	"fmt"

	"github.com/catid/ccat-go/internal/fec"
	"github.com/catid/ccat-go/internal/protocol"
)

// OnRecoveredData is invoked synchronously, in ascending sequence order,
// whenever the decoder reconstructs an original.
type OnRecoveredData func(sequence uint64, data []byte, ctx any)

// Settings configures a Session. It is immutable once passed to Create.
type Settings struct {
	// WindowMsec bounds the age of an original the encoder retains.
	// Zero disables age-based eviction; only WindowPackets applies.
	WindowMsec int64

	// WindowPackets bounds the count of originals the encoder retains.
	// Must be in (0, MaxEncoderWindowSize].
	WindowPackets int

	// DecoderWindowPackets bounds how many sequence numbers ahead of
	// SequenceBase the decoder will track. Must be in
	// (0, DecoderWindowSize]; defaults to DecoderWindowSize if zero.
	DecoderWindowPackets int

	// OnRecoveredData fires when the decoder reconstructs an original.
	// Required.
	OnRecoveredData OnRecoveredData

	// AppContextPtr is passed through to OnRecoveredData unchanged.
	AppContextPtr any

	// Clock supplies the encoder's notion of "now" for age-based
	// eviction. Defaults to fec.SystemClock{}.
	Clock fec.Clock
}

func (s Settings) validate() error {
	if s.WindowPackets <= 0 || s.WindowPackets > protocol.MaxEncoderWindowSize {
		return fmt.Errorf("%w: WindowPackets %d out of range (0, %d]", ErrInvalidInput, s.WindowPackets, protocol.MaxEncoderWindowSize)
	}
	if s.DecoderWindowPackets < 0 || s.DecoderWindowPackets > protocol.DecoderWindowSize {
		return fmt.Errorf("%w: DecoderWindowPackets %d out of range [0, %d]", ErrInvalidInput, s.DecoderWindowPackets, protocol.DecoderWindowSize)
	}
	if s.OnRecoveredData == nil {
		return fmt.Errorf("%w: OnRecoveredData is required", ErrInvalidInput)
	}
	return nil
}
