package fec

import (
	"fmt"

	"github.com/catid/ccat-go/internal/gf256"
	"github.com/catid/ccat-go/internal/protocol"
	"github.com/catid/ccat-go/internal/wire"
)

// windowElement is one slot of the encoder's ring buffer: an original's
// send time, its logical byte length, and its length-prefixed wire
// payload.
type windowElement struct {
	sendUsec int64
	bytes    int
	data     []byte // length-prefixed, owned by the allocator
	column   uint8  // Cauchy column index assigned at encode time
	valid    bool
}

// Encoder implements the sliding-window, matrix-row/column-cycling
// recovery generator described by spec §4.1.
type Encoder struct {
	alloc Allocator
	clock Clock

	windowPackets int
	windowUsec    int64

	window   [protocol.MaxEncoderWindowSize]windowElement
	nextIdx  int
	count    int
	nextSeq  protocol.Sequence
	nextRow  uint8
	nextCol  uint8
}

// NewEncoder constructs an encoder retaining at most windowPackets
// originals, each aged out after windowMsec milliseconds.
func NewEncoder(alloc Allocator, clock Clock, windowPackets int, windowMsec int64) *Encoder {
	return &Encoder{
		alloc:         alloc,
		clock:         clock,
		windowPackets: windowPackets,
		windowUsec:    windowMsec * 1000,
		nextRow:       1,
	}
}

// ring index helpers; capacity is a power of two so masking replaces
// modulo, per the design notes.
const encoderMask = protocol.MaxEncoderWindowSize - 1

func (e *Encoder) evictExpired() {
	if e.windowUsec <= 0 {
		return
	}
	now := e.clock.NowUsec()
	threshold := now - e.windowUsec
	for e.count > 0 {
		frontIdx := (e.nextIdx - e.count + protocol.MaxEncoderWindowSize) & encoderMask
		front := &e.window[frontIdx]
		if front.sendUsec >= threshold {
			break
		}
		e.freeSlot(front)
		e.count--
	}
}

func (e *Encoder) freeSlot(elt *windowElement) {
	if elt.valid && elt.data != nil {
		e.alloc.Put(elt.data)
	}
	*elt = windowElement{}
}

// EncodeOriginal assigns the next sequence number to data and stores it
// in the ring, evicting aged-out or overflowing originals first.
func (e *Encoder) EncodeOriginal(data []byte, sendUsec int64) (protocol.Result, protocol.Sequence, error) {
	if len(data) == 0 || len(data) > protocol.MaxOriginalPayloadBytes {
		return protocol.InvalidInput, 0, fmt.Errorf("ccat: original payload length %d out of range [1, %d]", len(data), protocol.MaxOriginalPayloadBytes)
	}

	e.evictExpired()
	for e.count >= e.windowPackets {
		frontIdx := (e.nextIdx - e.count + protocol.MaxEncoderWindowSize) & encoderMask
		e.freeSlot(&e.window[frontIdx])
		e.count--
	}

	framed, err := wire.EncodeOriginalPayload(data)
	if err != nil {
		return protocol.InvalidInput, 0, err
	}
	buf := e.alloc.Get(len(framed))
	copy(buf, framed)

	seq := e.nextSeq
	e.nextSeq++

	slot := &e.window[e.nextIdx]
	e.freeSlot(slot)
	*slot = windowElement{
		sendUsec: sendUsec,
		bytes:    len(data),
		data:     buf,
		column:   e.nextCol,
		valid:    true,
	}
	e.nextCol = (e.nextCol + 1) % protocol.MaxRecoveryColumns

	e.nextIdx = (e.nextIdx + 1) & encoderMask
	if e.count < e.windowPackets {
		e.count++
	}

	return protocol.Success, seq, nil
}

// EncodeRecovery folds every currently retained original into a new
// recovery packet covering the whole retained span, using the next
// matrix row in rotation.
func (e *Encoder) EncodeRecovery() (protocol.Result, []byte, protocol.Sequence, int, uint8, error) {
	if e.count == 0 {
		return protocol.Skip, nil, 0, 0, 0, nil
	}

	row := e.nextRow
	e.nextRow = 1 + (e.nextRow % protocol.MaxRecoveryRows)

	baseIdx := (e.nextIdx - e.count + protocol.MaxEncoderWindowSize) & encoderMask

	solutionBytes := 0
	for i := 0; i < e.count; i++ {
		idx := (baseIdx + i) & encoderMask
		if n := len(e.window[idx].data); n > solutionBytes {
			solutionBytes = n
		}
	}

	recovery := make([]byte, solutionBytes)
	for i := 0; i < e.count; i++ {
		idx := (baseIdx + i) & encoderMask
		elt := &e.window[idx]
		coef := gf256.CellCoefficient(row, elt.column)
		gf256.AddScaled(recovery, coef, elt.data)
	}

	seqStart := e.nextSeq.Add(-int64(e.count))
	return protocol.Success, recovery, seqStart, e.count, row, nil
}

// Count reports how many originals are currently retained.
func (e *Encoder) Count() int { return e.count }
