package fec

import (
	"fmt"

	"github.com/catid/ccat-go/internal/bitset"
	"github.com/catid/ccat-go/internal/gf256"
	"github.com/catid/ccat-go/internal/protocol"
	"github.com/catid/ccat-go/internal/wire"
)

// OnRecovered is invoked synchronously, in ascending sequence order,
// whenever the decoder reconstructs an original.
type OnRecovered func(seq protocol.Sequence, data []byte, ctx any)

// originalSlot is one decoder ring slot. A nil data means the slot is
// empty — lost, or not yet observed — which always agrees with the
// corresponding loss bit (invariant 6).
type originalSlot struct {
	data []byte
}

// expandResult mirrors spec §4.2's Expand enum.
type expandResult int

const (
	expandInWindow expandResult = iota
	expandOutOfWindow
	expandEvacuated
	expandShifted
)

// Decoder implements the sliding-window loss tracker, recovery-packet
// list, and opportunistic solver of spec §4.2-§4.4.
type Decoder struct {
	alloc Allocator
	ctx   any
	onRec OnRecovered

	lost            *bitset.Set
	packets         [protocol.DecoderWindowSize]originalSlot
	packetsRotation int
	windowPackets   int

	sequenceBase protocol.Sequence
	sequenceEnd  protocol.Sequence

	recoveries recoveryList

	failureSequence        protocol.Sequence
	largeRecoverySuccesses uint64
	largeRecoveryFailures  uint64

	solver solverState
}

// NewDecoder constructs a decoder with every slot initially marked lost,
// matching the original design's constructor. windowPackets bounds how
// many sequence numbers ahead of SequenceBase the decoder will track;
// zero or a value above protocol.DecoderWindowSize falls back to the
// full compile-time capacity.
func NewDecoder(alloc Allocator, onRec OnRecovered, ctx any, windowPackets int) *Decoder {
	if windowPackets <= 0 || windowPackets > protocol.DecoderWindowSize {
		windowPackets = protocol.DecoderWindowSize
	}
	d := &Decoder{
		alloc:         alloc,
		ctx:           ctx,
		onRec:         onRec,
		lost:          bitset.New(protocol.DecoderWindowSize),
		windowPackets: windowPackets,
	}
	d.lost.SetAll()
	return d
}

const decoderMask = protocol.DecoderWindowSize - 1

// getPacket returns the slot for the given 0-based window offset,
// applying the ring rotation.
func (d *Decoder) getPacket(offset int) *originalSlot {
	idx := (offset + d.packetsRotation) & decoderMask
	return &d.packets[idx]
}

func (d *Decoder) freeSlot(offset int) {
	slot := d.getPacket(offset)
	if slot.data != nil {
		d.alloc.Put(slot.data)
		slot.data = nil
	}
}

// expandWindow grows the window to include [seq, seq+count), per
// spec §4.2.
func (d *Decoder) expandWindow(seq protocol.Sequence, count int) expandResult {
	if seq.Less(d.sequenceBase) {
		return expandOutOfWindow
	}

	newEnd := seq.Add(int64(count))
	if newEnd.Delta(d.sequenceBase) <= int64(d.windowPackets) {
		if newEnd.Delta(d.sequenceEnd) > 0 {
			d.sequenceEnd = newEnd
		}
		return expandInWindow
	}

	// If the requested range doesn't overlap the current window at all,
	// there is nothing worth preserving: clear and rebase.
	if seq.Delta(d.sequenceEnd) >= 0 {
		d.evacuate(seq, newEnd)
		return expandEvacuated
	}

	// Otherwise shift forward by the smallest whole number of 64-bit
	// words that makes the new range fit.
	overflow := newEnd.Delta(d.sequenceBase) - int64(d.windowPackets)
	words := (overflow + 63) / 64
	d.shift(int(words) * 64)
	if newEnd.Delta(d.sequenceEnd) > 0 {
		d.sequenceEnd = newEnd
	}
	return expandShifted
}

func (d *Decoder) evacuate(seq, newEnd protocol.Sequence) {
	for i := 0; i < protocol.DecoderWindowSize; i++ {
		d.freeSlot(i)
	}
	d.lost.SetAll()
	d.sequenceBase = seq
	d.sequenceEnd = newEnd
	for cur := d.recoveries.first; cur != nil; cur = cur.next {
		if cur.data != nil {
			d.alloc.Put(cur.data)
		}
	}
	d.recoveries.clear()
}

func (d *Decoder) shift(n int) {
	if n <= 0 {
		return
	}
	if n >= protocol.DecoderWindowSize {
		n = protocol.DecoderWindowSize
	}
	for i := 0; i < n; i++ {
		d.freeSlot(i)
	}
	d.packetsRotation = (d.packetsRotation + n) & decoderMask
	d.lost.ShiftWords(n / 64)
	d.sequenceBase = d.sequenceBase.Add(int64(n))
	d.cleanupRecoveryList()
}

// cleanupRecoveryList drops every recovery from the head whose span has
// fallen entirely below SequenceBase.
func (d *Decoder) cleanupRecoveryList() {
	for cur := d.recoveries.first; cur != nil; {
		next := cur.next
		if cur.sequenceEnd.Delta(d.sequenceBase) <= 0 {
			d.releaseRecovery(cur)
		} else {
			break
		}
		cur = next
	}
}

func (d *Decoder) offsetOf(seq protocol.Sequence) int {
	return int(seq.Delta(d.sequenceBase))
}

// DecodeOriginal stores an arriving original and opportunistically
// solves any recovery it completes, per spec §4.2.
func (d *Decoder) DecodeOriginal(seq protocol.Sequence, data []byte) (protocol.Result, error) {
	if len(data) == 0 {
		return protocol.InvalidInput, fmt.Errorf("ccat: empty original payload at seq %d", seq)
	}

	switch d.expandWindow(seq, 1) {
	case expandOutOfWindow:
		return protocol.Success, nil
	}

	offset := d.offsetOf(seq)
	slot := d.getPacket(offset)
	if slot.data == nil {
		framed, err := wire.EncodeOriginalPayload(data)
		if err != nil {
			return protocol.InvalidInput, err
		}
		buf := d.alloc.Get(len(framed))
		copy(buf, framed)
		slot.data = buf
		d.lost.Clear(offset)
	}
	if seq.Add(1).Delta(d.sequenceEnd) > 0 {
		d.sequenceEnd = seq.Add(1)
	}

	return d.findSolutionsContaining(seq), nil
}

// getLostInRange counts losses in [start, end) — both bounds relative
// to SequenceBase, as required by spec §4.3 step 2.
func (d *Decoder) getLostInRange(start, end protocol.Sequence) int {
	lo := d.offsetOf(start)
	hi := d.offsetOf(end)
	return d.lost.RangePopcount(lo, hi)
}

// DecodeRecovery ingests a recovery packet, taking the single-loss fast
// path when possible and otherwise inserting it into the sorted list
// and invoking the solver, per spec §4.3.
func (d *Decoder) DecodeRecovery(seqStart protocol.Sequence, count int, row uint8, data []byte) (protocol.Result, error) {
	if count <= 0 || row < 1 || row > protocol.MaxRecoveryRows {
		return protocol.InvalidInput, fmt.Errorf("ccat: invalid recovery header (count=%d row=%d)", count, row)
	}

	if d.expandWindow(seqStart, count) == expandOutOfWindow {
		return protocol.Success, nil
	}

	seqEnd := seqStart.Add(int64(count))
	losses := d.getLostInRange(seqStart, seqEnd)
	if losses == 0 {
		return protocol.Success, nil
	}

	if losses == 1 {
		if err := d.solveLostOne(seqStart, seqEnd, row, data); err != nil {
			return protocol.OutOfMemory, err
		}
		return protocol.Success, nil
	}

	buf := d.alloc.Get(len(data))
	copy(buf, data)
	p := &recoveryPacket{
		data:          buf,
		sequenceStart: seqStart,
		sequenceEnd:   seqEnd,
		row:           row,
	}
	if !d.recoveries.insert(p) {
		d.alloc.Put(buf)
		return protocol.Success, nil // redundant (row, span) already on the list
	}
	return d.findSolutions(), nil
}

// releaseRecovery unlinks p from the recovery list and returns its
// buffer to the allocator, matching the slot frees that already happen
// in freeSlot/evacuate/shift.
func (d *Decoder) releaseRecovery(p *recoveryPacket) {
	d.recoveries.remove(p)
	if p.data != nil {
		d.alloc.Put(p.data)
		p.data = nil
	}
}

// solveLostOne is the fast path: XOR every known original in the span,
// scaled by its Cauchy cell coefficient, into the recovery buffer; the
// residual is the one lost original.
func (d *Decoder) solveLostOne(seqStart, seqEnd protocol.Sequence, row uint8, data []byte) error {
	residual := make([]byte, len(data))
	copy(residual, data)

	var lostSeq protocol.Sequence
	found := false
	for seq := seqStart; seq.Less(seqEnd); seq = seq.Add(1) {
		offset := d.offsetOf(seq)
		if d.lost.Test(offset) {
			lostSeq = seq
			found = true
		} else {
			slot := d.getPacket(offset)
			coef := gf256.CellCoefficient(row, protocol.ColumnIndexOf(seq))
			gf256.AddScaled(residual, coef, slot.data)
		}
	}
	if !found {
		return nil
	}

	// Undo the lost original's own coefficient scaling: residual
	// currently holds coef_lost * original_lost, so divide it out.
	coef := gf256.CellCoefficient(row, protocol.ColumnIndexOf(lostSeq))
	if coef != 0 && coef != 1 {
		gf256.ScaleDiv(residual, coef)
	}

	return d.installRecovered(lostSeq, residual)
}

// installRecovered strips and validates the length prefix, stores the
// recovered original, clears its loss bit, and fires the callback.
func (d *Decoder) installRecovered(seq protocol.Sequence, framed []byte) error {
	payload, err := wire.DecodeOriginalPayload(framed)
	if err != nil {
		// Inconsistent length prefix: treated as a failed
		// reconstruction per spec §4.4, not propagated as an error.
		d.failureSequence = seq
		d.largeRecoveryFailures++
		return nil
	}

	offset := d.offsetOf(seq)
	slot := d.getPacket(offset)
	if slot.data != nil {
		return nil // already delivered
	}

	buf := d.alloc.Get(len(framed))
	copy(buf, framed)
	slot.data = buf
	d.lost.Clear(offset)

	if d.onRec != nil {
		d.onRec(seq, payload, d.ctx)
	}
	return nil
}

// findSolutionsContaining checks whether any recovery on the list whose
// span includes seq now covers exactly one remaining loss, and if so
// solves it via the fast path before falling back to the general solver.
func (d *Decoder) findSolutionsContaining(seq protocol.Sequence) protocol.Result {
	cur := d.recoveries.first
	for cur != nil {
		next := cur.next
		if !seq.Less(cur.sequenceStart) && seq.Less(cur.sequenceEnd) &&
			d.getLostInRange(cur.sequenceStart, cur.sequenceEnd) == 1 {
			_ = d.solveLostOne(cur.sequenceStart, cur.sequenceEnd, cur.row, cur.data)
			d.releaseRecovery(cur)
		}
		cur = next
	}
	return d.findSolutions()
}
