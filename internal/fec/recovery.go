package fec

import "github.com/catid/ccat-go/internal/protocol"

// recoveryPacket is an intrusive doubly-linked list node, matching the
// original design's RecoveryPacket: the list keeps ascending order by
// SequenceStart (ties broken by SequenceEnd; packets with an identical
// span but different rows stay in arrival order) so the solver can walk
// it from the oldest span forward looking for a solvable span. It is not
// scanned from the latest recovery backwards.
type recoveryPacket struct {
	next, prev *recoveryPacket

	data          []byte
	sequenceStart protocol.Sequence
	sequenceEnd   protocol.Sequence
	row           uint8
}

// recoveryList is the sorted FIFO-by-sequence queue of outstanding
// recovery packets described by spec §3/§9.
type recoveryList struct {
	first, last *recoveryPacket
	count       int
}

func (l *recoveryList) empty() bool { return l.first == nil }

// insert places p into the list in sorted order. It returns false
// without inserting if an existing entry has the identical
// (row, sequenceStart, sequenceEnd) — spec.md's Open Question resolves
// such a duplicate as redundant and drops the second copy.
func (l *recoveryList) insert(p *recoveryPacket) bool {
	if l.first == nil {
		l.first, l.last = p, p
		l.count++
		return true
	}

	cur := l.first
	for cur != nil {
		if cur.sequenceStart == p.sequenceStart && cur.sequenceEnd == p.sequenceEnd && cur.row == p.row {
			return false
		}
		if p.sequenceStart.Less(cur.sequenceStart) ||
			(p.sequenceStart == cur.sequenceStart && p.sequenceEnd.Less(cur.sequenceEnd)) {
			l.insertBefore(p, cur)
			return true
		}
		cur = cur.next
	}
	// p sorts after everything currently in the list.
	p.prev = l.last
	l.last.next = p
	l.last = p
	l.count++
	return true
}

func (l *recoveryList) insertBefore(p, cur *recoveryPacket) {
	p.next = cur
	p.prev = cur.prev
	if cur.prev != nil {
		cur.prev.next = p
	} else {
		l.first = p
	}
	cur.prev = p
	l.count++
}

func (l *recoveryList) remove(p *recoveryPacket) {
	if p.prev != nil {
		p.prev.next = p.next
	} else {
		l.first = p.next
	}
	if p.next != nil {
		p.next.prev = p.prev
	} else {
		l.last = p.prev
	}
	p.next, p.prev = nil, nil
	l.count--
}

func (l *recoveryList) clear() {
	l.first, l.last = nil, nil
	l.count = 0
}
