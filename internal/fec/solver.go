package fec

import (
	"github.com/catid/ccat-go/internal/gf256"
	"github.com/catid/ccat-go/internal/protocol"
)

// solverState holds the row-accumulator slice trySolveFrom grows while
// searching for a balanced span, reused across calls so a busy decoder
// isn't allocating a fresh backing array on every recovery packet.
type solverState struct {
	rows   []*recoveryPacket
	losses []protocol.Sequence
}

// findSolutions scans the recovery list for the smallest span whose
// recovery rows exactly balance its outstanding losses — an N-row,
// N-column linear system with a unique solution — and solves every
// such span it can find, per spec §4.4's FindSolutions/PlanSolution/
// PivotedGaussianElimination pipeline. It never fails outright: a span
// that can't yet be balanced is simply left on the list for a later
// recovery packet to complete.
func (d *Decoder) findSolutions() protocol.Result {
	for {
		progressed := false
		for start := d.recoveries.first; start != nil; start = start.next {
			if d.trySolveFrom(start) {
				progressed = true
				break // the list mutated under us; rescan from the head
			}
		}
		if !progressed {
			break
		}
	}
	return protocol.Success
}

// trySolveFrom attempts to grow a balanced system anchored at start,
// pulling in later recovery packets (in ascending span order) until the
// number of accumulated rows equals the number of distinct losses their
// union covers, then solves it. Returns true if it solved and removed a
// system from the list.
func (d *Decoder) trySolveFrom(start *recoveryPacket) bool {
	rows := d.solver.rows[:0]
	rows = append(rows, start)
	unionStart := start.sequenceStart
	unionEnd := start.sequenceEnd
	cur := start.next

	for {
		lossCount := d.getLostInRange(unionStart, unionEnd)
		switch {
		case lossCount == 0:
			return false
		case lossCount > protocol.MaxRecoveryRows || lossCount > protocol.MaxRecoveryColumns:
			return false
		case lossCount == len(rows):
			return d.solveSystem(rows, unionStart, unionEnd)
		case lossCount < len(rows):
			return false
		}

		if cur == nil {
			return false
		}
		rows = append(rows, cur)
		if cur.sequenceEnd.Delta(unionEnd) > 0 {
			unionEnd = cur.sequenceEnd
		}
		cur = cur.next
	}
}

// solveSystem builds the N-equation, N-unknown Cauchy submatrix for
// rows against the losses in [unionStart, unionEnd), reduces every row
// to its residual (recovery data with every known original's
// contribution already subtracted), and runs pivoted Gaussian
// elimination. On success it installs every recovered original and
// removes the consumed recovery packets from the list.
func (d *Decoder) solveSystem(rows []*recoveryPacket, unionStart, unionEnd protocol.Sequence) bool {
	n := len(rows)

	losses := d.solver.losses[:0]
	for seq := unionStart; seq.Less(unionEnd); seq = seq.Add(1) {
		if d.lost.Test(d.offsetOf(seq)) {
			losses = append(losses, seq)
		}
	}
	if len(losses) != n {
		return false
	}

	// Rows over different spans can carry different lengths; every
	// residual is zero-padded to the longest so elimination never
	// truncates a row.
	solutionBytes := 0
	for _, r := range rows {
		if len(r.data) > solutionBytes {
			solutionBytes = len(r.data)
		}
	}

	matrix := make([][]byte, n)
	residual := make([][]byte, n)
	for i, r := range rows {
		matrix[i] = make([]byte, n)
		for j, seq := range losses {
			// A row's encoded value never summed a term for an original
			// outside its own span, so its coefficient there is zero —
			// not the Cauchy cell value, which is only meaningful for
			// columns the row actually covers.
			if seq.Less(r.sequenceStart) || !seq.Less(r.sequenceEnd) {
				continue
			}
			matrix[i][j] = gf256.CellCoefficient(r.row, protocol.ColumnIndexOf(seq))
		}

		residual[i] = make([]byte, solutionBytes)
		copy(residual[i], r.data)
		for seq := r.sequenceStart; seq.Less(r.sequenceEnd); seq = seq.Add(1) {
			offset := d.offsetOf(seq)
			if d.lost.Test(offset) {
				continue
			}
			slot := d.getPacket(offset)
			coef := gf256.CellCoefficient(r.row, protocol.ColumnIndexOf(seq))
			gf256.AddScaled(residual[i], coef, slot.data)
		}
	}

	if !pivotedGaussianElimination(matrix, residual) {
		d.failureSequence = losses[0]
		d.largeRecoveryFailures++
		return false
	}

	for _, r := range rows {
		d.releaseRecovery(r)
	}
	for j, seq := range losses {
		_ = d.installRecovered(seq, residual[j])
	}
	d.largeRecoverySuccesses++
	return true
}

// pivotedGaussianElimination reduces the coefficient matrix to the
// identity via partial pivoting, applying every row operation to the
// parallel residual vectors so that residual[i] ends up holding the
// solved value for losses[i]. Returns false if the matrix is singular
// (a duplicate row or column coefficient makes the span unsolvable as
// accumulated); the caller leaves the recovery packets on the list.
func pivotedGaussianElimination(matrix [][]byte, residual [][]byte) bool {
	n := len(matrix)
	for col := 0; col < n; col++ {
		pivot := -1
		for r := col; r < n; r++ {
			if matrix[r][col] != 0 {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			return false
		}
		if pivot != col {
			matrix[pivot], matrix[col] = matrix[col], matrix[pivot]
			residual[pivot], residual[col] = residual[col], residual[pivot]
		}

		if pivotVal := matrix[col][col]; pivotVal != 1 {
			gf256.ScaleDiv(matrix[col], pivotVal)
			gf256.ScaleDiv(residual[col], pivotVal)
		}

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := matrix[r][col]
			if factor == 0 {
				continue
			}
			gf256.AddScaled(matrix[r], factor, matrix[col])
			gf256.AddScaled(residual[r], factor, residual[col])
		}
	}
	return true
}
