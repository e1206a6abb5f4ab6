package protocol

// ColumnIndexOf returns the small Cauchy column index assigned to the
// original at the given sequence number.
//
// The encoder's NextColumn counter advances by exactly one for every
// accepted original, in lockstep with NextSequence, and both start at
// zero — so an original's column index is fully determined by its
// sequence number modulo MaxRecoveryColumns. This lets the decoder
// recover a column assignment for any sequence number without the
// encoder needing to transmit it out of band.
func ColumnIndexOf(seq Sequence) uint8 {
	return uint8(uint64(seq) % MaxRecoveryColumns)
}
