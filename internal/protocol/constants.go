package protocol

// MaxEncoderWindowSize bounds the encoder's ring buffer capacity. Must be
// a power of two so ring index arithmetic can use masking instead of
// modulo.
const MaxEncoderWindowSize = 256

// DecoderWindowSize bounds the decoder's ring buffer and loss bitset
// capacity. Must be a multiple of 64 (one bitset word) and a power of
// two for the same masking trick as the encoder ring.
const DecoderWindowSize = 512

// MaxRecoveryRows is the largest matrix row index (1-based) the Cauchy
// generator will produce, and the largest number of simultaneous losses
// the solver can resolve in one submatrix.
const MaxRecoveryRows = 32

// MaxRecoveryColumns bounds the solver submatrix's column count, i.e.
// the number of distinct lost sequence numbers considered at once.
const MaxRecoveryColumns = 32

// MaxOriginalPayloadBytes is the largest user payload EncodeOriginal will
// accept: the wire length prefix is 16 bits.
const MaxOriginalPayloadBytes = 1<<16 - 1

// OriginalLengthPrefixBytes is the width of the big-endian length prefix
// stored ahead of every original's payload in window/slot storage.
const OriginalLengthPrefixBytes = 2
