package fec

import "time"

// Clock supplies the "now" used by the encoder's age-based eviction. It
// exists as an interface, rather than a direct time.Now() call, purely
// so eviction can be driven deterministically in tests without a real
// sleep — the same reason the teacher wires mock collaborators into its
// own tests instead of touching a live clock or network.
type Clock interface {
	NowUsec() int64
}

// SystemClock is the default Clock, backed by the real wall clock.
type SystemClock struct{}

func (SystemClock) NowUsec() int64 {
	return time.Now().UnixMicro()
}
