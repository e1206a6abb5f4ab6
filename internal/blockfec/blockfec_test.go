package blockfec

import (
	"bytes"
	"testing"
)

func TestEncodeReconstructRoundTrip(t *testing.T) {
	const dataShards, parityShards = 4, 2

	payloads := [][]byte{
		[]byte("alpha"),
		[]byte("beta"),
		[]byte("gamma delta"),
		[]byte("e"),
	}

	coder, err := NewBatchCoder(dataShards, parityShards)
	if err != nil {
		t.Fatalf("NewBatchCoder: %v", err)
	}

	parity, err := coder.Encode(payloads)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(parity) != parityShards {
		t.Fatalf("got %d parity shards, want %d", len(parity), parityShards)
	}

	width := 0
	for _, p := range payloads {
		if framed := len(p) + 2; framed > width {
			width = framed
		}
	}

	allShards := make([][]byte, dataShards+parityShards)
	for i, p := range payloads {
		allShards[i] = frame(p, width)
	}
	copy(allShards[dataShards:], parity)

	// Drop exactly parityShards shards, the maximum recoverable count.
	allShards[0] = nil
	allShards[2] = nil

	got, err := coder.Reconstruct(allShards)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	for i, want := range payloads {
		if !bytes.Equal(got[i], want) {
			t.Errorf("shard %d = %q, want %q", i, got[i], want)
		}
	}
}

func TestEncodeRejectsWrongShardCount(t *testing.T) {
	coder, err := NewBatchCoder(3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := coder.Encode([][]byte{{1}, {2}}); err == nil {
		t.Fatal("expected an error for a mismatched shard count")
	}
}

func TestEncodeRejectsOversizePayload(t *testing.T) {
	coder, err := NewBatchCoder(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := coder.Encode([][]byte{make([]byte, 1<<16)}); err == nil {
		t.Fatal("expected an error for an oversize payload")
	}
}
