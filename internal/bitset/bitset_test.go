package bitset

import "testing"

func TestNewPanicsOnNonMultipleOf64(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("New(63) did not panic")
		}
	}()
	New(63)
}

func TestSetClearTest(t *testing.T) {
	s := New(128)
	if s.Test(5) {
		t.Fatal("bit 5 set in fresh bitset")
	}
	s.Set(5)
	if !s.Test(5) {
		t.Fatal("bit 5 not set after Set")
	}
	s.Clear(5)
	if s.Test(5) {
		t.Fatal("bit 5 still set after Clear")
	}
}

func TestSetAllClearAll(t *testing.T) {
	s := New(128)
	s.SetAll()
	for i := 0; i < 128; i++ {
		if !s.Test(i) {
			t.Fatalf("bit %d not set after SetAll", i)
		}
	}
	s.ClearAll()
	for i := 0; i < 128; i++ {
		if s.Test(i) {
			t.Fatalf("bit %d still set after ClearAll", i)
		}
	}
}

func TestRangePopcount(t *testing.T) {
	s := New(192)
	for _, i := range []int{0, 63, 64, 65, 127, 130} {
		s.Set(i)
	}

	tests := []struct {
		start, end int
		want       int
	}{
		{0, 192, 6},
		{0, 1, 1},
		{1, 64, 1},   // bit 63 only
		{64, 66, 2},  // bits 64, 65
		{0, 64, 2},   // bits 0, 63
		{128, 192, 1}, // bit 130
		{5, 5, 0},
	}
	for _, tt := range tests {
		if got := s.RangePopcount(tt.start, tt.end); got != tt.want {
			t.Errorf("RangePopcount(%d,%d) = %d, want %d", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestFindNextSet(t *testing.T) {
	s := New(128)
	s.Set(70)
	if got := s.FindNextSet(0); got != 70 {
		t.Errorf("FindNextSet(0) = %d, want 70", got)
	}
	if got := s.FindNextSet(70); got != 70 {
		t.Errorf("FindNextSet(70) = %d, want 70", got)
	}
	if got := s.FindNextSet(71); got != -1 {
		t.Errorf("FindNextSet(71) = %d, want -1", got)
	}
}

func TestShiftWords(t *testing.T) {
	s := New(192)
	s.Set(10)  // word 0
	s.Set(70)  // word 1
	s.Set(150) // word 2

	s.ShiftWords(1)

	if s.Test(10) {
		t.Error("bit 10 (now shifted out) should be gone")
	}
	if !s.Test(6) { // bit 70 - 64
		t.Error("bit 70 should now be at offset 6")
	}
	if !s.Test(86) { // bit 150 - 64
		t.Error("bit 150 should now be at offset 86")
	}
	for i := 128; i < 192; i++ {
		if !s.Test(i) {
			t.Errorf("newly exposed high bit %d should be set (treated as lost)", i)
		}
	}
}

func TestShiftWordsBeyondCapacitySetsAll(t *testing.T) {
	s := New(128)
	s.ShiftWords(5)
	for i := 0; i < 128; i++ {
		if !s.Test(i) {
			t.Errorf("bit %d should be set after an overflowing shift", i)
		}
	}
}
