package bitops

import "testing"

func TestTrailingOnes(t *testing.T) {
	cases := []struct {
		in   uint64
		want int
	}{
		{0, 0},
		{1, 1},
		{0b111, 3},
		{0x7FFF_FFFF_FFFF_FFFF, 63},
	}
	for _, c := range cases {
		if got := TrailingOnes(c.in); got != c.want {
			t.Errorf("TrailingOnes(%#x) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestFindBitRange64(t *testing.T) {
	if got := FindBitRange64(0, 3); got != 0 {
		t.Errorf("FindBitRange64(0, 3) = %d, want 0", got)
	}
	if got := FindBitRange64(0b111, 3); got != 3 {
		t.Errorf("FindBitRange64(0b111, 3) = %d, want 3", got)
	}
	if got := FindBitRange64(^uint64(0), 1); got != 64 {
		t.Errorf("FindBitRange64(all ones, 1) = %d, want 64", got)
	}
}
