package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxUint64, 1); ok {
		t.Fatalf("expected overflow when adding to MaxUint64")
	}
	if sum, ok := AddOverflowSafe(math.MaxUint64-1, 1); !ok || sum != math.MaxUint64 {
		t.Fatalf("AddOverflowSafe(MaxUint64-1,1)=%d,%v", sum, ok)
	}
}

func TestWindow(t *testing.T) {
	const base, size = 0x8000_0000, 4096

	tests := []struct {
		name    string
		addr, n uint64
		wantOff int
		wantOK  bool
	}{
		{"start", base, 16, 0, true},
		{"inside", base + 0x10, 16, 0x10, true},
		{"exact end", base + size - 8, 8, size - 8, true},
		{"zero length at end", base + size, 0, size, true},
		{"past end", base + size - 8, 9, 0, false},
		{"below base", base - 1, 1, 0, false},
		{"overflow", math.MaxUint64 - 2, 8, 0, false},
	}
	for _, tt := range tests {
		off, ok := Window(base, size, tt.addr, tt.n)
		if ok != tt.wantOK || (ok && off != tt.wantOff) {
			t.Errorf("%s: Window = %d,%v want %d,%v", tt.name, off, ok, tt.wantOff, tt.wantOK)
		}
	}
}

func TestSlice(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}
	if got, ok := Slice(data, 1, 3); !ok || len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Slice returned unexpected result: %v, %v", got, ok)
	}
	if _, ok := Slice(data, 4, 2); ok {
		t.Fatalf("Slice should fail when extending beyond len")
	}
	if _, ok := Slice(data, 2, 3); !ok {
		t.Fatalf("Slice should accept a range ending at len")
	}

	if _, ok := Slice(data, -1, 1); ok {
		t.Fatalf("Slice should reject negative offset")
	}
	if _, ok := Slice(data, 1, -1); ok {
		t.Fatalf("Slice should reject negative length")
	}
}
