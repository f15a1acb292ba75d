package core

import "testing"

func TestFloat16RoundTrip(t *testing.T) {
	for _, f := range []float32{0, 0.5, 1, -2, 65504, 0.25} {
		if got := Float32ToFloat16(f).Float32(); got != f {
			t.Fatalf("float16 round trip of %v = %v", f, got)
		}
	}
}

func TestFloat16Rounds(t *testing.T) {
	// 1/3 is not representable; the nearest half is 0.333251953125.
	if got := Float32ToFloat16(1.0 / 3).Float32(); got != 0.333251953125 {
		t.Fatalf("float16(1/3) = %v", got)
	}
}

func TestBFloat16(t *testing.T) {
	if got := Float32ToBFloat16(1.5).Float32(); got != 1.5 {
		t.Fatalf("bfloat16(1.5) = %v", got)
	}
	if Float32.Size() != 4 || Float16.Size() != 2 || Float16.String() != "float16" {
		t.Fatal("unexpected dtype metadata")
	}
}
