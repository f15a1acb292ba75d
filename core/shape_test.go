package core

import (
	"errors"
	"testing"
)

func TestContiguousStrides(t *testing.T) {
	shape := Shape{2, 3, 4}
	strides := ContiguousStrides(shape, 4)
	if len(strides) != 3 || strides[0] != 48 || strides[1] != 16 || strides[2] != 4 {
		t.Fatalf("ContiguousStrides([2,3,4], 4) = %v, want [48, 16, 4]", strides)
	}
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b Shape
		want Shape
		err  bool
	}{
		{Shape{2, 3}, Shape{1, 3}, Shape{2, 3}, false},
		{Shape{2}, Shape{1}, Shape{2}, false},
		{Shape{4, 1}, Shape{3}, Shape{4, 3}, false},
		{Shape{2, 3}, Shape{2}, nil, true},
	}
	for _, tt := range tests {
		out, err := BroadcastShapes(tt.a, tt.b)
		if tt.err {
			if err == nil {
				t.Fatalf("BroadcastShapes(%v, %v) = %v, want error", tt.a, tt.b, out)
			}
			continue
		}
		if err != nil || !out.Equal(tt.want) {
			t.Fatalf("BroadcastShapes(%v, %v) = %v, %v; want %v", tt.a, tt.b, out, err, tt.want)
		}
	}
}

func TestNumElements(t *testing.T) {
	if n := (Shape{50000, 784}).NumElements(); n != 39200000 {
		t.Fatalf("NumElements = %d", n)
	}
	if n := (Shape{}).NumElements(); n != 0 {
		t.Fatalf("empty shape NumElements = %d, want 0", n)
	}
	if n := (Shape{3, 0}).NumElements(); n != 0 {
		t.Fatalf("zero dim NumElements = %d, want 0", n)
	}
}

func TestBroadcastMismatchIsErrShape(t *testing.T) {
	_, err := BroadcastShapes(Shape{4, 3}, Shape{2, 3})
	if !errors.Is(err, ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}
	out, err := BroadcastShapes(Shape{1}, Shape{2, 1, 5})
	if err != nil || !out.Equal(Shape{2, 1, 5}) {
		t.Fatalf("BroadcastShapes([1], [2 1 5]) = %v, %v", out, err)
	}
}
