package tensor

import (
	"errors"
	"testing"
)

// stubBackend satisfies Backend for creation paths, which only consult
// Device. Kernel methods are never reached and nil-panic if they are.
type stubBackend struct{ Backend }

func (stubBackend) Device() Device { return CPU }
func (stubBackend) Name() string   { return "stub" }

func TestZerosAndOnes(t *testing.T) {
	b := stubBackend{}

	z := Zeros[float32](Shape{2, 3}, b)
	for i, v := range z.Data() {
		if v != 0 {
			t.Errorf("Zeros element %d = %v", i, v)
		}
	}

	o := Ones[int64](Shape{4}, b)
	for i, v := range o.Data() {
		if v != 1 {
			t.Errorf("Ones element %d = %v", i, v)
		}
	}

	ob := Ones[bool](Shape{2}, b)
	if !ob.Data()[0] || !ob.Data()[1] {
		t.Error("Ones[bool] should fill with true")
	}
}

func TestFull(t *testing.T) {
	f := Full(Shape{2, 2}, float64(3.5), stubBackend{})
	for i, v := range f.Data() {
		if v != 3.5 {
			t.Errorf("Full element %d = %v, want 3.5", i, v)
		}
	}
}

func TestArange(t *testing.T) {
	a := Arange[int32](2, 7, stubBackend{})
	want := []int32{2, 3, 4, 5, 6}
	data := a.Data()
	if len(data) != len(want) {
		t.Fatalf("Arange length = %d, want %d", len(data), len(want))
	}
	for i, v := range want {
		if data[i] != v {
			t.Errorf("Arange[%d] = %d, want %d", i, data[i], v)
		}
	}

	// Empty range.
	if n := Arange[int64](5, 5, stubBackend{}).NumElements(); n != 0 {
		t.Errorf("empty Arange NumElements = %d, want 0", n)
	}
}

func TestEye(t *testing.T) {
	e := Eye[float32](3, stubBackend{})
	data := e.Data()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			if data[i*3+j] != want {
				t.Errorf("Eye[%d,%d] = %v, want %v", i, j, data[i*3+j], want)
			}
		}
	}
}

func TestRandnFillsValues(t *testing.T) {
	r := Randn[float32](Shape{64}, stubBackend{})
	nonZero := 0
	for _, v := range r.Data() {
		if v != 0 {
			nonZero++
		}
	}
	if nonZero < 32 {
		t.Errorf("Randn produced %d non-zero values out of 64", nonZero)
	}
}

func TestRandBounds(t *testing.T) {
	r := Rand[float64](Shape{64}, stubBackend{})
	for i, v := range r.Data() {
		if v < 0 || v >= 1 {
			t.Errorf("Rand element %d = %v outside [0, 1)", i, v)
		}
	}
}

func TestFromSliceShapeMismatch(t *testing.T) {
	_, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2}, stubBackend{})
	if !errors.Is(err, ErrShape) {
		t.Errorf("error = %v, want ErrShape", err)
	}
}

func TestFromSliceRoundTrip(t *testing.T) {
	src := []float32{1, 2, 3, 4, 5, 6}
	ten, err := FromSlice(src, Shape{2, 3}, stubBackend{})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	got := ten.Data()
	for i, v := range src {
		if got[i] != v {
			t.Errorf("element %d = %v, want %v", i, got[i], v)
		}
	}
}
