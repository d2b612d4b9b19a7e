package tensor

import (
	"errors"
	"testing"
)

func TestNewRawZeroInitialized(t *testing.T) {
	raw, err := NewRaw(Shape{3, 2}, Float32, CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	for i, v := range raw.AsFloat32() {
		if v != 0 {
			t.Errorf("element %d = %v, want 0", i, v)
		}
	}
}

func TestNewRawNegativeDimension(t *testing.T) {
	for _, shape := range []Shape{{-1}, {2, -3}} {
		if _, err := NewRaw(shape, Float32, CPU); !errors.Is(err, ErrShape) {
			t.Errorf("NewRaw(%v) error = %v, want ErrShape", shape, err)
		}
	}
}

func TestNewRawZeroSizedDimension(t *testing.T) {
	raw, err := NewRaw(Shape{2, 0, 3}, Float32, CPU)
	if err != nil {
		t.Fatalf("zero-sized dimension should be legal: %v", err)
	}
	if raw.NumElements() != 0 {
		t.Errorf("NumElements = %d, want 0", raw.NumElements())
	}
	if got := raw.AsFloat32(); got != nil {
		t.Errorf("AsFloat32 on empty tensor = %v, want nil", got)
	}
}

func TestNewRawReservedDevice(t *testing.T) {
	for _, dev := range []Device{CUDA, Vulkan, Metal} {
		if _, err := NewRaw(Shape{2}, Float32, dev); !errors.Is(err, ErrDeviceUnavailable) {
			t.Errorf("NewRaw on %s error = %v, want ErrDeviceUnavailable", dev, err)
		}
	}
}

func TestRawTensorAsZeroCopy(t *testing.T) {
	raw, _ := NewRaw(Shape{3, 2}, Int64, CPU)
	raw.AsInt64()[0] = 42
	if raw.AsInt64()[0] != 42 {
		t.Error("AsInt64 should return a zero-copy slice")
	}
}

func TestRawTensorAsWrongTypePanics(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Float32, CPU)
	defer func() {
		if recover() == nil {
			t.Error("AsFloat64 on a Float32 tensor should panic")
		}
	}()
	_ = raw.AsFloat64()
}

func TestRawTensorReleaseIdempotent(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Float32, CPU)
	raw.Release()
	raw.Release() // second release must be a no-op

	if err := raw.Valid(); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Valid after release = %v, want ErrInvalidHandle", err)
	}
}

func TestRawTensorUseAfterReleasePanics(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Float32, CPU)
	raw.Release()

	defer func() {
		if recover() == nil {
			t.Error("Shape on a released tensor should panic")
		}
	}()
	_ = raw.Shape()
}

func TestRawTensorReleaseDoesNotCorruptClones(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Float32, CPU)
	raw.AsFloat32()[0] = 7

	clone := raw.Clone()
	raw.Release()

	// The buffer stays live through the clone's reference.
	if clone.AsFloat32()[0] != 7 {
		t.Error("clone lost data after the original handle released")
	}
	clone.Release()
}

func TestRawTensorCloneShares(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Float32, CPU)
	if !raw.IsUnique() {
		t.Error("fresh tensor should be unique")
	}

	clone := raw.Clone()
	if raw.IsUnique() || clone.IsUnique() {
		t.Error("after Clone neither handle should be unique")
	}

	// Mutation through one handle is visible through the other.
	raw.AsFloat32()[0] = 3
	if clone.AsFloat32()[0] != 3 {
		t.Error("clone should share the buffer")
	}
}

func TestRawTensorForceNonUnique(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Float32, CPU)

	restore := raw.ForceNonUnique()
	if raw.IsUnique() {
		t.Error("ForceNonUnique should make the handle non-unique")
	}
	restore()
	if !raw.IsUnique() {
		t.Error("restore should make the handle unique again")
	}
}

func TestNarrowView(t *testing.T) {
	raw, _ := NewRaw(Shape{4, 3}, Float32, CPU)
	data := raw.AsFloat32()
	for i := range data {
		data[i] = float32(i)
	}

	row := raw.NarrowView(2*3, Shape{3})
	got := row.AsFloat32()
	if len(got) != 3 || got[0] != 6 || got[2] != 8 {
		t.Errorf("NarrowView row = %v, want [6 7 8]", got)
	}

	// Writes through the view land in the parent buffer.
	got[1] = -1
	if raw.AsFloat32()[7] != -1 {
		t.Error("view mutation should be visible through the parent")
	}
}

func TestNarrowViewRequiresContiguous(t *testing.T) {
	raw, _ := NewRaw(Shape{4, 3}, Float32, CPU)
	strided := raw.StridedView(Shape{4}, []int{3}) // one column
	defer func() {
		if recover() == nil {
			t.Error("NarrowView on a strided view should panic")
		}
	}()
	_ = strided.NarrowView(0, Shape{2})
}

func TestStridedViewZeroStride(t *testing.T) {
	raw, _ := NewRaw(Shape{3}, Float32, CPU)
	raw.AsFloat32()[0] = 5

	// Zero stride aliases the first element along a broadcast dimension.
	bc := raw.StridedView(Shape{2, 3}, []int{0, 1})
	if bc.IsContiguous() {
		t.Error("zero-stride view should not report contiguous")
	}
	if !bc.Shape().Equal(Shape{2, 3}) {
		t.Errorf("view shape = %v, want [2 3]", bc.Shape())
	}
}

func TestRawTensorContiguity(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 3}, Float32, CPU)
	if !raw.IsContiguous() {
		t.Error("fresh tensor should be contiguous")
	}
	transposed := raw.StridedView(Shape{3, 2}, []int{1, 3})
	if transposed.IsContiguous() {
		t.Error("transposed view should not be contiguous")
	}
}

func TestRawTensorScalarShape(t *testing.T) {
	raw, _ := NewRaw(Shape{}, Float64, CPU)
	if raw.NumElements() != 1 {
		t.Errorf("scalar NumElements = %d, want 1", raw.NumElements())
	}
	if raw.ByteSize() != 8 {
		t.Errorf("scalar ByteSize = %d, want 8", raw.ByteSize())
	}
}
