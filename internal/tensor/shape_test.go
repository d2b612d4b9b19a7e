package tensor

import (
	"errors"
	"testing"
)

func TestShapeNumElements(t *testing.T) {
	cases := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{5}, 5},
		{Shape{2, 3, 4}, 24},
		{Shape{2, 0, 4}, 0},
	}
	for _, tc := range cases {
		if got := tc.shape.NumElements(); got != tc.want {
			t.Errorf("%v.NumElements() = %d, want %d", tc.shape, got, tc.want)
		}
	}
}

func TestShapeComputeStrides(t *testing.T) {
	strides := Shape{2, 3, 4}.ComputeStrides()
	want := []int{12, 4, 1}
	if !equalInts(strides, want) {
		t.Errorf("strides = %v, want %v", strides, want)
	}

	if got := (Shape{}).ComputeStrides(); len(got) != 0 {
		t.Errorf("scalar strides = %v, want empty", got)
	}
}

func TestBroadcastShapes(t *testing.T) {
	cases := []struct {
		a, b  Shape
		want  Shape
		needs bool
	}{
		{Shape{2, 3}, Shape{2, 3}, Shape{2, 3}, false},
		{Shape{2, 3}, Shape{3}, Shape{2, 3}, true},
		{Shape{2, 1}, Shape{1, 3}, Shape{2, 3}, true},
		{Shape{}, Shape{4}, Shape{4}, true},
	}
	for _, tc := range cases {
		got, needs, err := BroadcastShapes(tc.a, tc.b)
		if err != nil {
			t.Fatalf("BroadcastShapes(%v, %v) failed: %v", tc.a, tc.b, err)
		}
		if !got.Equal(tc.want) || needs != tc.needs {
			t.Errorf("BroadcastShapes(%v, %v) = %v/%v, want %v/%v",
				tc.a, tc.b, got, needs, tc.want, tc.needs)
		}
	}
}

func TestBroadcastShapesIncompatible(t *testing.T) {
	_, _, err := BroadcastShapes(Shape{2, 3}, Shape{2, 4})
	if !errors.Is(err, ErrShape) {
		t.Errorf("error = %v, want ErrShape", err)
	}
}

func TestDataTypeSizes(t *testing.T) {
	cases := map[DataType]int{
		Int8: 1, Bool: 1,
		Float16: 2, BFloat16: 2,
		Float32: 4, Int32: 4,
		Float64: 8, Complex64: 8,
		Complex128: 16,
	}
	for dt, want := range cases {
		if got := dt.Size(); got != want {
			t.Errorf("%s.Size() = %d, want %d", dt, got, want)
		}
	}
}

func TestParseDataTypeRoundTrip(t *testing.T) {
	for _, dt := range DataTypes() {
		parsed, ok := ParseDataType(dt.String())
		if !ok || parsed != dt {
			t.Errorf("ParseDataType(%q) = %v/%v, want %v/true", dt.String(), parsed, ok, dt)
		}
	}
	if _, ok := ParseDataType("float99"); ok {
		t.Error("ParseDataType should reject unknown names")
	}
}

func TestCanCastComplexRules(t *testing.T) {
	// Complex never narrows to real.
	if CanCast(Complex64, Float32) {
		t.Error("complex64 -> float32 must be rejected")
	}
	if !CanCast(Complex64, Complex128) {
		t.Error("complex64 -> complex128 must be allowed")
	}
	// The 16-bit float encodings have no complex conversion.
	if CanCast(Float16, Complex64) || CanCast(BFloat16, Complex128) {
		t.Error("16-bit floats -> complex must be rejected")
	}
	if !CanCast(Float32, Complex64) {
		t.Error("float32 -> complex64 must be allowed")
	}
	if !CanCast(Int64, Bool) || !CanCast(Bool, Float32) {
		t.Error("real <-> real casts must be allowed")
	}
}

func TestScalarConversions(t *testing.T) {
	if got := NewScalar(float32(2.5)).Float64(); got != 2.5 {
		t.Errorf("float scalar Float64 = %v, want 2.5", got)
	}
	if got := NewScalar(int32(-3)).Float64(); got != -3 {
		t.Errorf("int scalar Float64 = %v, want -3", got)
	}
	if got := NewScalar(int64(-9)).Int64(); got != -9 {
		t.Errorf("Int64 = %v, want -9", got)
	}
	if got := NewScalar(true).Bool(); !got {
		t.Error("Bool = false, want true")
	}
	if got := NewScalar(complex64(1 + 2i)).Complex128(); got != 1+2i {
		t.Errorf("Complex128 = %v, want (1+2i)", got)
	}
	if got := NewScalar(3.0).Complex128(); got != 3+0i {
		t.Errorf("widened Complex128 = %v, want (3+0i)", got)
	}
}

func TestScalarFloat64PanicsOnBool(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Float64 on a bool scalar should panic")
		}
	}()
	_ = NewScalar(true).Float64()
}

func TestScalarFloat64PanicsOnComplex(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Float64 on a complex scalar should panic")
		}
	}()
	_ = NewScalar(complex128(1i)).Float64()
}
