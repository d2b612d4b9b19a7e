package tensor

import (
	"errors"
	"testing"
)

// seq fills a tensor with 0..n-1 for position checks.
func seq(t *testing.T, shape Shape) *RawTensor {
	t.Helper()
	raw, err := NewRaw(shape, Float32, CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	data := raw.AsFloat32()
	for i := range data {
		data[i] = float32(i)
	}
	return raw
}

func TestIndexSingleRemovesDim(t *testing.T) {
	raw := seq(t, Shape{3, 4})

	row, err := raw.Index(At(1))
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if !row.Shape().Equal(Shape{4}) {
		t.Fatalf("shape = %v, want [4]", row.Shape())
	}
	if got := row.AsFloat32()[0]; got != 4 {
		t.Errorf("row[0] = %v, want 4", got)
	}

	// Negative index counts from the end.
	last, err := raw.Index(At(-1), At(-1))
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if got := last.AsFloat32()[0]; got != 11 {
		t.Errorf("last element = %v, want 11", got)
	}
}

func TestIndexSingleOutOfRange(t *testing.T) {
	raw := seq(t, Shape{3, 4})
	if _, err := raw.Index(At(3)); !errors.Is(err, ErrShape) {
		t.Errorf("error = %v, want ErrShape", err)
	}
}

func TestIndexRangeIsView(t *testing.T) {
	raw := seq(t, Shape{5})

	mid, err := raw.Index(Range(1, 4))
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if !mid.Shape().Equal(Shape{3}) {
		t.Fatalf("shape = %v, want [3]", mid.Shape())
	}

	// Writes through the range land in the source buffer.
	mid.AsFloat32()[0] = -1
	if raw.AsFloat32()[1] != -1 {
		t.Error("range index should alias the source buffer")
	}
}

func TestIndexRangeStep(t *testing.T) {
	raw := seq(t, Shape{6})
	stepped, err := raw.Index(RangeStep(0, 6, 2))
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if !stepped.Shape().Equal(Shape{3}) {
		t.Fatalf("shape = %v, want [3]", stepped.Shape())
	}
	got := make([]float32, 3)
	for i := range got {
		v, err := stepped.Index(At(i))
		if err != nil {
			t.Fatalf("Index failed: %v", err)
		}
		got[i] = v.AsFloat32()[0]
	}
	if got[0] != 0 || got[1] != 2 || got[2] != 4 {
		t.Errorf("stepped values = %v, want [0 2 4]", got)
	}
}

func TestIndexNewAxisAndEllipsis(t *testing.T) {
	raw := seq(t, Shape{2, 3, 4})

	out, err := raw.Index(NewAxis(), Ellipsis(), At(0))
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if !out.Shape().Equal(Shape{1, 2, 3}) {
		t.Errorf("shape = %v, want [1 2 3]", out.Shape())
	}
}

func TestIndexDoubleEllipsisRejected(t *testing.T) {
	raw := seq(t, Shape{2, 3})
	if _, err := raw.Index(Ellipsis(), Ellipsis()); !errors.Is(err, ErrShape) {
		t.Errorf("error = %v, want ErrShape", err)
	}
}

func TestIndexMaskGathers(t *testing.T) {
	raw := seq(t, Shape{4, 2})

	mask, _ := NewRaw(Shape{4}, Bool, CPU)
	m := mask.AsBool()
	m[0], m[2] = true, true

	out, err := raw.Index(Mask(mask))
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if !out.Shape().Equal(Shape{2, 2}) {
		t.Fatalf("shape = %v, want [2 2]", out.Shape())
	}
	data := out.AsFloat32()
	want := []float32{0, 1, 4, 5}
	for i, v := range want {
		if data[i] != v {
			t.Errorf("element %d = %v, want %v", i, data[i], v)
		}
	}

	// Gathered results are fresh buffers, not views.
	data[0] = -1
	if raw.AsFloat32()[0] == -1 {
		t.Error("mask gather should copy, not alias")
	}
}

func TestIndexPickGathers(t *testing.T) {
	raw := seq(t, Shape{4})

	pick, _ := NewRaw(Shape{3}, Int64, CPU)
	p := pick.AsInt64()
	p[0], p[1], p[2] = 3, 0, 3

	out, err := raw.Index(Pick(pick))
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	data := out.AsFloat32()
	if data[0] != 3 || data[1] != 0 || data[2] != 3 {
		t.Errorf("picked = %v, want [3 0 3]", data)
	}
}

func TestIndexPickOutOfRange(t *testing.T) {
	raw := seq(t, Shape{4})
	pick, _ := NewRaw(Shape{1}, Int64, CPU)
	pick.AsInt64()[0] = 4
	if _, err := raw.Index(Pick(pick)); !errors.Is(err, ErrShape) {
		t.Errorf("error = %v, want ErrShape", err)
	}
}
