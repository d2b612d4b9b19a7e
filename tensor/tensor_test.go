// Copyright 2025 The Warp Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/warp-ml/warp/backend/cpu"
	"github.com/warp-ml/warp/tensor"
)

// TestBackendInterface verifies the CPU backend satisfies tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = (*cpu.Backend)(nil)
}

func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	if !raw.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		t.Errorf("DType() = %v, want float32", raw.DType())
	}
	if raw.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want CPU", raw.Device())
	}
	if raw.NumElements() != 6 {
		t.Errorf("NumElements() = %d, want 6", raw.NumElements())
	}

	data := raw.AsFloat32()
	if len(data) != 6 {
		t.Fatalf("AsFloat32() length = %d, want 6", len(data))
	}
	data[0] = 42
	if raw.AsFloat32()[0] != 42 {
		t.Error("writes through AsFloat32 must be visible")
	}
}

func TestCreationAndArithmetic(t *testing.T) {
	backend := cpu.New()

	x := tensor.Ones[float32](tensor.Shape{2, 2}, backend)
	y := tensor.Full[float32](tensor.Shape{2, 2}, 3, backend)

	z := x.Add(y)
	for i, v := range z.Data() {
		if v != 4 {
			t.Fatalf("Add result[%d] = %v, want 4", i, v)
		}
	}

	m := x.MatMul(y)
	if !m.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("MatMul shape = %v, want [2 2]", m.Shape())
	}
	for i, v := range m.Data() {
		if v != 6 {
			t.Fatalf("MatMul result[%d] = %v, want 6", i, v)
		}
	}
}

func TestParseDataType(t *testing.T) {
	dt, ok := tensor.ParseDataType("float32")
	if !ok || dt != tensor.Float32 {
		t.Errorf(`ParseDataType("float32") = %v, %v`, dt, ok)
	}
	if _, ok := tensor.ParseDataType("float128"); ok {
		t.Error(`ParseDataType("float128") should fail`)
	}
}

func TestBroadcastShapes(t *testing.T) {
	shape, broadcast, err := tensor.BroadcastShapes(tensor.Shape{3, 1}, tensor.Shape{3, 4})
	if err != nil {
		t.Fatalf("BroadcastShapes failed: %v", err)
	}
	if !shape.Equal(tensor.Shape{3, 4}) {
		t.Errorf("broadcast shape = %v, want [3 4]", shape)
	}
	if !broadcast {
		t.Error("broadcast flag should be true")
	}

	if _, _, err := tensor.BroadcastShapes(tensor.Shape{2}, tensor.Shape{3}); err == nil {
		t.Error("incompatible shapes should fail")
	}
}
