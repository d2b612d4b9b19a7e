// Package cpu implements the host compute backend. Matrix kernels go
// through gonum BLAS; everything else is portable Go.
package cpu

import (
	"fmt"

	"github.com/warp-ml/warp/internal/parallel"
	"github.com/warp-ml/warp/internal/tensor"
)

// Backend implements tensor operations on the host CPU.
type Backend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend.
func New() *Backend {
	return &Backend{device: tensor.CPU, par: parallel.DefaultConfig()}
}

// Name returns the backend name.
func (c *Backend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (c *Backend) Device() tensor.Device {
	return c.device
}

// Transfer moves a tensor to another placement. The CPU backend can only
// keep tensors on the host; accelerator placements fail explicitly.
func (c *Backend) Transfer(x *tensor.RawTensor, device tensor.Device) (*tensor.RawTensor, error) {
	if device == tensor.CPU {
		return contiguous(x), nil
	}
	return nil, fmt.Errorf("%w: CPU backend cannot place tensors on %s",
		tensor.ErrDeviceUnavailable, device)
}

// contiguous returns x itself when row-major, or a compacted copy of the
// strided view otherwise. Kernels index linearly and rely on this.
func contiguous(x *tensor.RawTensor) *tensor.RawTensor {
	if x.IsContiguous() {
		return x
	}

	out := mustRaw(x.Shape(), x.DType(), x.Device())
	shape := x.Shape()
	strides := x.Strides()
	elem := x.DType().Size()
	src := x.Data()
	dst := out.Data()

	coords := make([]int, len(shape))
	total := shape.NumElements()
	for flat := 0; flat < total; flat++ {
		off := 0
		for d, cd := range coords {
			off += cd * strides[d]
		}
		copy(dst[flat*elem:(flat+1)*elem], src[off*elem:off*elem+elem])

		for d := len(coords) - 1; d >= 0; d-- {
			coords[d]++
			if coords[d] < shape[d] {
				break
			}
			coords[d] = 0
		}
	}
	return out
}

func mustRaw(shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("cpu: %v", err))
	}
	return out
}
