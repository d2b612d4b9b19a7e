// Package webgpu implements a GPU compute backend on top of WebGPU.
//
// Dense float32 kernels (element-wise math, 2D matmul, softmax) run as WGSL
// compute shaders; every other operation is delegated to the host backend so
// the kernel surface stays total. Tensors remain host-resident between
// dispatches: each kernel uploads its inputs, runs, and reads the result
// back. Keeping data on the device across kernels is a known followup.
package webgpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/warp-ml/warp/internal/backend/cpu"
	"github.com/warp-ml/warp/internal/tensor"
)

// Backend implements tensor.Backend using WebGPU compute pipelines.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	adapterInfo wgpu.AdapterInfo

	mu        sync.RWMutex
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline

	// fallback executes operations that have no shader, and any dispatch
	// that fails at runtime.
	fallback *cpu.Backend

	log *slog.Logger
}

// New creates a WebGPU backend, requesting a high-performance adapter.
// It returns tensor.ErrDeviceUnavailable (wrapped) when no usable GPU is
// present or the native library cannot be loaded.
func New() (b *Backend, err error) {
	// wgpu panics instead of erroring when the native library is missing.
	defer func() {
		if r := recover(); r != nil {
			b = nil
			err = fmt.Errorf("%w: webgpu native library: %v", tensor.ErrDeviceUnavailable, r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: request adapter: %v", tensor.ErrDeviceUnavailable, adapterErr)
	}

	info := adapter.GetInfo()

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %v", tensor.ErrDeviceUnavailable, deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: device has no queue", tensor.ErrDeviceUnavailable)
	}

	b = &Backend{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		adapterInfo: info,
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		fallback:    cpu.New(),
		log:         slog.Default().With("backend", "webgpu"),
	}
	b.log.Debug("adapter acquired", "name", info.Name, "vendor", info.VendorName)
	return b, nil
}

// IsAvailable reports whether a WebGPU adapter can be acquired on this
// system without constructing a full backend.
func IsAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

// Release frees all device resources. The backend must not be used after.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = nil
	for _, s := range b.shaders {
		s.Release()
	}
	b.shaders = nil

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name returns the backend name including the adapter description.
func (b *Backend) Name() string {
	if b.adapterInfo.Name != "" {
		return fmt.Sprintf("WebGPU (%s)", b.adapterInfo.Name)
	}
	return "WebGPU"
}

// Device returns the compute device placement.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// AdapterInfo returns information about the acquired GPU adapter.
func (b *Backend) AdapterInfo() wgpu.AdapterInfo {
	return b.adapterInfo
}

// Transfer moves a tensor between the host and this device placement.
// Both placements are host-addressable, so a transfer is a compacting
// copy with a new device tag.
func (b *Backend) Transfer(x *tensor.RawTensor, device tensor.Device) (*tensor.RawTensor, error) {
	switch device {
	case tensor.CPU, tensor.WebGPU:
	default:
		return nil, fmt.Errorf("%w: WebGPU backend cannot place tensors on %s",
			tensor.ErrDeviceUnavailable, device)
	}

	out, err := tensor.NewRaw(x.Shape(), x.DType(), device)
	if err != nil {
		return nil, err
	}
	copyElements(out, x)
	return out, nil
}

// copyElements copies src into the contiguous dst, walking src's strides.
func copyElements(dst, src *tensor.RawTensor) {
	if src.IsContiguous() {
		copy(dst.Data(), src.Data())
		return
	}

	shape := src.Shape()
	strides := src.Strides()
	elem := src.DType().Size()
	in := src.Data()
	out := dst.Data()

	coords := make([]int, len(shape))
	total := shape.NumElements()
	for flat := 0; flat < total; flat++ {
		off := 0
		for d, cd := range coords {
			off += cd * strides[d]
		}
		copy(out[flat*elem:(flat+1)*elem], in[off*elem:(off+1)*elem])

		for d := len(coords) - 1; d >= 0; d-- {
			coords[d]++
			if coords[d] < shape[d] {
				break
			}
			coords[d] = 0
		}
	}
}

// dispatchable reports whether the given tensors can be handed to a WGSL
// kernel directly: float32 elements, contiguous layout, non-empty.
func dispatchable(ts ...*tensor.RawTensor) bool {
	for _, t := range ts {
		if t.DType() != tensor.Float32 || !t.IsContiguous() || t.NumElements() == 0 {
			return false
		}
	}
	return true
}
