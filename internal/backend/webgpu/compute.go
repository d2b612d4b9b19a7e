package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/warp-ml/warp/internal/tensor"
)

// compileShader returns a cached ShaderModule, compiling on first use.
func (b *Backend) compileShader(name, code string) (*wgpu.ShaderModule, error) {
	b.mu.RLock()
	shader, ok := b.shaders[name]
	b.mu.RUnlock()
	if ok {
		return shader, nil
	}

	shader, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()
	return shader, nil
}

// getOrCreatePipeline returns a cached ComputePipeline with auto layout.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) (*wgpu.ComputePipeline, error) {
	b.mu.RLock()
	pipeline, ok := b.pipelines[name]
	b.mu.RUnlock()
	if ok {
		return pipeline, nil
	}

	pipeline, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: name,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shader,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", name, err)
	}

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()
	return pipeline, nil
}

// createBuffer allocates a storage buffer and uploads data into it.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	size := uint64(len(data))
	buffer, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer: %w", err)
	}
	copy(buffer.GetMappedRange(0, uint(size)), data)
	buffer.Unmap()
	return buffer, nil
}

// createUniformBuffer uploads data into a uniform buffer padded to the
// 16-byte alignment WebGPU requires for uniform bindings.
func (b *Backend) createUniformBuffer(data []byte) (*wgpu.Buffer, error) {
	alignedSize := (uint64(len(data)) + 15) &^ 15
	buffer, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}
	copy(buffer.GetMappedRange(0, uint(alignedSize)), data)
	buffer.Unmap()
	return buffer, nil
}

// createResultBuffer allocates an uninitialized storage buffer for output.
func (b *Backend) createResultBuffer(size uint64) (*wgpu.Buffer, error) {
	buffer, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	if err != nil {
		return nil, fmt.Errorf("create result buffer: %w", err)
	}
	return buffer, nil
}

// readBuffer copies a storage buffer back to host memory through a staging
// buffer, blocking until the map completes.
func (b *Backend) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finish encoder: %w", err)
	}
	b.queue.Submit(cmd)

	var mapStatus wgpu.BufferMapAsyncStatus
	err = staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		mapStatus = status
	})
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	b.device.Poll(true, nil)
	if mapStatus != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("map staging buffer: status %v", mapStatus)
	}

	out := make([]byte, size)
	copy(out, staging.GetMappedRange(0, uint(size)))
	staging.Unmap()
	return out, nil
}

// dispatch binds the pipeline and buffers, dispatches the grid, submits,
// and reads the result buffer back into a fresh device-tagged tensor.
func (b *Backend) dispatch(name string, pipeline *wgpu.ComputePipeline,
	entries []wgpu.BindGroupEntry, gridX, gridY uint32,
	result *wgpu.Buffer, resultSize uint64, outShape tensor.Shape) (*tensor.RawTensor, error) {

	layout := pipeline.GetBindGroupLayout(0)
	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   name,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("bind group %s: %w", name, err)
	}
	defer bindGroup.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("command encoder: %w", err)
	}
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(gridX, gridY, 1)
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finish encoder: %w", err)
	}
	b.queue.Submit(cmd)

	data, err := b.readBuffer(result, resultSize)
	if err != nil {
		return nil, err
	}

	out, err := tensor.NewRaw(outShape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(out.Data(), data)
	return out, nil
}

func bufferEntry(binding uint32, buffer *wgpu.Buffer, size uint64) wgpu.BindGroupEntry {
	return wgpu.BindGroupEntry{Binding: binding, Buffer: buffer, Offset: 0, Size: size}
}

// runBinaryOp dispatches an element-wise binary kernel over same-shape
// float32 inputs.
func (b *Backend) runBinaryOp(name string, x, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	shader, err := b.compileShader(name, binaryShaders[name])
	if err != nil {
		return nil, err
	}
	pipeline, err := b.getOrCreatePipeline(name, shader)
	if err != nil {
		return nil, err
	}

	size := uint64(x.ByteSize())
	bufX, err := b.createBuffer(x.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	defer bufX.Release()
	bufY, err := b.createBuffer(y.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	defer bufY.Release()
	bufOut, err := b.createResultBuffer(size)
	if err != nil {
		return nil, err
	}
	defer bufOut.Release()

	n := x.NumElements()
	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(n))
	bufParams, err := b.createUniformBuffer(params)
	if err != nil {
		return nil, err
	}
	defer bufParams.Release()

	grid := uint32((n + workgroupSize - 1) / workgroupSize)
	return b.dispatch(name, pipeline, []wgpu.BindGroupEntry{
		bufferEntry(0, bufX, size),
		bufferEntry(1, bufY, size),
		bufferEntry(2, bufOut, size),
		bufferEntry(3, bufParams, 16),
	}, grid, 1, bufOut, size, x.Shape())
}

// runUnaryOp dispatches an element-wise unary kernel.
func (b *Backend) runUnaryOp(name string, x *tensor.RawTensor) (*tensor.RawTensor, error) {
	shader, err := b.compileShader(name, unaryShaders[name])
	if err != nil {
		return nil, err
	}
	pipeline, err := b.getOrCreatePipeline(name, shader)
	if err != nil {
		return nil, err
	}

	size := uint64(x.ByteSize())
	bufX, err := b.createBuffer(x.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	defer bufX.Release()
	bufOut, err := b.createResultBuffer(size)
	if err != nil {
		return nil, err
	}
	defer bufOut.Release()

	n := x.NumElements()
	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(n))
	bufParams, err := b.createUniformBuffer(params)
	if err != nil {
		return nil, err
	}
	defer bufParams.Release()

	grid := uint32((n + workgroupSize - 1) / workgroupSize)
	return b.dispatch(name, pipeline, []wgpu.BindGroupEntry{
		bufferEntry(0, bufX, size),
		bufferEntry(1, bufOut, size),
		bufferEntry(2, bufParams, 16),
	}, grid, 1, bufOut, size, x.Shape())
}

// runScalarOp dispatches an element-wise kernel against a boxed literal.
func (b *Backend) runScalarOp(name string, x *tensor.RawTensor, s float64) (*tensor.RawTensor, error) {
	shader, err := b.compileShader(name, scalarShaders[name])
	if err != nil {
		return nil, err
	}
	pipeline, err := b.getOrCreatePipeline(name, shader)
	if err != nil {
		return nil, err
	}

	size := uint64(x.ByteSize())
	bufX, err := b.createBuffer(x.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	defer bufX.Release()
	bufOut, err := b.createResultBuffer(size)
	if err != nil {
		return nil, err
	}
	defer bufOut.Release()

	n := x.NumElements()
	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(n))
	binary.LittleEndian.PutUint32(params[4:8], math.Float32bits(float32(s)))
	bufParams, err := b.createUniformBuffer(params)
	if err != nil {
		return nil, err
	}
	defer bufParams.Release()

	grid := uint32((n + workgroupSize - 1) / workgroupSize)
	return b.dispatch(name, pipeline, []wgpu.BindGroupEntry{
		bufferEntry(0, bufX, size),
		bufferEntry(1, bufOut, size),
		bufferEntry(2, bufParams, 16),
	}, grid, 1, bufOut, size, x.Shape())
}

// runMatMul dispatches [M, K] @ [K, N] -> [M, N] for float32 matrices.
func (b *Backend) runMatMul(x, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	m, k, n := x.Shape()[0], x.Shape()[1], y.Shape()[1]

	shader, err := b.compileShader("matmul", matmulShader)
	if err != nil {
		return nil, err
	}
	pipeline, err := b.getOrCreatePipeline("matmul", shader)
	if err != nil {
		return nil, err
	}

	bufX, err := b.createBuffer(x.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	defer bufX.Release()
	bufY, err := b.createBuffer(y.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	defer bufY.Release()

	resultSize := uint64(m * n * 4)
	bufOut, err := b.createResultBuffer(resultSize)
	if err != nil {
		return nil, err
	}
	defer bufOut.Release()

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(m))
	binary.LittleEndian.PutUint32(params[4:8], uint32(k))
	binary.LittleEndian.PutUint32(params[8:12], uint32(n))
	bufParams, err := b.createUniformBuffer(params)
	if err != nil {
		return nil, err
	}
	defer bufParams.Release()

	gridX := uint32((n + 15) / 16)
	gridY := uint32((m + 15) / 16)
	return b.dispatch("matmul", pipeline, []wgpu.BindGroupEntry{
		bufferEntry(0, bufX, uint64(x.ByteSize())),
		bufferEntry(1, bufY, uint64(y.ByteSize())),
		bufferEntry(2, bufOut, resultSize),
		bufferEntry(3, bufParams, 16),
	}, gridX, gridY, bufOut, resultSize, tensor.Shape{m, n})
}

// runSoftmax dispatches a row softmax over a [rows, cols] float32 tensor.
func (b *Backend) runSoftmax(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	rows, cols := x.Shape()[0], x.Shape()[1]

	shader, err := b.compileShader("softmax", softmaxShader)
	if err != nil {
		return nil, err
	}
	pipeline, err := b.getOrCreatePipeline("softmax", shader)
	if err != nil {
		return nil, err
	}

	size := uint64(x.ByteSize())
	bufX, err := b.createBuffer(x.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	defer bufX.Release()
	bufOut, err := b.createResultBuffer(size)
	if err != nil {
		return nil, err
	}
	defer bufOut.Release()

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(rows))
	binary.LittleEndian.PutUint32(params[4:8], uint32(cols))
	bufParams, err := b.createUniformBuffer(params)
	if err != nil {
		return nil, err
	}
	defer bufParams.Release()

	grid := uint32((rows + workgroupSize - 1) / workgroupSize)
	return b.dispatch("softmax", pipeline, []wgpu.BindGroupEntry{
		bufferEntry(0, bufX, size),
		bufferEntry(1, bufOut, size),
		bufferEntry(2, bufParams, 16),
	}, grid, 1, bufOut, size, x.Shape())
}
