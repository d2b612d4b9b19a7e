// Package autodiff implements reverse-mode automatic differentiation as a
// backend decorator.
//
// AutodiffBackend wraps any tensor.Backend and records differentiable
// operations on a GradientTape during the forward pass. An operation is
// recorded only while the tape is recording, outside no-grad scopes, and
// only when at least one differentiable input requires a gradient; outputs
// of recorded operations are marked as requiring gradients so tracking
// propagates through the graph.
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x := tensor.FromSlice([]float32{2}, tensor.Shape{1}, backend).RequireGrad()
//	y := x.Mul(x)
//	grads, err := autodiff.Backward(y, backend)
package autodiff

import (
	"github.com/warp-ml/warp/internal/autodiff/ops"
	"github.com/warp-ml/warp/internal/tensor"
)

// AutodiffBackend decorates a Backend with gradient tracking. It implements
// tensor.Backend itself, so tensors built on it transparently record their
// operations.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New wraps a backend with a fresh gradient tape.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{inner: backend, tape: NewGradientTape()}
}

// Tape exposes the gradient tape for recording control and inspection.
func (b *AutodiffBackend[B]) Tape() *GradientTape { return b.tape }

// Inner returns the wrapped backend.
func (b *AutodiffBackend[B]) Inner() B { return b.inner }

// Name returns the decorated backend name.
func (b *AutodiffBackend[B]) Name() string { return "Autodiff(" + b.inner.Name() + ")" }

// Device returns the compute device of the wrapped backend.
func (b *AutodiffBackend[B]) Device() tensor.Device { return b.inner.Device() }

// shouldRecord reports whether an operation over the given differentiable
// inputs belongs on the tape.
func (b *AutodiffBackend[B]) shouldRecord(inputs ...*tensor.RawTensor) bool {
	if !b.tape.IsRecording() {
		return false
	}
	for _, in := range inputs {
		if in.RequiresGrad() {
			return true
		}
	}
	return false
}

func (b *AutodiffBackend[B]) record(out *tensor.RawTensor, op ops.Operation) {
	out.SetRequiresGrad(true)
	b.tape.Record(op)
}

// Add computes x + y, recording the operation for the backward pass.
// ForceNonUnique keeps the inner backend from reusing input buffers in
// place, which would corrupt tensors the graph still references.
func (b *AutodiffBackend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Add(x, y)
	if b.shouldRecord(x, y) {
		b.record(out, ops.NewAddOp(x, y, out))
	}
	return out
}

// Sub computes x - y and records the operation.
func (b *AutodiffBackend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Sub(x, y)
	if b.shouldRecord(x, y) {
		b.record(out, ops.NewSubOp(x, y, out))
	}
	return out
}

// Mul computes x * y and records the operation.
func (b *AutodiffBackend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Mul(x, y)
	if b.shouldRecord(x, y) {
		b.record(out, ops.NewMulOp(x, y, out))
	}
	return out
}

// Div computes x / y and records the operation.
func (b *AutodiffBackend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Div(x, y)
	if b.shouldRecord(x, y) {
		b.record(out, ops.NewDivOp(x, y, out))
	}
	return out
}

// MatMul multiplies 2D matrices and records the operation.
func (b *AutodiffBackend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.MatMul(x, y)
	if b.shouldRecord(x, y) {
		b.record(out, ops.NewMatMulOp(x, y, out))
	}
	return out
}

// BatchMatMul multiplies batched matrices and records the operation.
func (b *AutodiffBackend[B]) BatchMatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.BatchMatMul(x, y)
	if b.shouldRecord(x, y) {
		b.record(out, ops.NewBatchMatMulOp(x, y, out))
	}
	return out
}

// Conv1D convolves and records the operation with its full geometry so the
// backward kernels replay it exactly.
func (b *AutodiffBackend[B]) Conv1D(input, kernel *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	defer input.ForceNonUnique()()
	defer kernel.ForceNonUnique()()
	out := b.inner.Conv1D(input, kernel, stride, padding, dilation, groups)
	if b.shouldRecord(input, kernel) {
		b.record(out, ops.NewConv1DOp(input, kernel, out, stride, padding, dilation, groups))
	}
	return out
}

// Conv2D convolves and records the operation.
func (b *AutodiffBackend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	defer input.ForceNonUnique()()
	defer kernel.ForceNonUnique()()
	out := b.inner.Conv2D(input, kernel, stride, padding, dilation, groups)
	if b.shouldRecord(input, kernel) {
		b.record(out, ops.NewConv2DOp(input, kernel, out, stride, padding, dilation, groups))
	}
	return out
}

// Gradient kernels pass through untracked: they run inside the backward
// walk, which must not grow the graph.

func (b *AutodiffBackend[B]) Conv1DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	return b.inner.Conv1DInputBackward(input, kernel, grad, stride, padding, dilation, groups)
}

func (b *AutodiffBackend[B]) Conv1DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	return b.inner.Conv1DKernelBackward(input, kernel, grad, stride, padding, dilation, groups)
}

func (b *AutodiffBackend[B]) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	return b.inner.Conv2DInputBackward(input, kernel, grad, stride, padding, dilation, groups)
}

func (b *AutodiffBackend[B]) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	return b.inner.Conv2DKernelBackward(input, kernel, grad, stride, padding, dilation, groups)
}

func (b *AutodiffBackend[B]) AvgPool2DBackward(grad *tensor.RawTensor, inputShape tensor.Shape, kernelSize, stride int) *tensor.RawTensor {
	return b.inner.AvgPool2DBackward(grad, inputShape, kernelSize, stride)
}

// MaxPool2D pools and records the operation. When tracking, the forward
// pass runs through the indices variant so the backward can route each
// gradient to the element that won its window.
func (b *AutodiffBackend[B]) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	defer input.ForceNonUnique()()
	if !b.shouldRecord(input) {
		return b.inner.MaxPool2D(input, kernelSize, stride)
	}
	out, indices := b.inner.MaxPool2DWithIndices(input, kernelSize, stride)
	b.record(out, ops.NewMaxPool2DOp(input, out, indices))
	return out
}

// MaxPool2DWithIndices pools, returns the argmax positions, and records
// the operation.
func (b *AutodiffBackend[B]) MaxPool2DWithIndices(input *tensor.RawTensor, kernelSize, stride int) (*tensor.RawTensor, *tensor.RawTensor) {
	defer input.ForceNonUnique()()
	out, indices := b.inner.MaxPool2DWithIndices(input, kernelSize, stride)
	if b.shouldRecord(input) {
		b.record(out, ops.NewMaxPool2DOp(input, out, indices))
	}
	return out, indices
}

// AvgPool2D pools and records the operation.
func (b *AutodiffBackend[B]) AvgPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	defer input.ForceNonUnique()()
	out := b.inner.AvgPool2D(input, kernelSize, stride)
	if b.shouldRecord(input) {
		b.record(out, ops.NewAvgPool2DOp(input, out, kernelSize, stride))
	}
	return out
}

// Pad pads and records the operation.
func (b *AutodiffBackend[B]) Pad(x *tensor.RawTensor, pads []int, mode tensor.PadMode, value float64) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Pad(x, pads, mode, value)
	if b.shouldRecord(x) {
		b.record(out, ops.NewPadOp(x, out, pads))
	}
	return out
}

// Reshape reshapes and records the operation. Recording matters even for
// views: without it, a parameter reshaped for broadcasting never receives
// its gradient.
func (b *AutodiffBackend[B]) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Reshape(x, newShape)
	if b.shouldRecord(x) {
		b.record(out, ops.NewReshapeOp(x, out))
	}
	return out
}

// Transpose permutes dimensions and records the operation with the
// resolved axes so the backward can invert the permutation.
func (b *AutodiffBackend[B]) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	nd := len(x.Shape())
	if len(axes) == 0 {
		axes = make([]int, nd)
		for i := range axes {
			axes[i] = nd - 1 - i
		}
	}
	out := b.inner.Transpose(x, axes...)
	if b.shouldRecord(x) {
		b.record(out, ops.NewTransposeOp(x, out, axes))
	}
	return out
}

// Expand broadcasts and records the operation.
func (b *AutodiffBackend[B]) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Expand(x, shape)
	if b.shouldRecord(x) {
		b.record(out, ops.NewExpandOp(x, out))
	}
	return out
}

// Unsqueeze inserts a size-1 dimension and records the operation.
func (b *AutodiffBackend[B]) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Unsqueeze(x, dim)
	if b.shouldRecord(x) {
		b.record(out, ops.NewUnsqueezeOp(x, out))
	}
	return out
}

// Squeeze removes a size-1 dimension and records the operation.
func (b *AutodiffBackend[B]) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Squeeze(x, dim)
	if b.shouldRecord(x) {
		b.record(out, ops.NewSqueezeOp(x, out))
	}
	return out
}

// AddScalar shifts by a scalar and records the operation.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, s tensor.Scalar) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.AddScalar(x, s)
	if b.shouldRecord(x) {
		b.record(out, ops.NewAddScalarOp(x, out))
	}
	return out
}

// SubScalar shifts by a scalar and records the operation. The gradient is
// unaffected by the shift, so the add-scalar node serves.
func (b *AutodiffBackend[B]) SubScalar(x *tensor.RawTensor, s tensor.Scalar) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.SubScalar(x, s)
	if b.shouldRecord(x) {
		b.record(out, ops.NewAddScalarOp(x, out))
	}
	return out
}

// MulScalar scales and records the operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, s tensor.Scalar) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.MulScalar(x, s)
	if b.shouldRecord(x) {
		b.record(out, ops.NewMulScalarOp(x, out, s))
	}
	return out
}

// DivScalar scales and records the operation.
func (b *AutodiffBackend[B]) DivScalar(x *tensor.RawTensor, s tensor.Scalar) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.DivScalar(x, s)
	if b.shouldRecord(x) {
		b.record(out, ops.NewDivScalarOp(x, out, s))
	}
	return out
}

// Neg negates and records the operation.
func (b *AutodiffBackend[B]) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Neg(x)
	if b.shouldRecord(x) {
		b.record(out, ops.NewNegOp(x, out))
	}
	return out
}

// Exp exponentiates and records the operation.
func (b *AutodiffBackend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Exp(x)
	if b.shouldRecord(x) {
		b.record(out, ops.NewExpOp(x, out))
	}
	return out
}

// Log takes the natural logarithm and records the operation.
func (b *AutodiffBackend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Log(x)
	if b.shouldRecord(x) {
		b.record(out, ops.NewLogOp(x, out))
	}
	return out
}

// Sqrt takes the square root and records the operation.
func (b *AutodiffBackend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Sqrt(x)
	if b.shouldRecord(x) {
		b.record(out, ops.NewSqrtOp(x, out))
	}
	return out
}

// Rsqrt takes the reciprocal square root and records the operation.
func (b *AutodiffBackend[B]) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Rsqrt(x)
	if b.shouldRecord(x) {
		b.record(out, ops.NewRsqrtOp(x, out))
	}
	return out
}

// Pow raises to a fixed exponent and records the operation.
func (b *AutodiffBackend[B]) Pow(x *tensor.RawTensor, exponent float64) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Pow(x, exponent)
	if b.shouldRecord(x) {
		b.record(out, ops.NewPowOp(x, out, exponent))
	}
	return out
}

// Tanh applies tanh and records the operation.
func (b *AutodiffBackend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Tanh(x)
	if b.shouldRecord(x) {
		b.record(out, ops.NewTanhOp(x, out))
	}
	return out
}

// Sigmoid applies the logistic function and records the operation.
func (b *AutodiffBackend[B]) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Sigmoid(x)
	if b.shouldRecord(x) {
		b.record(out, ops.NewSigmoidOp(x, out))
	}
	return out
}

// ReLU rectifies and records the operation.
func (b *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.ReLU(x)
	if b.shouldRecord(x) {
		b.record(out, ops.NewReLUOp(x, out))
	}
	return out
}

// Softmax normalizes along dim and records the operation.
func (b *AutodiffBackend[B]) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Softmax(x, dim)
	if b.shouldRecord(x) {
		b.record(out, ops.NewSoftmaxOp(x, out, dim))
	}
	return out
}

// Greater compares element-wise. Comparisons are not differentiable and
// pass through untracked.
func (b *AutodiffBackend[B]) Greater(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Greater(x, y)
}

// Equal compares element-wise, untracked.
func (b *AutodiffBackend[B]) Equal(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Equal(x, y)
}

// Sum reduces to a scalar and records the operation.
func (b *AutodiffBackend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Sum(x)
	if b.shouldRecord(x) {
		b.record(out, ops.NewSumOp(x, out))
	}
	return out
}

// SumDim reduces along a dimension and records the operation.
func (b *AutodiffBackend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.SumDim(x, dim, keepDim)
	if b.shouldRecord(x) {
		b.record(out, ops.NewSumDimOp(x, out, dim, keepDim))
	}
	return out
}

// MeanDim averages along a dimension and records the operation.
func (b *AutodiffBackend[B]) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.MeanDim(x, dim, keepDim)
	if b.shouldRecord(x) {
		b.record(out, ops.NewMeanDimOp(x, out, dim, keepDim))
	}
	return out
}

// Argmax returns indices, which carry no gradient; untracked.
func (b *AutodiffBackend[B]) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}

// Cat concatenates and records the operation.
func (b *AutodiffBackend[B]) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	for _, t := range tensors {
		defer t.ForceNonUnique()()
	}
	out := b.inner.Cat(tensors, dim)
	if b.shouldRecord(tensors...) {
		b.record(out, ops.NewCatOp(tensors, out, dim))
	}
	return out
}

// Chunk splits and records the multi-output operation. All chunks inherit
// gradient tracking.
func (b *AutodiffBackend[B]) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	defer x.ForceNonUnique()()
	outs := b.inner.Chunk(x, n, dim)
	if b.shouldRecord(x) {
		for _, out := range outs {
			out.SetRequiresGrad(true)
		}
		b.tape.Record(ops.NewChunkOp(x, outs, dim))
	}
	return outs
}

// Gather picks elements along a dimension and records the operation. The
// index tensor is not differentiated.
func (b *AutodiffBackend[B]) Gather(x *tensor.RawTensor, dim int, index *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Gather(x, dim, index)
	if b.shouldRecord(x) {
		b.record(out, ops.NewGatherOp(x, index, out, dim))
	}
	return out
}

// Where selects between branches and records the operation. Only the
// branches are differentiated; the condition is not.
func (b *AutodiffBackend[B]) Where(condition, x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Where(condition, x, y)
	if b.shouldRecord(x, y) {
		b.record(out, ops.NewWhereOp(condition, x, y, out))
	}
	return out
}

// Embedding looks up table rows and records the operation. Indices are not
// differentiated.
func (b *AutodiffBackend[B]) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	defer weight.ForceNonUnique()()
	out := b.inner.Embedding(weight, indices)
	if b.shouldRecord(weight) {
		b.record(out, ops.NewEmbeddingOp(weight, indices, out))
	}
	return out
}

// Cast converts element types and records the operation for float-to-float
// conversions, where the gradient is cast back to the source type.
func (b *AutodiffBackend[B]) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Cast(x, dtype)
	if x.DType().IsFloat() && dtype.IsFloat() && b.shouldRecord(x) {
		b.record(out, ops.NewCastOp(x, out))
	}
	return out
}

// Transfer moves tensors between devices, untracked.
func (b *AutodiffBackend[B]) Transfer(x *tensor.RawTensor, device tensor.Device) (*tensor.RawTensor, error) {
	return b.inner.Transfer(x, device)
}
