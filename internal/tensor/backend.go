package tensor

// PadMode selects the boundary policy for padding operations.
type PadMode int

// Supported padding modes. PadZero is constant padding pinned to zero.
const (
	PadConstant PadMode = iota
	PadReflect
	PadReplicate
	PadZero
)

// String returns a human-readable mode name.
func (m PadMode) String() string {
	switch m {
	case PadConstant:
		return "constant"
	case PadReflect:
		return "reflect"
	case PadReplicate:
		return "replicate"
	case PadZero:
		return "zero"
	default:
		return "unknown"
	}
}

// Backend defines the kernel surface that compute backends implement.
//
// Calls are synchronous: a kernel returns only when its result tensor is
// materialized (backends that queue work on an accelerator stream must
// resolve ordering internally). Kernels panic with a category-tagged message
// on precondition violations; constructors return errors instead.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations.
	// MatMul: [M, K] @ [K, N] -> [M, N].
	// BatchMatMul: [..., M, K] @ [..., K, N] with matching leading dims.
	MatMul(a, b *RawTensor) *RawTensor
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Convolutions. Input is [N, C_in, L] (1D) or [N, C_in, H, W] (2D),
	// kernel is [C_out, C_in/groups, K...]. Output length per spatial dim
	// is floor((L + 2*padding - dilation*(K-1) - 1)/stride) + 1.
	Conv1D(input, kernel *RawTensor, stride, padding, dilation, groups int) *RawTensor
	Conv2D(input, kernel *RawTensor, stride, padding, dilation, groups int) *RawTensor
	Conv1DInputBackward(input, kernel, grad *RawTensor, stride, padding, dilation, groups int) *RawTensor
	Conv1DKernelBackward(input, kernel, grad *RawTensor, stride, padding, dilation, groups int) *RawTensor
	Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding, dilation, groups int) *RawTensor
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding, dilation, groups int) *RawTensor

	// Pooling over [N, C, H, W].
	MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor
	MaxPool2DWithIndices(input *RawTensor, kernelSize, stride int) (*RawTensor, *RawTensor)
	AvgPool2D(input *RawTensor, kernelSize, stride int) *RawTensor
	AvgPool2DBackward(grad *RawTensor, inputShape Shape, kernelSize, stride int) *RawTensor

	// Pad pads the last len(pads)/2 dimensions; pads come in
	// (before, after) pairs starting from the last dimension.
	// Unsupported mode/rank combinations are rejected, not defaulted.
	Pad(x *RawTensor, pads []int, mode PadMode, value float64) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Squeeze(x *RawTensor, dim int) *RawTensor

	// Scalar operations (element-wise against a boxed literal).
	AddScalar(x *RawTensor, s Scalar) *RawTensor
	SubScalar(x *RawTensor, s Scalar) *RawTensor
	MulScalar(x *RawTensor, s Scalar) *RawTensor
	DivScalar(x *RawTensor, s Scalar) *RawTensor

	// Element-wise math.
	Neg(x *RawTensor) *RawTensor
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Rsqrt(x *RawTensor) *RawTensor
	Pow(x *RawTensor, exponent float64) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor

	// Softmax along a dimension (negative dims count from the end).
	Softmax(x *RawTensor, dim int) *RawTensor

	// Comparisons (return Bool tensors).
	Greater(a, b *RawTensor) *RawTensor
	Equal(a, b *RawTensor) *RawTensor

	// Reductions.
	Sum(x *RawTensor) *RawTensor
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	Argmax(x *RawTensor, dim int) *RawTensor

	// Manipulation.
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Chunk(x *RawTensor, n, dim int) []*RawTensor

	// Indexing.
	Gather(x *RawTensor, dim int, index *RawTensor) *RawTensor
	Where(condition, x, y *RawTensor) *RawTensor
	Embedding(weight, indices *RawTensor) *RawTensor

	// Cast converts to another element type. Every pair in the closed
	// dtype set is either defined or fails with ErrUnsupportedCast.
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Transfer moves a tensor to another device placement, failing
	// explicitly for placements the backend cannot reach.
	Transfer(x *RawTensor, device Device) (*RawTensor, error)

	// Metadata.
	Name() string
	Device() Device
}
