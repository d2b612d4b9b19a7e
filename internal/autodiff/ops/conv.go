package ops

import "github.com/warp-ml/warp/internal/tensor"

// Conv1DOp records output = conv1d(input, kernel). Both gradients reuse
// the backend's dedicated backward kernels, which honor stride, padding,
// dilation and groups.
type Conv1DOp struct {
	op
	stride, padding, dilation, groups int
}

// NewConv1DOp creates the tape node for a 1D convolution.
func NewConv1DOp(input, kernel, output *tensor.RawTensor, stride, padding, dilation, groups int) *Conv1DOp {
	return &Conv1DOp{
		op:      op{inputs: []*tensor.RawTensor{input, kernel}, output: output},
		stride:  stride,
		padding: padding, dilation: dilation, groups: groups,
	}
}

func (o *Conv1DOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	input, kernel := o.inputs[0], o.inputs[1]
	return []*tensor.RawTensor{
		backend.Conv1DInputBackward(input, kernel, grad, o.stride, o.padding, o.dilation, o.groups),
		backend.Conv1DKernelBackward(input, kernel, grad, o.stride, o.padding, o.dilation, o.groups),
	}
}

// Conv2DOp records output = conv2d(input, kernel).
type Conv2DOp struct {
	op
	stride, padding, dilation, groups int
}

// NewConv2DOp creates the tape node for a 2D convolution.
func NewConv2DOp(input, kernel, output *tensor.RawTensor, stride, padding, dilation, groups int) *Conv2DOp {
	return &Conv2DOp{
		op:      op{inputs: []*tensor.RawTensor{input, kernel}, output: output},
		stride:  stride,
		padding: padding, dilation: dilation, groups: groups,
	}
}

func (o *Conv2DOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	input, kernel := o.inputs[0], o.inputs[1]
	return []*tensor.RawTensor{
		backend.Conv2DInputBackward(input, kernel, grad, o.stride, o.padding, o.dilation, o.groups),
		backend.Conv2DKernelBackward(input, kernel, grad, o.stride, o.padding, o.dilation, o.groups),
	}
}
