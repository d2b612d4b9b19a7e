package ops

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// MaxPool2DOp records output = maxpool2d(input). The forward pass saves
// the flat H*W position of each window maximum; the backward routes each
// output gradient to exactly that position. Overlapping windows that pick
// the same element accumulate.
type MaxPool2DOp struct {
	op
	indices *tensor.RawTensor
}

// NewMaxPool2DOp creates the tape node for a max pool, keeping the argmax
// indices captured during the forward pass.
func NewMaxPool2DOp(input, output, indices *tensor.RawTensor) *MaxPool2DOp {
	return &MaxPool2DOp{
		op:      op{inputs: []*tensor.RawTensor{input}, output: output},
		indices: indices,
	}
}

func (o *MaxPool2DOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	input := o.inputs[0]
	shape := input.Shape()
	h, w := shape[2], shape[3]

	result := zerosLike(input)
	idx := o.indices.AsInt64()

	outHW := grad.Shape()[2] * grad.Shape()[3]
	switch grad.DType() {
	case tensor.Float32:
		gv, rv := grad.AsFloat32(), result.AsFloat32()
		for i, pos := range idx {
			rv[(i/outHW)*h*w+int(pos)] += gv[i]
		}
	case tensor.Float64:
		gv, rv := grad.AsFloat64(), result.AsFloat64()
		for i, pos := range idx {
			rv[(i/outHW)*h*w+int(pos)] += gv[i]
		}
	default:
		panic(fmt.Sprintf("ops: maxpool backward does not support %s", grad.DType()))
	}
	return []*tensor.RawTensor{result}
}

// AvgPool2DOp records output = avgpool2d(input). The backward spreads each
// output gradient uniformly over its window via the backend kernel.
type AvgPool2DOp struct {
	op
	kernelSize, stride int
}

// NewAvgPool2DOp creates the tape node for an average pool.
func NewAvgPool2DOp(input, output *tensor.RawTensor, kernelSize, stride int) *AvgPool2DOp {
	return &AvgPool2DOp{
		op:         op{inputs: []*tensor.RawTensor{input}, output: output},
		kernelSize: kernelSize,
		stride:     stride,
	}
}

func (o *AvgPool2DOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		backend.AvgPool2DBackward(grad, o.inputs[0].Shape(), o.kernelSize, o.stride),
	}
}
