package cpu

import (
	"fmt"
	"math"

	"github.com/warp-ml/warp/internal/tensor"
)

func poolOutSize(in, kernelSize, stride int) int {
	return (in-kernelSize)/stride + 1
}

func checkPoolArgs(op string, x *tensor.RawTensor, kernelSize, stride int) (n, ch, h, w int) {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("cpu: %s requires a [N, C, H, W] tensor, got %v", op, shape))
	}
	if kernelSize <= 0 || stride <= 0 {
		panic(fmt.Sprintf("cpu: %s kernel size %d and stride %d must be positive", op, kernelSize, stride))
	}
	if shape[2] < kernelSize || shape[3] < kernelSize {
		panic(fmt.Sprintf("cpu: %s window %d exceeds input %dx%d", op, kernelSize, shape[2], shape[3]))
	}
	if !x.DType().IsFloat() {
		panic(fmt.Sprintf("cpu: %s requires a float tensor, got %s", op, x.DType()))
	}
	return shape[0], shape[1], shape[2], shape[3]
}

// MaxPool2D takes the maximum over kernelSize x kernelSize windows.
func (c *Backend) MaxPool2D(x *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	out, _ := c.maxPool2D(x, kernelSize, stride, false)
	return out
}

// MaxPool2DWithIndices also returns the flat H*W position of each selected
// maximum as Int64, for routing gradients in the backward pass.
func (c *Backend) MaxPool2DWithIndices(x *tensor.RawTensor, kernelSize, stride int) (*tensor.RawTensor, *tensor.RawTensor) {
	return c.maxPool2D(x, kernelSize, stride, true)
}

func (c *Backend) maxPool2D(x *tensor.RawTensor, kernelSize, stride int, wantIndices bool) (*tensor.RawTensor, *tensor.RawTensor) {
	n, ch, h, w := checkPoolArgs("MaxPool2D", x, kernelSize, stride)
	x = contiguous(x)

	outH := poolOutSize(h, kernelSize, stride)
	outW := poolOutSize(w, kernelSize, stride)
	out := mustRaw(tensor.Shape{n, ch, outH, outW}, x.DType(), x.Device())

	var indices *tensor.RawTensor
	var idxData []int64
	if wantIndices {
		indices = mustRaw(tensor.Shape{n, ch, outH, outW}, tensor.Int64, x.Device())
		idxData = indices.AsInt64()
	}

	for img := 0; img < n*ch; img++ {
		inBase := img * h * w
		outBase := img * outH * outW
		for oh := 0; oh < outH; oh++ {
			for ow := 0; ow < outW; ow++ {
				best, bestIdx := math.Inf(-1), 0
				for kh := 0; kh < kernelSize; kh++ {
					for kw := 0; kw < kernelSize; kw++ {
						pos := (oh*stride+kh)*w + (ow*stride + kw)
						if v := loadFloat(x, inBase+pos); v > best {
							best, bestIdx = v, pos
						}
					}
				}
				storeFloat(out, outBase+oh*outW+ow, best)
				if wantIndices {
					idxData[outBase+oh*outW+ow] = int64(bestIdx)
				}
			}
		}
	}
	return out, indices
}

// AvgPool2D averages over kernelSize x kernelSize windows.
func (c *Backend) AvgPool2D(x *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	n, ch, h, w := checkPoolArgs("AvgPool2D", x, kernelSize, stride)
	x = contiguous(x)

	outH := poolOutSize(h, kernelSize, stride)
	outW := poolOutSize(w, kernelSize, stride)
	out := mustRaw(tensor.Shape{n, ch, outH, outW}, x.DType(), x.Device())
	window := float64(kernelSize * kernelSize)

	for img := 0; img < n*ch; img++ {
		inBase := img * h * w
		outBase := img * outH * outW
		for oh := 0; oh < outH; oh++ {
			for ow := 0; ow < outW; ow++ {
				sum := 0.0
				for kh := 0; kh < kernelSize; kh++ {
					for kw := 0; kw < kernelSize; kw++ {
						sum += loadFloat(x, inBase+(oh*stride+kh)*w+(ow*stride+kw))
					}
				}
				storeFloat(out, outBase+oh*outW+ow, sum/window)
			}
		}
	}
	return out
}

// AvgPool2DBackward spreads each output gradient evenly over its window.
// Overlapping windows accumulate.
func (c *Backend) AvgPool2DBackward(grad *tensor.RawTensor, inputShape tensor.Shape, kernelSize, stride int) *tensor.RawTensor {
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("cpu: AvgPool2DBackward requires a [N, C, H, W] input shape, got %v", inputShape))
	}
	grad = contiguous(grad)
	n, ch, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	outH := poolOutSize(h, kernelSize, stride)
	outW := poolOutSize(w, kernelSize, stride)
	gs := grad.Shape()
	if !gs.Equal(tensor.Shape{n, ch, outH, outW}) {
		panic(fmt.Sprintf("cpu: AvgPool2DBackward gradient shape %v does not match pooled shape [%d %d %d %d]",
			gs, n, ch, outH, outW))
	}

	out := mustRaw(inputShape, grad.DType(), grad.Device())
	window := float64(kernelSize * kernelSize)

	acc := make([]float64, h*w)
	for img := 0; img < n*ch; img++ {
		for i := range acc {
			acc[i] = 0
		}
		gradBase := img * outH * outW
		for oh := 0; oh < outH; oh++ {
			for ow := 0; ow < outW; ow++ {
				g := loadFloat(grad, gradBase+oh*outW+ow) / window
				for kh := 0; kh < kernelSize; kh++ {
					for kw := 0; kw < kernelSize; kw++ {
						acc[(oh*stride+kh)*w+(ow*stride+kw)] += g
					}
				}
			}
		}
		inBase := img * h * w
		for i, v := range acc {
			storeFloat(out, inBase+i, v)
		}
	}
	return out
}
