package nn

import "github.com/warp-ml/warp/internal/tensor"

// MaxPool2d applies square max pooling over [N, C, H, W] inputs. It has
// no parameters; the struct exists so pooling can sit inside Sequential.
type MaxPool2d[B tensor.Backend] struct {
	*Base[B]

	kernelSize int
	stride     int
}

// NewMaxPool2d creates a max pooling layer. A stride of 0 defaults to
// the kernel size, giving non-overlapping windows.
func NewMaxPool2d[B tensor.Backend](kernelSize, stride int) *MaxPool2d[B] {
	if stride == 0 {
		stride = kernelSize
	}
	return &MaxPool2d[B]{Base: NewBase[B](), kernelSize: kernelSize, stride: stride}
}

func (p *MaxPool2d[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.MaxPool2D(p.kernelSize, p.stride)
}

// AvgPool2d applies square average pooling over [N, C, H, W] inputs.
type AvgPool2d[B tensor.Backend] struct {
	*Base[B]

	kernelSize int
	stride     int
}

// NewAvgPool2d creates an average pooling layer. A stride of 0 defaults
// to the kernel size.
func NewAvgPool2d[B tensor.Backend](kernelSize, stride int) *AvgPool2d[B] {
	if stride == 0 {
		stride = kernelSize
	}
	return &AvgPool2d[B]{Base: NewBase[B](), kernelSize: kernelSize, stride: stride}
}

func (p *AvgPool2d[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.AvgPool2D(p.kernelSize, p.stride)
}
