package nn

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// Upsample enlarges the spatial dimensions of [N, C, H, W] inputs by an
// integer scale factor using nearest-neighbor interpolation.
type Upsample[B tensor.Backend] struct {
	*Base[B]

	scale int
}

// NewUpsample creates a nearest-neighbor upsampler.
func NewUpsample[B tensor.Backend](scale int) *Upsample[B] {
	if scale <= 0 {
		panic(fmt.Sprintf("nn: invalid upsample scale %d", scale))
	}
	return &Upsample[B]{Base: NewBase[B](), scale: scale}
}

// Forward replicates each pixel into a scale x scale block. The
// replication is expressed as unsqueeze, expand and reshape so gradients
// flow back as block sums.
func (u *Upsample[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("nn: upsample expects [N, C, H, W], got %v", shape))
	}
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	s := u.scale
	if s == 1 {
		return x
	}
	y := x.Reshape(n, c, h, 1, w, 1)
	y = y.Expand(tensor.Shape{n, c, h, s, w, s})
	return y.Reshape(n, c, h*s, w*s)
}
