package nn

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// Pad2d pads the last two dimensions of [N, C, H, W] inputs. Padding is
// given as (left, right, top, bottom).
type Pad2d[B tensor.Backend] struct {
	*Base[B]

	pads  [4]int
	mode  tensor.PadMode
	value float64
}

// NewZeroPad2d pads with zeros.
func NewZeroPad2d[B tensor.Backend](left, right, top, bottom int) *Pad2d[B] {
	return newPad2d[B](left, right, top, bottom, tensor.PadZero, 0)
}

// NewConstantPad2d pads with a constant value.
func NewConstantPad2d[B tensor.Backend](left, right, top, bottom int, value float64) *Pad2d[B] {
	return newPad2d[B](left, right, top, bottom, tensor.PadConstant, value)
}

// NewReflectionPad2d mirrors interior values across the border.
func NewReflectionPad2d[B tensor.Backend](left, right, top, bottom int) *Pad2d[B] {
	return newPad2d[B](left, right, top, bottom, tensor.PadReflect, 0)
}

// NewReplicationPad2d repeats the edge values.
func NewReplicationPad2d[B tensor.Backend](left, right, top, bottom int) *Pad2d[B] {
	return newPad2d[B](left, right, top, bottom, tensor.PadReplicate, 0)
}

func newPad2d[B tensor.Backend](left, right, top, bottom int, mode tensor.PadMode, value float64) *Pad2d[B] {
	if left < 0 || right < 0 || top < 0 || bottom < 0 {
		panic(fmt.Sprintf("nn: negative padding (%d, %d, %d, %d)", left, right, top, bottom))
	}
	return &Pad2d[B]{
		Base:  NewBase[B](),
		pads:  [4]int{left, right, top, bottom},
		mode:  mode,
		value: value,
	}
}

func (p *Pad2d[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// Backend pads start from the last dimension: (W before, W after,
	// H before, H after).
	return x.Pad([]int{p.pads[0], p.pads[1], p.pads[2], p.pads[3]}, p.mode, p.value)
}
