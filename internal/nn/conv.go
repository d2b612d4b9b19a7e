package nn

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// ConvOptions collects the hyperparameters shared by the convolution
// layers. The zero value is not valid; use DefaultConvOptions.
type ConvOptions struct {
	Stride   int
	Padding  int
	Dilation int
	Groups   int
	Bias     bool
}

// DefaultConvOptions returns stride 1, no padding, dilation 1, one group
// and a bias term.
func DefaultConvOptions() ConvOptions {
	return ConvOptions{Stride: 1, Padding: 0, Dilation: 1, Groups: 1, Bias: true}
}

func (o ConvOptions) check(inChannels, outChannels, kernelSize int) {
	if inChannels <= 0 || outChannels <= 0 || kernelSize <= 0 {
		panic(fmt.Sprintf("nn: invalid conv dimensions in=%d out=%d k=%d", inChannels, outChannels, kernelSize))
	}
	if o.Stride <= 0 || o.Dilation <= 0 || o.Groups <= 0 || o.Padding < 0 {
		panic(fmt.Sprintf("nn: invalid conv options %+v", o))
	}
	if inChannels%o.Groups != 0 || outChannels%o.Groups != 0 {
		panic(fmt.Sprintf("nn: groups=%d must divide in=%d and out=%d channels", o.Groups, inChannels, outChannels))
	}
}

// Conv1d applies a 1-D convolution over [N, C_in, L] inputs.
type Conv1d[B tensor.Backend] struct {
	*Base[B]

	weight *Parameter[B] // [outChannels, inChannels/groups, kernelSize]
	bias   *Parameter[B]
	opts   ConvOptions

	outChannels int
}

// NewConv1d creates a 1-D convolution layer with Kaiming uniform weights.
func NewConv1d[B tensor.Backend](b B, inChannels, outChannels, kernelSize int, opts ConvOptions) *Conv1d[B] {
	opts.check(inChannels, outChannels, kernelSize)
	c := &Conv1d[B]{Base: NewBase[B](), opts: opts, outChannels: outChannels}
	fanIn := (inChannels / opts.Groups) * kernelSize
	c.weight = NewParameter("weight", KaimingUniform(b, fanIn, outChannels, inChannels/opts.Groups, kernelSize))
	c.RegisterParameter("weight", c.weight)
	if opts.Bias {
		c.bias = NewParameter("bias", Zeros(b, outChannels))
		c.RegisterParameter("bias", c.bias)
	}
	return c
}

// Forward maps [N, C_in, L] to [N, C_out, L_out].
func (c *Conv1d[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	y := x.Conv1D(c.weight.Tensor(), c.opts.Stride, c.opts.Padding, c.opts.Dilation, c.opts.Groups)
	if c.bias != nil {
		y = y.Add(c.bias.Tensor().Reshape(1, c.outChannels, 1))
	}
	return y
}

// Weight returns the kernel parameter.
func (c *Conv1d[B]) Weight() *Parameter[B] { return c.weight }

// Bias returns the bias parameter, or nil when the layer has none.
func (c *Conv1d[B]) Bias() *Parameter[B] { return c.bias }

// Conv2d applies a 2-D convolution over [N, C_in, H, W] inputs.
type Conv2d[B tensor.Backend] struct {
	*Base[B]

	weight *Parameter[B] // [outChannels, inChannels/groups, k, k]
	bias   *Parameter[B]
	opts   ConvOptions

	outChannels int
}

// NewConv2d creates a square-kernel 2-D convolution layer with Kaiming
// uniform weights.
func NewConv2d[B tensor.Backend](b B, inChannels, outChannels, kernelSize int, opts ConvOptions) *Conv2d[B] {
	opts.check(inChannels, outChannels, kernelSize)
	c := &Conv2d[B]{Base: NewBase[B](), opts: opts, outChannels: outChannels}
	fanIn := (inChannels / opts.Groups) * kernelSize * kernelSize
	c.weight = NewParameter("weight", KaimingUniform(b, fanIn, outChannels, inChannels/opts.Groups, kernelSize, kernelSize))
	c.RegisterParameter("weight", c.weight)
	if opts.Bias {
		c.bias = NewParameter("bias", Zeros(b, outChannels))
		c.RegisterParameter("bias", c.bias)
	}
	return c
}

// Forward maps [N, C_in, H, W] to [N, C_out, H_out, W_out].
func (c *Conv2d[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	y := x.Conv2D(c.weight.Tensor(), c.opts.Stride, c.opts.Padding, c.opts.Dilation, c.opts.Groups)
	if c.bias != nil {
		y = y.Add(c.bias.Tensor().Reshape(1, c.outChannels, 1, 1))
	}
	return y
}

// Weight returns the kernel parameter.
func (c *Conv2d[B]) Weight() *Parameter[B] { return c.weight }

// Bias returns the bias parameter, or nil when the layer has none.
func (c *Conv2d[B]) Bias() *Parameter[B] { return c.bias }
