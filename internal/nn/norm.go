package nn

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// BatchNorm2d normalizes [N, C, H, W] inputs per channel. In training
// mode it normalizes with batch statistics and updates the running
// estimates; in evaluation mode it normalizes with the running estimates.
type BatchNorm2d[B tensor.Backend] struct {
	*Base[B]

	gamma       *Parameter[B]
	beta        *Parameter[B]
	runningMean *tensor.Tensor[float32, B]
	runningVar  *tensor.Tensor[float32, B]

	numFeatures int
	eps         float64
	momentum    float32
}

// NewBatchNorm2d creates a 2-D batch normalization layer with the usual
// defaults: eps 1e-5, momentum 0.1, gamma ones, beta zeros.
func NewBatchNorm2d[B tensor.Backend](b B, numFeatures int) *BatchNorm2d[B] {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("nn: invalid feature count %d", numFeatures))
	}
	n := &BatchNorm2d[B]{
		Base:        NewBase[B](),
		numFeatures: numFeatures,
		eps:         1e-5,
		momentum:    0.1,
	}
	n.gamma = NewParameter("weight", Ones(b, numFeatures))
	n.beta = NewParameter("bias", Zeros(b, numFeatures))
	n.RegisterParameter("weight", n.gamma)
	n.RegisterParameter("bias", n.beta)
	n.runningMean = Zeros(b, numFeatures)
	n.runningVar = Ones(b, numFeatures)
	n.RegisterBuffer("running_mean", n.runningMean)
	n.RegisterBuffer("running_var", n.runningVar)
	return n
}

func (n *BatchNorm2d[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 4 || shape[1] != n.numFeatures {
		panic(fmt.Sprintf("nn: batchnorm2d expects [N, %d, H, W], got %v", n.numFeatures, shape))
	}

	var mean, variance *tensor.Tensor[float32, B]
	if n.Training() {
		mean = meanOver(x, 0, 2, 3)
		centered := x.Sub(mean)
		variance = meanOver(centered.Mul(centered), 0, 2, 3)
		count := shape[0] * shape[2] * shape[3]
		n.updateRunning(mean, variance, count)
	} else {
		mean = n.runningMean.Reshape(1, n.numFeatures, 1, 1)
		variance = n.runningVar.Reshape(1, n.numFeatures, 1, 1)
	}

	inv := variance.AddScalar(tensor.NewScalar(float32(n.eps))).Rsqrt()
	y := x.Sub(mean).Mul(inv)
	y = y.Mul(n.gamma.Tensor().Reshape(1, n.numFeatures, 1, 1))
	return y.Add(n.beta.Tensor().Reshape(1, n.numFeatures, 1, 1))
}

// updateRunning folds the detached batch statistics into the running
// estimates in place. The running variance uses the unbiased estimator.
func (n *BatchNorm2d[B]) updateRunning(mean, variance *tensor.Tensor[float32, B], count int) {
	correction := float32(1)
	if count > 1 {
		correction = float32(count) / float32(count-1)
	}
	m := mean.Detach().Data()
	v := variance.Detach().Data()
	rm := n.runningMean.Data()
	rv := n.runningVar.Data()
	for i := 0; i < n.numFeatures; i++ {
		rm[i] = (1-n.momentum)*rm[i] + n.momentum*m[i]
		rv[i] = (1-n.momentum)*rv[i] + n.momentum*v[i]*correction
	}
}

// RunningMean returns the per-channel running mean buffer.
func (n *BatchNorm2d[B]) RunningMean() *tensor.Tensor[float32, B] { return n.runningMean }

// RunningVar returns the per-channel running variance buffer.
func (n *BatchNorm2d[B]) RunningVar() *tensor.Tensor[float32, B] { return n.runningVar }

// BatchNorm1d normalizes [N, C] or [N, C, L] inputs per channel.
type BatchNorm1d[B tensor.Backend] struct {
	*Base[B]

	gamma       *Parameter[B]
	beta        *Parameter[B]
	runningMean *tensor.Tensor[float32, B]
	runningVar  *tensor.Tensor[float32, B]

	numFeatures int
	eps         float64
	momentum    float32
}

// NewBatchNorm1d creates a 1-D batch normalization layer.
func NewBatchNorm1d[B tensor.Backend](b B, numFeatures int) *BatchNorm1d[B] {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("nn: invalid feature count %d", numFeatures))
	}
	n := &BatchNorm1d[B]{
		Base:        NewBase[B](),
		numFeatures: numFeatures,
		eps:         1e-5,
		momentum:    0.1,
	}
	n.gamma = NewParameter("weight", Ones(b, numFeatures))
	n.beta = NewParameter("bias", Zeros(b, numFeatures))
	n.RegisterParameter("weight", n.gamma)
	n.RegisterParameter("bias", n.beta)
	n.runningMean = Zeros(b, numFeatures)
	n.runningVar = Ones(b, numFeatures)
	n.RegisterBuffer("running_mean", n.runningMean)
	n.RegisterBuffer("running_var", n.runningVar)
	return n
}

func (n *BatchNorm1d[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if (len(shape) != 2 && len(shape) != 3) || shape[1] != n.numFeatures {
		panic(fmt.Sprintf("nn: batchnorm1d expects [N, %d] or [N, %d, L], got %v", n.numFeatures, n.numFeatures, shape))
	}

	statShape := []int{1, n.numFeatures}
	reduceDims := []int{0}
	count := shape[0]
	if len(shape) == 3 {
		statShape = append(statShape, 1)
		reduceDims = []int{0, 2}
		count = shape[0] * shape[2]
	}

	var mean, variance *tensor.Tensor[float32, B]
	if n.Training() {
		mean = meanOver(x, reduceDims...)
		centered := x.Sub(mean)
		variance = meanOver(centered.Mul(centered), reduceDims...)
		n.updateRunning(mean, variance, count)
	} else {
		mean = n.runningMean.Reshape(statShape...)
		variance = n.runningVar.Reshape(statShape...)
	}

	inv := variance.AddScalar(tensor.NewScalar(float32(n.eps))).Rsqrt()
	y := x.Sub(mean).Mul(inv)
	y = y.Mul(n.gamma.Tensor().Reshape(statShape...))
	return y.Add(n.beta.Tensor().Reshape(statShape...))
}

func (n *BatchNorm1d[B]) updateRunning(mean, variance *tensor.Tensor[float32, B], count int) {
	correction := float32(1)
	if count > 1 {
		correction = float32(count) / float32(count-1)
	}
	m := mean.Detach().Data()
	v := variance.Detach().Data()
	rm := n.runningMean.Data()
	rv := n.runningVar.Data()
	for i := 0; i < n.numFeatures; i++ {
		rm[i] = (1-n.momentum)*rm[i] + n.momentum*m[i]
		rv[i] = (1-n.momentum)*rv[i] + n.momentum*v[i]*correction
	}
}

// RunningMean returns the per-channel running mean buffer.
func (n *BatchNorm1d[B]) RunningMean() *tensor.Tensor[float32, B] { return n.runningMean }

// RunningVar returns the per-channel running variance buffer.
func (n *BatchNorm1d[B]) RunningVar() *tensor.Tensor[float32, B] { return n.runningVar }

// LayerNorm normalizes over the trailing dimensions of the input, which
// must match normalizedShape exactly.
type LayerNorm[B tensor.Backend] struct {
	*Base[B]

	gamma *Parameter[B]
	beta  *Parameter[B]

	normalizedShape []int
	eps             float64
}

// NewLayerNorm creates a layer normalization over the trailing
// normalizedShape dimensions, with learned gain and bias.
func NewLayerNorm[B tensor.Backend](b B, normalizedShape ...int) *LayerNorm[B] {
	if len(normalizedShape) == 0 {
		panic("nn: layernorm requires at least one normalized dimension")
	}
	n := &LayerNorm[B]{
		Base:            NewBase[B](),
		normalizedShape: append([]int(nil), normalizedShape...),
		eps:             1e-5,
	}
	n.gamma = NewParameter("weight", Ones(b, normalizedShape...))
	n.beta = NewParameter("bias", Zeros(b, normalizedShape...))
	n.RegisterParameter("weight", n.gamma)
	n.RegisterParameter("bias", n.beta)
	return n
}

func (n *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	k := len(n.normalizedShape)
	if len(shape) < k {
		panic(fmt.Sprintf("nn: layernorm over %v cannot apply to shape %v", n.normalizedShape, shape))
	}
	for i := 0; i < k; i++ {
		if shape[len(shape)-k+i] != n.normalizedShape[i] {
			panic(fmt.Sprintf("nn: layernorm over %v cannot apply to shape %v", n.normalizedShape, shape))
		}
	}

	dims := make([]int, k)
	for i := range dims {
		dims[i] = len(shape) - k + i
	}
	mean := meanOver(x, dims...)
	centered := x.Sub(mean)
	variance := meanOver(centered.Mul(centered), dims...)

	inv := variance.AddScalar(tensor.NewScalar(float32(n.eps))).Rsqrt()
	y := centered.Mul(inv)
	return y.Mul(n.gamma.Tensor()).Add(n.beta.Tensor())
}

// meanOver reduces with keepDim over each listed dimension in turn, so
// the result broadcasts back against the input.
func meanOver[B tensor.Backend](x *tensor.Tensor[float32, B], dims ...int) *tensor.Tensor[float32, B] {
	out := x
	for _, d := range dims {
		out = out.MeanDim(d, true)
	}
	return out
}
