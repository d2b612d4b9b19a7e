package nn

import (
	"math"
	"math/rand"

	"github.com/warp-ml/warp/internal/tensor"
)

// Weight initializers. All of them allocate a fresh float32 tensor on
// the backend's device and panic on allocation failure, since layer
// constructors have no error path for bad fan sizes.

// Zeros returns a tensor filled with zeros.
func Zeros[B tensor.Backend](b B, shape ...int) *tensor.Tensor[float32, B] {
	return fill[B](b, 0, shape)
}

// Ones returns a tensor filled with ones.
func Ones[B tensor.Backend](b B, shape ...int) *tensor.Tensor[float32, B] {
	return fill[B](b, 1, shape)
}

// Full returns a tensor filled with value.
func Full[B tensor.Backend](b B, value float32, shape ...int) *tensor.Tensor[float32, B] {
	return fill[B](b, value, shape)
}

func fill[B tensor.Backend](b B, value float32, shape []int) *tensor.Tensor[float32, B] {
	data := make([]float32, numElements(shape))
	if value != 0 {
		for i := range data {
			data[i] = value
		}
	}
	return fromSlice(b, data, shape)
}

// Randn returns a tensor of standard normal samples.
func Randn[B tensor.Backend](b B, shape ...int) *tensor.Tensor[float32, B] {
	data := make([]float32, numElements(shape))
	for i := range data {
		data[i] = float32(rand.NormFloat64())
	}
	return fromSlice(b, data, shape)
}

// Uniform returns a tensor of samples drawn uniformly from [lo, hi).
func Uniform[B tensor.Backend](b B, lo, hi float32, shape ...int) *tensor.Tensor[float32, B] {
	data := make([]float32, numElements(shape))
	span := hi - lo
	for i := range data {
		data[i] = lo + span*rand.Float32()
	}
	return fromSlice(b, data, shape)
}

// XavierUniform draws from U(-a, a) with a = sqrt(6 / (fanIn + fanOut)).
func XavierUniform[B tensor.Backend](b B, fanIn, fanOut int, shape ...int) *tensor.Tensor[float32, B] {
	a := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	return Uniform(b, -a, a, shape...)
}

// XavierNormal draws from N(0, 2 / (fanIn + fanOut)).
func XavierNormal[B tensor.Backend](b B, fanIn, fanOut int, shape ...int) *tensor.Tensor[float32, B] {
	std := math.Sqrt(2.0 / float64(fanIn+fanOut))
	data := make([]float32, numElements(shape))
	for i := range data {
		data[i] = float32(rand.NormFloat64() * std)
	}
	return fromSlice(b, data, shape)
}

// KaimingUniform draws from U(-a, a) with a = sqrt(6 / fanIn), the
// standard initializer for layers followed by a ReLU.
func KaimingUniform[B tensor.Backend](b B, fanIn int, shape ...int) *tensor.Tensor[float32, B] {
	a := float32(math.Sqrt(6.0 / float64(fanIn)))
	return Uniform(b, -a, a, shape...)
}

// KaimingNormal draws from N(0, 2 / fanIn).
func KaimingNormal[B tensor.Backend](b B, fanIn int, shape ...int) *tensor.Tensor[float32, B] {
	std := math.Sqrt(2.0 / float64(fanIn))
	data := make([]float32, numElements(shape))
	for i := range data {
		data[i] = float32(rand.NormFloat64() * std)
	}
	return fromSlice(b, data, shape)
}

func fromSlice[B tensor.Backend](b B, data []float32, shape []int) *tensor.Tensor[float32, B] {
	t, err := tensor.FromSlice[float32, B](data, tensor.Shape(shape), b)
	if err != nil {
		panic("nn: " + err.Error())
	}
	return t
}

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		if d < 0 {
			panic("nn: negative dimension in shape")
		}
		n *= d
	}
	return n
}
