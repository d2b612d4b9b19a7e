package nn

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// Sequential chains modules so the output of each feeds the next.
// Children register under their index, so state dict keys look like
// "0.weight", "1.bias".
type Sequential[B tensor.Backend] struct {
	*Base[B]

	modules []Module[B]
}

// NewSequential builds a pipeline from the given modules in order.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	s := &Sequential[B]{Base: NewBase[B]()}
	for _, m := range modules {
		s.Add(m)
	}
	return s
}

// Add appends a module to the end of the pipeline.
func (s *Sequential[B]) Add(m Module[B]) *Sequential[B] {
	s.RegisterModule(fmt.Sprintf("%d", len(s.modules)), m)
	s.modules = append(s.modules, m)
	return s
}

// Forward threads the input through every module in order.
func (s *Sequential[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	for _, m := range s.modules {
		x = m.Forward(x)
	}
	return x
}

// Len returns the number of modules in the pipeline.
func (s *Sequential[B]) Len() int { return len(s.modules) }

// Module returns the i-th module.
func (s *Sequential[B]) Module(i int) Module[B] { return s.modules[i] }
