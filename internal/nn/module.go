// Package nn implements neural network layers on top of the tensor and
// autodiff packages. Layers embed Base, which owns the registration tree
// of parameters, buffers and child modules. Registration order is
// preserved so that traversal, state dicts and optimizer iteration are
// deterministic across runs.
package nn

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/warp-ml/warp/internal/tensor"
)

// Module is the common interface of all layers. Forward consumes a single
// input tensor; layers with extra inputs (attention, decoder layers, RNN
// cells) expose dedicated methods alongside Forward.
type Module[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Tree returns the module's registration tree. Embedding Base
	// satisfies this automatically.
	Tree() *Base[B]
}

// Base is the registration tree embedded by every layer. It tracks
// parameters, non-trainable buffers and child modules in insertion order.
type Base[B tensor.Backend] struct {
	params   *orderedmap.OrderedMap[string, *Parameter[B]]
	buffers  *orderedmap.OrderedMap[string, *tensor.Tensor[float32, B]]
	children *orderedmap.OrderedMap[string, Module[B]]
	training bool
}

// NewBase returns an empty tree in training mode.
func NewBase[B tensor.Backend]() *Base[B] {
	return &Base[B]{
		params:   orderedmap.New[string, *Parameter[B]](),
		buffers:  orderedmap.New[string, *tensor.Tensor[float32, B]](),
		children: orderedmap.New[string, Module[B]](),
		training: true,
	}
}

// Tree returns b itself so embedding Base satisfies Module.
func (b *Base[B]) Tree() *Base[B] { return b }

// Training reports whether the module is in training mode.
func (b *Base[B]) Training() bool { return b.training }

// RegisterParameter adds a named parameter to this module. Registering
// the same name twice panics; a nil parameter panics.
func (b *Base[B]) RegisterParameter(name string, p *Parameter[B]) {
	validateName(name)
	if p == nil {
		panic(fmt.Sprintf("nn: register nil parameter %q", name))
	}
	if _, ok := b.params.Get(name); ok {
		panic(fmt.Sprintf("nn: duplicate parameter %q", name))
	}
	b.params.Set(name, p)
}

// RegisterBuffer adds a named non-trainable tensor (running statistics,
// masks). Buffers appear in state dicts but not in Parameters.
func (b *Base[B]) RegisterBuffer(name string, t *tensor.Tensor[float32, B]) {
	validateName(name)
	if t == nil {
		panic(fmt.Sprintf("nn: register nil buffer %q", name))
	}
	if _, ok := b.buffers.Get(name); ok {
		panic(fmt.Sprintf("nn: duplicate buffer %q", name))
	}
	b.buffers.Set(name, t)
}

// RegisterModule adds a named child module.
func (b *Base[B]) RegisterModule(name string, child Module[B]) {
	validateName(name)
	if child == nil {
		panic(fmt.Sprintf("nn: register nil module %q", name))
	}
	if _, ok := b.children.Get(name); ok {
		panic(fmt.Sprintf("nn: duplicate module %q", name))
	}
	b.children.Set(name, child)
}

func validateName(name string) {
	if name == "" || strings.Contains(name, ".") {
		panic(fmt.Sprintf("nn: invalid registration name %q", name))
	}
}

// Parameters returns all trainable parameters: this module's own first,
// in registration order, then each child's recursively.
func (b *Base[B]) Parameters() []*Parameter[B] {
	out := make([]*Parameter[B], 0, b.params.Len())
	for pair := b.params.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	for pair := b.children.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value.Tree().Parameters()...)
	}
	return out
}

// NamedParameters returns parameters keyed by dotted path, e.g.
// "encoder.0.weight". Iteration order matches Parameters.
func (b *Base[B]) NamedParameters() *orderedmap.OrderedMap[string, *Parameter[B]] {
	out := orderedmap.New[string, *Parameter[B]]()
	b.collectParams("", out)
	return out
}

func (b *Base[B]) collectParams(prefix string, out *orderedmap.OrderedMap[string, *Parameter[B]]) {
	for pair := b.params.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(prefix+pair.Key, pair.Value)
	}
	for pair := b.children.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.Tree().collectParams(prefix+pair.Key+".", out)
	}
}

// NamedBuffers returns buffers keyed by dotted path.
func (b *Base[B]) NamedBuffers() *orderedmap.OrderedMap[string, *tensor.Tensor[float32, B]] {
	out := orderedmap.New[string, *tensor.Tensor[float32, B]]()
	b.collectBuffers("", out)
	return out
}

func (b *Base[B]) collectBuffers(prefix string, out *orderedmap.OrderedMap[string, *tensor.Tensor[float32, B]]) {
	for pair := b.buffers.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(prefix+pair.Key, pair.Value)
	}
	for pair := b.children.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.Tree().collectBuffers(prefix+pair.Key+".", out)
	}
}

// GetParameter resolves a dotted path to a parameter.
func (b *Base[B]) GetParameter(path string) (*Parameter[B], bool) {
	node := b
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		child, ok := node.children.Get(part)
		if !ok {
			return nil, false
		}
		node = child.Tree()
	}
	return node.params.Get(parts[len(parts)-1])
}

// HasParameter reports whether a dotted path names a parameter.
func (b *Base[B]) HasParameter(path string) bool {
	_, ok := b.GetParameter(path)
	return ok
}

// GetModule resolves a dotted path to a child module.
func (b *Base[B]) GetModule(path string) (Module[B], bool) {
	node := b
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		child, ok := node.children.Get(part)
		if !ok {
			return nil, false
		}
		node = child.Tree()
	}
	return node.children.Get(parts[len(parts)-1])
}

// Train puts this module and all children into training mode.
func (b *Base[B]) Train() { b.setTraining(true) }

// Eval puts this module and all children into evaluation mode.
func (b *Base[B]) Eval() { b.setTraining(false) }

func (b *Base[B]) setTraining(on bool) {
	b.training = on
	for pair := b.children.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.Tree().setTraining(on)
	}
}

// ZeroGrad clears the gradient of every parameter in the tree.
func (b *Base[B]) ZeroGrad() {
	for _, p := range b.Parameters() {
		p.ZeroGrad()
	}
}

// StateDict returns a flat map of dotted names to raw tensors, covering
// parameters and buffers. Tensors are shared, not copied.
func (b *Base[B]) StateDict() map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	for pair := b.NamedParameters().Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value.Tensor().Raw()
	}
	for pair := b.NamedBuffers().Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value.Raw()
	}
	return out
}

// LoadStateDict copies values from the map into matching parameters and
// buffers. Every destination must be present with matching shape and
// dtype; unknown keys are rejected.
func (b *Base[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	dst := b.StateDict()
	for name := range state {
		if _, ok := dst[name]; !ok {
			return fmt.Errorf("nn: unexpected key %q in state dict", name)
		}
	}
	for name, want := range dst {
		got, ok := state[name]
		if !ok {
			return fmt.Errorf("nn: missing key %q in state dict", name)
		}
		if !got.Shape().Equal(want.Shape()) {
			return fmt.Errorf("nn: shape mismatch for %q: got %v, want %v", name, got.Shape(), want.Shape())
		}
		if got.DType() != want.DType() {
			return fmt.Errorf("nn: dtype mismatch for %q: got %s, want %s", name, got.DType(), want.DType())
		}
	}
	for name, want := range dst {
		copy(want.Data(), state[name].Data())
	}
	return nil
}
