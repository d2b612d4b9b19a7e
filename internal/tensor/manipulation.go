package tensor

// Reshape returns a tensor with the same data and a different shape.
// The new shape must have the same number of elements.
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(newShape)), t.backend)
}

// Transpose permutes the tensor's dimensions. Empty axes reverse all dims.
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// T is a shortcut for 2-D transpose. Panics if the tensor is not 2-D.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	if len(t.Shape()) != 2 {
		panic("T() only works for 2D tensors")
	}
	return t.Transpose(1, 0)
}

// Unsqueeze inserts a dimension of size 1 at dim.
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Unsqueeze(t.raw, dim), t.backend)
}

// Squeeze removes a dimension of size 1 at dim.
func (t *Tensor[T, B]) Squeeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Squeeze(t.raw, dim), t.backend)
}

// Expand broadcasts the tensor to a larger shape without copying data
// where the backend can avoid it.
func (t *Tensor[T, B]) Expand(shape Shape) *Tensor[T, B] {
	return New[T, B](t.backend.Expand(t.raw, shape), t.backend)
}

// Cat concatenates tensors along a dimension.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.raw
	}
	b := tensors[0].backend
	return New[T, B](b.Cat(raws, dim), b)
}

// Chunk splits the tensor into n equal parts along dim.
func (t *Tensor[T, B]) Chunk(n, dim int) []*Tensor[T, B] {
	raws := t.backend.Chunk(t.raw, n, dim)
	out := make([]*Tensor[T, B], len(raws))
	for i, r := range raws {
		out[i] = New[T, B](r, t.backend)
	}
	return out
}

// Gather selects elements along dim using an integer index tensor.
func (t *Tensor[T, B]) Gather(dim int, index *Tensor[int64, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Gather(t.raw, dim, index.raw), t.backend)
}

// Where selects elements from x or y based on a bool condition tensor.
func Where[T DType, B Backend](cond *Tensor[bool, B], x, y *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](x.backend.Where(cond.raw, x.raw, y.raw), x.backend)
}

// Pad pads the trailing dimensions. Pads come in (before, after) pairs
// starting from the last dimension.
func (t *Tensor[T, B]) Pad(pads []int, mode PadMode, value float64) *Tensor[T, B] {
	return New[T, B](t.backend.Pad(t.raw, pads, mode, value), t.backend)
}

// Rsqrt computes the element-wise reciprocal square root.
func (t *Tensor[T, B]) Rsqrt() *Tensor[T, B] {
	return New[T, B](t.backend.Rsqrt(t.raw), t.backend)
}

// Greater returns a Bool tensor of element-wise t > other.
func (t *Tensor[T, B]) Greater(other *Tensor[T, B]) *Tensor[bool, B] {
	return New[bool, B](t.backend.Greater(t.raw, other.raw), t.backend)
}

// Equal returns a Bool tensor of element-wise t == other.
func (t *Tensor[T, B]) Equal(other *Tensor[T, B]) *Tensor[bool, B] {
	return New[bool, B](t.backend.Equal(t.raw, other.raw), t.backend)
}

// Embedding treats t as a [vocab, dim] table and looks up rows by index.
func (t *Tensor[T, B]) Embedding(indices *Tensor[int64, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Embedding(t.raw, indices.raw), t.backend)
}

// Conv1D convolves a [N, C_in, L] input with a [C_out, C_in/groups, K]
// kernel.
func (t *Tensor[T, B]) Conv1D(kernel *Tensor[T, B], stride, padding, dilation, groups int) *Tensor[T, B] {
	return New[T, B](t.backend.Conv1D(t.raw, kernel.raw, stride, padding, dilation, groups), t.backend)
}

// Conv2D convolves a [N, C_in, H, W] input with a [C_out, C_in/groups, KH, KW]
// kernel.
func (t *Tensor[T, B]) Conv2D(kernel *Tensor[T, B], stride, padding, dilation, groups int) *Tensor[T, B] {
	return New[T, B](t.backend.Conv2D(t.raw, kernel.raw, stride, padding, dilation, groups), t.backend)
}

// MaxPool2D applies square max pooling over [N, C, H, W].
func (t *Tensor[T, B]) MaxPool2D(kernelSize, stride int) *Tensor[T, B] {
	return New[T, B](t.backend.MaxPool2D(t.raw, kernelSize, stride), t.backend)
}

// AvgPool2D applies square average pooling over [N, C, H, W].
func (t *Tensor[T, B]) AvgPool2D(kernelSize, stride int) *Tensor[T, B] {
	return New[T, B](t.backend.AvgPool2D(t.raw, kernelSize, stride), t.backend)
}

// To transfers the tensor to another device placement.
func (t *Tensor[T, B]) To(device Device) (*Tensor[T, B], error) {
	raw, err := t.backend.Transfer(t.raw, device)
	if err != nil {
		return nil, err
	}
	return New[T, B](raw, t.backend), nil
}
