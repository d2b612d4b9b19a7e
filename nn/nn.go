// Copyright 2025 The Warp Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/warp-ml/warp/internal/nn"
	"github.com/warp-ml/warp/tensor"
)

// Module system.

// Module is the interface every layer and model implements.
type Module[B tensor.Backend] = nn.Module[B]

// Base carries the registered parameters, buffers and children of a
// module. Embed a *Base in custom modules.
type Base[B tensor.Backend] = nn.Base[B]

// NewBase creates an empty module base.
func NewBase[B tensor.Backend]() *Base[B] { return nn.NewBase[B]() }

// Parameter is a named trainable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter wraps a tensor as a trainable parameter, enabling gradient
// tracking on its raw handle.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Initializers.

// Zeros creates a zero-filled float32 tensor.
func Zeros[B tensor.Backend](b B, shape ...int) *tensor.Tensor[float32, B] {
	return nn.Zeros(b, shape...)
}

// Ones creates a one-filled float32 tensor.
func Ones[B tensor.Backend](b B, shape ...int) *tensor.Tensor[float32, B] {
	return nn.Ones(b, shape...)
}

// Full creates a float32 tensor filled with value.
func Full[B tensor.Backend](b B, value float32, shape ...int) *tensor.Tensor[float32, B] {
	return nn.Full(b, value, shape...)
}

// Randn creates a float32 tensor of standard normal samples.
func Randn[B tensor.Backend](b B, shape ...int) *tensor.Tensor[float32, B] {
	return nn.Randn(b, shape...)
}

// Uniform creates a float32 tensor of uniform samples on [lo, hi).
func Uniform[B tensor.Backend](b B, lo, hi float32, shape ...int) *tensor.Tensor[float32, B] {
	return nn.Uniform(b, lo, hi, shape...)
}

// XavierUniform initializes with the Glorot uniform scheme.
func XavierUniform[B tensor.Backend](b B, fanIn, fanOut int, shape ...int) *tensor.Tensor[float32, B] {
	return nn.XavierUniform(b, fanIn, fanOut, shape...)
}

// XavierNormal initializes with the Glorot normal scheme.
func XavierNormal[B tensor.Backend](b B, fanIn, fanOut int, shape ...int) *tensor.Tensor[float32, B] {
	return nn.XavierNormal(b, fanIn, fanOut, shape...)
}

// KaimingUniform initializes with the He uniform scheme.
func KaimingUniform[B tensor.Backend](b B, fanIn int, shape ...int) *tensor.Tensor[float32, B] {
	return nn.KaimingUniform(b, fanIn, shape...)
}

// KaimingNormal initializes with the He normal scheme.
func KaimingNormal[B tensor.Backend](b B, fanIn int, shape ...int) *tensor.Tensor[float32, B] {
	return nn.KaimingNormal(b, fanIn, shape...)
}

// Layers.

// Linear is a fully connected layer: y = x W^T + b.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a Linear layer with Xavier-initialized weights.
func NewLinear[B tensor.Backend](b B, inFeatures, outFeatures int, withBias bool) *Linear[B] {
	return nn.NewLinear(b, inFeatures, outFeatures, withBias)
}

// ConvOptions configures convolution layers.
type ConvOptions = nn.ConvOptions

// DefaultConvOptions returns stride 1, no padding, dilation 1, one group,
// with bias.
func DefaultConvOptions() ConvOptions { return nn.DefaultConvOptions() }

// Conv1d is a 1D convolution over [N, C, L] inputs.
type Conv1d[B tensor.Backend] = nn.Conv1d[B]

// NewConv1d creates a Conv1d layer with He-initialized kernels.
func NewConv1d[B tensor.Backend](b B, inChannels, outChannels, kernelSize int, opts ConvOptions) *Conv1d[B] {
	return nn.NewConv1d(b, inChannels, outChannels, kernelSize, opts)
}

// Conv2d is a 2D convolution over [N, C, H, W] inputs.
type Conv2d[B tensor.Backend] = nn.Conv2d[B]

// NewConv2d creates a Conv2d layer with He-initialized kernels.
func NewConv2d[B tensor.Backend](b B, inChannels, outChannels, kernelSize int, opts ConvOptions) *Conv2d[B] {
	return nn.NewConv2d(b, inChannels, outChannels, kernelSize, opts)
}

// MaxPool2d applies 2D max pooling.
type MaxPool2d[B tensor.Backend] = nn.MaxPool2d[B]

// NewMaxPool2d creates a max pooling layer. A stride of 0 defaults to the
// kernel size.
func NewMaxPool2d[B tensor.Backend](kernelSize, stride int) *MaxPool2d[B] {
	return nn.NewMaxPool2d[B](kernelSize, stride)
}

// AvgPool2d applies 2D average pooling.
type AvgPool2d[B tensor.Backend] = nn.AvgPool2d[B]

// NewAvgPool2d creates an average pooling layer. A stride of 0 defaults to
// the kernel size.
func NewAvgPool2d[B tensor.Backend](kernelSize, stride int) *AvgPool2d[B] {
	return nn.NewAvgPool2d[B](kernelSize, stride)
}

// BatchNorm1d normalizes [N, C] or [N, C, L] inputs per channel.
type BatchNorm1d[B tensor.Backend] = nn.BatchNorm1d[B]

// NewBatchNorm1d creates a BatchNorm1d layer.
func NewBatchNorm1d[B tensor.Backend](b B, numFeatures int) *BatchNorm1d[B] {
	return nn.NewBatchNorm1d(b, numFeatures)
}

// BatchNorm2d normalizes [N, C, H, W] inputs per channel, tracking running
// statistics across training batches.
type BatchNorm2d[B tensor.Backend] = nn.BatchNorm2d[B]

// NewBatchNorm2d creates a BatchNorm2d layer.
func NewBatchNorm2d[B tensor.Backend](b B, numFeatures int) *BatchNorm2d[B] {
	return nn.NewBatchNorm2d(b, numFeatures)
}

// LayerNorm normalizes over the trailing dimensions.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a LayerNorm over the given trailing shape.
func NewLayerNorm[B tensor.Backend](b B, normalizedShape ...int) *LayerNorm[B] {
	return nn.NewLayerNorm(b, normalizedShape...)
}

// Dropout zeroes elements with probability p during training and rescales
// the survivors by 1/(1-p).
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a Dropout layer.
func NewDropout[B tensor.Backend](p float32) *Dropout[B] { return nn.NewDropout[B](p) }

// NewDropoutInPlace creates a Dropout layer that mutates its input. It
// rejects gradient-tracked inputs.
func NewDropoutInPlace[B tensor.Backend](p float32) *Dropout[B] { return nn.NewDropoutInPlace[B](p) }

// Embedding is a lookup table from integer indices to dense vectors.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates an Embedding with normally initialized weights.
func NewEmbedding[B tensor.Backend](b B, numEmbeddings, embeddingDim int) *Embedding[B] {
	return nn.NewEmbedding(b, numEmbeddings, embeddingDim)
}

// Sequential chains modules, registering them under index names.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a Sequential from the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Pad2d pads the trailing two dimensions of [N, C, H, W] inputs.
type Pad2d[B tensor.Backend] = nn.Pad2d[B]

// NewZeroPad2d pads with zeros.
func NewZeroPad2d[B tensor.Backend](left, right, top, bottom int) *Pad2d[B] {
	return nn.NewZeroPad2d[B](left, right, top, bottom)
}

// NewConstantPad2d pads with a constant value.
func NewConstantPad2d[B tensor.Backend](left, right, top, bottom int, value float64) *Pad2d[B] {
	return nn.NewConstantPad2d[B](left, right, top, bottom, value)
}

// NewReflectionPad2d mirrors interior elements across the boundary.
func NewReflectionPad2d[B tensor.Backend](left, right, top, bottom int) *Pad2d[B] {
	return nn.NewReflectionPad2d[B](left, right, top, bottom)
}

// NewReplicationPad2d repeats the edge elements.
func NewReplicationPad2d[B tensor.Backend](left, right, top, bottom int) *Pad2d[B] {
	return nn.NewReplicationPad2d[B](left, right, top, bottom)
}

// Upsample scales the spatial dimensions by nearest-neighbor repetition.
type Upsample[B tensor.Backend] = nn.Upsample[B]

// NewUpsample creates an Upsample layer with an integer scale factor.
func NewUpsample[B tensor.Backend](scale int) *Upsample[B] { return nn.NewUpsample[B](scale) }

// Activations.

// ReLU applies max(x, 0).
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] { return nn.NewReLU[B]() }

// Sigmoid applies the logistic function.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a Sigmoid activation.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] { return nn.NewSigmoid[B]() }

// Tanh applies the hyperbolic tangent.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a Tanh activation.
func NewTanh[B tensor.Backend]() *Tanh[B] { return nn.NewTanh[B]() }

// Softmax normalizes along a dimension.
type Softmax[B tensor.Backend] = nn.Softmax[B]

// NewSoftmax creates a Softmax over the given dimension.
func NewSoftmax[B tensor.Backend](dim int) *Softmax[B] { return nn.NewSoftmax[B](dim) }

// GELU applies the tanh-approximated Gaussian error linear unit.
type GELU[B tensor.Backend] = nn.GELU[B]

// NewGELU creates a GELU activation.
func NewGELU[B tensor.Backend]() *GELU[B] { return nn.NewGELU[B]() }

// LeakyReLU lets a fraction of negative inputs through.
type LeakyReLU[B tensor.Backend] = nn.LeakyReLU[B]

// NewLeakyReLU creates a LeakyReLU with the given negative slope.
func NewLeakyReLU[B tensor.Backend](slope float32) *LeakyReLU[B] { return nn.NewLeakyReLU[B](slope) }

// Recurrent cells.

// RNNCell is a vanilla tanh recurrence.
type RNNCell[B tensor.Backend] = nn.RNNCell[B]

// NewRNNCell creates an RNNCell.
func NewRNNCell[B tensor.Backend](b B, inputSize, hiddenSize int) *RNNCell[B] {
	return nn.NewRNNCell(b, inputSize, hiddenSize)
}

// LSTMCell is a long short-term memory cell.
type LSTMCell[B tensor.Backend] = nn.LSTMCell[B]

// NewLSTMCell creates an LSTMCell.
func NewLSTMCell[B tensor.Backend](b B, inputSize, hiddenSize int) *LSTMCell[B] {
	return nn.NewLSTMCell(b, inputSize, hiddenSize)
}

// GRUCell is a gated recurrent unit cell.
type GRUCell[B tensor.Backend] = nn.GRUCell[B]

// NewGRUCell creates a GRUCell.
func NewGRUCell[B tensor.Backend](b B, inputSize, hiddenSize int) *GRUCell[B] {
	return nn.NewGRUCell(b, inputSize, hiddenSize)
}

// Attention and transformer layers.

// MultiheadAttention is scaled dot-product attention with head splitting
// and learned projections.
type MultiheadAttention[B tensor.Backend] = nn.MultiheadAttention[B]

// NewMultiheadAttention creates a MultiheadAttention layer. embedDim must
// be divisible by numHeads.
func NewMultiheadAttention[B tensor.Backend](b B, embedDim, numHeads int, dropoutP float32) *MultiheadAttention[B] {
	return nn.NewMultiheadAttention(b, embedDim, numHeads, dropoutP)
}

// TransformerEncoderLayer is self-attention followed by a feed-forward
// block, each with a post-norm residual connection.
type TransformerEncoderLayer[B tensor.Backend] = nn.TransformerEncoderLayer[B]

// NewTransformerEncoderLayer creates an encoder layer.
func NewTransformerEncoderLayer[B tensor.Backend](b B, dModel, numHeads, dimFeedforward int, dropoutP float32) *TransformerEncoderLayer[B] {
	return nn.NewTransformerEncoderLayer(b, dModel, numHeads, dimFeedforward, dropoutP)
}

// TransformerDecoderLayer adds cross-attention against an encoder memory.
type TransformerDecoderLayer[B tensor.Backend] = nn.TransformerDecoderLayer[B]

// NewTransformerDecoderLayer creates a decoder layer.
func NewTransformerDecoderLayer[B tensor.Backend](b B, dModel, numHeads, dimFeedforward int, dropoutP float32) *TransformerDecoderLayer[B] {
	return nn.NewTransformerDecoderLayer(b, dModel, numHeads, dimFeedforward, dropoutP)
}

// CausalMask returns an [l, l] additive mask whose upper triangle is a
// large negative value, blocking attention to future positions.
func CausalMask[B tensor.Backend](b B, l int) *tensor.Tensor[float32, B] {
	return nn.CausalMask(b, l)
}

// Losses.

// Reduction selects how a loss aggregates per-element values.
type Reduction = nn.Reduction

// Supported reductions.
const (
	ReductionMean Reduction = nn.ReductionMean
	ReductionSum  Reduction = nn.ReductionSum
	ReductionNone Reduction = nn.ReductionNone
)

// MSELoss is the mean squared error.
type MSELoss[B tensor.Backend] = nn.MSELoss[B]

// NewMSELoss creates an MSELoss.
func NewMSELoss[B tensor.Backend](reduction Reduction) *MSELoss[B] {
	return nn.NewMSELoss[B](reduction)
}

// L1Loss is the mean absolute error.
type L1Loss[B tensor.Backend] = nn.L1Loss[B]

// NewL1Loss creates an L1Loss.
func NewL1Loss[B tensor.Backend](reduction Reduction) *L1Loss[B] {
	return nn.NewL1Loss[B](reduction)
}

// CrossEntropyLoss combines softmax and negative log-likelihood over
// class logits.
type CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]

// NewCrossEntropyLoss creates a CrossEntropyLoss.
func NewCrossEntropyLoss[B tensor.Backend](reduction Reduction) *CrossEntropyLoss[B] {
	return nn.NewCrossEntropyLoss[B](reduction)
}

// BCELoss is binary cross-entropy over probabilities.
type BCELoss[B tensor.Backend] = nn.BCELoss[B]

// NewBCELoss creates a BCELoss.
func NewBCELoss[B tensor.Backend](reduction Reduction) *BCELoss[B] {
	return nn.NewBCELoss[B](reduction)
}

// NLLLoss is the negative log-likelihood over log-probabilities.
type NLLLoss[B tensor.Backend] = nn.NLLLoss[B]

// NewNLLLoss creates an NLLLoss.
func NewNLLLoss[B tensor.Backend](reduction Reduction) *NLLLoss[B] {
	return nn.NewNLLLoss[B](reduction)
}

// Persistence.

// OptimizerState is the optimizer surface checkpointing needs.
type OptimizerState = nn.OptimizerState

// Checkpoint bundles a model, optional optimizer state, and training
// progress for persistence.
type Checkpoint[B tensor.Backend] = nn.Checkpoint[B]

// SaveModel writes a module's state dict to path.
func SaveModel[B tensor.Backend](path string, model Module[B], modelType string) error {
	return nn.SaveModel(path, model, modelType)
}

// LoadModel restores a module's state dict from path onto device.
func LoadModel[B tensor.Backend](path string, model Module[B], device tensor.Device) error {
	return nn.LoadModel(path, model, device)
}

// SaveCheckpoint writes a training checkpoint to path.
func SaveCheckpoint[B tensor.Backend](path string, ckpt *Checkpoint[B]) error {
	return nn.SaveCheckpoint(path, ckpt)
}

// LoadCheckpoint restores a training checkpoint from path onto device.
func LoadCheckpoint[B tensor.Backend](path string, ckpt *Checkpoint[B], device tensor.Device) error {
	return nn.LoadCheckpoint(path, ckpt, device)
}
