package serialization

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/warp-ml/warp/internal/tensor"
)

// The single-tensor format frames one tensor with a fixed prelude: magic,
// version, dtype tag, rank, then one uint64 per dimension and the raw
// little-endian payload.

const (
	tensorFormatVersion = 1
	maxTensorRank       = 255
)

// WriteTensor writes a single tensor to w. The tensor must be host
// addressable; non-contiguous views are materialized by the caller.
func WriteTensor(w io.Writer, raw *tensor.RawTensor) error {
	shape := raw.Shape()
	if len(shape) > maxTensorRank {
		return fmt.Errorf("tensor rank %d exceeds format limit %d", len(shape), maxTensorRank)
	}
	if !raw.IsContiguous() {
		return ErrNotContiguous
	}

	prelude := make([]byte, 8)
	copy(prelude[0:4], TensorMagic)
	prelude[4] = tensorFormatVersion
	prelude[5] = byte(raw.DType())
	prelude[6] = byte(len(shape))
	// prelude[7] reserved

	if _, err := w.Write(prelude); err != nil {
		return fmt.Errorf("failed to write prelude: %w", err)
	}

	dims := make([]byte, 8*len(shape))
	for i, d := range shape {
		binary.LittleEndian.PutUint64(dims[i*8:], uint64(d))
	}
	if _, err := w.Write(dims); err != nil {
		return fmt.Errorf("failed to write dimensions: %w", err)
	}

	// Bound the payload to the tensor's own bytes; Data() on a view
	// runs to the end of the shared buffer.
	if _, err := w.Write(raw.Data()[:raw.ByteSize()]); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

// ReadTensor reads a single tensor from r onto the given device.
func ReadTensor(r io.Reader, device tensor.Device) (*tensor.RawTensor, error) {
	prelude := make([]byte, 8)
	if _, err := io.ReadFull(r, prelude); err != nil {
		return nil, fmt.Errorf("failed to read prelude: %w", err)
	}
	if string(prelude[0:4]) != TensorMagic {
		return nil, ErrInvalidMagic
	}
	if prelude[4] != tensorFormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, prelude[4], tensorFormatVersion)
	}

	dtype := tensor.DataType(prelude[5])
	if dtype.String() == "unknown" {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDType, prelude[5])
	}
	rank := int(prelude[6])

	dims := make([]byte, 8*rank)
	if _, err := io.ReadFull(r, dims); err != nil {
		return nil, fmt.Errorf("failed to read dimensions: %w", err)
	}
	shape := make(tensor.Shape, rank)
	for i := range shape {
		shape[i] = int(binary.LittleEndian.Uint64(dims[i*8:]))
	}

	raw, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate tensor: %w", err)
	}
	if _, err := io.ReadFull(r, raw.Data()); err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return raw, nil
}

// SaveTensor writes a single tensor to a file.
func SaveTensor(path string, raw *tensor.RawTensor) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()
	return WriteTensor(file, raw)
}

// LoadTensor reads a single tensor from a file onto the given device.
func LoadTensor(path string, device tensor.Device) (*tensor.RawTensor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return ReadTensor(file, device)
}
