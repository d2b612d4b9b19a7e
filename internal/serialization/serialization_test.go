package serialization

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp-ml/warp/internal/tensor"
)

func newRaw(t *testing.T, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	require.NoError(t, err)
	return raw
}

func TestTensorRoundTrip(t *testing.T) {
	raw := newRaw(t, tensor.Shape{2, 3}, tensor.Float32)
	copy(raw.AsFloat32(), []float32{1, 2, 3, 4, 5, 6})

	var buf bytes.Buffer
	require.NoError(t, WriteTensor(&buf, raw))

	got, err := ReadTensor(&buf, tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, got.Shape())
	assert.Equal(t, tensor.Float32, got.DType())
	assert.Equal(t, raw.Data(), got.Data())
}

func TestTensorRoundTripAllDTypes(t *testing.T) {
	for _, dtype := range tensor.DataTypes() {
		raw := newRaw(t, tensor.Shape{4}, dtype)
		for i := range raw.Data() {
			raw.Data()[i] = byte(i*37 + 1)
		}
		if dtype == tensor.Bool {
			for i := range raw.Data() {
				raw.Data()[i] &= 1
			}
		}

		var buf bytes.Buffer
		require.NoError(t, WriteTensor(&buf, raw), dtype.String())

		got, err := ReadTensor(&buf, tensor.CPU)
		require.NoError(t, err, dtype.String())
		assert.Equal(t, dtype, got.DType())
		assert.Equal(t, raw.Data(), got.Data(), dtype.String())
	}
}

func TestTensorRejectsBadMagic(t *testing.T) {
	_, err := ReadTensor(bytes.NewReader([]byte("NOPE0000")), tensor.CPU)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestTensorScalarRoundTrip(t *testing.T) {
	raw := newRaw(t, tensor.Shape{}, tensor.Float64)
	raw.AsFloat64()[0] = 3.5

	var buf bytes.Buffer
	require.NoError(t, WriteTensor(&buf, raw))

	got, err := ReadTensor(&buf, tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, 0, len(got.Shape()))
	assert.Equal(t, 3.5, got.AsFloat64()[0])
}

func writeContainer(t *testing.T, path string, state map[string]*tensor.RawTensor, header Header) {
	t.Helper()
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteStateDictWithHeader(state, header))
	require.NoError(t, w.Close())
}

func sampleState(t *testing.T) map[string]*tensor.RawTensor {
	t.Helper()
	weight := newRaw(t, tensor.Shape{2, 2}, tensor.Float32)
	copy(weight.AsFloat32(), []float32{1, 2, 3, 4})
	bias := newRaw(t, tensor.Shape{2}, tensor.Float32)
	copy(bias.AsFloat32(), []float32{0.5, -0.5})
	steps := newRaw(t, tensor.Shape{1}, tensor.Int64)
	steps.AsInt64()[0] = 42
	return map[string]*tensor.RawTensor{
		"layer.weight": weight,
		"layer.bias":   bias,
		"steps":        steps,
	}
}

func TestStateDictRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.warp")
	state := sampleState(t)
	writeContainer(t, path, state, Header{ModelType: "Sequential", Metadata: map[string]string{"task": "test"}})

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "Sequential", r.Header().ModelType)
	assert.Equal(t, "test", r.Header().Metadata["task"])
	assert.ElementsMatch(t, []string{"layer.bias", "layer.weight", "steps"}, r.TensorNames())

	got, err := r.ReadStateDict(tensor.CPU)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for name, want := range state {
		assert.Equal(t, want.Shape(), got[name].Shape(), name)
		assert.Equal(t, want.DType(), got[name].DType(), name)
		assert.Equal(t, want.Data(), got[name].Data(), name)
	}
}

func TestReadSingleTensorByName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.warp")
	writeContainer(t, path, sampleState(t), Header{})

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	raw, err := r.ReadTensor("layer.bias", tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.5}, raw.AsFloat32())

	_, err = r.ReadTensor("missing", tensor.CPU)
	assert.ErrorIs(t, err, ErrTensorNotFound)
}

func TestStateDictWithViewEntry(t *testing.T) {
	// A view into a larger buffer must contribute exactly its own bytes,
	// or every tensor written after it lands at the wrong offset.
	base := newRaw(t, tensor.Shape{6}, tensor.Float32)
	copy(base.AsFloat32(), []float32{10, 20, 30, 40, 50, 60})
	window := base.NarrowView(0, tensor.Shape{2})

	bias := newRaw(t, tensor.Shape{3}, tensor.Float32)
	copy(bias.AsFloat32(), []float32{7, 8, 9})

	state := map[string]*tensor.RawTensor{
		"a.window": window,
		"b.bias":   bias,
	}

	path := filepath.Join(t.TempDir(), "view.warp")
	writeContainer(t, path, state, Header{})

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadStateDict(tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, []float32{10, 20}, got["a.window"].AsFloat32())
	assert.Equal(t, []float32{7, 8, 9}, got["b.bias"].AsFloat32())
}

func TestWriterRejectsNonContiguous(t *testing.T) {
	base := newRaw(t, tensor.Shape{4}, tensor.Float32)
	strided := base.StridedView(tensor.Shape{2}, []int{2})

	path := filepath.Join(t.TempDir(), "strided.warp")
	w, err := NewWriter(path)
	require.NoError(t, err)
	defer w.Close()

	err = w.WriteStateDict(map[string]*tensor.RawTensor{"w": strided}, "", nil)
	assert.ErrorIs(t, err, ErrNotContiguous)

	var buf bytes.Buffer
	assert.ErrorIs(t, WriteTensor(&buf, strided), ErrNotContiguous)
}

func TestTensorViewWritesOwnBytes(t *testing.T) {
	base := newRaw(t, tensor.Shape{5}, tensor.Float32)
	copy(base.AsFloat32(), []float32{1, 2, 3, 4, 5})
	window := base.NarrowView(1, tensor.Shape{2})

	var buf bytes.Buffer
	require.NoError(t, WriteTensor(&buf, window))
	// prelude + one dimension + exactly two float32 values
	assert.Equal(t, 8+8+8, buf.Len())

	got, err := ReadTensor(&buf, tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3}, got.AsFloat32())
}

func TestChecksumDetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.warp")
	writeContainer(t, path, sampleState(t), Header{})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = NewReader(path)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	// Skipping validation reads the corrupt bytes without complaint.
	r, err := NewReaderWithOptions(path, ReaderOptions{
		SkipChecksumValidation: true,
		ValidationLevel:        ValidationStrict,
	})
	require.NoError(t, err)
	require.NoError(t, r.Close())
}

func TestCheckpointMetaRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckpt.warp")
	header := Header{
		ModelType: "Linear",
		CheckpointMeta: &CheckpointMeta{
			IsCheckpoint:  true,
			Epoch:         7,
			Step:          12345,
			Loss:          0.125,
			OptimizerType: "SGD",
			OptimizerConfig: map[string]any{
				"lr": 0.01,
			},
		},
	}
	writeContainer(t, path, sampleState(t), header)

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	meta := r.CheckpointMeta()
	require.NotNil(t, meta)
	assert.True(t, meta.IsCheckpoint)
	assert.Equal(t, 7, meta.Epoch)
	assert.Equal(t, int64(12345), meta.Step)
	assert.Equal(t, 0.125, meta.Loss)
	assert.Equal(t, "SGD", meta.OptimizerType)
}

func TestRejectsBadContainerMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.warp")
	junk := make([]byte, 128)
	copy(junk, "JUNKJUNK")
	require.NoError(t, os.WriteFile(path, junk, 0o644))

	_, err := NewReader(path)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestValidateHeaderOverlap(t *testing.T) {
	header := &Header{
		Tensors: []TensorMeta{
			{Name: "a", DType: "float32", Shape: []int{4}, Offset: 0, Size: 16},
			{Name: "b", DType: "float32", Shape: []int{4}, Offset: 8, Size: 16},
		},
	}
	err := ValidateHeader(header, 64, ValidationStrict)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "offset_overlap", verr.Kind)

	// Basic validation does not check overlaps.
	assert.NoError(t, ValidateHeader(header, 64, ValidationBasic))
}

func TestValidateHeaderBounds(t *testing.T) {
	header := &Header{
		Tensors: []TensorMeta{
			{Name: "a", DType: "float32", Shape: []int{4}, Offset: 0, Size: 16},
		},
	}
	assert.NoError(t, ValidateHeader(header, 16, ValidationStrict))
	assert.Error(t, ValidateHeader(header, 8, ValidationStrict))

	header.Tensors[0].Size = 12 // disagrees with shape
	assert.Error(t, ValidateHeader(header, 16, ValidationStrict))
}

func TestWriterCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.warp")
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.WriteStateDict(nil, "", nil), ErrWriterClosed)
}
