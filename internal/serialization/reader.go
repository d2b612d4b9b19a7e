package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/warp-ml/warp/internal/tensor"
)

// Reader reads state-dict containers from a .warp file.
type Reader struct {
	file       *os.File
	header     Header
	flags      uint32
	dataOffset int64
	dataSize   int64
	checksum   [32]byte
	opts       ReaderOptions
	closed     bool
}

// ReaderOptions configures container reading.
type ReaderOptions struct {
	// SkipChecksumValidation trades integrity checking for speed.
	SkipChecksumValidation bool
	ValidationLevel        ValidationLevel
}

// NewReader opens a container with strict validation.
func NewReader(path string) (*Reader, error) {
	return NewReaderWithOptions(path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// NewReaderWithOptions opens a container with custom options.
func NewReaderWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r := &Reader{file: file, opts: opts}
	if err := r.parseHeader(); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	if err := ValidateHeader(&r.header, r.dataSize, opts.ValidationLevel); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if !opts.SkipChecksumValidation {
		if err := r.validateChecksum(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}
	return r, nil
}

func (r *Reader) parseHeader() error {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r.file, fixed); err != nil {
		return fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return ErrInvalidMagic
	}
	version := binary.LittleEndian.Uint32(fixed[4:8])
	if version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}
	r.flags = binary.LittleEndian.Uint32(fixed[8:12])

	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}
	r.dataSize = int64(binary.LittleEndian.Uint64(fixed[24:32]))
	copy(r.checksum[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r.file, headerJSON); err != nil {
		return fmt.Errorf("failed to read header JSON: %w", err)
	}
	if err := json.Unmarshal(headerJSON, &r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}

	pos := int64(FixedHeaderSize) + int64(headerSize)
	r.dataOffset = pos + (HeaderAlignment-pos%HeaderAlignment)%HeaderAlignment

	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size()-r.dataOffset < r.dataSize {
		return fmt.Errorf("%w: data section truncated", ErrOutOfBounds)
	}
	return nil
}

func (r *Reader) validateChecksum() error {
	section := io.NewSectionReader(r.file, r.dataOffset, r.dataSize)
	computed, err := ComputeChecksumReader(section)
	if err != nil {
		return fmt.Errorf("failed to hash data section: %w", err)
	}
	return ValidateChecksum(computed, r.checksum)
}

// Header returns the parsed JSON header.
func (r *Reader) Header() Header { return r.header }

// CheckpointMeta returns the checkpoint block, or nil for plain weights.
func (r *Reader) CheckpointMeta() *CheckpointMeta { return r.header.CheckpointMeta }

// TensorNames lists the stored tensors in header order.
func (r *Reader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// ReadTensor loads one tensor by name onto the given device.
func (r *Reader) ReadTensor(name string, device tensor.Device) (*tensor.RawTensor, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}
	for i := range r.header.Tensors {
		meta := &r.header.Tensors[i]
		if meta.Name != name {
			continue
		}
		return r.readMeta(meta, device)
	}
	return nil, fmt.Errorf("%w: %q", ErrTensorNotFound, name)
}

// ReadStateDict loads all tensors onto the given device.
func (r *Reader) ReadStateDict(device tensor.Device) (map[string]*tensor.RawTensor, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}
	out := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for i := range r.header.Tensors {
		meta := &r.header.Tensors[i]
		raw, err := r.readMeta(meta, device)
		if err != nil {
			return nil, fmt.Errorf("failed to read tensor %q: %w", meta.Name, err)
		}
		out[meta.Name] = raw
	}
	return out, nil
}

func (r *Reader) readMeta(meta *TensorMeta, device tensor.Device) (*tensor.RawTensor, error) {
	dtype, ok := parseDType(meta.DType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDType, meta.DType)
	}
	raw, err := tensor.NewRaw(shapeOf(meta), dtype, device)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate tensor: %w", err)
	}
	if _, err := r.file.ReadAt(raw.Data(), r.dataOffset+meta.Offset); err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	return raw, nil
}

// Close releases the underlying file. Close is idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}
