package serialization

import (
	"time"

	"github.com/warp-ml/warp/internal/tensor"
)

// Container format constants.
const (
	MagicBytes      = "WARP"
	TensorMagic     = "WRPT"
	FormatVersion   = 1
	HeaderAlignment = 64
	FixedHeaderSize = 64
	ChecksumSize    = 32
	ChecksumOffset  = 0x20

	// MaxHeaderSize bounds the JSON header so a corrupt size field
	// cannot trigger a huge allocation.
	MaxHeaderSize = 100 * 1024 * 1024
)

// Container flags.
const (
	FlagHasMetadata   uint32 = 1 << 0
	FlagHasCheckpoint uint32 = 1 << 1
)

// Header is the JSON header of a state-dict container.
type Header struct {
	FormatVersion  int               `json:"format_version"`
	LibraryVersion string            `json:"warp_version"`
	ModelType      string            `json:"model_type"`
	CreatedAt      time.Time         `json:"created_at"`
	Tensors        []TensorMeta      `json:"tensors"`
	Metadata       map[string]string `json:"metadata"`
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// TensorMeta locates one tensor inside the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

// CheckpointMeta carries training state alongside the weights.
type CheckpointMeta struct {
	IsCheckpoint    bool           `json:"is_checkpoint"`
	Epoch           int            `json:"epoch"`
	Step            int64          `json:"step"`
	Loss            float64        `json:"loss"`
	OptimizerType   string         `json:"optimizer_type"`
	OptimizerConfig map[string]any `json:"optimizer_config"`
	TrainingMeta    map[string]any `json:"training_meta"`
}

// dtypeName maps a data type to its stable header spelling. Every dtype
// in the closed set serializes; ParseDataType is the inverse.
func dtypeName(dt tensor.DataType) string {
	return dt.String()
}

func parseDType(s string) (tensor.DataType, bool) {
	return tensor.ParseDataType(s)
}
