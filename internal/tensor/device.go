package tensor

// Device represents the compute placement for tensor buffers.
type Device int

// The closed set of device kinds. CUDA, Vulkan and Metal are reserved for
// future backends: allocation on them fails with ErrDeviceUnavailable.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// Devices lists every device kind, including reserved ones.
func Devices() []Device {
	return []Device{CPU, CUDA, Vulkan, Metal, WebGPU}
}

// HostAddressable reports whether tensor buffers on this device live in
// host memory and may be accessed through Data/As* views. The WebGPU
// backend keeps a host mirror, so its tensors are host-addressable.
func (d Device) HostAddressable() bool {
	return d == CPU || d == WebGPU
}

// allocatable reports whether NewRaw may allocate on the device.
// Reserved device kinds are enumerable but not yet backed by an engine.
func (d Device) allocatable() bool {
	return d == CPU || d == WebGPU
}
