// Package serialization implements the .warp binary formats.
//
// Two formats are provided. The single-tensor format is a minimal framing
// for one tensor:
//
//	[4 bytes: Magic "WRPT"]
//	[1 byte:  Format version]
//	[1 byte:  DType tag]
//	[1 byte:  Rank]
//	[1 byte:  Reserved (0)]
//	[Rank x 8 bytes: dimension sizes (uint64 LE)]
//	[Raw element bytes, little-endian]
//
// The state-dict container holds a named collection of tensors plus
// metadata, with a SHA-256 checksum over the data section:
//
//	[64-byte fixed header]
//	  0x00 Magic "WARP"
//	  0x04 Version (uint32 LE)
//	  0x08 Flags (uint32 LE)
//	  0x0C Reserved
//	  0x10 Header size (uint64 LE)
//	  0x18 Data size (uint64 LE)
//	  0x20 SHA-256 checksum of the data section
//	[JSON header: tensor metadata, checkpoint metadata]
//	[Padding to a 64-byte boundary]
//	[Tensor data: raw bytes, concatenated in header order]
//
// Round-trips preserve dtype, shape and bytes exactly for every dtype in
// the closed set.
package serialization
