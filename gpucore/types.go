package gpucore

import (
	"errors"
	"fmt"
	"strings"
)

// Resource IDs
//
// These opaque IDs represent GPU resources. Each device implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// ShaderModuleID is an opaque handle to a compiled shader module.
type ShaderModuleID uint64

// ComputePipelineID is an opaque handle to a compute pipeline.
type ComputePipelineID uint64

// BindGroupLayoutID is an opaque handle to a bind group layout.
type BindGroupLayoutID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// ErrInvalidBufferUsage is returned for usage flag combinations a device
// would reject.
var ErrInvalidBufferUsage = errors.New("gpucore: invalid buffer usage")

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageMapRead indicates the buffer can be mapped for reading.
	BufferUsageMapRead BufferUsage = 1 << 0

	// BufferUsageMapWrite indicates the buffer can be mapped for writing.
	BufferUsageMapWrite BufferUsage = 1 << 1

	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 2

	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 3

	// BufferUsageIndex indicates the buffer can be used as an index buffer.
	BufferUsageIndex BufferUsage = 1 << 4

	// BufferUsageVertex indicates the buffer can be used as a vertex buffer.
	BufferUsageVertex BufferUsage = 1 << 5

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 6

	// BufferUsageStorage indicates the buffer can be used as a storage buffer.
	BufferUsageStorage BufferUsage = 1 << 7

	// BufferUsageIndirect indicates the buffer can be used for indirect dispatch.
	BufferUsageIndirect BufferUsage = 1 << 8

	bufferUsageAll = BufferUsageIndirect<<1 - 1
)

var bufferUsageNames = []struct {
	flag BufferUsage
	name string
}{
	{BufferUsageMapRead, "MapRead"},
	{BufferUsageMapWrite, "MapWrite"},
	{BufferUsageCopySrc, "CopySrc"},
	{BufferUsageCopyDst, "CopyDst"},
	{BufferUsageIndex, "Index"},
	{BufferUsageVertex, "Vertex"},
	{BufferUsageUniform, "Uniform"},
	{BufferUsageStorage, "Storage"},
	{BufferUsageIndirect, "Indirect"},
}

// Contains reports whether all flags in other are set in u.
func (u BufferUsage) Contains(other BufferUsage) bool {
	return u&other == other
}

// String returns the flags joined with "|", e.g. "CopyDst|Storage".
func (u BufferUsage) String() string {
	if u == 0 {
		return "None"
	}
	var parts []string
	for _, n := range bufferUsageNames {
		if u&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	if rest := u &^ bufferUsageAll; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ValidateBufferUsage checks a usage set against the WebGPU creation rules:
// at least one flag, no unknown bits, MapRead only alongside CopyDst and
// MapWrite only alongside CopySrc.
func ValidateBufferUsage(u BufferUsage) error {
	if u == 0 {
		return fmt.Errorf("%w: no usage flags", ErrInvalidBufferUsage)
	}
	if u&^bufferUsageAll != 0 {
		return fmt.Errorf("%w: unknown flags in %v", ErrInvalidBufferUsage, u)
	}
	if u.Contains(BufferUsageMapRead) && u&^(BufferUsageMapRead|BufferUsageCopyDst) != 0 {
		return fmt.Errorf("%w: MapRead may only be combined with CopyDst, got %v", ErrInvalidBufferUsage, u)
	}
	if u.Contains(BufferUsageMapWrite) && u&^(BufferUsageMapWrite|BufferUsageCopySrc) != 0 {
		return fmt.Errorf("%w: MapWrite may only be combined with CopySrc, got %v", ErrInvalidBufferUsage, u)
	}
	return nil
}

// BindingType specifies the type of a shader binding.
type BindingType uint32

// Binding types.
const (
	// BindingTypeUniformBuffer is a uniform buffer binding.
	BindingTypeUniformBuffer BindingType = iota + 1

	// BindingTypeStorageBuffer is a storage buffer binding (read-write).
	BindingTypeStorageBuffer

	// BindingTypeReadOnlyStorageBuffer is a read-only storage buffer binding.
	BindingTypeReadOnlyStorageBuffer
)

// String returns the WGSL-style name of the binding type.
func (t BindingType) String() string {
	switch t {
	case BindingTypeUniformBuffer:
		return "uniform"
	case BindingTypeStorageBuffer:
		return "storage"
	case BindingTypeReadOnlyStorageBuffer:
		return "read-only-storage"
	default:
		return fmt.Sprintf("BindingType(%d)", uint32(t))
	}
}

// RequiredUsage returns the buffer usage flag a resource must carry to be
// bound with this binding type.
func (t BindingType) RequiredUsage() BufferUsage {
	switch t {
	case BindingTypeUniformBuffer:
		return BufferUsageUniform
	case BindingTypeStorageBuffer, BindingTypeReadOnlyStorageBuffer:
		return BufferUsageStorage
	default:
		return 0
	}
}

// MaxBindingSize returns the largest range l allows for a binding of this
// type, or 0 when l sets no limit for it.
func (t BindingType) MaxBindingSize(l Limits) uint64 {
	switch t {
	case BindingTypeUniformBuffer:
		return l.MaxUniformBufferBindingSize
	case BindingTypeStorageBuffer, BindingTypeReadOnlyStorageBuffer:
		return l.MaxStorageBufferBindingSize
	default:
		return 0
	}
}

// BufferDesc describes a buffer to create.
type BufferDesc struct {
	// Label is an optional debug label.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Usage specifies how the buffer will be used.
	Usage BufferUsage
}

// ComputePipelineDesc describes a compute pipeline.
type ComputePipelineDesc struct {
	// Label is an optional debug label.
	Label string

	// Layout is the pipeline layout.
	Layout PipelineLayoutID

	// ShaderModule contains the compute shader.
	ShaderModule ShaderModuleID

	// EntryPoint is the name of the shader entry point function.
	EntryPoint string
}

// BindGroupLayoutDesc describes a bind group layout.
type BindGroupLayoutDesc struct {
	// Label is an optional debug label.
	Label string

	// Entries defines the bindings in this layout.
	Entries []BindGroupLayoutEntry
}

// BindGroupLayoutEntry describes a single binding in a bind group layout.
type BindGroupLayoutEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Type is the type of resource bound at this index.
	Type BindingType

	// MinBindingSize is the minimum buffer size for buffer bindings.
	// Zero disables the check.
	MinBindingSize uint64
}

// BindGroupEntry describes a single binding in a bind group.
type BindGroupEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Buffer is the buffer to bind.
	Buffer BufferID

	// Offset is the offset into the buffer.
	Offset uint64

	// Size is the size of the buffer range to bind.
	// Use 0 to bind the entire buffer from offset.
	Size uint64
}

// BindGroupDesc describes a bind group.
type BindGroupDesc struct {
	// Label is an optional debug label.
	Label string

	// Layout is the bind group layout.
	Layout BindGroupLayoutID

	// Entries are the resource bindings.
	Entries []BindGroupEntry
}

// BufferBinding is the bindable view of a buffer: its handle, the bound
// byte range and the usage flags it was created with.
type BufferBinding struct {
	Buffer BufferID
	Offset uint64
	Size   uint64
	Usage  BufferUsage
}

// Binding returns b itself, so a raw BufferBinding can be passed wherever a
// Bindable is expected.
func (b BufferBinding) Binding() BufferBinding { return b }

// Bindable is implemented by resources that can be placed in a bind group.
type Bindable interface {
	Binding() BufferBinding
}

// DispatchIndirectArgs is the layout read by an indirect dispatch.
//
//	struct DispatchIndirectArgs {
//	    x: u32,
//	    y: u32,
//	    z: u32,
//	}
type DispatchIndirectArgs struct {
	X uint32
	Y uint32
	Z uint32
}

// PlainLayout marks DispatchIndirectArgs as byte-identical on host and device.
func (DispatchIndirectArgs) PlainLayout() {}

// DispatchIndirectArgsSize is the byte size of DispatchIndirectArgs.
const DispatchIndirectArgsSize = 12
