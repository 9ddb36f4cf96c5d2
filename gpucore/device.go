package gpucore

// Device abstracts over GPU backend implementations.
//
// It is the opaque capability the buffer and kernel layers use to allocate
// memory and to create the objects a dispatch needs. Implementations must be
// safe for concurrent use.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - Destroying a resource while in use is undefined behavior
//   - IDs become invalid after destruction and must not be reused
type Device interface {
	// === Capabilities ===

	// Limits returns the device limits.
	Limits() Limits

	// === Shader Compilation ===

	// CreateShaderModule creates a shader module from SPIR-V bytecode.
	CreateShaderModule(spirv []uint32, label string) (ShaderModuleID, error)

	// DestroyShaderModule releases a shader module.
	DestroyShaderModule(id ShaderModuleID)

	// === Buffer Management ===

	// CreateBuffer allocates a GPU buffer. The contents are zeroed.
	// Returns an error if the device rejects the allocation.
	CreateBuffer(desc *BufferDesc) (BufferID, error)

	// DestroyBuffer releases a GPU buffer.
	DestroyBuffer(id BufferID)

	// WriteBuffer copies data into a buffer at the given byte offset.
	// The data is copied to the GPU immediately or staged for later upload.
	WriteBuffer(id BufferID, offset uint64, data []byte)

	// ReadBuffer reads size bytes from a buffer starting at offset.
	// This may cause a GPU-CPU synchronization stall.
	ReadBuffer(id BufferID, offset, size uint64) ([]byte, error)

	// === Pipeline Management ===

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error)

	// DestroyBindGroupLayout releases a bind group layout.
	DestroyBindGroupLayout(id BindGroupLayoutID)

	// CreatePipelineLayout combines bind group layouts into a pipeline layout.
	CreatePipelineLayout(layouts []BindGroupLayoutID) (PipelineLayoutID, error)

	// DestroyPipelineLayout releases a pipeline layout.
	DestroyPipelineLayout(id PipelineLayoutID)

	// CreateComputePipeline creates a compute pipeline.
	CreateComputePipeline(desc *ComputePipelineDesc) (ComputePipelineID, error)

	// DestroyComputePipeline releases a compute pipeline.
	DestroyComputePipeline(id ComputePipelineID)

	// CreateBindGroup binds actual resources to a bind group layout.
	CreateBindGroup(desc *BindGroupDesc) (BindGroupID, error)

	// DestroyBindGroup releases a bind group.
	DestroyBindGroup(id BindGroupID)
}

// CommandRecorder is a caller-owned sink for GPU commands.
//
// The kernel layer appends compute passes to a recorder but never creates,
// finishes or submits one itself.
type CommandRecorder interface {
	// BeginComputePass begins a compute pass with an optional debug label.
	// The returned encoder must be ended with ComputePassEncoder.End().
	BeginComputePass(label string) ComputePassEncoder
}

// ComputePassEncoder records compute commands.
//
// Usage:
//  1. Obtain encoder from CommandRecorder.BeginComputePass()
//  2. Set pipeline and bind groups
//  3. Dispatch compute workgroups
//  4. Call End() to finish recording
//
// The encoder is single-use and cannot be reused after End().
type ComputePassEncoder interface {
	// SetPipeline sets the active compute pipeline.
	SetPipeline(pipeline ComputePipelineID)

	// SetBindGroup sets a bind group at the specified index.
	SetBindGroup(index uint32, group BindGroupID)

	// Dispatch dispatches compute workgroups.
	// x, y, z are the number of workgroups in each dimension.
	Dispatch(x, y, z uint32)

	// DispatchIndirect dispatches compute workgroups using the
	// DispatchIndirectArgs stored in buffer at offset.
	DispatchIndirect(buffer BufferID, offset uint64)

	// End finishes the compute pass.
	End()
}

// Limits describes device limits relevant to compute work.
type Limits struct {
	// MaxBufferSize is the maximum buffer size in bytes.
	MaxBufferSize uint64

	// MaxStorageBufferBindingSize is the maximum storage buffer binding size.
	MaxStorageBufferBindingSize uint64

	// MaxUniformBufferBindingSize is the maximum uniform buffer binding size.
	MaxUniformBufferBindingSize uint64

	// MaxBindGroups is the maximum number of bind groups per pipeline.
	MaxBindGroups uint32

	// MaxComputeWorkgroupsPerDimension is the maximum workgroups per dispatch dimension.
	MaxComputeWorkgroupsPerDimension uint32
}

// DefaultLimits returns the WebGPU baseline limits.
func DefaultLimits() Limits {
	return Limits{
		MaxBufferSize:                    256 << 20,
		MaxStorageBufferBindingSize:      128 << 20,
		MaxUniformBufferBindingSize:      64 << 10,
		MaxBindGroups:                    4,
		MaxComputeWorkgroupsPerDimension: 65535,
	}
}
