// Package gpucore defines the backend-agnostic GPU contracts used by the
// compute packages.
//
// The buffer and kernel layers never talk to a graphics API directly. They
// depend on three small interfaces:
//
//   - [Device] allocates buffers and creates the objects a kernel needs
//     (shader modules, bind group layouts, pipelines, bind groups).
//   - [CommandRecorder] is a caller-owned sink that hands out compute passes.
//   - [ComputePassEncoder] records pipeline, bind group and dispatch commands.
//
// Layering:
//
//	               +-----------------+
//	               | tensor / kernel |
//	               +--------+--------+
//	                        |
//	               +--------v--------+
//	               |     gpucore     |
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| backend/native  |          |   gpucoretest   |
//	|  (gogpu/wgpu)   |          |   (in-memory)   |
//	+-----------------+          +-----------------+
//
// # Resource Management
//
// GPU resources are referenced via opaque IDs ([BufferID], [BindGroupID], etc.).
// Devices are responsible for tracking the mapping between IDs and actual
// backend resources. Holding an ID never transfers ownership: the component
// that created a resource is the one that destroys it.
//
// # Bindings
//
// Anything that can be placed in a bind group implements [Bindable] and
// reports a [BufferBinding]. Kernel invocations store these values rather than
// pointers to the resources themselves.
package gpucore
