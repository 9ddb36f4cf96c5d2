// Package compute provides typed GPU buffers and kernel invocation queues
// for Go.
//
// # Overview
//
// compute moves host data into GPU storage and schedules compute kernels
// over it. It is designed to integrate with the GoGPU ecosystem: devices
// come from gogpu/wgpu through [github.com/gogpu/compute/backend/native]
// or from any other implementation of gpucore.Device.
//
// # Quick Start
//
//	dev, err := native.Open(nil)
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	// Plain data is uploaded as-is; records are laid out by WGSL rules.
//	values, _ := tensor.InitPrimitive(dev, scalars, gpucore.BufferUsageStorage)
//	records, _ := tensor.Encase(dev, particles, gpucore.BufferUsageStorage)
//
//	prog, _ := shader.Compile(dev, &shader.Descriptor{Shader: src, Groups: groups})
//
//	q := kernel.NewQueue(dev)
//	_ = kernel.NewBuilder(q, prog.Pipeline).
//	    Bind(0, values, records).
//	    Queue(kernel.Workgroups(n, 64))
//
//	rec, _ := dev.NewRecorder("frame")
//	_ = q.Encode(rec, "step")
//	_ = rec.Submit(ctx)
//
// # Packages
//
//   - layout: Plain and Structured strategies mapping Go values to device bytes
//   - tensor: typed device buffers
//   - kernel: invocation builder and queue, encoding into a command recorder
//   - shader: WGSL composition and compilation through naga
//   - gpucore: the device and recorder contracts shared by all packages
//   - backend/native: gpucore.Device over gogpu/wgpu HAL
//
// # Logging
//
// compute is silent by default. See [SetLogger].
package compute
