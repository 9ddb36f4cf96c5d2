//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/internal/logger"
)

// Device implements gpucore.Device using gogpu/wgpu/hal directly.
// It maps gpucore IDs to HAL resources.
//
// Thread Safety: Device is safe for concurrent use from multiple goroutines.
// All resource maps are protected by a mutex.
type Device struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue

	limits  gpucore.Limits
	timeout time.Duration

	// instance is set when Open created the device; Close destroys both.
	instance hal.Instance
	owned    bool
	closed   bool

	// ID generation
	nextID atomic.Uint64

	// Resource tracking maps gpucore IDs to hal resources
	buffers          map[gpucore.BufferID]bufferEntry
	shaderModules    map[gpucore.ShaderModuleID]hal.ShaderModule
	computePipelines map[gpucore.ComputePipelineID]hal.ComputePipeline
	bindGroupLayouts map[gpucore.BindGroupLayoutID]hal.BindGroupLayout
	pipelineLayouts  map[gpucore.PipelineLayoutID]hal.PipelineLayout
	bindGroups       map[gpucore.BindGroupID]hal.BindGroup
}

type bufferEntry struct {
	buf   hal.Buffer
	size  uint64
	usage gpucore.BufferUsage
}

// newDevice wraps a HAL device and queue. limits describes what the device
// was opened with.
func newDevice(device hal.Device, queue hal.Queue, limits gputypes.Limits, timeout time.Duration) *Device {
	d := &Device{
		device:           device,
		queue:            queue,
		limits:           convertLimits(limits),
		timeout:          timeout,
		buffers:          make(map[gpucore.BufferID]bufferEntry),
		shaderModules:    make(map[gpucore.ShaderModuleID]hal.ShaderModule),
		computePipelines: make(map[gpucore.ComputePipelineID]hal.ComputePipeline),
		bindGroupLayouts: make(map[gpucore.BindGroupLayoutID]hal.BindGroupLayout),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID]hal.PipelineLayout),
		bindGroups:       make(map[gpucore.BindGroupID]hal.BindGroup),
	}

	// Start ID generation at 1 (0 is invalid)
	d.nextID.Store(1)

	return d
}

// newID generates a unique resource ID.
func (d *Device) newID() uint64 {
	return d.nextID.Add(1) - 1
}

// === Capabilities ===

// Limits returns the limits the device was opened with.
func (d *Device) Limits() gpucore.Limits {
	return d.limits
}

// === Shader Compilation ===

// CreateShaderModule creates a shader module from SPIR-V bytecode.
func (d *Device) CreateShaderModule(spirv []uint32, label string) (gpucore.ShaderModuleID, error) {
	if len(spirv) == 0 {
		return gpucore.InvalidID, fmt.Errorf("native: empty SPIR-V bytecode")
	}

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: spirv,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create shader module %q: %w", label, err)
	}

	id := gpucore.ShaderModuleID(d.newID())

	d.mu.Lock()
	d.shaderModules[id] = module
	d.mu.Unlock()

	return id, nil
}

// DestroyShaderModule releases a shader module.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	module, ok := d.shaderModules[id]
	delete(d.shaderModules, id)
	d.mu.Unlock()

	if ok {
		d.device.DestroyShaderModule(module)
	}
}

// === Buffer Management ===

// CreateBuffer creates a GPU buffer.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	if desc == nil || desc.Size == 0 {
		return gpucore.InvalidID, fmt.Errorf("native: buffer size must be positive")
	}
	if err := gpucore.ValidateBufferUsage(desc.Usage); err != nil {
		return gpucore.InvalidID, err
	}

	buffer, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: convertBufferUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create buffer %q: %w", desc.Label, err)
	}

	id := gpucore.BufferID(d.newID())

	d.mu.Lock()
	d.buffers[id] = bufferEntry{buf: buffer, size: desc.Size, usage: desc.Usage}
	d.mu.Unlock()

	return id, nil
}

// DestroyBuffer releases a GPU buffer.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	entry, ok := d.buffers[id]
	delete(d.buffers, id)
	d.mu.Unlock()

	if ok {
		d.device.DestroyBuffer(entry.buf)
	}
}

// WriteBuffer writes data to a buffer through the queue.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {
	d.mu.RLock()
	entry, ok := d.buffers[id]
	d.mu.RUnlock()

	if !ok {
		logger.Get().Warn("native: write to unknown buffer dropped", "buffer", uint64(id))
		return
	}
	if len(data) > 0 {
		d.queue.WriteBuffer(entry.buf, offset, data)
	}
}

// ReadBuffer copies a range of the buffer into a mappable staging buffer,
// waits for the copy and returns the bytes.
func (d *Device) ReadBuffer(id gpucore.BufferID, offset, size uint64) ([]byte, error) {
	d.mu.RLock()
	entry, ok := d.buffers[id]
	d.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	if offset+size > entry.size {
		return nil, fmt.Errorf("native: read [%d, %d) out of range for %d-byte buffer", offset, offset+size, entry.size)
	}

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "staging-readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "buffer-read-encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("buffer-read"); err != nil {
		return nil, fmt.Errorf("native: begin encoding: %w", err)
	}

	encoder.CopyBufferToBuffer(entry.buf, staging, []hal.BufferCopy{{
		SrcOffset: offset,
		DstOffset: 0,
		Size:      size,
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("native: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if err := d.submitAndWait(cmdBuf, d.timeout); err != nil {
		return nil, err
	}

	out := make([]byte, size)
	if err := d.queue.ReadBuffer(staging, 0, out); err != nil {
		return nil, fmt.Errorf("native: readback: %w", err)
	}
	return out, nil
}

// submitAndWait submits one command buffer with a fence and blocks until
// the fence signals or timeout elapses.
func (d *Device) submitAndWait(cmdBuf hal.CommandBuffer, timeout time.Duration) error {
	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("native: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, timeout)
	if err != nil {
		return fmt.Errorf("native: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w after %v", ErrTimeout, timeout)
	}
	return nil
}

// === Pipeline Management ===

// CreateBindGroupLayout creates a bind group layout visible to compute
// shaders.
func (d *Device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("native: nil bind group layout descriptor")
	}

	entries := make([]gputypes.BindGroupLayoutEntry, len(desc.Entries))
	for i, entry := range desc.Entries {
		entries[i] = convertBindGroupLayoutEntry(entry)
	}

	layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group layout %q: %w", desc.Label, err)
	}

	id := gpucore.BindGroupLayoutID(d.newID())

	d.mu.Lock()
	d.bindGroupLayouts[id] = layout
	d.mu.Unlock()

	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.mu.Lock()
	layout, ok := d.bindGroupLayouts[id]
	delete(d.bindGroupLayouts, id)
	d.mu.Unlock()

	if ok {
		d.device.DestroyBindGroupLayout(layout)
	}
}

// CreatePipelineLayout creates a pipeline layout.
func (d *Device) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID) (gpucore.PipelineLayoutID, error) {
	d.mu.RLock()
	halLayouts := make([]hal.BindGroupLayout, len(layouts))
	for i, id := range layouts {
		layout, ok := d.bindGroupLayouts[id]
		if !ok {
			d.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", ErrUnknownResource, id)
		}
		halLayouts[i] = layout
	}
	d.mu.RUnlock()

	pipelineLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		BindGroupLayouts: halLayouts,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create pipeline layout: %w", err)
	}

	id := gpucore.PipelineLayoutID(d.newID())

	d.mu.Lock()
	d.pipelineLayouts[id] = pipelineLayout
	d.mu.Unlock()

	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	layout, ok := d.pipelineLayouts[id]
	delete(d.pipelineLayouts, id)
	d.mu.Unlock()

	if ok {
		d.device.DestroyPipelineLayout(layout)
	}
}

// CreateComputePipeline creates a compute pipeline.
func (d *Device) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("native: nil compute pipeline descriptor")
	}

	d.mu.RLock()
	pipelineLayout, layoutOK := d.pipelineLayouts[desc.Layout]
	shaderModule, moduleOK := d.shaderModules[desc.ShaderModule]
	d.mu.RUnlock()

	if !layoutOK {
		return gpucore.InvalidID, fmt.Errorf("%w: pipeline layout %d", ErrUnknownResource, desc.Layout)
	}
	if !moduleOK {
		return gpucore.InvalidID, fmt.Errorf("%w: shader module %d", ErrUnknownResource, desc.ShaderModule)
	}

	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Compute: hal.ComputeState{
			Module:     shaderModule,
			EntryPoint: desc.EntryPoint,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create compute pipeline %q: %w", desc.Label, err)
	}

	id := gpucore.ComputePipelineID(d.newID())

	d.mu.Lock()
	d.computePipelines[id] = pipeline
	d.mu.Unlock()

	return id, nil
}

// DestroyComputePipeline releases a compute pipeline.
func (d *Device) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	d.mu.Lock()
	pipeline, ok := d.computePipelines[id]
	delete(d.computePipelines, id)
	d.mu.Unlock()

	if ok {
		d.device.DestroyComputePipeline(pipeline)
	}
}

// CreateBindGroup creates a bind group of buffer bindings.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("native: nil bind group descriptor")
	}

	d.mu.RLock()
	layout, ok := d.bindGroupLayouts[desc.Layout]
	if !ok {
		d.mu.RUnlock()
		return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", ErrUnknownResource, desc.Layout)
	}
	entries := make([]gputypes.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		buf, ok := d.buffers[e.Buffer]
		if !ok {
			d.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("%w: buffer %d at binding %d", ErrUnknownResource, e.Buffer, e.Binding)
		}
		entries[i] = gputypes.BindGroupEntry{
			Binding: e.Binding,
			Resource: gputypes.BufferBinding{
				Buffer: buf.buf.NativeHandle(),
				Offset: e.Offset,
				Size:   e.Size, // 0 = rest of the buffer
			},
		}
	}
	d.mu.RUnlock()

	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group %q: %w", desc.Label, err)
	}

	id := gpucore.BindGroupID(d.newID())

	d.mu.Lock()
	d.bindGroups[id] = group
	d.mu.Unlock()

	return id, nil
}

// DestroyBindGroup releases a bind group.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	group, ok := d.bindGroups[id]
	delete(d.bindGroups, id)
	d.mu.Unlock()

	if ok {
		d.device.DestroyBindGroup(group)
	}
}

// Close releases every resource still tracked by the device. A device
// created by Open is destroyed as well; a shared device from FromProvider
// is left to its owner.
//
// This method is idempotent - calling it multiple times is safe.
func (d *Device) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	groups, pipelines, pls, bgls, modules, buffers :=
		d.bindGroups, d.computePipelines, d.pipelineLayouts, d.bindGroupLayouts, d.shaderModules, d.buffers
	d.bindGroups = map[gpucore.BindGroupID]hal.BindGroup{}
	d.computePipelines = map[gpucore.ComputePipelineID]hal.ComputePipeline{}
	d.pipelineLayouts = map[gpucore.PipelineLayoutID]hal.PipelineLayout{}
	d.bindGroupLayouts = map[gpucore.BindGroupLayoutID]hal.BindGroupLayout{}
	d.shaderModules = map[gpucore.ShaderModuleID]hal.ShaderModule{}
	d.buffers = map[gpucore.BufferID]bufferEntry{}
	d.mu.Unlock()

	leaked := len(groups) + len(pipelines) + len(pls) + len(bgls) + len(modules) + len(buffers)
	if leaked > 0 {
		logger.Get().Warn("native: releasing resources still alive at Close", "count", leaked)
	}

	// Dependents first.
	for _, g := range groups {
		d.device.DestroyBindGroup(g)
	}
	for _, p := range pipelines {
		d.device.DestroyComputePipeline(p)
	}
	for _, l := range pls {
		d.device.DestroyPipelineLayout(l)
	}
	for _, l := range bgls {
		d.device.DestroyBindGroupLayout(l)
	}
	for _, m := range modules {
		d.device.DestroyShaderModule(m)
	}
	for _, b := range buffers {
		d.device.DestroyBuffer(b.buf)
	}

	if d.owned {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
}

var _ gpucore.Device = (*Device)(nil)
