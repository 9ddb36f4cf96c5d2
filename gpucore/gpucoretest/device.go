// Package gpucoretest provides in-memory implementations of the gpucore
// interfaces for use in tests.
//
// [Device] keeps buffer contents in host memory so uploads can be inspected
// byte for byte, and [Recorder] captures every command recorded into it in
// order.
package gpucoretest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/compute/gpucore"
)

// Device errors.
var (
	// ErrOutOfMemory is returned when an allocation exceeds the device limits.
	ErrOutOfMemory = errors.New("gpucoretest: out of device memory")

	// ErrUnknownResource is returned when an ID does not name a live resource.
	ErrUnknownResource = errors.New("gpucoretest: unknown resource")
)

// BufferRecord is the host-side state of a fake device buffer.
type BufferRecord struct {
	Desc gpucore.BufferDesc
	Data []byte
}

// Device is an in-memory gpucore.Device.
//
// The zero value is not usable; create one with NewDevice.
// Device is safe for concurrent use.
type Device struct {
	mu sync.Mutex

	limits gpucore.Limits
	nextID uint64

	buffers          map[gpucore.BufferID]*BufferRecord
	shaderModules    map[gpucore.ShaderModuleID][]uint32
	bindGroupLayouts map[gpucore.BindGroupLayoutID]gpucore.BindGroupLayoutDesc
	pipelineLayouts  map[gpucore.PipelineLayoutID][]gpucore.BindGroupLayoutID
	pipelines        map[gpucore.ComputePipelineID]gpucore.ComputePipelineDesc
	bindGroups       map[gpucore.BindGroupID]gpucore.BindGroupDesc

	// failures maps an operation name ("CreateBuffer", "CreateBindGroup", ...)
	// to the error it should return.
	failures map[string]error

	writes        int
	invalidWrites int
}

// NewDevice creates an empty device with gpucore.DefaultLimits.
func NewDevice() *Device {
	return &Device{
		limits:           gpucore.DefaultLimits(),
		nextID:           1,
		buffers:          make(map[gpucore.BufferID]*BufferRecord),
		shaderModules:    make(map[gpucore.ShaderModuleID][]uint32),
		bindGroupLayouts: make(map[gpucore.BindGroupLayoutID]gpucore.BindGroupLayoutDesc),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID][]gpucore.BindGroupLayoutID),
		pipelines:        make(map[gpucore.ComputePipelineID]gpucore.ComputePipelineDesc),
		bindGroups:       make(map[gpucore.BindGroupID]gpucore.BindGroupDesc),
		failures:         make(map[string]error),
	}
}

// SetLimits replaces the limits reported by the device and enforced by
// CreateBuffer.
func (d *Device) SetLimits(l gpucore.Limits) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.limits = l
}

// Fail makes every subsequent call of op return err until cleared with
// a nil err.
func (d *Device) Fail(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failures, op)
		return
	}
	d.failures[op] = err
}

func (d *Device) failure(op string) error {
	return d.failures[op]
}

func (d *Device) newID() uint64 {
	id := d.nextID
	d.nextID++
	return id
}

// Limits implements gpucore.Device.
func (d *Device) Limits() gpucore.Limits {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.limits
}

// CreateShaderModule implements gpucore.Device.
func (d *Device) CreateShaderModule(spirv []uint32, _ string) (gpucore.ShaderModuleID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failure("CreateShaderModule"); err != nil {
		return gpucore.InvalidID, err
	}
	if len(spirv) == 0 {
		return gpucore.InvalidID, fmt.Errorf("gpucoretest: empty SPIR-V bytecode")
	}
	id := gpucore.ShaderModuleID(d.newID())
	d.shaderModules[id] = append([]uint32(nil), spirv...)
	return id, nil
}

// DestroyShaderModule implements gpucore.Device.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.shaderModules, id)
}

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failure("CreateBuffer"); err != nil {
		return gpucore.InvalidID, err
	}
	if desc == nil || desc.Size == 0 {
		return gpucore.InvalidID, fmt.Errorf("gpucoretest: buffer size must be positive")
	}
	if err := gpucore.ValidateBufferUsage(desc.Usage); err != nil {
		return gpucore.InvalidID, err
	}
	if desc.Size > d.limits.MaxBufferSize {
		return gpucore.InvalidID, fmt.Errorf("%w: %d bytes requested, limit %d", ErrOutOfMemory, desc.Size, d.limits.MaxBufferSize)
	}
	id := gpucore.BufferID(d.newID())
	d.buffers[id] = &BufferRecord{Desc: *desc, Data: make([]byte, desc.Size)}
	return id, nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, id)
}

// WriteBuffer implements gpucore.Device. Writes to unknown buffers or past
// the end of a buffer are dropped and counted by InvalidWrites.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[id]
	if !ok || offset+uint64(len(data)) > uint64(len(buf.Data)) {
		d.invalidWrites++
		return
	}
	copy(buf.Data[offset:], data)
	d.writes++
}

// ReadBuffer implements gpucore.Device. The buffer must carry CopySrc usage.
func (d *Device) ReadBuffer(id gpucore.BufferID, offset, size uint64) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failure("ReadBuffer"); err != nil {
		return nil, err
	}
	buf, ok := d.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	if !buf.Desc.Usage.Contains(gpucore.BufferUsageCopySrc) {
		return nil, fmt.Errorf("gpucoretest: buffer %d lacks CopySrc usage", id)
	}
	if offset+size > uint64(len(buf.Data)) {
		return nil, fmt.Errorf("gpucoretest: read [%d, %d) out of range for %d-byte buffer", offset, offset+size, len(buf.Data))
	}
	out := make([]byte, size)
	copy(out, buf.Data[offset:offset+size])
	return out, nil
}

// CreateBindGroupLayout implements gpucore.Device.
func (d *Device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failure("CreateBindGroupLayout"); err != nil {
		return gpucore.InvalidID, err
	}
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("gpucoretest: nil bind group layout descriptor")
	}
	id := gpucore.BindGroupLayoutID(d.newID())
	cp := *desc
	cp.Entries = append([]gpucore.BindGroupLayoutEntry(nil), desc.Entries...)
	d.bindGroupLayouts[id] = cp
	return id, nil
}

// DestroyBindGroupLayout implements gpucore.Device.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bindGroupLayouts, id)
}

// CreatePipelineLayout implements gpucore.Device.
func (d *Device) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID) (gpucore.PipelineLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range layouts {
		if _, ok := d.bindGroupLayouts[l]; !ok {
			return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", ErrUnknownResource, l)
		}
	}
	id := gpucore.PipelineLayoutID(d.newID())
	d.pipelineLayouts[id] = append([]gpucore.BindGroupLayoutID(nil), layouts...)
	return id, nil
}

// DestroyPipelineLayout implements gpucore.Device.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pipelineLayouts, id)
}

// CreateComputePipeline implements gpucore.Device.
func (d *Device) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failure("CreateComputePipeline"); err != nil {
		return gpucore.InvalidID, err
	}
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("gpucoretest: nil compute pipeline descriptor")
	}
	if _, ok := d.pipelineLayouts[desc.Layout]; !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: pipeline layout %d", ErrUnknownResource, desc.Layout)
	}
	if _, ok := d.shaderModules[desc.ShaderModule]; !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: shader module %d", ErrUnknownResource, desc.ShaderModule)
	}
	id := gpucore.ComputePipelineID(d.newID())
	d.pipelines[id] = *desc
	return id, nil
}

// DestroyComputePipeline implements gpucore.Device.
func (d *Device) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pipelines, id)
}

// CreateBindGroup implements gpucore.Device. The layout and every bound
// buffer must be live.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failure("CreateBindGroup"); err != nil {
		return gpucore.InvalidID, err
	}
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("gpucoretest: nil bind group descriptor")
	}
	if _, ok := d.bindGroupLayouts[desc.Layout]; !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", ErrUnknownResource, desc.Layout)
	}
	for _, e := range desc.Entries {
		if _, ok := d.buffers[e.Buffer]; !ok {
			return gpucore.InvalidID, fmt.Errorf("%w: buffer %d at binding %d", ErrUnknownResource, e.Buffer, e.Binding)
		}
	}
	id := gpucore.BindGroupID(d.newID())
	cp := *desc
	cp.Entries = append([]gpucore.BindGroupEntry(nil), desc.Entries...)
	d.bindGroups[id] = cp
	return id, nil
}

// DestroyBindGroup implements gpucore.Device.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bindGroups, id)
}

// === Inspection ===

// Buffer returns a copy of the buffer record for id.
func (d *Device) Buffer(id gpucore.BufferID) (BufferRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[id]
	if !ok {
		return BufferRecord{}, false
	}
	return BufferRecord{Desc: buf.Desc, Data: append([]byte(nil), buf.Data...)}, true
}

// BindGroup returns the descriptor a bind group was created with.
func (d *Device) BindGroup(id gpucore.BindGroupID) (gpucore.BindGroupDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bg, ok := d.bindGroups[id]
	return bg, ok
}

// ComputePipeline returns the descriptor a pipeline was created with.
func (d *Device) ComputePipeline(id gpucore.ComputePipelineID) (gpucore.ComputePipelineDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pipelines[id]
	return p, ok
}

// ShaderModule returns the SPIR-V a module was created from.
func (d *Device) ShaderModule(id gpucore.ShaderModuleID) ([]uint32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.shaderModules[id]
	return m, ok
}

// BindGroupLayout returns the descriptor a layout was created with.
func (d *Device) BindGroupLayout(id gpucore.BindGroupLayoutID) (gpucore.BindGroupLayoutDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.bindGroupLayouts[id]
	return l, ok
}

// LiveBuffers returns the number of buffers not yet destroyed.
func (d *Device) LiveBuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers)
}

// LiveBindGroups returns the number of bind groups not yet destroyed.
func (d *Device) LiveBindGroups() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.bindGroups)
}

// Writes returns the number of successful WriteBuffer calls.
func (d *Device) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// InvalidWrites returns the number of dropped WriteBuffer calls.
func (d *Device) InvalidWrites() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.invalidWrites
}

var _ gpucore.Device = (*Device)(nil)
