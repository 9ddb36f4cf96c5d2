//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"sync"

	"github.com/gogpu/wgpu/hal"
)

// =============================================================================
// HAL test doubles
// =============================================================================
//
// Each fake embeds the HAL interface it stands in for. Only the methods the
// tests drive are overridden; calling anything else panics on the nil
// embedded value, which flags an unexpected HAL call.

type fakeBuffer struct {
	hal.Buffer
	label string
	size  uint64
}

type fakeLayout struct {
	hal.BindGroupLayout
	label string
}

type fakePipelineLayout struct {
	hal.PipelineLayout
}

type fakeHALDevice struct {
	hal.Device

	mu        sync.Mutex
	buffers   []*hal.BufferDescriptor
	destroyed []string
	encoders  []*fakeEncoder
	closed    bool
}

func (d *fakeHALDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buffers = append(d.buffers, desc)
	return &fakeBuffer{label: desc.Label, size: desc.Size}, nil
}

func (d *fakeHALDevice) DestroyBuffer(b hal.Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed = append(d.destroyed, "buffer:"+b.(*fakeBuffer).label)
}

func (d *fakeHALDevice) CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	return &fakeLayout{label: desc.Label}, nil
}

func (d *fakeHALDevice) DestroyBindGroupLayout(l hal.BindGroupLayout) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed = append(d.destroyed, "layout:"+l.(*fakeLayout).label)
}

func (d *fakeHALDevice) CreatePipelineLayout(*hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	return &fakePipelineLayout{}, nil
}

func (d *fakeHALDevice) DestroyPipelineLayout(hal.PipelineLayout) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed = append(d.destroyed, "pipeline-layout")
}

func (d *fakeHALDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	enc := &fakeEncoder{label: desc.Label}
	d.encoders = append(d.encoders, enc)
	return enc, nil
}

func (d *fakeHALDevice) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

type fakeEncoder struct {
	hal.CommandEncoder

	label     string
	began     string
	passes    []*fakePass
	discarded bool
}

func (e *fakeEncoder) BeginEncoding(label string) error {
	e.began = label
	return nil
}

func (e *fakeEncoder) BeginComputePass(desc *hal.ComputePassDescriptor) hal.ComputePassEncoder {
	p := &fakePass{label: desc.Label}
	e.passes = append(e.passes, p)
	return p
}

func (e *fakeEncoder) DiscardEncoding() {
	e.discarded = true
}

type fakePass struct {
	hal.ComputePassEncoder

	label    string
	dispatch [3]uint32
	ended    bool
}

func (p *fakePass) Dispatch(x, y, z uint32) {
	p.dispatch = [3]uint32{x, y, z}
}

func (p *fakePass) End() {
	p.ended = true
}
