//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/internal/logger"
)

// Recorder is a command recorder backed by one hal.CommandEncoder.
//
// A Recorder is single-use: record passes into it, then call Submit once or
// Discard to drop the work. Both close the recorder.
type Recorder struct {
	mu      sync.Mutex
	dev     *Device
	encoder hal.CommandEncoder
	label   string
	passes  int
	closed  bool
}

// NewRecorder creates a command encoder on the device and begins encoding.
func (d *Device) NewRecorder(label string) (*Recorder, error) {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: label,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("native: begin encoding: %w", err)
	}
	return &Recorder{dev: d, encoder: encoder, label: label}, nil
}

// BeginComputePass begins a compute pass on the underlying encoder.
// On a closed recorder the returned pass drops every command.
func (r *Recorder) BeginComputePass(label string) gpucore.ComputePassEncoder {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		logger.Get().Warn("native: compute pass on closed recorder dropped", "recorder", r.label)
		return discardPass{}
	}
	r.passes++
	pass := r.encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: label})
	return &computePass{dev: r.dev, pass: pass}
}

// Submit finishes encoding, submits the command buffer and blocks until the
// GPU signals completion. The wait is bounded by the device timeout and by
// the deadline of ctx, whichever comes first.
func (r *Recorder) Submit(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRecorderClosed
	}
	r.closed = true
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		r.encoder.DiscardEncoding()
		return err
	}

	cmdBuf, err := r.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer r.dev.device.FreeCommandBuffer(cmdBuf)

	timeout := waitTimeout(ctx, r.dev.timeout, time.Now())
	if err := r.dev.submitAndWait(cmdBuf, timeout); err != nil {
		return err
	}

	logger.Get().Debug("native: submitted", "recorder", r.label, "passes", r.passes)
	return nil
}

// Discard drops everything recorded so far. Discarding a closed recorder is
// a no-op.
func (r *Recorder) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.encoder.DiscardEncoding()
}

// waitTimeout returns the shorter of limit and the time left until the
// deadline of ctx. An expired deadline yields zero.
func waitTimeout(ctx context.Context, limit time.Duration, now time.Time) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return limit
	}
	left := deadline.Sub(now)
	if left < 0 {
		return 0
	}
	if left < limit {
		return left
	}
	return limit
}

// computePass translates gpucore IDs to HAL objects as commands arrive.
type computePass struct {
	dev  *Device
	pass hal.ComputePassEncoder
}

func (p *computePass) SetPipeline(id gpucore.ComputePipelineID) {
	p.dev.mu.RLock()
	pipeline, ok := p.dev.computePipelines[id]
	p.dev.mu.RUnlock()

	if !ok {
		logger.Get().Warn("native: unknown compute pipeline", "pipeline", uint64(id))
		return
	}
	p.pass.SetPipeline(pipeline)
}

func (p *computePass) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	p.dev.mu.RLock()
	group, ok := p.dev.bindGroups[id]
	p.dev.mu.RUnlock()

	if !ok {
		logger.Get().Warn("native: unknown bind group", "group", uint64(id), "index", index)
		return
	}
	p.pass.SetBindGroup(index, group, nil)
}

func (p *computePass) Dispatch(x, y, z uint32) {
	p.pass.Dispatch(x, y, z)
}

func (p *computePass) DispatchIndirect(id gpucore.BufferID, offset uint64) {
	p.dev.mu.RLock()
	entry, ok := p.dev.buffers[id]
	p.dev.mu.RUnlock()

	if !ok {
		logger.Get().Warn("native: unknown indirect buffer", "buffer", uint64(id))
		return
	}
	p.pass.DispatchIndirect(entry.buf, offset)
}

func (p *computePass) End() {
	p.pass.End()
}

// discardPass is handed out by a closed recorder.
type discardPass struct{}

func (discardPass) SetPipeline(gpucore.ComputePipelineID)     {}
func (discardPass) SetBindGroup(uint32, gpucore.BindGroupID)  {}
func (discardPass) Dispatch(uint32, uint32, uint32)           {}
func (discardPass) DispatchIndirect(gpucore.BufferID, uint64) {}
func (discardPass) End()                                      {}

var (
	_ gpucore.CommandRecorder    = (*Recorder)(nil)
	_ gpucore.ComputePassEncoder = (*computePass)(nil)
	_ gpucore.ComputePassEncoder = discardPass{}
)
