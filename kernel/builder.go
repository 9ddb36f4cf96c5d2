// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"fmt"

	"github.com/gogpu/compute/gpucore"
)

// Builder accumulates the bindings of one invocation.
//
// Bind may be called any number of times; binding a group index again
// replaces the earlier resources. Queue or QueueIndirect finalizes the
// invocation and spends the builder: every later call fails with
// ErrBuilderSpent. Bindings are checked against the pipeline only when the
// queue is encoded.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	queue    *Queue
	pipeline Pipeline
	groups   map[uint32][]gpucore.BufferBinding
	err      error
	spent    bool
}

// NewBuilder starts an invocation of p on q.
func NewBuilder(q *Queue, p Pipeline) *Builder {
	return &Builder{
		queue:    q,
		pipeline: p.clone(),
		groups:   make(map[uint32][]gpucore.BufferBinding),
	}
}

// Bind sets the resources of bind group index group, in layout entry order.
// The handles are captured immediately.
func (b *Builder) Bind(group uint32, resources ...gpucore.Bindable) *Builder {
	if b.spent || b.err != nil {
		return b
	}
	bindings := make([]gpucore.BufferBinding, len(resources))
	for i, r := range resources {
		if r == nil {
			b.err = fmt.Errorf("%w: group %d, resource %d", ErrNilResource, group, i)
			return b
		}
		bindings[i] = r.Binding()
	}
	b.groups[group] = bindings
	return b
}

// Queue finalizes the invocation with a dispatch extent of one to three
// workgroup counts; omitted axes are 1. Nothing is enqueued on error.
func (b *Builder) Queue(extent ...uint32) error {
	if err := b.finalize(); err != nil {
		return err
	}
	e, err := b.extent(extent)
	if err != nil {
		return err
	}
	b.queue.push(Invocation{Pipeline: b.pipeline, Groups: b.groups, Extent: e})
	return nil
}

// QueueIndirect finalizes the invocation with a dispatch extent read on the
// device from the gpucore.DispatchIndirectArgs at offset in buf. The buffer
// must have Indirect usage and offset must be a multiple of 4.
func (b *Builder) QueueIndirect(buf gpucore.Bindable, offset uint64) error {
	if err := b.finalize(); err != nil {
		return err
	}
	if buf == nil {
		return fmt.Errorf("%w: indirect buffer", ErrNilResource)
	}
	binding := buf.Binding()
	switch {
	case !binding.Usage.Contains(gpucore.BufferUsageIndirect):
		return fmt.Errorf("%w: buffer %d has usage %s", ErrIndirectBuffer, binding.Buffer, binding.Usage)
	case offset%4 != 0:
		return fmt.Errorf("%w: offset %d is not 4-byte aligned", ErrIndirectBuffer, offset)
	case binding.Size != 0 && (binding.Size < gpucore.DispatchIndirectArgsSize ||
		offset > binding.Size-gpucore.DispatchIndirectArgsSize):
		return fmt.Errorf("%w: offset %d leaves fewer than %d bytes in a %d-byte buffer",
			ErrIndirectBuffer, offset, gpucore.DispatchIndirectArgsSize, binding.Size)
	}
	b.queue.push(Invocation{
		Pipeline: b.pipeline,
		Groups:   b.groups,
		Indirect: &IndirectArgs{Buffer: binding, Offset: offset},
	})
	return nil
}

// finalize spends the builder and reports any error recorded so far.
func (b *Builder) finalize() error {
	if b.spent {
		return ErrBuilderSpent
	}
	b.spent = true
	if b.err != nil {
		return b.err
	}
	if b.queue == nil {
		return ErrNilQueue
	}
	if b.pipeline.ID == gpucore.InvalidID {
		return fmt.Errorf("%w: %q has no pipeline handle", ErrInvalidPipeline, b.pipeline.Label)
	}
	return nil
}

func (b *Builder) extent(axes []uint32) (Extent, error) {
	if len(axes) == 0 || len(axes) > 3 {
		return Extent{}, fmt.Errorf("%w: got %d", ErrInvalidExtent, len(axes))
	}
	e := Extent{X: 1, Y: 1, Z: 1}
	dims := [3]*uint32{&e.X, &e.Y, &e.Z}

	var limit uint32
	if b.queue.device != nil {
		limit = b.queue.device.Limits().MaxComputeWorkgroupsPerDimension
	}
	for i, n := range axes {
		if n == 0 {
			return Extent{}, fmt.Errorf("%w: axis %d", ErrWorkgroupCountZero, i)
		}
		if limit != 0 && n > limit {
			return Extent{}, fmt.Errorf("%w: axis %d is %d, limit %d", ErrWorkgroupLimit, i, n, limit)
		}
		*dims[i] = n
	}
	return e, nil
}
