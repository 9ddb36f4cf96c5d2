// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/internal/logger"
)

// Queue is an ordered list of kernel invocations.
//
// Queue is safe for concurrent use. It does not own the buffers or pipelines
// its invocations reference, only the bind groups it creates for them.
type Queue struct {
	mu sync.Mutex

	device  gpucore.Device
	label   string
	pending []pending
}

// pending is a queued invocation and, once encoded, its bind groups indexed
// by group number.
type pending struct {
	inv    Invocation
	groups []gpucore.BindGroupID
}

// NewQueue creates an empty queue that creates its bind groups on dev.
func NewQueue(dev gpucore.Device, opts ...Option) *Queue {
	var o queueOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Queue{device: dev, label: o.label}
}

func (q *Queue) push(inv Invocation) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, pending{inv: inv})
}

// Len returns the number of queued invocations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Invocations returns copies of the queued invocations in enqueue order.
func (q *Queue) Invocations() []Invocation {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Invocation, len(q.pending))
	for i, p := range q.pending {
		out[i] = p.inv.clone()
	}
	return out
}

// Encode records every queued invocation into rec as one compute pass named
// label, or the queue's default label if label is empty.
//
// All invocations are validated and their bind groups created before the
// first command is recorded. On error rec is left untouched and the error is
// an *EncodeError naming the offending invocation.
func (q *Queue) Encode(rec gpucore.CommandRecorder, label string) error {
	if rec == nil {
		return ErrNilRecorder
	}
	if q.device == nil {
		return ErrNilDevice
	}
	if label == "" {
		label = q.label
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		logger.Get().Debug("kernel: encode skipped, queue empty", "label", label)
		return nil
	}

	var created []int
	for i := range q.pending {
		if q.pending[i].groups != nil {
			continue
		}
		groups, err := q.materialize(i, q.pending[i].inv)
		if err != nil {
			for _, j := range created {
				q.release(j)
			}
			return err
		}
		q.pending[i].groups = groups
		created = append(created, i)
	}

	pass := rec.BeginComputePass(label)
	for _, p := range q.pending {
		pass.SetPipeline(p.inv.Pipeline.ID)
		for g, id := range p.groups {
			pass.SetBindGroup(uint32(g), id)
		}
		if ind := p.inv.Indirect; ind != nil {
			pass.DispatchIndirect(ind.Buffer.Buffer, ind.Buffer.Offset+ind.Offset)
		} else {
			pass.Dispatch(p.inv.Extent.X, p.inv.Extent.Y, p.inv.Extent.Z)
		}
	}
	pass.End()

	logger.Get().Debug("kernel: queue encoded",
		"label", label,
		"invocations", len(q.pending),
		"bind_groups_created", len(created),
	)
	return nil
}

// validate checks the bindings of inv against its pipeline layout and the
// binding size limits of the device.
func validate(index int, inv Invocation, limits gpucore.Limits) error {
	groups := inv.Pipeline.Groups

	bound := make([]int, 0, len(inv.Groups))
	for g := range inv.Groups {
		bound = append(bound, int(g))
	}
	sort.Ints(bound)
	for _, g := range bound {
		if g >= len(groups) {
			return &EncodeError{Invocation: index, Group: g, Binding: -1,
				Err: fmt.Errorf("%w: pipeline %q declares %d groups", ErrUnexpectedBindGroup, inv.Pipeline.Label, len(groups))}
		}
	}

	for g, layout := range groups {
		resources, ok := inv.Groups[uint32(g)]
		if !ok {
			return &EncodeError{Invocation: index, Group: g, Binding: -1, Err: ErrMissingBindGroup}
		}
		if len(resources) != len(layout.Entries) {
			return &EncodeError{Invocation: index, Group: g, Binding: -1,
				Err: fmt.Errorf("%w: layout has %d entries, bound %d", ErrBindingCountMismatch, len(layout.Entries), len(resources))}
		}
		for k, entry := range layout.Entries {
			r := resources[k]
			if need := entry.Type.RequiredUsage(); !r.Usage.Contains(need) {
				return &EncodeError{Invocation: index, Group: g, Binding: int(entry.Binding),
					Err: fmt.Errorf("%w: %s binding needs %s usage, buffer %d has %s", ErrBindingTypeMismatch, entry.Type, need, r.Buffer, r.Usage)}
			}
			if entry.MinBindingSize != 0 && r.Size != 0 && r.Size < entry.MinBindingSize {
				return &EncodeError{Invocation: index, Group: g, Binding: int(entry.Binding),
					Err: fmt.Errorf("%w: %d < %d bytes", ErrBindingTooSmall, r.Size, entry.MinBindingSize)}
			}
			if limit := entry.Type.MaxBindingSize(limits); limit != 0 && r.Size > limit {
				return &EncodeError{Invocation: index, Group: g, Binding: int(entry.Binding),
					Err: fmt.Errorf("%w: %s binding of %d bytes, limit %d", ErrBindingTooLarge, entry.Type, r.Size, limit)}
			}
		}
	}
	return nil
}

// materialize validates inv and creates its bind groups. On error nothing
// created for inv is left alive.
func (q *Queue) materialize(index int, inv Invocation) ([]gpucore.BindGroupID, error) {
	if err := validate(index, inv, q.device.Limits()); err != nil {
		return nil, err
	}

	// Non-nil even for a pipeline without groups: nil marks "not yet
	// materialized".
	ids := make([]gpucore.BindGroupID, len(inv.Pipeline.Groups))
	for g, layout := range inv.Pipeline.Groups {
		resources := inv.Groups[uint32(g)]
		entries := make([]gpucore.BindGroupEntry, len(layout.Entries))
		for k, e := range layout.Entries {
			entries[k] = gpucore.BindGroupEntry{
				Binding: e.Binding,
				Buffer:  resources[k].Buffer,
				Offset:  resources[k].Offset,
				Size:    resources[k].Size,
			}
		}
		id, err := q.device.CreateBindGroup(&gpucore.BindGroupDesc{
			Label:   fmt.Sprintf("%s/group%d", inv.Pipeline.Label, g),
			Layout:  layout.Layout,
			Entries: entries,
		})
		if err != nil {
			for _, created := range ids[:g] {
				q.device.DestroyBindGroup(created)
			}
			return nil, &EncodeError{Invocation: index, Group: g, Binding: -1, Err: err}
		}
		ids[g] = id
	}
	return ids, nil
}

func (q *Queue) release(i int) {
	for _, id := range q.pending[i].groups {
		q.device.DestroyBindGroup(id)
	}
	q.pending[i].groups = nil
}

// Clear removes every invocation and releases the bind groups created for
// them by Encode.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	released := 0
	for i := range q.pending {
		released += len(q.pending[i].groups)
		q.release(i)
	}
	q.pending = nil
	logger.Get().Debug("kernel: queue cleared", "label", q.label, "bind_groups_released", released)
}
