// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"slices"

	"github.com/gogpu/compute/gpucore"
)

// Pipeline is a compiled compute pipeline together with the bind group
// layouts it was created with.
//
// Pipeline is a plain value holding device handles. The device objects are
// owned by whoever compiled the pipeline; invocations copy the value and
// never release anything.
type Pipeline struct {
	ID    gpucore.ComputePipelineID
	Label string

	// Groups are the bind group layouts, indexed by group number.
	Groups []GroupLayout
}

// GroupLayout is one bind group layout of a pipeline.
type GroupLayout struct {
	Layout  gpucore.BindGroupLayoutID
	Entries []gpucore.BindGroupLayoutEntry
}

func (p Pipeline) clone() Pipeline {
	groups := make([]GroupLayout, len(p.Groups))
	for i, g := range p.Groups {
		groups[i] = GroupLayout{Layout: g.Layout, Entries: slices.Clone(g.Entries)}
	}
	p.Groups = groups
	return p
}

// Extent is a workgroup count per axis.
type Extent struct {
	X, Y, Z uint32
}

// Workgroups returns the number of workgroups of the given width needed to
// cover n elements, rounded up. It returns 0 if width is 0.
func Workgroups(n, width uint32) uint32 {
	if width == 0 {
		return 0
	}
	return uint32((uint64(n) + uint64(width) - 1) / uint64(width))
}

// Invocation is a finalized kernel invocation.
type Invocation struct {
	Pipeline Pipeline

	// Groups maps a bind group index to the resources bound there, in
	// layout entry order.
	Groups map[uint32][]gpucore.BufferBinding

	// Extent is the dispatch size. It is zero for indirect invocations.
	Extent Extent

	// Indirect is set for invocations that read their extent from a buffer.
	Indirect *IndirectArgs
}

// IndirectArgs locates the gpucore.DispatchIndirectArgs of an indirect
// dispatch.
type IndirectArgs struct {
	Buffer gpucore.BufferBinding
	Offset uint64
}

func (inv Invocation) clone() Invocation {
	out := Invocation{
		Pipeline: inv.Pipeline.clone(),
		Groups:   make(map[uint32][]gpucore.BufferBinding, len(inv.Groups)),
		Extent:   inv.Extent,
	}
	for g, r := range inv.Groups {
		out.Groups[g] = slices.Clone(r)
	}
	if inv.Indirect != nil {
		ind := *inv.Indirect
		out.Indirect = &ind
	}
	return out
}
