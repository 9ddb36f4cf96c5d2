// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"fmt"
	"testing"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/gpucore/gpucoretest"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

func entries(types ...gpucore.BindingType) []gpucore.BindGroupLayoutEntry {
	out := make([]gpucore.BindGroupLayoutEntry, len(types))
	for i, ty := range types {
		out[i] = gpucore.BindGroupLayoutEntry{Binding: uint32(i), Type: ty}
	}
	return out
}

// newPipeline creates a compute pipeline on dev with one bind group layout
// per element of groups.
func newPipeline(t *testing.T, dev *gpucoretest.Device, label string, groups ...[]gpucore.BindGroupLayoutEntry) Pipeline {
	t.Helper()
	p := Pipeline{Label: label}
	layouts := make([]gpucore.BindGroupLayoutID, 0, len(groups))
	for i, e := range groups {
		id, err := dev.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
			Label:   fmt.Sprintf("%s/layout%d", label, i),
			Entries: e,
		})
		if err != nil {
			t.Fatalf("CreateBindGroupLayout: %v", err)
		}
		layouts = append(layouts, id)
		p.Groups = append(p.Groups, GroupLayout{Layout: id, Entries: e})
	}
	pl, err := dev.CreatePipelineLayout(layouts)
	if err != nil {
		t.Fatalf("CreatePipelineLayout: %v", err)
	}
	mod, err := dev.CreateShaderModule([]uint32{spirvMagic}, label)
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	p.ID, err = dev.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label:        label,
		Layout:       pl,
		ShaderModule: mod,
		EntryPoint:   "main",
	})
	if err != nil {
		t.Fatalf("CreateComputePipeline: %v", err)
	}
	return p
}

// newBuffer allocates a raw buffer and returns its whole-buffer binding.
func newBuffer(t *testing.T, dev *gpucoretest.Device, size uint64, usage gpucore.BufferUsage) gpucore.BufferBinding {
	t.Helper()
	id, err := dev.CreateBuffer(&gpucore.BufferDesc{Size: size, Usage: usage})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	return gpucore.BufferBinding{Buffer: id, Size: size, Usage: usage}
}

func commandStrings(r *gpucoretest.Recorder) []string {
	cmds := r.Commands()
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.String()
	}
	return out
}
