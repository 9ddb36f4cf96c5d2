// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/internal/logger"
	"github.com/gogpu/compute/kernel"
)

// Compilation errors.
var (
	// ErrNilDevice is returned by Compile when the device is nil.
	ErrNilDevice = errors.New("shader: nil device")

	// ErrCompile is returned when WGSL translation fails.
	ErrCompile = errors.New("shader: compilation failed")

	// ErrTooManyGroups is returned when a descriptor declares more bind
	// groups than the device allows.
	ErrTooManyGroups = errors.New("shader: too many bind groups")
)

// compileWGSL translates WGSL to SPIR-V bytes.
var compileWGSL = func(source string) ([]byte, error) {
	return naga.Compile(source)
}

// DefaultEntryPoint is used when Descriptor.EntryPoint is empty.
const DefaultEntryPoint = "main"

// Descriptor describes a compute pipeline to compile.
type Descriptor struct {
	// Label is a debug label. Defaults to the shader name.
	Label string

	Shader *Shader

	// EntryPoint is the @compute function. Defaults to DefaultEntryPoint.
	EntryPoint string

	// Groups are the bind group layouts, indexed by group number.
	Groups [][]gpucore.BindGroupLayoutEntry
}

// Program owns the device objects of a compiled pipeline.
type Program struct {
	// Pipeline is the handle to pass to kernel.NewBuilder.
	Pipeline kernel.Pipeline

	device         gpucore.Device
	module         gpucore.ShaderModuleID
	pipelineLayout gpucore.PipelineLayoutID
}

// Compile composes desc.Shader, translates it to SPIR-V and creates the
// compute pipeline on dev.
func Compile(dev gpucore.Device, desc *Descriptor) (*Program, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if desc == nil || desc.Shader == nil {
		return nil, ErrNilShader
	}
	label := desc.Label
	if label == "" {
		label = desc.Shader.Name
	}
	entry := desc.EntryPoint
	if entry == "" {
		entry = DefaultEntryPoint
	}
	if limit := dev.Limits().MaxBindGroups; limit != 0 && uint32(len(desc.Groups)) > limit {
		return nil, fmt.Errorf("%w: %q declares %d, limit %d", ErrTooManyGroups, label, len(desc.Groups), limit)
	}

	source, err := Compose(desc.Shader)
	if err != nil {
		return nil, err
	}
	spirv, err := toSPIRV(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrCompile, label, err)
	}

	p := &Program{device: dev, Pipeline: kernel.Pipeline{Label: label}}
	if err := p.create(spirv, entry, desc.Groups); err != nil {
		p.Destroy()
		return nil, fmt.Errorf("shader: create %q: %w", label, err)
	}

	logger.Get().Debug("shader: pipeline compiled",
		"label", label,
		"entry_point", entry,
		"spirv_words", len(spirv),
		"groups", len(desc.Groups),
	)
	return p, nil
}

func (p *Program) create(spirv []uint32, entry string, groups [][]gpucore.BindGroupLayoutEntry) error {
	var err error
	label := p.Pipeline.Label

	p.module, err = p.device.CreateShaderModule(spirv, label)
	if err != nil {
		return err
	}

	layouts := make([]gpucore.BindGroupLayoutID, 0, len(groups))
	for i, entries := range groups {
		id, err := p.device.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
			Label:   fmt.Sprintf("%s/group%d", label, i),
			Entries: entries,
		})
		if err != nil {
			return err
		}
		layouts = append(layouts, id)
		p.Pipeline.Groups = append(p.Pipeline.Groups, kernel.GroupLayout{
			Layout:  id,
			Entries: append([]gpucore.BindGroupLayoutEntry(nil), entries...),
		})
	}

	p.pipelineLayout, err = p.device.CreatePipelineLayout(layouts)
	if err != nil {
		return err
	}

	p.Pipeline.ID, err = p.device.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label:        label,
		Layout:       p.pipelineLayout,
		ShaderModule: p.module,
		EntryPoint:   entry,
	})
	return err
}

// Destroy releases the pipeline, its layouts and the shader module, in that
// order. It is safe to call more than once.
func (p *Program) Destroy() {
	if p.device == nil {
		return
	}
	if p.Pipeline.ID != gpucore.InvalidID {
		p.device.DestroyComputePipeline(p.Pipeline.ID)
	}
	if p.pipelineLayout != gpucore.InvalidID {
		p.device.DestroyPipelineLayout(p.pipelineLayout)
	}
	for _, g := range p.Pipeline.Groups {
		p.device.DestroyBindGroupLayout(g.Layout)
	}
	if p.module != gpucore.InvalidID {
		p.device.DestroyShaderModule(p.module)
	}
	p.device = nil
	p.Pipeline.ID = gpucore.InvalidID
}

// toSPIRV compiles WGSL and packs the little-endian output into words.
func toSPIRV(source string) ([]uint32, error) {
	b, err := compileWGSL(source)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V output is %d bytes, not a whole number of words", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}
