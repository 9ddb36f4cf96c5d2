// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader composes WGSL modules and compiles them into compute
// pipelines usable by package kernel.
//
// A [Shader] names its dependencies explicitly. [Compose] concatenates a
// shader with everything it depends on, dependencies first and each module
// once. [Compile] composes, translates the result to SPIR-V with
// github.com/gogpu/naga, and creates the pipeline and its bind group layouts
// on a device:
//
//	common := &shader.Shader{Name: "common", Source: commonWGSL}
//	step := &shader.Shader{Name: "step", Source: stepWGSL, Deps: []*shader.Shader{common}}
//
//	prog, err := shader.Compile(dev, &shader.Descriptor{
//	    Shader:     step,
//	    EntryPoint: "main",
//	    Groups: [][]gpucore.BindGroupLayoutEntry{{
//	        {Binding: 0, Type: gpucore.BindingTypeStorageBuffer},
//	    }},
//	})
//	if err != nil {
//	    return err
//	}
//	defer prog.Destroy()
//
//	kernel.NewBuilder(q, prog.Pipeline).Bind(0, buf).Queue(16)
//
// Shader source is not parsed here; bind group layouts are declared by the
// caller and must agree with the WGSL.
package shader
