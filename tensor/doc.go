// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package tensor provides typed GPU buffers.
//
// A [Buffer] owns one device allocation holding Len() elements of T laid out
// by a [layout.Strategy]. The strategy is chosen by the constructor the caller
// names, never inferred from T:
//
//   - [Init] and [InitPrimitive] upload host bytes unchanged. T must opt in
//     through [layout.PlainLayout] or be a [layout.Primitive].
//   - [Encase] and [EncaseUniform] serialize T field by field under the WGSL
//     storage or uniform rules.
//   - [Uninit] allocates a zeroed buffer for kernel output.
//
// Example:
//
//	values := make([]float32, 1000)
//	in, err := tensor.InitPrimitive(dev, values, gpucore.BufferUsageStorage)
//	if err != nil {
//	    return err
//	}
//	defer in.Destroy()
//
//	out, err := tensor.Uninit[Particle](dev, 1000, particleLayout,
//	    gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc,
//	    tensor.WithLabel("particles"))
//
// A buffer never changes size. Its byte length is Stride() * Len().
package tensor
