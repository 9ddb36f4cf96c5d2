//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native implements gpucore.Device on top of gogpu/wgpu/hal.
//
// [Open] creates a standalone Vulkan device for compute-only use;
// [FromProvider] shares the device of a host application such as gogpu.
// A [Recorder] collects compute passes and submits them:
//
//	dev, err := native.Open(nil)
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	rec, err := dev.NewRecorder("frame")
//	if err != nil {
//	    return err
//	}
//	if err := queue.Encode(rec, "simulate"); err != nil {
//	    rec.Discard()
//	    return err
//	}
//	return rec.Submit(ctx)
package native
