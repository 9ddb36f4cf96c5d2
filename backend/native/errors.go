//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import "errors"

// Package errors for the HAL backend.
var (
	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrBackendUnavailable is returned when the Vulkan HAL backend is not
	// registered.
	ErrBackendUnavailable = errors.New("native: vulkan backend not available")

	// ErrInvalidProvider is returned by FromProvider when the provider does
	// not expose HAL device and queue handles.
	ErrInvalidProvider = errors.New("native: provider does not expose HAL types")

	// ErrUnknownResource is returned when an ID does not name a live resource.
	ErrUnknownResource = errors.New("native: unknown resource")

	// ErrRecorderClosed is returned when a recorder is used after Submit or
	// Discard.
	ErrRecorderClosed = errors.New("native: recorder already submitted")

	// ErrTimeout is returned when the device does not finish submitted work
	// in time.
	ErrTimeout = errors.New("native: timed out waiting for GPU")
)
