// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tensor

import "errors"

// Buffer errors.
var (
	// ErrNilDevice is returned when a constructor receives a nil device.
	ErrNilDevice = errors.New("tensor: nil device")

	// ErrEmptyBuffer is returned when a buffer would hold zero elements.
	ErrEmptyBuffer = errors.New("tensor: buffer must hold at least one element")

	// ErrBufferTooLarge is returned when the device layout exceeds the
	// device's maximum buffer size.
	ErrBufferTooLarge = errors.New("tensor: buffer exceeds device limit")

	// ErrAllocation is returned when the device rejects an allocation.
	ErrAllocation = errors.New("tensor: device allocation failed")

	// ErrLengthMismatch is returned by Write when the number of values
	// differs from the buffer length.
	ErrLengthMismatch = errors.New("tensor: length mismatch")

	// ErrNotReadable is returned by Read on buffers without CopySrc usage.
	ErrNotReadable = errors.New("tensor: buffer lacks CopySrc usage")

	// ErrDestroyed is returned when operating on a destroyed buffer.
	ErrDestroyed = errors.New("tensor: buffer destroyed")
)
