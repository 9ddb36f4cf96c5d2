// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"errors"
	"fmt"
	"strings"
)

// Builder errors.
var (
	// ErrBuilderSpent is returned when a builder is used after it has been
	// finalized.
	ErrBuilderSpent = errors.New("kernel: builder already finalized")

	// ErrNilQueue is returned by a builder created without a queue.
	ErrNilQueue = errors.New("kernel: nil queue")

	// ErrNilResource is returned when Bind receives a nil resource.
	ErrNilResource = errors.New("kernel: nil resource")

	// ErrInvalidPipeline is returned for a pipeline without a device handle.
	ErrInvalidPipeline = errors.New("kernel: invalid pipeline")

	// ErrInvalidExtent is returned when a dispatch names zero or more than
	// three axes.
	ErrInvalidExtent = errors.New("kernel: dispatch extent must have 1 to 3 axes")

	// ErrWorkgroupCountZero is returned when an axis of the extent is zero.
	ErrWorkgroupCountZero = errors.New("kernel: workgroup count is zero")

	// ErrWorkgroupLimit is returned when an axis exceeds the device's
	// MaxComputeWorkgroupsPerDimension.
	ErrWorkgroupLimit = errors.New("kernel: workgroup count exceeds device limit")

	// ErrIndirectBuffer is returned when an indirect dispatch names a buffer
	// without Indirect usage or an offset that is misaligned or out of range.
	ErrIndirectBuffer = errors.New("kernel: invalid indirect dispatch buffer")
)

// Encode errors.
var (
	// ErrNilRecorder is returned by Encode when the recorder is nil.
	ErrNilRecorder = errors.New("kernel: nil command recorder")

	// ErrNilDevice is returned by Encode on a queue created without a device.
	ErrNilDevice = errors.New("kernel: nil device")

	// ErrMissingBindGroup is returned when the pipeline expects a bind group
	// that was never bound.
	ErrMissingBindGroup = errors.New("kernel: missing bind group")

	// ErrUnexpectedBindGroup is returned when a group index was bound that
	// the pipeline does not declare.
	ErrUnexpectedBindGroup = errors.New("kernel: unexpected bind group")

	// ErrBindingCountMismatch is returned when a group was bound with a
	// different number of resources than its layout declares.
	ErrBindingCountMismatch = errors.New("kernel: binding count mismatch")

	// ErrBindingTypeMismatch is returned when a buffer lacks the usage its
	// binding type requires.
	ErrBindingTypeMismatch = errors.New("kernel: binding type mismatch")

	// ErrBindingTooSmall is returned when a bound range is smaller than the
	// layout's minimum binding size.
	ErrBindingTooSmall = errors.New("kernel: binding smaller than minimum size")

	// ErrBindingTooLarge is returned when a bound range exceeds the device's
	// maximum binding size for its binding type.
	ErrBindingTooLarge = errors.New("kernel: binding exceeds device limit")
)

// EncodeError reports which invocation, group and binding made Encode fail.
// Group and Binding are -1 when the failure is not specific to one.
type EncodeError struct {
	Invocation int
	Group      int
	Binding    int
	Err        error
}

func (e *EncodeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "kernel: invocation %d", e.Invocation)
	if e.Group >= 0 {
		fmt.Fprintf(&b, ", group %d", e.Group)
	}
	if e.Binding >= 0 {
		fmt.Fprintf(&b, ", binding %d", e.Binding)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *EncodeError) Unwrap() error { return e.Err }
