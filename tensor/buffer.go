// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tensor

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/internal/logger"
	"github.com/gogpu/compute/layout"
)

// Buffer is a GPU buffer holding a fixed number of elements of T.
//
// Buffer is safe for concurrent use. It implements [gpucore.Bindable], so it
// can be passed directly to a kernel builder.
type Buffer[T any] struct {
	mu sync.Mutex

	device   gpucore.Device
	id       gpucore.BufferID
	strategy layout.Strategy[T]
	length   int
	usage    gpucore.BufferUsage
	label    string

	destroyed bool
}

// Init creates a buffer from values using the plain strategy: the host bytes
// of values are uploaded unchanged.
//
// CopyDst is added to usage so the initial contents can be uploaded.
func Init[T layout.PlainLayout](dev gpucore.Device, values []T, usage gpucore.BufferUsage, opts ...Option) (*Buffer[T], error) {
	return create(dev, layout.Plain[T](), values, usage, opts)
}

// InitPrimitive is Init for built-in scalars and 2- or 4-component vectors.
func InitPrimitive[T layout.Primitive](dev gpucore.Device, values []T, usage gpucore.BufferUsage, opts ...Option) (*Buffer[T], error) {
	return create(dev, layout.PlainPrimitive[T](), values, usage, opts)
}

// InitValue creates a one-element plain buffer.
func InitValue[T layout.PlainLayout](dev gpucore.Device, value T, usage gpucore.BufferUsage, opts ...Option) (*Buffer[T], error) {
	return Init(dev, []T{value}, usage, opts...)
}

// Encase creates a buffer from values using the structured strategy with the
// WGSL storage rules. Every field is written at its device offset and all
// padding is zero.
//
// CopyDst is added to usage so the initial contents can be uploaded.
func Encase[T any](dev gpucore.Device, values []T, usage gpucore.BufferUsage, opts ...Option) (*Buffer[T], error) {
	s, err := layout.Structured[T](layout.Storage)
	if err != nil {
		return nil, err
	}
	return create(dev, s, values, usage, opts)
}

// EncaseUniform is Encase with the WGSL uniform rules.
func EncaseUniform[T any](dev gpucore.Device, values []T, usage gpucore.BufferUsage, opts ...Option) (*Buffer[T], error) {
	s, err := layout.Structured[T](layout.Uniform)
	if err != nil {
		return nil, err
	}
	return create(dev, s, values, usage, opts)
}

// EncaseValue creates a one-element structured buffer under the rules of
// space. Uniform parameter blocks are the typical use.
func EncaseValue[T any](dev gpucore.Device, value T, space layout.AddressSpace, usage gpucore.BufferUsage, opts ...Option) (*Buffer[T], error) {
	s, err := layout.Structured[T](space)
	if err != nil {
		return nil, err
	}
	return create(dev, s, []T{value}, usage, opts)
}

// Uninit allocates a zeroed buffer of n elements laid out by s.
func Uninit[T any](dev gpucore.Device, n int, s layout.Strategy[T], usage gpucore.BufferUsage, opts ...Option) (*Buffer[T], error) {
	if n <= 0 {
		return nil, ErrEmptyBuffer
	}
	return allocate(dev, s, n, usage, applyOptions(opts))
}

func create[T any](dev gpucore.Device, s layout.Strategy[T], values []T, usage gpucore.BufferUsage, opts []Option) (*Buffer[T], error) {
	if len(values) == 0 {
		return nil, ErrEmptyBuffer
	}
	b, err := allocate(dev, s, len(values), usage|gpucore.BufferUsageCopyDst, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	if err := b.upload(values); err != nil {
		b.Destroy()
		return nil, err
	}
	return b, nil
}

// allocate validates the request and creates the device allocation.
func allocate[T any](dev gpucore.Device, s layout.Strategy[T], n int, usage gpucore.BufferUsage, o options) (*Buffer[T], error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if err := gpucore.ValidateBufferUsage(usage); err != nil {
		return nil, err
	}
	if st := s.Stride(); st != 0 && uint64(n) > math.MaxUint64/st {
		return nil, fmt.Errorf("%w: %d elements of %d bytes overflow the address space",
			ErrBufferTooLarge, n, s.Stride())
	}
	size := s.Size(n)
	if limit := dev.Limits().MaxBufferSize; limit != 0 && size > limit {
		return nil, fmt.Errorf("%w: %d elements of %d bytes need %d bytes, limit %d",
			ErrBufferTooLarge, n, s.Stride(), size, limit)
	}

	id, err := dev.CreateBuffer(&gpucore.BufferDesc{Label: o.label, Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("%w: %q (%d bytes, %s): %w", ErrAllocation, o.label, size, usage, err)
	}

	logger.Get().Debug("tensor: buffer created",
		"label", o.label,
		"strategy", s.Name(),
		"len", n,
		"stride", s.Stride(),
		"size", size,
		"usage", usage.String(),
	)

	return &Buffer[T]{
		device:   dev,
		id:       id,
		strategy: s,
		length:   n,
		usage:    usage,
		label:    o.label,
	}, nil
}

// upload writes values with the buffer's strategy. Plain strategies hand the
// host bytes to the device directly; others serialize into a staging slice.
func (b *Buffer[T]) upload(values []T) error {
	if v, ok := b.strategy.(layout.Viewer[T]); ok {
		data, err := v.View(values)
		if err != nil {
			return err
		}
		b.device.WriteBuffer(b.id, 0, data)
		return nil
	}
	staging := make([]byte, b.strategy.Size(len(values)))
	if err := b.strategy.Write(staging, values); err != nil {
		return err
	}
	b.device.WriteBuffer(b.id, 0, staging)
	return nil
}

// ID returns the device handle of the allocation.
func (b *Buffer[T]) ID() gpucore.BufferID { return b.id }

// Len returns the number of elements.
func (b *Buffer[T]) Len() int { return b.length }

// Stride returns the device bytes per element.
func (b *Buffer[T]) Stride() uint64 { return b.strategy.Stride() }

// Size returns the byte length of the allocation.
func (b *Buffer[T]) Size() uint64 { return b.strategy.Size(b.length) }

// Usage returns the usage flags the buffer was created with.
func (b *Buffer[T]) Usage() gpucore.BufferUsage { return b.usage }

// Label returns the debug label.
func (b *Buffer[T]) Label() string { return b.label }

// Strategy returns the layout strategy of the buffer.
func (b *Buffer[T]) Strategy() layout.Strategy[T] { return b.strategy }

// Binding returns the whole buffer as a bindable range.
func (b *Buffer[T]) Binding() gpucore.BufferBinding {
	return gpucore.BufferBinding{
		Buffer: b.id,
		Size:   b.Size(),
		Usage:  b.usage,
	}
}

// Write replaces the contents of the buffer. len(values) must equal Len().
// The buffer must have been created with CopyDst usage.
func (b *Buffer[T]) Write(values []T) error {
	if len(values) != b.length {
		return fmt.Errorf("%w: buffer %q holds %d elements, got %d", ErrLengthMismatch, b.label, b.length, len(values))
	}
	if !b.usage.Contains(gpucore.BufferUsageCopyDst) {
		return fmt.Errorf("%w: buffer %q lacks CopyDst usage", gpucore.ErrInvalidBufferUsage, b.label)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return ErrDestroyed
	}
	return b.upload(values)
}

// Read copies the buffer back to the host and decodes it. It blocks until
// the device has finished writing the buffer. The buffer must have been
// created with CopySrc usage.
func (b *Buffer[T]) Read(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !b.usage.Contains(gpucore.BufferUsageCopySrc) {
		return nil, fmt.Errorf("%w: %q", ErrNotReadable, b.label)
	}

	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return nil, ErrDestroyed
	}
	data, err := b.device.ReadBuffer(b.id, 0, b.Size())
	b.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("tensor: read %q: %w", b.label, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]T, b.length)
	if err := b.strategy.Read(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Destroy releases the device allocation.
//
// This method is idempotent - calling it multiple times is safe.
func (b *Buffer[T]) Destroy() {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return
	}
	b.destroyed = true
	b.mu.Unlock()

	b.device.DestroyBuffer(b.id)
	logger.Get().Debug("tensor: buffer destroyed", "label", b.label, "id", uint64(b.id))
}

// IsDestroyed reports whether Destroy has been called.
func (b *Buffer[T]) IsDestroyed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.destroyed
}
