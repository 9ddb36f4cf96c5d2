package layout

import (
	"fmt"
	"reflect"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Strategy describes how values of T occupy device memory and moves them
// between host slices and device-layout byte slices.
type Strategy[T any] interface {
	// Name identifies the strategy in logs and errors.
	Name() string

	// Stride is the number of device bytes one element occupies.
	Stride() uint64

	// Size returns the device byte length of count elements.
	Size(count int) uint64

	// Write serializes values into the first Size(len(values)) bytes of dst.
	Write(dst []byte, values []T) error

	// Read deserializes len(values) elements from src into values.
	Read(src []byte, values []T) error
}

// PlainLayout is implemented by struct types that certify their Go memory
// layout is byte-identical to the layout the shader declares: every field a
// 4-byte scalar or a vec2/vec4 at an offset the shader agrees with, and no
// implicit padding anywhere.
//
// The method is a marker and is never called.
type PlainLayout interface {
	PlainLayout()
}

// Primitive is the set of built-in types whose Go layout always matches
// the device layout: 4-byte scalars and 2- or 4-component vectors of them.
// 3-component vectors are excluded because their device stride is 16.
type Primitive interface {
	~float32 | ~int32 | ~uint32 |
		~[2]float32 | ~[2]int32 | ~[2]uint32 |
		~[4]float32 | ~[4]int32 | ~[4]uint32
}

// Viewer is implemented by strategies whose device bytes are the host bytes
// themselves. View returns them without copying; the result aliases values.
type Viewer[T any] interface {
	View(values []T) ([]byte, error)
}

// plain copies host bytes verbatim.
type plain[T any] struct {
	stride uint64
}

// Plain returns the zero-copy strategy for a type that implements
// PlainLayout.
func Plain[T PlainLayout]() Strategy[T] {
	var zero T
	return plain[T]{stride: uint64(unsafe.Sizeof(zero))}
}

// PlainPrimitive returns the zero-copy strategy for built-in scalars and
// vectors.
func PlainPrimitive[T Primitive]() Strategy[T] {
	var zero T
	return plain[T]{stride: uint64(unsafe.Sizeof(zero))}
}

func (p plain[T]) Name() string { return "plain" }

func (p plain[T]) Stride() uint64 { return p.stride }

func (p plain[T]) Size(count int) uint64 { return p.stride * uint64(count) }

func (p plain[T]) Write(dst []byte, values []T) error {
	if cpu.IsBigEndian {
		return ErrBigEndianHost
	}
	n := p.Size(len(values))
	if uint64(len(dst)) < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, n, len(dst))
	}
	copy(dst, hostBytes(values, p.stride))
	return nil
}

func (p plain[T]) Read(src []byte, values []T) error {
	if cpu.IsBigEndian {
		return ErrBigEndianHost
	}
	n := p.Size(len(values))
	if uint64(len(src)) < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, n, len(src))
	}
	copy(hostBytes(values, p.stride), src[:n])
	return nil
}

func (p plain[T]) View(values []T) ([]byte, error) {
	if cpu.IsBigEndian {
		return nil, ErrBigEndianHost
	}
	return hostBytes(values, p.stride), nil
}

// Bytes returns the raw bytes of values under the plain strategy without
// copying. The result aliases values.
func Bytes[T PlainLayout](values []T) []byte {
	var zero T
	return hostBytes(values, uint64(unsafe.Sizeof(zero)))
}

// structured re-serializes values field by field using WGSL layout rules.
type structured[T any] struct {
	c *compiled
}

// Structured returns the field-by-field strategy for T in the given address
// space. It fails if T, or anything it contains, has no WGSL equivalent.
func Structured[T any](space AddressSpace) (Strategy[T], error) {
	c, err := compile(reflect.TypeFor[T](), space)
	if err != nil {
		return nil, err
	}
	return structured[T]{c: c}, nil
}

func (s structured[T]) Name() string { return "structured" }

func (s structured[T]) Stride() uint64 { return s.c.layout.Stride }

func (s structured[T]) Size(count int) uint64 { return s.c.layout.Stride * uint64(count) }

// Layout returns the device layout of T.
func (s structured[T]) Layout() *TypeLayout { return s.c.layout }

func (s structured[T]) Write(dst []byte, values []T) error {
	n := s.Size(len(values))
	if uint64(len(dst)) < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, n, len(dst))
	}
	s.c.encode(dst, hostBytes(values, s.c.hostSize), len(values))
	return nil
}

func (s structured[T]) Read(src []byte, values []T) error {
	n := s.Size(len(values))
	if uint64(len(src)) < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, n, len(src))
	}
	s.c.decode(hostBytes(values, s.c.hostSize), src, len(values))
	return nil
}

// Encode serializes values with the structured strategy into a new byte
// slice.
func Encode[T any](values []T, space AddressSpace) ([]byte, error) {
	s, err := Structured[T](space)
	if err != nil {
		return nil, err
	}
	out := make([]byte, s.Size(len(values)))
	if err := s.Write(out, values); err != nil {
		return nil, err
	}
	return out, nil
}

// Equivalent reports whether the Go layout of t coincides with its device
// layout in space, i.e. whether the plain strategy would be correct for it.
// It is a diagnostic for tests; the plain strategy never calls it.
func Equivalent(t reflect.Type, space AddressSpace) (bool, error) {
	c, err := compile(t, space)
	if err != nil {
		return false, err
	}
	if c.hostSize != c.layout.Stride {
		return false, nil
	}
	return len(c.plan) == 1 && c.plan[0].host == 0 && c.plan[0].dev == 0 && c.plan[0].n == c.hostSize, nil
}
