package layout

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/gogpu/compute/internal/parallel"
)

// copyOp moves n bytes between a host offset and a device offset within
// one element. Every leaf of a WGSL type is a 4-byte scalar, so n is always
// a multiple of 4.
type copyOp struct {
	host uint64
	dev  uint64
	n    uint64
}

// compiled is the cached result of laying out one Go type.
type compiled struct {
	layout   *TypeLayout
	plan     []copyOp
	hostSize uint64
}

type cacheKey struct {
	t     reflect.Type
	space AddressSpace
}

var cache sync.Map // cacheKey -> *compiled

func compile(t reflect.Type, space AddressSpace) (*compiled, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrUnsupportedType)
	}
	key := cacheKey{t, space}
	if c, ok := cache.Load(key); ok {
		return c.(*compiled), nil
	}

	l, err := describe(t, space, t.String(), false)
	if err != nil {
		return nil, err
	}
	l.Stride = roundUp(l.Align, l.Size)
	if space == Uniform {
		l.Stride = roundUp(16, l.Stride)
	}

	c := &compiled{layout: l, hostSize: uint64(t.Size())}
	c.plan = appendOps(nil, t, l, 0, 0)

	actual, _ := cache.LoadOrStore(key, c)
	return actual.(*compiled), nil
}

// appendOps walks a Go type and its device layout in parallel and emits the
// byte moves for every scalar leaf, merging runs that are contiguous on
// both sides.
func appendOps(ops []copyOp, t reflect.Type, l *TypeLayout, host, dev uint64) []copyOp {
	switch l.Kind {
	case KindScalar:
		return mergeOp(ops, copyOp{host: host, dev: dev, n: 4})
	case KindVector, KindMatrix, KindArray:
		hostStride := uint64(t.Elem().Size())
		for i := 0; i < l.Len; i++ {
			ops = appendOps(ops, t.Elem(), l.Elem, host+uint64(i)*hostStride, dev+uint64(i)*l.ElemStride)
		}
		return ops
	case KindStruct:
		for _, f := range l.Fields {
			ops = appendOps(ops, t.Field(f.index).Type, f.Type, host+uint64(f.HostOffset), dev+f.Offset)
		}
		return ops
	}
	return ops
}

func mergeOp(ops []copyOp, op copyOp) []copyOp {
	if n := len(ops); n > 0 {
		last := &ops[n-1]
		if last.host+last.n == op.host && last.dev+last.n == op.dev {
			last.n += op.n
			return ops
		}
	}
	return append(ops, op)
}

// hostBytes views a slice of values as raw bytes without copying.
func hostBytes[T any](values []T, elemSize uint64) []byte {
	if len(values) == 0 || elemSize == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(values))), uint64(len(values))*elemSize) //nolint:gosec // T is a plain value type
}

// swapWords reverses the byte order of every 4-byte word in b.
func swapWords(b []byte) {
	for i := 0; i+4 <= len(b); i += 4 {
		binary.LittleEndian.PutUint32(b[i:], binary.BigEndian.Uint32(b[i:]))
	}
}

// parallelBytes is the amount of device data one goroutine encodes or
// decodes before work is split across goroutines.
const parallelBytes = 256 << 10

// grain returns the number of elements per parallel chunk.
func (c *compiled) grain() int {
	return max(1, int(parallelBytes/max(c.layout.Stride, 1)))
}

// encode serializes values into dst following the plan. dst must be at
// least len(values)*stride bytes; gaps are zeroed.
func (c *compiled) encode(dst []byte, src []byte, count int) {
	parallel.For(count, c.grain(), func(lo, hi int) {
		c.encodeRange(dst, src, lo, hi)
	})
}

func (c *compiled) encodeRange(dst []byte, src []byte, lo, hi int) {
	stride := c.layout.Stride
	clear(dst[uint64(lo)*stride : uint64(hi)*stride])
	for i := lo; i < hi; i++ {
		hb := uint64(i) * c.hostSize
		db := uint64(i) * stride
		for _, op := range c.plan {
			d := dst[db+op.dev : db+op.dev+op.n]
			copy(d, src[hb+op.host:hb+op.host+op.n])
			if cpu.IsBigEndian {
				swapWords(d)
			}
		}
	}
}

// decode is the inverse of encode. Host bytes not covered by the plan
// (Go padding, skipped and unexported fields) are left untouched.
func (c *compiled) decode(dst []byte, src []byte, count int) {
	parallel.For(count, c.grain(), func(lo, hi int) {
		c.decodeRange(dst, src, lo, hi)
	})
}

func (c *compiled) decodeRange(dst []byte, src []byte, lo, hi int) {
	stride := c.layout.Stride
	for i := lo; i < hi; i++ {
		hb := uint64(i) * c.hostSize
		db := uint64(i) * stride
		for _, op := range c.plan {
			h := dst[hb+op.host : hb+op.host+op.n]
			copy(h, src[db+op.dev:db+op.dev+op.n])
			if cpu.IsBigEndian {
				swapWords(h)
			}
		}
	}
}
