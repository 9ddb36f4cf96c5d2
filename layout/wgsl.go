package layout

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// AddressSpace selects the WGSL layout rules applied to a type.
type AddressSpace int

const (
	// Storage applies the rules for var<storage> buffers.
	Storage AddressSpace = iota

	// Uniform applies the stricter var<uniform> rules: array strides and
	// struct alignments are rounded up to 16 bytes.
	Uniform
)

// String returns the WGSL keyword of the address space.
func (s AddressSpace) String() string {
	switch s {
	case Storage:
		return "storage"
	case Uniform:
		return "uniform"
	default:
		return fmt.Sprintf("AddressSpace(%d)", int(s))
	}
}

// Kind classifies a TypeLayout.
type Kind int

const (
	KindScalar Kind = iota
	KindVector
	KindMatrix
	KindArray
	KindStruct
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	case KindMatrix:
		return "matrix"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// TypeLayout is the device layout of a Go type.
type TypeLayout struct {
	// Name is the WGSL spelling of the type, e.g. "vec4<f32>".
	Name string

	Kind Kind

	// Size and Align follow the WGSL SizeOf and AlignOf rules.
	Size  uint64
	Align uint64

	// Stride is the distance between consecutive elements when the type is
	// the element of a runtime-sized array<T> in this address space.
	Stride uint64

	// Elem is the element layout of vectors, arrays and matrix columns.
	Elem *TypeLayout

	// Len is the component count of vectors, the column count of matrices
	// and the length of arrays.
	Len int

	// ElemStride is the distance between consecutive array elements or
	// matrix columns.
	ElemStride uint64

	// Fields are the members of a struct, in declaration order.
	Fields []FieldLayout
}

// FieldLayout is one struct member.
type FieldLayout struct {
	Name   string
	Offset uint64
	Type   *TypeLayout

	// HostOffset is the offset of the field in Go memory.
	HostOffset uintptr

	index int
}

// Describe computes the device layout of t in the given address space.
// The result is a copy owned by the caller.
func Describe(t reflect.Type, space AddressSpace) (*TypeLayout, error) {
	c, err := compile(t, space)
	if err != nil {
		return nil, err
	}
	return c.layout.clone(), nil
}

func (l *TypeLayout) clone() *TypeLayout {
	if l == nil {
		return nil
	}
	out := *l
	out.Elem = l.Elem.clone()
	if l.Fields != nil {
		out.Fields = make([]FieldLayout, len(l.Fields))
		for i, f := range l.Fields {
			f.Type = f.Type.clone()
			out.Fields[i] = f
		}
	}
	return &out
}

// String renders the layout as a WGSL-like declaration with offsets, e.g.
//
//	struct Particle { // size 32, align 16
//	    @offset(0) Mass: f32,
//	    @offset(16) Pos: vec4<f32>,
//	}
func (l *TypeLayout) String() string {
	if l.Kind != KindStruct {
		return fmt.Sprintf("%s // size %d, align %d", l.Name, l.Size, l.Align)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "struct %s { // size %d, align %d\n", l.Name, l.Size, l.Align)
	for _, f := range l.Fields {
		fmt.Fprintf(&b, "    @offset(%d) %s: %s,\n", f.Offset, f.Name, f.Type.Name)
	}
	b.WriteString("}")
	return b.String()
}

func roundUp(align, n uint64) uint64 {
	return (n + align - 1) / align * align
}

type scalarInfo struct {
	name string
	kind reflect.Kind
}

func scalarOf(t reflect.Type) (scalarInfo, bool) {
	switch t.Kind() {
	case reflect.Float32:
		return scalarInfo{"f32", reflect.Float32}, true
	case reflect.Int32:
		return scalarInfo{"i32", reflect.Int32}, true
	case reflect.Uint32:
		return scalarInfo{"u32", reflect.Uint32}, true
	default:
		return scalarInfo{}, false
	}
}

func scalarLayout(s scalarInfo) *TypeLayout {
	return &TypeLayout{Name: s.name, Kind: KindScalar, Size: 4, Align: 4}
}

// vectorLayout returns vecN<S>: vec2 aligns to 8, vec3 and vec4 to 16.
func vectorLayout(s scalarInfo, n int) *TypeLayout {
	align := uint64(16)
	if n == 2 {
		align = 8
	}
	return &TypeLayout{
		Name:       fmt.Sprintf("vec%d<%s>", n, s.name),
		Kind:       KindVector,
		Size:       uint64(n) * 4,
		Align:      align,
		Elem:       scalarLayout(s),
		Len:        n,
		ElemStride: 4,
	}
}

func isVectorShape(t reflect.Type) (scalarInfo, bool) {
	if t.Kind() != reflect.Array || t.Len() < 2 || t.Len() > 4 {
		return scalarInfo{}, false
	}
	return scalarOf(t.Elem())
}

// describe is the recursive worker behind Describe. forceArray is set by
// the "array" field attribute.
func describe(t reflect.Type, space AddressSpace, path string, forceArray bool) (*TypeLayout, error) {
	if s, ok := scalarOf(t); ok {
		return scalarLayout(s), nil
	}

	switch t.Kind() {
	case reflect.Array:
		if !forceArray {
			if s, ok := isVectorShape(t); ok {
				return vectorLayout(s, t.Len()), nil
			}
			if col, ok := isVectorShape(t.Elem()); ok && col.kind == reflect.Float32 && t.Len() >= 2 && t.Len() <= 4 {
				return matrixLayout(t.Len(), vectorLayout(col, t.Elem().Len())), nil
			}
		}
		if t.Len() == 0 {
			return nil, fmt.Errorf("%w: %s: zero-length array", ErrUnsupportedType, path)
		}
		elem, err := describe(t.Elem(), space, path+"[]", false)
		if err != nil {
			return nil, err
		}
		return arrayLayout(elem, t.Len(), space), nil

	case reflect.Struct:
		return structLayout(t, space, path)

	default:
		return nil, fmt.Errorf("%w: %s has Go type %s", ErrUnsupportedType, path, t)
	}
}

// matrixLayout returns matCxR<f32>, laid out as array<vecR<f32>, C>.
func matrixLayout(cols int, col *TypeLayout) *TypeLayout {
	stride := roundUp(col.Align, col.Size)
	return &TypeLayout{
		Name:       fmt.Sprintf("mat%dx%d<f32>", cols, col.Len),
		Kind:       KindMatrix,
		Size:       uint64(cols) * stride,
		Align:      col.Align,
		Elem:       col,
		Len:        cols,
		ElemStride: stride,
	}
}

func arrayLayout(elem *TypeLayout, n int, space AddressSpace) *TypeLayout {
	align := elem.Align
	stride := roundUp(elem.Align, elem.Size)
	if space == Uniform {
		align = roundUp(16, align)
		stride = roundUp(16, stride)
	}
	return &TypeLayout{
		Name:       fmt.Sprintf("array<%s, %d>", elem.Name, n),
		Kind:       KindArray,
		Size:       uint64(n) * stride,
		Align:      align,
		Elem:       elem,
		Len:        n,
		ElemStride: stride,
	}
}

type fieldAttrs struct {
	skip  bool
	array bool
	align uint64
	size  uint64
}

func parseAttrs(tag string, path string) (fieldAttrs, error) {
	var a fieldAttrs
	if tag == "" {
		return a, nil
	}
	if tag == "-" {
		a.skip = true
		return a, nil
	}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "array":
			a.array = true
		case strings.HasPrefix(part, "align(") && strings.HasSuffix(part, ")"):
			n, err := strconv.ParseUint(part[len("align("):len(part)-1], 10, 64)
			if err != nil || n == 0 || n&(n-1) != 0 {
				return a, fmt.Errorf("%w: %s: %q must be a power of two", ErrInvalidAttribute, path, part)
			}
			a.align = n
		case strings.HasPrefix(part, "size(") && strings.HasSuffix(part, ")"):
			n, err := strconv.ParseUint(part[len("size("):len(part)-1], 10, 64)
			if err != nil || n == 0 {
				return a, fmt.Errorf("%w: %s: %q must be positive", ErrInvalidAttribute, path, part)
			}
			a.size = n
		default:
			return a, fmt.Errorf("%w: %s: unknown attribute %q", ErrInvalidAttribute, path, part)
		}
	}
	return a, nil
}

func structLayout(t reflect.Type, space AddressSpace, path string) (*TypeLayout, error) {
	name := t.Name()
	if name == "" {
		name = "struct"
	}
	out := &TypeLayout{Name: name, Kind: KindStruct, Align: 1}

	var end uint64
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fpath := path + "." + sf.Name
		attrs, err := parseAttrs(sf.Tag.Get("wgsl"), fpath)
		if err != nil {
			return nil, err
		}
		if attrs.skip {
			continue
		}
		ft, err := describe(sf.Type, space, fpath, attrs.array)
		if err != nil {
			return nil, err
		}

		align := ft.Align
		if ft.Kind == KindStruct && space == Uniform {
			align = roundUp(16, align)
		}
		if attrs.align != 0 {
			if attrs.align < align {
				return nil, fmt.Errorf("%w: %s: align(%d) below the %d-byte alignment of %s", ErrInvalidAttribute, fpath, attrs.align, align, ft.Name)
			}
			align = attrs.align
		}
		size := ft.Size
		if attrs.size != 0 {
			if attrs.size < ft.Size {
				return nil, fmt.Errorf("%w: %s: size(%d) smaller than %s (%d bytes)", ErrInvalidAttribute, fpath, attrs.size, ft.Name, ft.Size)
			}
			size = attrs.size
		}

		offset := roundUp(align, end)
		out.Fields = append(out.Fields, FieldLayout{
			Name:       sf.Name,
			Offset:     offset,
			Type:       ft,
			HostOffset: sf.Offset,
			index:      i,
		})
		end = offset + size
		// A struct member in uniform space reserves a multiple of 16 bytes.
		if ft.Kind == KindStruct && space == Uniform {
			end = offset + roundUp(16, size)
		}
		if align > out.Align {
			out.Align = align
		}
	}
	if len(out.Fields) == 0 {
		return nil, fmt.Errorf("%w: %s: struct %s has no exported fields", ErrUnsupportedType, path, t)
	}
	out.Size = roundUp(out.Align, end)
	return out, nil
}
