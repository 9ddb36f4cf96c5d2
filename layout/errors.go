package layout

import "errors"

// Layout errors.
var (
	// ErrUnsupportedType is returned for Go types with no WGSL equivalent
	// (bool, string, slices, maps, pointers, 64-bit numbers, ...).
	ErrUnsupportedType = errors.New("layout: type is not host-shareable")

	// ErrInvalidAttribute is returned for malformed wgsl struct tags.
	ErrInvalidAttribute = errors.New("layout: invalid wgsl attribute")

	// ErrShortBuffer is returned when a destination or source byte slice is
	// smaller than the layout requires.
	ErrShortBuffer = errors.New("layout: byte buffer too small")

	// ErrBigEndianHost is returned by the plain strategy on big-endian hosts,
	// where host bytes never match the little-endian device representation.
	ErrBigEndianHost = errors.New("layout: plain layout requires a little-endian host")
)
