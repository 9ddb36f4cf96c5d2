// Package layout computes how host values are laid out in GPU memory and
// serializes them accordingly.
//
// Two strategies are provided, and callers choose between them explicitly:
//
//   - [Plain] copies host bytes verbatim. It is only correct for types whose
//     Go memory layout already matches the layout the shader expects. Struct
//     types opt in by implementing [PlainLayout]; built-in scalars and
//     2- or 4-component vectors use [PlainPrimitive] instead.
//     Nothing is checked at runtime: a type that opts in wrongly uploads
//     corrupted data.
//
//   - [Structured] derives the WGSL layout of a Go type by reflection and
//     re-serializes every field at its device offset, zero-filling padding.
//
// Structured accepts types whose Go layout differs from the device layout:
//
//	type Particle struct {
//		Mass float32
//		Pos  [4]float32 // vec4<f32>: offset 4 on the host, 16 on the device
//	}
//
// # Type mapping
//
//	float32, int32, uint32          f32, i32, u32
//	[N]S, N in 2..4, S a scalar     vecN<S>
//	[C][R]float32, C,R in 2..4      matCxR<f32>
//	[N]E otherwise                  array<E, N>
//	struct                          struct (exported fields only)
//
// Struct fields accept a `wgsl` tag: "-" skips the field, "align(N)" and
// "size(N)" mirror the WGSL attributes, and "array" forces a short array of
// scalars to be treated as array<S, N> instead of a vector. As in WGSL,
// "align(N)" may raise the alignment of a field but never lower it.
//
// Layouts are computed once per (type, address space) and cached.
package layout
