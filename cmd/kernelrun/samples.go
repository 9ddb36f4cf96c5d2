package main

import (
	"reflect"
)

// Particle is the record type of the sample kernel: a scalar followed by a
// vec4, leaving a 12-byte gap before Velocity in every address space.
type Particle struct {
	Mass     float32
	Velocity [4]float32
}

// Params is a uniform block mixing a scalar with a vec3.
type Params struct {
	Count uint32
	Scale [3]float32
	Step  float32
}

// Transform shows matrix and array layout.
type Transform struct {
	Model   [4][4]float32
	Normal  [3][3]float32
	Weights [4]float32 `wgsl:"array"`
	Flags   uint32
}

// samples lists the types printed by the layout command.
var samples = []reflect.Type{
	reflect.TypeFor[Particle](),
	reflect.TypeFor[Params](),
	reflect.TypeFor[Transform](),
}
