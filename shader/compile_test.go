// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/gpucore/gpucoretest"
)

// stubCompiler replaces the WGSL translator for the duration of a test and
// records the composed source it was given.
func stubCompiler(t *testing.T, out []byte, err error) *string {
	t.Helper()
	var seen string
	prev := compileWGSL
	compileWGSL = func(source string) ([]byte, error) {
		seen = source
		return out, err
	}
	t.Cleanup(func() { compileWGSL = prev })
	return &seen
}

func spirvBytes(words ...uint32) []byte {
	b := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	return b
}

func TestCompile(t *testing.T) {
	seen := stubCompiler(t, spirvBytes(0x07230203, 0x00010000), nil)
	dev := gpucoretest.NewDevice()

	common := &Shader{Name: "common", Source: "fn helper() {}"}
	groups := [][]gpucore.BindGroupLayoutEntry{
		{{Binding: 0, Type: gpucore.BindingTypeStorageBuffer}, {Binding: 1, Type: gpucore.BindingTypeReadOnlyStorageBuffer}},
		{{Binding: 0, Type: gpucore.BindingTypeUniformBuffer}},
	}
	prog, err := Compile(dev, &Descriptor{
		Shader: &Shader{Name: "step", Source: "@compute fn main() {}", Deps: []*Shader{common}},
		Groups: groups,
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if *seen != "fn helper() {}\n@compute fn main() {}" {
		t.Errorf("compiled source = %q", *seen)
	}
	if prog.Pipeline.Label != "step" {
		t.Errorf("Label = %q, want shader name", prog.Pipeline.Label)
	}
	if len(prog.Pipeline.Groups) != 2 {
		t.Fatalf("Groups = %d, want 2", len(prog.Pipeline.Groups))
	}
	for i, g := range prog.Pipeline.Groups {
		desc, ok := dev.BindGroupLayout(g.Layout)
		if !ok {
			t.Fatalf("group %d layout not alive", i)
		}
		if len(desc.Entries) != len(groups[i]) || len(g.Entries) != len(groups[i]) {
			t.Errorf("group %d entries = %d/%d, want %d", i, len(desc.Entries), len(g.Entries), len(groups[i]))
		}
	}

	pd, ok := dev.ComputePipeline(prog.Pipeline.ID)
	if !ok {
		t.Fatal("pipeline not alive")
	}
	if pd.EntryPoint != DefaultEntryPoint {
		t.Errorf("EntryPoint = %q, want %q", pd.EntryPoint, DefaultEntryPoint)
	}
	words, ok := dev.ShaderModule(pd.ShaderModule)
	if !ok || len(words) != 2 || words[0] != 0x07230203 {
		t.Errorf("shader module words = %#x", words)
	}

	id := prog.Pipeline.ID
	prog.Destroy()
	prog.Destroy()
	if _, ok := dev.ComputePipeline(id); ok {
		t.Error("pipeline still alive after Destroy")
	}
	if _, ok := dev.ShaderModule(pd.ShaderModule); ok {
		t.Error("shader module still alive after Destroy")
	}
}

func TestCompile_Errors(t *testing.T) {
	translateErr := errors.New("unexpected token")
	createErr := errors.New("device lost")
	shader := &Shader{Name: "k", Source: "@compute fn main() {}"}

	tests := []struct {
		name    string
		out     []byte
		compErr error
		setup   func(d *gpucoretest.Device)
		desc    *Descriptor
		wantErr error
	}{
		{"nil descriptor", nil, nil, nil, nil, ErrNilShader},
		{"translation", nil, translateErr, nil, &Descriptor{Shader: shader}, ErrCompile},
		{"ragged output", []byte{1, 2, 3}, nil, nil, &Descriptor{Shader: shader}, ErrCompile},
		{"too many groups", spirvBytes(1), nil, nil,
			&Descriptor{Shader: shader, Groups: make([][]gpucore.BindGroupLayoutEntry, 5)}, ErrTooManyGroups},
		{"pipeline creation", spirvBytes(1), nil, func(d *gpucoretest.Device) {
			d.Fail("CreateComputePipeline", createErr)
		}, &Descriptor{Shader: shader, Groups: [][]gpucore.BindGroupLayoutEntry{{{Binding: 0, Type: gpucore.BindingTypeStorageBuffer}}}}, createErr},
		{"layout creation", spirvBytes(1), nil, func(d *gpucoretest.Device) {
			d.Fail("CreateBindGroupLayout", createErr)
		}, &Descriptor{Shader: shader, Groups: [][]gpucore.BindGroupLayoutEntry{{{Binding: 0, Type: gpucore.BindingTypeStorageBuffer}}}}, createErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubCompiler(t, tt.out, tt.compErr)
			dev := gpucoretest.NewDevice()
			if tt.setup != nil {
				tt.setup(dev)
			}
			prog, err := Compile(dev, tt.desc)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if prog != nil {
				t.Error("program returned alongside an error")
			}
		})
	}

	if _, err := Compile(nil, &Descriptor{Shader: shader}); !errors.Is(err, ErrNilDevice) {
		t.Errorf("Compile(nil device) error = %v, want ErrNilDevice", err)
	}
}
