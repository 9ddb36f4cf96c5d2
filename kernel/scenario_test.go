// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel_test

import (
	"encoding/binary"
	"math"
	"reflect"
	"testing"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/gpucore/gpucoretest"
	"github.com/gogpu/compute/kernel"
	"github.com/gogpu/compute/tensor"
)

type record struct {
	Value  float32
	Value2 [4]float32
}

// TestScalarAndRecordKernel runs the full path from host slices to recorded
// commands: one plain buffer, one structured buffer, one invocation.
func TestScalarAndRecordKernel(t *testing.T) {
	const n = 1000
	dev := gpucoretest.NewDevice()

	scalars := make([]float32, n)
	records := make([]record, n)
	for i := range scalars {
		x := float32(i)
		scalars[i] = x
		records[i] = record{Value: x, Value2: [4]float32{10 * x, 10 * x, 10 * x, 10 * x}}
	}

	plain, err := tensor.InitPrimitive(dev, scalars, gpucore.BufferUsageStorage, tensor.WithLabel("scalars"))
	if err != nil {
		t.Fatal(err)
	}
	defer plain.Destroy()
	structured, err := tensor.Encase(dev, records, gpucore.BufferUsageStorage, tensor.WithLabel("records"))
	if err != nil {
		t.Fatal(err)
	}
	defer structured.Destroy()

	layoutEntries := []gpucore.BindGroupLayoutEntry{
		{Binding: 0, Type: gpucore.BindingTypeStorageBuffer},
		{Binding: 1, Type: gpucore.BindingTypeStorageBuffer},
	}
	bgl, err := dev.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{Entries: layoutEntries})
	if err != nil {
		t.Fatal(err)
	}
	pl, err := dev.CreatePipelineLayout([]gpucore.BindGroupLayoutID{bgl})
	if err != nil {
		t.Fatal(err)
	}
	mod, err := dev.CreateShaderModule([]uint32{0x07230203}, "scenario")
	if err != nil {
		t.Fatal(err)
	}
	pid, err := dev.CreateComputePipeline(&gpucore.ComputePipelineDesc{Layout: pl, ShaderModule: mod, EntryPoint: "main"})
	if err != nil {
		t.Fatal(err)
	}
	pipeline := kernel.Pipeline{
		ID:     pid,
		Label:  "scenario",
		Groups: []kernel.GroupLayout{{Layout: bgl, Entries: layoutEntries}},
	}

	q := kernel.NewQueue(dev)
	if err := kernel.NewBuilder(q, pipeline).Bind(0, plain, structured).Queue(kernel.Workgroups(n, 64)); err != nil {
		t.Fatal(err)
	}
	rec := gpucoretest.NewRecorder()
	if err := q.Encode(rec, "scenario"); err != nil {
		t.Fatal(err)
	}

	want := []gpucoretest.CommandKind{
		gpucoretest.CmdBeginComputePass,
		gpucoretest.CmdSetPipeline,
		gpucoretest.CmdSetBindGroup,
		gpucoretest.CmdDispatch,
		gpucoretest.CmdEndComputePass,
	}
	if got := rec.Kinds(); !reflect.DeepEqual(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	cmds := rec.Commands()
	if cmds[2].Index != 0 {
		t.Errorf("bind group index = %d, want 0", cmds[2].Index)
	}
	if d := cmds[3]; d.X != 16 || d.Y != 1 || d.Z != 1 {
		t.Errorf("dispatch = %v, want Dispatch(16, 1, 1)", d)
	}

	bg, ok := dev.BindGroup(cmds[2].Group)
	if !ok {
		t.Fatal("bind group not alive")
	}
	if bg.Entries[0].Buffer != plain.ID() || bg.Entries[1].Buffer != structured.ID() {
		t.Errorf("bind group entries = %+v", bg.Entries)
	}

	raw, _ := dev.Buffer(plain.ID())
	for i := 0; i < n; i++ {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(raw.Data[i*4:])); got != float32(i) {
			t.Fatalf("plain element %d = %v", i, got)
		}
	}

	// Under the storage rules the vec4 is 16-byte aligned: bytes 4..15 of
	// every record are padding and Value2 starts at byte 16.
	raw, _ = dev.Buffer(structured.ID())
	if len(raw.Data) != n*32 {
		t.Fatalf("structured buffer is %d bytes, want %d", len(raw.Data), n*32)
	}
	elem := 1
	base := elem * 32
	for off := base + 4; off < base+16; off++ {
		if raw.Data[off] != 0 {
			t.Fatalf("padding byte %d = %#x", off, raw.Data[off])
		}
	}
	for c := 0; c < 4; c++ {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(raw.Data[base+16+4*c:])); got != 10 {
			t.Errorf("record 1 Value2[%d] = %v, want 10", c, got)
		}
	}
}
