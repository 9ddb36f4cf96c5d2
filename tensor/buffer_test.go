// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tensor

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/gpucore/gpucoretest"
	"github.com/gogpu/compute/layout"
)

type sample struct {
	Value  float32
	Value2 [4]float32
}

type params struct {
	Count uint32
	Scale [3]float32
}

func f32At(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func samples(n int) []sample {
	out := make([]sample, n)
	for i := range out {
		x := float32(i)
		out[i] = sample{Value: x, Value2: [4]float32{10 * x, 10 * x, 10 * x, 10 * x}}
	}
	return out
}

func TestInitPrimitive_UploadsHostBytes(t *testing.T) {
	dev := gpucoretest.NewDevice()
	values := make([]float32, 1000)
	for i := range values {
		values[i] = float32(i)
	}

	buf, err := InitPrimitive(dev, values, gpucore.BufferUsageStorage, WithLabel("scalars"))
	if err != nil {
		t.Fatalf("InitPrimitive() error = %v", err)
	}
	if buf.Len() != 1000 || buf.Stride() != 4 || buf.Size() != 4000 {
		t.Errorf("Len/Stride/Size = %d/%d/%d, want 1000/4/4000", buf.Len(), buf.Stride(), buf.Size())
	}

	rec, ok := dev.Buffer(buf.ID())
	if !ok {
		t.Fatal("buffer not allocated on device")
	}
	if rec.Desc.Label != "scalars" {
		t.Errorf("Label = %q, want %q", rec.Desc.Label, "scalars")
	}
	if want := gpucore.BufferUsageStorage | gpucore.BufferUsageCopyDst; rec.Desc.Usage != want {
		t.Errorf("Usage = %v, want %v", rec.Desc.Usage, want)
	}
	for i, v := range values {
		if got := f32At(rec.Data, i*4); got != v {
			t.Fatalf("element %d = %v, want %v", i, got, v)
		}
	}
}

func TestInit_PlainLayout(t *testing.T) {
	dev := gpucoretest.NewDevice()
	args := gpucore.DispatchIndirectArgs{X: 7, Y: 2, Z: 1}
	buf, err := InitValue(dev, args, gpucore.BufferUsageIndirect)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Size() != gpucore.DispatchIndirectArgsSize {
		t.Errorf("Size() = %d, want %d", buf.Size(), gpucore.DispatchIndirectArgsSize)
	}
	rec, _ := dev.Buffer(buf.ID())
	for i, want := range []uint32{7, 2, 1} {
		if got := binary.LittleEndian.Uint32(rec.Data[i*4:]); got != want {
			t.Errorf("word %d = %d, want %d", i, got, want)
		}
	}
}

func TestEncase_DeviceLayout(t *testing.T) {
	dev := gpucoretest.NewDevice()
	values := samples(1000)

	buf, err := Encase(dev, values, gpucore.BufferUsageStorage)
	if err != nil {
		t.Fatalf("Encase() error = %v", err)
	}
	if buf.Stride() != 32 || buf.Size() != 32000 {
		t.Fatalf("Stride/Size = %d/%d, want 32/32000", buf.Stride(), buf.Size())
	}

	rec, _ := dev.Buffer(buf.ID())
	for _, i := range []int{0, 1, 999} {
		base := i * 32
		if got := f32At(rec.Data, base); got != values[i].Value {
			t.Errorf("element %d Value = %v, want %v", i, got, values[i].Value)
		}
		for off := base + 4; off < base+16; off++ {
			if rec.Data[off] != 0 {
				t.Errorf("element %d gap byte %d = %#x, want 0", i, off, rec.Data[off])
			}
		}
		for c := 0; c < 4; c++ {
			if got := f32At(rec.Data, base+16+4*c); got != values[i].Value2[c] {
				t.Errorf("element %d Value2[%d] = %v, want %v", i, c, got, values[i].Value2[c])
			}
		}
	}
}

func TestEncaseUniform(t *testing.T) {
	dev := gpucoretest.NewDevice()
	buf, err := EncaseUniform(dev, []params{{Count: 3, Scale: [3]float32{1, 2, 3}}, {Count: 4}}, gpucore.BufferUsageUniform)
	if err != nil {
		t.Fatal(err)
	}
	// Scale is a vec3 at offset 16; the struct is 32 bytes in either space.
	if buf.Stride() != 32 {
		t.Fatalf("Stride() = %d, want 32", buf.Stride())
	}
	rec, _ := dev.Buffer(buf.ID())
	if got := binary.LittleEndian.Uint32(rec.Data[0:]); got != 3 {
		t.Errorf("Count = %d, want 3", got)
	}
	if got := f32At(rec.Data, 20); got != 2 {
		t.Errorf("Scale.y = %v, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(rec.Data[32:]); got != 4 {
		t.Errorf("second Count = %d, want 4", got)
	}
}

func TestEncaseValue(t *testing.T) {
	dev := gpucoretest.NewDevice()
	buf, err := EncaseValue(dev, params{Count: 9}, layout.Uniform, gpucore.BufferUsageUniform)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 1 || buf.Size() != 32 {
		t.Errorf("Len/Size = %d/%d, want 1/32", buf.Len(), buf.Size())
	}
}

func TestCreate_Errors(t *testing.T) {
	deviceErr := errors.New("device lost")

	tests := []struct {
		name    string
		setup   func(d *gpucoretest.Device)
		nilDev  bool
		values  []float32
		usage   gpucore.BufferUsage
		wantErr error
	}{
		{"nil device", nil, true, []float32{1}, gpucore.BufferUsageStorage, ErrNilDevice},
		{"empty", nil, false, nil, gpucore.BufferUsageStorage, ErrEmptyBuffer},
		{"invalid usage", nil, false, []float32{1}, gpucore.BufferUsageMapRead | gpucore.BufferUsageStorage, gpucore.ErrInvalidBufferUsage},
		{"too large", func(d *gpucoretest.Device) {
			l := gpucore.DefaultLimits()
			l.MaxBufferSize = 8
			d.SetLimits(l)
		}, false, []float32{1, 2, 3}, gpucore.BufferUsageStorage, ErrBufferTooLarge},
		{"device rejects", func(d *gpucoretest.Device) {
			d.Fail("CreateBuffer", deviceErr)
		}, false, []float32{1}, gpucore.BufferUsageStorage, deviceErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := gpucoretest.NewDevice()
			if tt.setup != nil {
				tt.setup(d)
			}
			var dev gpucore.Device = d
			if tt.nilDev {
				dev = nil
			}
			buf, err := InitPrimitive(dev, tt.values, tt.usage)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if buf != nil {
				t.Error("a buffer was returned alongside an error")
			}
			if d.LiveBuffers() != 0 {
				t.Errorf("LiveBuffers() = %d, want 0", d.LiveBuffers())
			}
		})
	}
}

func TestCreate_DeviceRejectionWrapsAllocation(t *testing.T) {
	d := gpucoretest.NewDevice()
	d.Fail("CreateBuffer", gpucoretest.ErrOutOfMemory)
	_, err := Encase(d, samples(4), gpucore.BufferUsageStorage, WithLabel("particles"))
	if !errors.Is(err, ErrAllocation) || !errors.Is(err, gpucoretest.ErrOutOfMemory) {
		t.Fatalf("error = %v, want ErrAllocation wrapping ErrOutOfMemory", err)
	}
}

func TestEncase_UnsupportedType(t *testing.T) {
	type bad struct{ Flag bool }
	d := gpucoretest.NewDevice()
	if _, err := Encase(d, []bad{{true}}, gpucore.BufferUsageStorage); !errors.Is(err, layout.ErrUnsupportedType) {
		t.Errorf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestUninit(t *testing.T) {
	d := gpucoretest.NewDevice()
	s, err := layout.Structured[sample](layout.Storage)
	if err != nil {
		t.Fatal(err)
	}

	buf, err := Uninit(d, 10, s, gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Usage() != gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc {
		t.Errorf("Usage() = %v, CopyDst must not be added", buf.Usage())
	}
	got, err := buf.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v != (sample{}) {
			t.Fatalf("element %d = %+v, want zero", i, v)
		}
	}
	if d.Writes() != 0 {
		t.Errorf("Writes() = %d, want 0", d.Writes())
	}

	if _, err := Uninit(d, 0, s, gpucore.BufferUsageStorage); !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("Uninit(0) error = %v, want ErrEmptyBuffer", err)
	}
}

func TestUninit_SizeOverflow(t *testing.T) {
	s, err := layout.Structured[sample](layout.Storage)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{math.MaxInt / 8, math.MaxInt} {
		d := gpucoretest.NewDevice()
		buf, err := Uninit(d, n, s, gpucore.BufferUsageStorage)
		if !errors.Is(err, ErrBufferTooLarge) {
			t.Errorf("Uninit(%d) error = %v, want ErrBufferTooLarge", n, err)
		}
		if buf != nil {
			t.Errorf("Uninit(%d) returned a buffer of %d bytes", n, buf.Size())
		}
		if d.LiveBuffers() != 0 {
			t.Errorf("LiveBuffers() = %d, want 0", d.LiveBuffers())
		}
	}
}

func TestBuffer_Write(t *testing.T) {
	d := gpucoretest.NewDevice()
	buf, err := Encase(d, samples(2), gpucore.BufferUsageStorage)
	if err != nil {
		t.Fatal(err)
	}

	if err := buf.Write(samples(3)); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Write(3) error = %v, want ErrLengthMismatch", err)
	}

	next := []sample{{Value: 5}, {Value: 6, Value2: [4]float32{1, 2, 3, 4}}}
	if err := buf.Write(next); err != nil {
		t.Fatal(err)
	}
	rec, _ := d.Buffer(buf.ID())
	if got := f32At(rec.Data, 32); got != 6 {
		t.Errorf("second Value = %v, want 6", got)
	}
	if got := f32At(rec.Data, 32+16+12); got != 4 {
		t.Errorf("second Value2.w = %v, want 4", got)
	}

	buf.Destroy()
	if err := buf.Write(next); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Write after Destroy error = %v, want ErrDestroyed", err)
	}
}

func TestBuffer_WriteRequiresCopyDst(t *testing.T) {
	d := gpucoretest.NewDevice()
	buf, err := Uninit(d, 4, layout.PlainPrimitive[uint32](), gpucore.BufferUsageStorage)
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.Write([]uint32{1, 2, 3, 4}); !errors.Is(err, gpucore.ErrInvalidBufferUsage) {
		t.Errorf("error = %v, want ErrInvalidBufferUsage", err)
	}
}

func TestBuffer_Read(t *testing.T) {
	d := gpucoretest.NewDevice()
	values := samples(8)
	buf, err := Encase(d, values, gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc)
	if err != nil {
		t.Fatal(err)
	}

	got, err := buf.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("element %d = %+v, want %+v", i, got[i], values[i])
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := buf.Read(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Read(canceled) error = %v, want context.Canceled", err)
	}

	readErr := errors.New("readback failed")
	d.Fail("ReadBuffer", readErr)
	if _, err := buf.Read(context.Background()); !errors.Is(err, readErr) {
		t.Errorf("Read error = %v, want %v", err, readErr)
	}
	d.Fail("ReadBuffer", nil)

	buf.Destroy()
	if _, err := buf.Read(context.Background()); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Read after Destroy error = %v, want ErrDestroyed", err)
	}
}

func TestBuffer_ReadRequiresCopySrc(t *testing.T) {
	d := gpucoretest.NewDevice()
	buf, err := InitPrimitive(d, []int32{1, 2}, gpucore.BufferUsageStorage)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := buf.Read(context.Background()); !errors.Is(err, ErrNotReadable) {
		t.Errorf("error = %v, want ErrNotReadable", err)
	}
}

func TestBuffer_Binding(t *testing.T) {
	d := gpucoretest.NewDevice()
	buf, err := InitPrimitive(d, [][4]float32{{1, 2, 3, 4}, {5, 6, 7, 8}}, gpucore.BufferUsageUniform)
	if err != nil {
		t.Fatal(err)
	}

	var b gpucore.Bindable = buf
	got := b.Binding()
	want := gpucore.BufferBinding{
		Buffer: buf.ID(),
		Size:   32,
		Usage:  gpucore.BufferUsageUniform | gpucore.BufferUsageCopyDst,
	}
	if got != want {
		t.Errorf("Binding() = %+v, want %+v", got, want)
	}
}

func TestBuffer_DestroyIdempotent(t *testing.T) {
	d := gpucoretest.NewDevice()
	buf, err := InitPrimitive(d, []uint32{1}, gpucore.BufferUsageStorage)
	if err != nil {
		t.Fatal(err)
	}
	if d.LiveBuffers() != 1 {
		t.Fatalf("LiveBuffers() = %d, want 1", d.LiveBuffers())
	}

	buf.Destroy()
	buf.Destroy()

	if !buf.IsDestroyed() {
		t.Error("IsDestroyed() = false after Destroy")
	}
	if d.LiveBuffers() != 0 {
		t.Errorf("LiveBuffers() = %d, want 0", d.LiveBuffers())
	}
}
