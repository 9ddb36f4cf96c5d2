package gpucoretest

import (
	"fmt"
	"sync"

	"github.com/gogpu/compute/gpucore"
)

// CommandKind identifies a recorded command.
type CommandKind int

const (
	CmdBeginComputePass CommandKind = iota
	CmdSetPipeline
	CmdSetBindGroup
	CmdDispatch
	CmdDispatchIndirect
	CmdEndComputePass
)

// String returns the name of the command kind.
func (k CommandKind) String() string {
	switch k {
	case CmdBeginComputePass:
		return "BeginComputePass"
	case CmdSetPipeline:
		return "SetPipeline"
	case CmdSetBindGroup:
		return "SetBindGroup"
	case CmdDispatch:
		return "Dispatch"
	case CmdDispatchIndirect:
		return "DispatchIndirect"
	case CmdEndComputePass:
		return "EndComputePass"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Command is one recorded call. Only the fields relevant to Kind are set.
type Command struct {
	Kind     CommandKind
	Label    string
	Pipeline gpucore.ComputePipelineID
	Index    uint32
	Group    gpucore.BindGroupID
	X, Y, Z  uint32
	Buffer   gpucore.BufferID
	Offset   uint64
}

// String formats the command for test failure messages.
func (c Command) String() string {
	switch c.Kind {
	case CmdBeginComputePass:
		return fmt.Sprintf("BeginComputePass(%q)", c.Label)
	case CmdSetPipeline:
		return fmt.Sprintf("SetPipeline(%d)", c.Pipeline)
	case CmdSetBindGroup:
		return fmt.Sprintf("SetBindGroup(%d, %d)", c.Index, c.Group)
	case CmdDispatch:
		return fmt.Sprintf("Dispatch(%d, %d, %d)", c.X, c.Y, c.Z)
	case CmdDispatchIndirect:
		return fmt.Sprintf("DispatchIndirect(%d, %d)", c.Buffer, c.Offset)
	default:
		return c.Kind.String()
	}
}

// Recorder is a gpucore.CommandRecorder that captures the command sequence.
// Commands issued on a pass after End are dropped and counted by Misuse.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
	misuse   int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// BeginComputePass implements gpucore.CommandRecorder.
func (r *Recorder) BeginComputePass(label string) gpucore.ComputePassEncoder {
	r.record(Command{Kind: CmdBeginComputePass, Label: label})
	return &passEncoder{rec: r}
}

// Commands returns a copy of the recorded commands.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

// Kinds returns the kinds of the recorded commands, in order.
func (r *Recorder) Kinds() []CommandKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]CommandKind, len(r.commands))
	for i, c := range r.commands {
		kinds[i] = c.Kind
	}
	return kinds
}

// Count returns how many commands of kind k were recorded.
func (r *Recorder) Count(k CommandKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.commands {
		if c.Kind == k {
			n++
		}
	}
	return n
}

// Misuse returns the number of commands issued on an ended pass.
func (r *Recorder) Misuse() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.misuse
}

// Reset discards all recorded commands.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
	r.misuse = 0
}

func (r *Recorder) record(c Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, c)
}

type passEncoder struct {
	rec   *Recorder
	ended bool
}

func (p *passEncoder) emit(c Command) {
	if p.ended {
		p.rec.mu.Lock()
		p.rec.misuse++
		p.rec.mu.Unlock()
		return
	}
	p.rec.record(c)
}

func (p *passEncoder) SetPipeline(pipeline gpucore.ComputePipelineID) {
	p.emit(Command{Kind: CmdSetPipeline, Pipeline: pipeline})
}

func (p *passEncoder) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	p.emit(Command{Kind: CmdSetBindGroup, Index: index, Group: group})
}

func (p *passEncoder) Dispatch(x, y, z uint32) {
	p.emit(Command{Kind: CmdDispatch, X: x, Y: y, Z: z})
}

func (p *passEncoder) DispatchIndirect(buffer gpucore.BufferID, offset uint64) {
	p.emit(Command{Kind: CmdDispatchIndirect, Buffer: buffer, Offset: offset})
}

func (p *passEncoder) End() {
	p.emit(Command{Kind: CmdEndComputePass})
	p.ended = true
}

var _ gpucore.CommandRecorder = (*Recorder)(nil)
