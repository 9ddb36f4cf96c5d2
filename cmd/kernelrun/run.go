//go:build !nogpu

package main

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/compute/backend/native"
	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/kernel"
	"github.com/gogpu/compute/shader"
	"github.com/gogpu/compute/tensor"
)

//go:embed particle.wgsl
var particleWGSL string

//go:embed step.wgsl
var stepWGSL string

func init() {
	subcommands = append(subcommands, newRunCmd)
}

type runOptions struct {
	count     uint32
	workgroup uint32
	adapter   string
	timeout   time.Duration
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sample particle kernel on the GPU",
		Long: `Upload COUNT scalars as a plain buffer and COUNT particles as a
structured buffer, dispatch one kernel over both, read the results back
and verify them on the host.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.count == 0 || opts.workgroup == 0 {
				return fmt.Errorf("--count and --workgroup must be positive")
			}
			return runKernel(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().Uint32Var(&opts.count, "count", 1000, "number of elements")
	cmd.Flags().Uint32Var(&opts.workgroup, "workgroup", 64, "workgroup size along x")
	cmd.Flags().StringVar(&opts.adapter, "adapter", "", "substring of the adapter name to use")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", native.DefaultTimeout, "maximum wait for the GPU")
	return cmd
}

// stepShader builds the kernel source for the given workgroup size.
func stepShader(workgroup uint32) *shader.Shader {
	common := &shader.Shader{Name: "particle", Source: particleWGSL}
	return &shader.Shader{
		Name:   "step",
		Source: strings.ReplaceAll(stepWGSL, "$WORKGROUP", strconv.FormatUint(uint64(workgroup), 10)),
		Deps:   []*shader.Shader{common},
	}
}

func runKernel(ctx context.Context, cmd *cobra.Command, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*opts.timeout)
	defer cancel()

	dev, err := native.Open(&native.Config{Timeout: opts.timeout, AdapterName: opts.adapter})
	if err != nil {
		return err
	}
	defer dev.Close()

	n := int(opts.count)
	scalars := make([]float32, n)
	particles := make([]Particle, n)
	for i := range n {
		x := float32(i)
		scalars[i] = x
		particles[i] = Particle{Mass: x, Velocity: [4]float32{10 * x, 10 * x, 10 * x, 10 * x}}
	}

	usage := gpucore.BufferUsageStorage | gpucore.BufferUsageCopySrc
	values, err := tensor.InitPrimitive(dev, scalars, usage, tensor.WithLabel("values"))
	if err != nil {
		return err
	}
	defer values.Destroy()
	records, err := tensor.Encase(dev, particles, usage, tensor.WithLabel("particles"))
	if err != nil {
		return err
	}
	defer records.Destroy()

	prog, err := shader.Compile(dev, &shader.Descriptor{
		Shader: stepShader(opts.workgroup),
		Groups: [][]gpucore.BindGroupLayoutEntry{{
			{Binding: 0, Type: gpucore.BindingTypeStorageBuffer, MinBindingSize: values.Stride()},
			{Binding: 1, Type: gpucore.BindingTypeStorageBuffer, MinBindingSize: records.Stride()},
		}},
	})
	if err != nil {
		return err
	}
	defer prog.Destroy()

	q := kernel.NewQueue(dev, kernel.WithLabel("step"))
	defer q.Clear()
	groups := kernel.Workgroups(opts.count, opts.workgroup)
	if err := kernel.NewBuilder(q, prog.Pipeline).Bind(0, values, records).Queue(groups); err != nil {
		return err
	}

	rec, err := dev.NewRecorder("kernelrun")
	if err != nil {
		return err
	}
	if err := q.Encode(rec, ""); err != nil {
		rec.Discard()
		return err
	}
	start := time.Now()
	if err := rec.Submit(ctx); err != nil {
		return err
	}
	elapsed := time.Since(start)

	gotValues, err := values.Read(ctx)
	if err != nil {
		return err
	}
	gotParticles, err := records.Read(ctx)
	if err != nil {
		return err
	}
	if err := verify(scalars, particles, gotValues, gotParticles); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ok: %d elements, %d workgroups of %d, record stride %d, %v\n",
		n, groups, opts.workgroup, records.Stride(), elapsed)
	return nil
}

// verify checks the kernel output against the host computation.
func verify(scalars []float32, particles []Particle, gotValues []float32, gotParticles []Particle) error {
	for i, x := range scalars {
		if want := 2 * x; gotValues[i] != want {
			return fmt.Errorf("values[%d] = %v, want %v", i, gotValues[i], want)
		}
	}
	for i, p := range particles {
		want := p
		for j := range want.Velocity {
			want.Velocity[j] += p.Mass
		}
		if gotParticles[i] != want {
			return fmt.Errorf("particles[%d] = %+v, want %+v", i, gotParticles[i], want)
		}
	}
	return nil
}
