package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/compute/layout"
)

func newLayoutCmd() *cobra.Command {
	var space string

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the device layout of the sample record types",
		Long: `Print the WGSL layout of the built-in sample records: member offsets,
sizes and alignments under storage or uniform address space rules.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := parseSpace(space)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, t := range samples {
				l, err := layout.Describe(t, s)
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "// var<%s>, array stride %d\n%s\n", s, l.Stride, l)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&space, "space", "storage", "address space rules: storage or uniform")
	return cmd
}

func parseSpace(name string) (layout.AddressSpace, error) {
	switch name {
	case "storage":
		return layout.Storage, nil
	case "uniform":
		return layout.Uniform, nil
	default:
		return 0, fmt.Errorf("unknown address space %q (want storage or uniform)", name)
	}
}
