package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gogpu/compute"
)

// subcommands registers commands that are only built with GPU support.
var subcommands []func() *cobra.Command

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("KERNELRUN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "kernelrun",
		Short:        "Inspect GPU buffer layouts and run compute kernels",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindEnv(v, cmd.Flags()); err != nil {
				return err
			}
			if v.GetBool("verbose") {
				compute.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
			return nil
		},
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "log debug diagnostics to stderr")

	root.AddCommand(newLayoutCmd())
	for _, sub := range subcommands {
		root.AddCommand(sub())
	}
	return root
}

// bindEnv copies KERNELRUN_* environment values into flags the user did not
// set on the command line.
func bindEnv(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}
		if bindErr := v.BindPFlag(f.Name, f); bindErr != nil {
			err = bindErr
			return
		}
		if val := v.GetString(f.Name); val != f.Value.String() {
			err = flags.Set(f.Name, val)
		}
	})
	return err
}
