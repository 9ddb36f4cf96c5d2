// Command kernelrun inspects WGSL buffer layouts and runs a sample compute
// kernel on the local GPU.
//
// Usage:
//
//	kernelrun layout [--space storage|uniform]
//	kernelrun run [--count N] [--workgroup W] [--adapter NAME] [--timeout D]
//
// Flags can also be set through KERNELRUN_* environment variables, e.g.
// KERNELRUN_ADAPTER=nvidia.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
