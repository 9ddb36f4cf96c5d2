// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tensor

// Option configures a Buffer during creation.
type Option func(*options)

type options struct {
	label string
}

// WithLabel sets the debug label of the device allocation.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
