// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

// Option configures a Queue.
type Option func(*queueOptions)

type queueOptions struct {
	label string
}

// WithLabel sets the compute pass label used when Encode is called with an
// empty label.
func WithLabel(label string) Option {
	return func(o *queueOptions) {
		o.label = label
	}
}
