// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package kernel queues compute kernel invocations and encodes them into a
// caller-owned command recorder.
//
// An invocation pairs a compiled [Pipeline] with the buffers bound to each of
// its bind groups and a dispatch extent. Invocations are assembled with a
// single-use [Builder] and appended to a [Queue]:
//
//	q := kernel.NewQueue(dev, kernel.WithLabel("simulate"))
//
//	err := kernel.NewBuilder(q, pipeline).
//	    Bind(0, positions, velocities).
//	    Bind(1, params).
//	    Queue(kernel.Workgroups(n, 64))
//
//	if err := q.Encode(recorder, ""); err != nil {
//	    return err
//	}
//
// # Encoding
//
// Encode validates every invocation against the bind group layouts of its
// pipeline and creates the bind groups before recording anything, so a
// failing batch leaves the recorder untouched. Commands are recorded in one
// compute pass, in enqueue order: SetPipeline, SetBindGroup for each group in
// ascending index order, then Dispatch.
//
// The queue persists after Encode. Encoding again records the same
// invocations and reuses the bind groups created by the first call. Clear
// empties the queue and releases those bind groups.
//
// # Hazards
//
// No barriers are inserted between invocations. Ordering between a writer
// and a later reader of the same buffer is whatever the device guarantees
// for consecutive dispatches.
package kernel
