//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"strings"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Registers the Vulkan backend with hal.GetBackend.
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/compute/internal/logger"
)

// DefaultTimeout bounds how long Submit and ReadBuffer wait for the GPU.
const DefaultTimeout = 5 * time.Second

// Config configures Open and FromProvider. The zero value is usable.
type Config struct {
	// Timeout bounds every fence wait. Zero means DefaultTimeout.
	Timeout time.Duration

	// AdapterName selects the first adapter whose name contains it,
	// ignoring case. Empty picks a discrete GPU, then an integrated one,
	// then whatever comes first.
	AdapterName string
}

func (c *Config) timeout() time.Duration {
	if c == nil || c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Config) adapterName() string {
	if c == nil {
		return ""
	}
	return c.AdapterName
}

// Open creates a standalone Vulkan device for compute-only use.
// A nil cfg uses the defaults. Close releases the device.
func Open(cfg *Config) (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, ErrBackendUnavailable
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	infos := make([]adapterInfo, len(adapters))
	for i := range adapters {
		infos[i] = adapterInfo{name: adapters[i].Info.Name, deviceType: adapters[i].Info.DeviceType}
	}
	idx := pickAdapter(infos, cfg.adapterName())
	if idx < 0 {
		instance.Destroy()
		if len(adapters) == 0 {
			return nil, ErrNoGPU
		}
		return nil, fmt.Errorf("%w: no adapter matches %q", ErrNoGPU, cfg.adapterName())
	}
	selected := &adapters[idx]

	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device %q: %w", selected.Info.Name, err)
	}

	d := newDevice(openDev.Device, openDev.Queue, limits, cfg.timeout())
	d.instance = instance
	d.owned = true

	logger.Get().Info("native: GPU initialized", "adapter", selected.Info.Name)
	return d, nil
}

// FromProvider wraps the device of a host application. The provider must
// implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue. Close releases only the resources created through the
// returned Device; the shared device stays with its owner.
func FromProvider(provider gpucontext.DeviceProvider, cfg *Config) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrInvalidProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrInvalidProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrInvalidProvider)
	}

	logger.Get().Debug("native: using shared GPU device")
	return newDevice(device, queue, gputypes.DefaultLimits(), cfg.timeout()), nil
}

type adapterInfo struct {
	name       string
	deviceType gputypes.DeviceType
}

// pickAdapter returns the index of the adapter to open, or -1.
func pickAdapter(adapters []adapterInfo, name string) int {
	if name != "" {
		want := strings.ToLower(name)
		for i, a := range adapters {
			if strings.Contains(strings.ToLower(a.name), want) {
				return i
			}
		}
		return -1
	}
	if len(adapters) == 0 {
		return -1
	}
	for _, preferred := range []gputypes.DeviceType{
		gputypes.DeviceTypeDiscreteGPU,
		gputypes.DeviceTypeIntegratedGPU,
	} {
		for i, a := range adapters {
			if a.deviceType == preferred {
				return i
			}
		}
	}
	return 0
}
