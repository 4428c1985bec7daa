// Package sysinfo reports host memory usage using gopsutil.
package sysinfo

import (
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryProbe reports the share of physical memory in use, 0-100.
type MemoryProbe interface {
	UsedPercent() (float64, error)
}

// SystemMemory reads live values from the OS on every call.
type SystemMemory struct{}

var _ MemoryProbe = SystemMemory{}

// UsedPercent returns (total-available)/total as a percentage.
func (SystemMemory) UsedPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, errors.Wrap(err, "reading virtual memory stats")
	}
	return vm.UsedPercent, nil
}

// Fixed is a MemoryProbe returning a constant, mostly for tests and for
// disabling the gate.
type Fixed float64

// UsedPercent returns f.
func (f Fixed) UsedPercent() (float64, error) {
	return float64(f), nil
}
