package core

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SystemMemoryMB returns the total physical memory of the machine in megabytes
func SystemMemoryMB() (uint64, error) {
	total, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return 0, fmt.Errorf("failed to read system memory: %w", err)
	}
	return total / (1024 * 1024), nil
}

func osVersion() string {
	v, err := unix.Sysctl("kern.osproductversion")
	if err != nil {
		return ""
	}
	return v
}
