package core

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SystemMemoryMB returns the total physical memory of the machine in megabytes
func SystemMemoryMB() (uint64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, fmt.Errorf("failed to read system memory: %w", err)
	}
	return uint64(info.Totalram) * uint64(info.Unit) / (1024 * 1024), nil
}

func osVersion() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}
	return unix.ByteSliceToString(uts.Release[:])
}
