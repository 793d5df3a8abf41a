package core

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// SystemMemoryMB returns the total physical memory of the machine in megabytes
func SystemMemoryMB() (uint64, error) {
	var status windows.MemoryStatusEx
	status.Length = uint32(unsafe.Sizeof(status))
	if err := windows.GlobalMemoryStatusEx(&status); err != nil {
		return 0, fmt.Errorf("failed to read system memory: %w", err)
	}
	return status.TotalPhys / (1024 * 1024), nil
}

func osVersion() string {
	v := windows.RtlGetVersion()
	return fmt.Sprintf("%d.%d", v.MajorVersion, v.MinorVersion)
}
