//go:build !linux && !darwin && !windows

package core

import "errors"

// Stub version, so that SystemMemoryMB exists
func SystemMemoryMB() (uint64, error) {
	return 0, errors.New("reading system memory is not supported on this platform")
}

func osVersion() string {
	return ""
}
