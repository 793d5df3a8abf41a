package core

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultMemoryReserveMB = 1024
	DefaultMemoryMinimumMB = 512
)

// MemoryPolicy bounds the heap given to the game by the memory of the machine
type MemoryPolicy struct {
	// ReserveMB is kept free for the operating system and other processes
	ReserveMB uint64
	// MinimumMB is the smallest heap the game is started with
	MinimumMB uint64
}

// MemoryBounds are the -Xms and -Xmx values of a launch, in MB
type MemoryBounds struct {
	MinMB uint64
	MaxMB uint64
}

// DefaultMemoryPolicy returns the policy used when none is configured
func DefaultMemoryPolicy() MemoryPolicy {
	return MemoryPolicy{ReserveMB: DefaultMemoryReserveMB, MinimumMB: DefaultMemoryMinimumMB}
}

// Clamp checks a requested heap size against the total memory of the system.
//
// A request larger than the system's memory or smaller than MinimumMB, or a system that can't
// spare the minimum heap after the reserve, is an ErrInsufficientMemory. A request is never raised. A request that only eats into the reserve is
// lowered to total - reserve. The minimum heap is half the maximum, no lower than MinimumMB.
func (p MemoryPolicy) Clamp(requestedMB, totalMB uint64) (MemoryBounds, error) {
	if requestedMB == 0 {
		return MemoryBounds{}, fmt.Errorf("%w: no memory requested", ErrInsufficientMemory)
	}
	if requestedMB > totalMB {
		return MemoryBounds{}, fmt.Errorf("%w: requested %d MB but the system has %d MB", ErrInsufficientMemory,
			requestedMB, totalMB)
	}
	if requestedMB < p.MinimumMB {
		return MemoryBounds{}, fmt.Errorf("%w: requested %d MB but the game needs at least %d MB", ErrInsufficientMemory,
			requestedMB, p.MinimumMB)
	}
	if totalMB < p.ReserveMB || totalMB-p.ReserveMB < p.MinimumMB {
		return MemoryBounds{}, fmt.Errorf("%w: %d MB is not enough to keep %d MB free and give %d MB to the game",
			ErrInsufficientMemory, totalMB, p.ReserveMB, p.MinimumMB)
	}

	maxMB := requestedMB
	if limit := totalMB - p.ReserveMB; maxMB > limit {
		maxMB = limit
	}
	minMB := maxMB / 2
	if minMB < p.MinimumMB {
		minMB = p.MinimumMB
	}
	if minMB > maxMB {
		minMB = maxMB
	}
	return MemoryBounds{MinMB: minMB, MaxMB: maxMB}, nil
}

// ParseMemoryMB reads a heap size such as 4096, 4096M or 4G, in MB
func ParseMemoryMB(s string) (uint64, error) {
	value := strings.ToUpper(strings.TrimSpace(s))
	value = strings.TrimSuffix(value, "B")
	multiplier := uint64(1)
	switch {
	case strings.HasSuffix(value, "G"):
		multiplier = 1024
		value = strings.TrimSuffix(value, "G")
	case strings.HasSuffix(value, "M"):
		value = strings.TrimSuffix(value, "M")
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid memory amount %q", s)
	}
	return n * multiplier, nil
}
