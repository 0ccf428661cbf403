//go:build linux

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// maxCPUs matches the kernel's default cpu_set_t size.
const maxCPUs = 1024

// setAffinity pins the calling OS thread to cpu.
func setAffinity(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity(cpu=%d): %w", cpu, err)
	}
	return nil
}

// Allowed returns the CPUs the calling thread may currently run on.
func Allowed() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("affinity: sched_getaffinity: %w", err)
	}
	var cpus []int
	for cpu := 0; cpu < maxCPUs; cpu++ {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}
