// Package affinity dedicates worker goroutines to OS threads and optionally pins
// those threads to a CPU.
package affinity

import (
	"errors"
	"runtime"
)

// ErrUnsupported is returned when CPU pinning is requested on a platform without it.
var ErrUnsupported = errors.New("affinity: cpu pinning is not supported on this platform")

// Bind locks the calling goroutine to its current OS thread. When cpu >= 0 the thread
// is also restricted to that CPU.
//
// Bind never unlocks: a goroutine that exits while locked takes its thread with it,
// so a thread with a modified CPU mask is never handed back to the scheduler.
func Bind(cpu int) error {
	runtime.LockOSThread()
	if cpu < 0 {
		return nil
	}
	return setAffinity(cpu)
}
