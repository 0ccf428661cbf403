//go:build !linux

package affinity

func setAffinity(int) error { return ErrUnsupported }

// Allowed is not available outside Linux.
func Allowed() ([]int, error) { return nil, ErrUnsupported }
