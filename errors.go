package dispatcher

import (
	"errors"

	"github.com/ygrebnov/dispatcher/internal/affinity"
)

const Namespace = "dispatcher"

var (
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")
	ErrConstruction  = errors.New(Namespace + ": construction failed")
	ErrRunning       = errors.New(Namespace + ": operation not allowed while running")
	ErrDestroyed     = errors.New(Namespace + ": destroyed")
	ErrNilTask       = errors.New(Namespace + ": nil task")

	// ErrAffinityUnsupported is wrapped by ErrConstruction when WithCPUAffinity is used
	// on a platform that cannot pin threads.
	ErrAffinityUnsupported = affinity.ErrUnsupported
)
