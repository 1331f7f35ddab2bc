package follower

import "time"

const (
	defaultPollInterval   = 5 * time.Second
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 1 * time.Minute

	// defaultMaxReorgDepth bounds the walk back to the common ancestor. A
	// divergence deeper than this is reported as fatal instead of silently
	// unwinding an arbitrary amount of history.
	defaultMaxReorgDepth = 100

	defaultPrefetchBatch   = 64
	defaultPrefetchWorkers = 8
)
