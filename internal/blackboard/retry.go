package blackboard

import (
	"math/rand"
	"time"
)

// backoff returns the wait before retry attempt n (0-indexed): capped
// exponential with jitter.
func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}
