package worker

import (
	"math/rand"
	"time"
)

// PublishBackoff computes the delay before retry attempt n (1-based):
// base * 2^(n-1), capped at max, scaled by uniform jitter in [0.5, 1.5),
// then clamped back into [base, max].
func PublishBackoff(base, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	candidate := base
	for i := 1; i < attempt; i++ {
		candidate *= 2
		if candidate >= max {
			candidate = max
			break
		}
	}

	jitter := 0.5 + rand.Float64()
	withJitter := time.Duration(float64(candidate) * jitter)

	if withJitter < base {
		return base
	}
	if withJitter > max {
		return max
	}
	return withJitter
}
