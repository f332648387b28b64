package crawl

import (
	"math/rand/v2"
	"time"
)

// Jitter spreads a delay by ±15% so retries from concurrent workers don't
// land on the origin in lockstep.
func Jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	f := 0.85 + 0.30*rand.Float64()
	return time.Duration(float64(d) * f)
}
