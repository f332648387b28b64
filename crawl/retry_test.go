package crawl_test

import (
	"testing"
	"time"

	"github.com/fwojciec/docdex/crawl"
	"github.com/stretchr/testify/assert"
)

func TestJitter(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		d := crawl.Jitter(time.Second)
		assert.GreaterOrEqual(t, d, 850*time.Millisecond)
		assert.LessOrEqual(t, d, 1150*time.Millisecond)
	}

	assert.Equal(t, time.Duration(0), crawl.Jitter(0))
}
