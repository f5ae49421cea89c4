package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatUpdater_SamplesImmediately(t *testing.T) {
	su := NewStatUpdater(time.Hour)
	go su.Run()
	defer su.Stop()

	assert.Eventually(t, func() bool {
		return !su.Snapshot().SampledAt.IsZero()
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStatUpdater_StopTwice(t *testing.T) {
	su := NewStatUpdater(0)
	assert.Equal(t, 15*time.Second, su.interval)
	su.Stop()
	assert.NotPanics(t, su.Stop)
}
