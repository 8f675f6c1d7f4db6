package perfmonitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPerformanceMonitor(t *testing.T) {
	pm := NewPerformanceMonitor()

	assert.NotNil(t, pm)
	assert.True(t, pm.startTime.IsZero())
	assert.True(t, pm.endTime.IsZero())
	assert.Equal(t, 0.0, pm.ElapsedMilliseconds())
}

func TestStop(t *testing.T) {
	t.Run("sets end time after start", func(t *testing.T) {
		pm := NewPerformanceMonitor()

		pm.Start()
		pm.Stop()

		assert.False(t, pm.endTime.IsZero())
		assert.False(t, pm.endTime.Before(pm.startTime))
	})

	t.Run("does not set end time if start was not called", func(t *testing.T) {
		pm := NewPerformanceMonitor()

		pm.Stop()

		assert.True(t, pm.endTime.IsZero())
	})

	t.Run("restart clears previous end time", func(t *testing.T) {
		pm := NewPerformanceMonitor()

		pm.Start()
		pm.Stop()
		pm.Start()

		assert.True(t, pm.endTime.IsZero())
		assert.Equal(t, time.Duration(0), pm.Elapsed())
	})
}

func TestElapsedMilliseconds(t *testing.T) {
	t.Run("returns zero if stop was not called", func(t *testing.T) {
		pm := NewPerformanceMonitor()

		pm.Start()

		assert.Equal(t, 0.0, pm.ElapsedMilliseconds())
	})

	t.Run("returns elapsed time in milliseconds", func(t *testing.T) {
		pm := NewPerformanceMonitor()

		pm.Start()
		time.Sleep(20 * time.Millisecond)
		pm.Stop()

		assert.GreaterOrEqual(t, pm.ElapsedMilliseconds(), 15.0)
	})

	t.Run("returns zero after reset", func(t *testing.T) {
		pm := NewPerformanceMonitor()

		pm.Start()
		pm.Stop()
		pm.Reset()

		assert.Equal(t, 0.0, pm.ElapsedMilliseconds())
	})
}
