package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeCounter(t *testing.T) {
	t.Run("Basic Operations", func(t *testing.T) {
		sc := NewSafeCounter()
		assert.Equal(t, 0, sc.Value())
		assert.Equal(t, 1, sc.Increment())
		assert.Equal(t, 6, sc.Add(5))
		assert.Equal(t, 3, sc.Add(-3))
		assert.Equal(t, 3, sc.Value())
	})

	t.Run("Concurrency", func(t *testing.T) {
		sc := NewSafeCounter()
		var wg sync.WaitGroup
		iterations := 1000

		wg.Add(iterations)
		for i := 0; i < iterations; i++ {
			go func() {
				defer wg.Done()
				sc.Increment()
			}()
		}
		wg.Wait()
		assert.Equal(t, iterations, sc.Value())
	})
}

func TestSafeFlag(t *testing.T) {
	t.Run("Basic Operations", func(t *testing.T) {
		sf := NewSafeFlag()
		assert.False(t, sf.Value())

		sf.Set(true)
		assert.True(t, sf.Value())
		assert.False(t, sf.Raise(), "already set")

		sf.Set(false)
		assert.True(t, sf.Raise())
		assert.True(t, sf.Value())
	})

	t.Run("Raise wins once", func(t *testing.T) {
		sf := NewSafeFlag()
		var wg sync.WaitGroup
		winners := NewSafeCounter()
		iterations := 100

		wg.Add(iterations)
		for i := 0; i < iterations; i++ {
			go func() {
				defer wg.Done()
				if sf.Raise() {
					winners.Increment()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, winners.Value())
	})
}
