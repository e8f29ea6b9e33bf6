package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainer_SubscribeAndUnsubscribe(t *testing.T) {
	c := NewContainer(0)

	var seen []int
	unsubscribe := c.Subscribe(func(v int) { seen = append(seen, v) })

	c.Update(func(v int) int { return v + 1 })
	c.Update(func(v int) int { return v + 1 })
	unsubscribe()
	unsubscribe()
	c.Update(func(v int) int { return v + 1 })

	assert.Equal(t, []int{1, 2}, seen)
	assert.Equal(t, 3, c.Get())
}

func TestContainer_ListenerMayReadStore(t *testing.T) {
	c := NewContainer("a")
	var got string
	c.Subscribe(func(string) { got = c.Get() })

	c.Update(func(string) string { return "b" })

	assert.Equal(t, "b", got)
}

func TestContainer_ConcurrentUpdates(t *testing.T) {
	c := NewContainer(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Update(func(v int) int { return v + 1 })
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Get())
}

func TestContainer_ListenersSeeUpdatesInOrder(t *testing.T) {
	c := NewContainer(0)
	var (
		mu   sync.Mutex
		seen []int
	)
	c.Subscribe(func(v int) {
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Update(func(v int) int { return v + 1 })
		}()
	}
	wg.Wait()

	require.Len(t, seen, 50)
	for i, v := range seen {
		assert.Equal(t, i+1, v)
	}
	assert.Equal(t, c.Get(), seen[len(seen)-1])
}
