package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain[T any](t *testing.T, ch <-chan T) []T {
	t.Helper()
	var out []T
	timeout := time.After(5 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, v)
		case <-timeout:
			require.FailNow(t, "channel was not closed")
		}
	}
}

func TestBroadcasterDeliversToEverySubscriber(t *testing.T) {
	b := NewBroadcaster[int]()
	first, _ := b.Subscribe()
	second, _ := b.Subscribe()

	// nobody reads yet; publishing must not block
	for i := 0; i < 1000; i++ {
		b.Publish(i)
	}
	b.Close()

	a := drain(t, first)
	c := drain(t, second)
	require.Len(t, a, 1000)
	assert.Equal(t, a, c)
	assert.Equal(t, 999, a[999])
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	b := NewBroadcaster[string]()
	ch, cancel := b.Subscribe()
	b.Publish("one")
	cancel()
	cancel()
	b.Publish("two")

	for v := range ch {
		assert.NotEqual(t, "two", v)
	}

	b.Close()
	late, _ := b.Subscribe()
	_, ok := <-late
	assert.False(t, ok)
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(ScanResultsUpdated{ResultCount: 3})
	select {
	case e := <-ch:
		assert.Equal(t, "scan_results_updated", e.EventName())
		assert.Equal(t, uint64(3), e.(ScanResultsUpdated).ResultCount)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no event")
	}
}
