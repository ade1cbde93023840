package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCenter_AutoExpire(t *testing.T) {
	c := NewCenter(20*time.Millisecond, zaptest.NewLogger(t))
	defer c.Close()

	id := c.Notify("Added to cart", Options{Type: Success})
	require.NotEmpty(t, id)
	act := c.Active()
	require.Len(t, act, 1)
	require.Equal(t, Success, act[0].Type)

	require.Eventually(t, func() bool { return len(c.Active()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestCenter_StickyAndDismiss(t *testing.T) {
	c := NewCenter(10*time.Millisecond, nil)
	defer c.Close()

	id := c.Notify("Payment failed", Options{Type: Error, Title: "Checkout", Duration: Sticky})
	c.Notify("info", Options{})
	time.Sleep(40 * time.Millisecond)

	act := c.Active()
	require.Len(t, act, 1)
	require.Equal(t, "Checkout", act[0].Title)

	require.True(t, c.Dismiss(id))
	require.False(t, c.Dismiss(id))
	require.Empty(t, c.Active())
}

func TestCenter_DefaultTypeAndOrder(t *testing.T) {
	c := NewCenter(Sticky, nil)
	c.Notify("a", Options{})
	c.Notify("b", Options{Type: Warning})
	act := c.Active()
	require.Equal(t, Info, act[0].Type)
	require.Equal(t, "b", act[1].Message)
}

func TestCenter_Subscribers(t *testing.T) {
	c := NewCenter(Sticky, nil)
	var mu sync.Mutex
	var kinds []EventKind
	c.Subscribe(func(e Event) {
		mu.Lock()
		kinds = append(kinds, e.Kind)
		mu.Unlock()
	})
	id := c.Notify("x", Options{})
	c.Dismiss(id)
	require.Equal(t, []EventKind{Added, Dismissed}, kinds)
}

func TestCenter_CloseStopsTimers(t *testing.T) {
	c := NewCenter(20*time.Millisecond, nil)
	c.Notify("x", Options{})
	c.Close()
	time.Sleep(40 * time.Millisecond)
	require.Len(t, c.Active(), 1)

	c.Notify("after close", Options{})
	require.Len(t, c.Active(), 1)
}

func TestNewCenter_Durations(t *testing.T) {
	require.Equal(t, DefaultDuration, NewCenter(0, nil).def)
	require.Equal(t, Sticky, NewCenter(Sticky, nil).def)

	c := NewCenter(Sticky, nil)
	defer c.Close()
	var mu sync.Mutex
	var added []string
	record := func(prefix string) func(Event) {
		return func(e Event) {
			if e.Kind != Added {
				return
			}
			mu.Lock()
			added = append(added, prefix+e.Notification.Message)
			mu.Unlock()
		}
	}
	c.Subscribe(record(""))
	c.Subscribe(record("second:"))
	c.Notify("kept", Options{})
	c.Notify("short", Options{Duration: 10 * time.Millisecond})
	require.Eventually(t, func() bool { return len(c.Active()) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, "kept", c.Active()[0].Message)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"kept", "second:kept", "short", "second:short"}, added)
}
