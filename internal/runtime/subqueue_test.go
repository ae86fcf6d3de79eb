package runtime

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubQueue_StartsInPausedState(t *testing.T) {
	sq := NewSubQueue[int](10, 0)
	defer sq.Close()

	// Enqueue something while paused
	sq.Enqueue(42)

	// Channel should not receive anything immediately because queue is paused
	select {
	case <-sq.Chan():
		t.Fatal("should not receive value while paused")
	case <-time.After(50 * time.Millisecond):
		// Expected: no value received
	}
}

func TestSubQueue_ResumeDeliversQueued(t *testing.T) {
	sq := NewSubQueue[int](10, 0)
	defer sq.Close()

	// Enqueue while paused
	sq.Enqueue(1)
	sq.Enqueue(2)
	sq.Enqueue(3)

	// Resume the queue
	sq.SetPaused(false)

	// Should receive all values in order
	assert.Equal(t, 1, <-sq.Chan())
	assert.Equal(t, 2, <-sq.Chan())
	assert.Equal(t, 3, <-sq.Chan())
}

func TestSubQueue_EnqueueDequeueOrder(t *testing.T) {
	sq := NewSubQueue[int](10, 0)
	defer sq.Close()

	sq.SetPaused(false)

	// Enqueue items
	for i := 0; i < 5; i++ {
		sq.Enqueue(i)
	}

	// Dequeue and verify order
	for i := 0; i < 5; i++ {
		select {
		case val := <-sq.Chan():
			assert.Equal(t, i, val)
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for value %d", i)
		}
	}
}

func TestSubQueue_CloseStopsDispatcher(t *testing.T) {
	sq := NewSubQueue[int](10, 0)
	sq.SetPaused(false)

	sq.Enqueue(1)
	<-sq.Chan() // Drain

	sq.Close()

	// Channel should be closed
	select {
	case _, ok := <-sq.Chan():
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestSubQueue_EnqueueAfterClose(t *testing.T) {
	sq := NewSubQueue[int](10, 0)
	sq.SetPaused(false)
	sq.Close()

	// Enqueue after close should not panic
	require.NotPanics(t, func() {
		sq.Enqueue(42)
	})
}

func TestSubQueue_PauseAndResume(t *testing.T) {
	sq := NewSubQueue[int](10, 0)
	defer sq.Close()

	sq.SetPaused(false)

	// Enqueue and receive
	sq.Enqueue(1)
	assert.Equal(t, 1, <-sq.Chan())

	// Pause
	sq.SetPaused(true)

	// Enqueue while paused
	sq.Enqueue(2)

	// Should not receive while paused
	select {
	case <-sq.Chan():
		t.Fatal("should not receive while paused")
	case <-time.After(50 * time.Millisecond):
		// Expected
	}

	// Resume
	sq.SetPaused(false)

	// Should receive the queued value
	select {
	case val := <-sq.Chan():
		assert.Equal(t, 2, val)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for value after resume")
	}
}

func TestSubQueue_ConcurrentEnqueue(t *testing.T) {
	sq := NewSubQueue[int](100, 0)
	defer sq.Close()

	sq.SetPaused(false)

	numGoroutines := 10
	itemsPerGoroutine := 10

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	// Spawn goroutines to enqueue concurrently
	for g := 0; g < numGoroutines; g++ {
		go func(goroutineID int) {
			defer wg.Done()
			for i := 0; i < itemsPerGoroutine; i++ {
				sq.Enqueue(goroutineID*100 + i)
			}
		}(g)
	}

	// Collect all values
	received := make([]int, 0, numGoroutines*itemsPerGoroutine)
	done := make(chan bool)

	go func() {
		for i := 0; i < numGoroutines*itemsPerGoroutine; i++ {
			select {
			case val := <-sq.Chan():
				received = append(received, val)
			case <-time.After(5 * time.Second):
				break
			}
		}
		done <- true
	}()

	wg.Wait() // Wait for all enqueues to complete
	<-done    // Wait for all receives to complete

	assert.Len(t, received, numGoroutines*itemsPerGoroutine)
}

func TestSubQueue_BufferSize(t *testing.T) {
	// Test with different buffer sizes
	for _, bufSize := range []int{1, 5, 100} {
		t.Run(fmt.Sprintf("buffer_%d", bufSize), func(t *testing.T) {
			sq := NewSubQueue[int](bufSize, 0)
			defer sq.Close()

			sq.SetPaused(false)

			// Enqueue more than buffer size
			for i := 0; i < bufSize*2; i++ {
				sq.Enqueue(i)
			}

			// Drain all
			for i := 0; i < bufSize*2; i++ {
				select {
				case val := <-sq.Chan():
					assert.Equal(t, i, val)
				case <-time.After(time.Second):
					t.Fatalf("timeout at index %d", i)
				}
			}
		})
	}
}

func TestSubQueue_CloseWhilePaused(t *testing.T) {
	sq := NewSubQueue[int](10, 0)
	// Queue starts paused

	sq.Enqueue(1)
	sq.Enqueue(2)

	// Close while paused
	sq.Close()

	// Channel should be closed
	select {
	case _, ok := <-sq.Chan():
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestSubQueue_MultipleCloses(t *testing.T) {
	sq := NewSubQueue[int](10, 0)
	sq.SetPaused(false)

	sq.Close()

	// Second close should not panic
	require.NotPanics(t, func() {
		sq.Close()
	})
}

func TestSubQueue_DropsOldestWhenFull(t *testing.T) {
	sq := NewSubQueue[int](1, 3)
	defer sq.Close()

	for i := 1; i <= 3; i++ {
		assert.False(t, sq.Enqueue(i))
	}
	assert.True(t, sq.Enqueue(4))
	assert.True(t, sq.Enqueue(5))
	assert.Equal(t, 3, sq.Len())

	sq.SetPaused(false)
	for _, want := range []int{3, 4, 5} {
		select {
		case got := <-sq.Chan():
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %d", want)
		}
	}
}

func TestSubQueue_SnapshotPrecedesLiveEvents(t *testing.T) {
	sq := NewSubQueue[string](4, 1)
	defer sq.Close()

	sq.Enqueue("live")
	sq.SendSnapshot([]string{"eth0", "eth1", "wlan0"})
	sq.SetPaused(false)

	for _, want := range []string{"eth0", "eth1", "wlan0", "live"} {
		select {
		case got := <-sq.Chan():
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %s", want)
		}
	}
}

func TestSubQueue_CloseWithStalledReader(t *testing.T) {
	sq := NewSubQueue[int](0, 0)
	sq.SetPaused(false)
	sq.Enqueue(1)

	// Nobody reads; the dispatcher is parked on the send.
	time.Sleep(20 * time.Millisecond)
	sq.Close()

	select {
	case _, ok := <-sq.Chan():
		if ok {
			// The dispatcher may win the race and deliver once.
			_, ok = <-sq.Chan()
		}
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not exit")
	}
}

func TestSubQueue_EnqueueReportsDrops(t *testing.T) {
	sq := NewSubQueue[LinkState](0, 2)
	defer sq.Close()

	drops := 0
	for i := 0; i < 5; i++ {
		if sq.Enqueue(LinkState{Name: "eth0", Up: i%2 == 0}) {
			drops++
		}
	}
	assert.Equal(t, 3, drops)
	assert.Equal(t, 2, sq.Len())
}

// LinkState stands in for the event type carried in production.
type LinkState struct {
	Name string
	Up   bool
}
