package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_StrictOrdering(t *testing.T) {
	h := NewHub()
	h.Status("fetching data")
	h.Status("building graph")
	h.Complete(map[string]int{"ok": 1})

	ctx := context.Background()

	ev, ok := h.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, EventStatus, ev.Type)
	assert.Equal(t, "fetching data", ev.Message)

	ev, ok = h.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, "building graph", ev.Message)

	ev, ok = h.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, EventComplete, ev.Type)

	_, ok = h.Next(ctx)
	assert.False(t, ok)
}

func TestHub_LiveOverwritesNewest(t *testing.T) {
	h := NewHub()
	h.Live("tick", 1)
	h.Live("tick", 2)
	h.Live("tick", 3)

	ev, ok := h.Next(context.Background())
	require.True(t, ok)
	assert.Equal(t, EventLiveData, ev.Type)
	assert.Equal(t, 3, ev.Data)
}

func TestHub_StatusBeforeLive(t *testing.T) {
	h := NewHub()
	h.Live("tick", 1)
	h.Status("starting")

	ev, _ := h.Next(context.Background())
	assert.Equal(t, EventStatus, ev.Type)

	ev, _ = h.Next(context.Background())
	assert.Equal(t, EventLiveData, ev.Type)
}

func TestHub_NothingAfterTerminal(t *testing.T) {
	h := NewHub()
	h.Error("boom")
	h.Status("ignored")
	h.Live("ignored", 1)
	h.Complete("ignored")

	ctx := context.Background()
	ev, ok := h.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, EventError, ev.Type)

	_, ok = h.Next(ctx)
	assert.False(t, ok)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	h := NewHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			h.Live("tick", i)
		}
		h.Complete(nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked")
	}
}

func TestHub_NextHonorsCancellation(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, ok := h.Next(ctx)
	assert.False(t, ok)
}

func TestHub_ExactlyOneTerminal(t *testing.T) {
	h := NewHub()
	h.Complete("first")
	h.Error("second")

	ctx := context.Background()
	terminals := 0
	for {
		ev, ok := h.Next(ctx)
		if !ok {
			break
		}
		if ev.Type == EventComplete || ev.Type == EventError {
			terminals++
		}
	}
	assert.Equal(t, 1, terminals)
}
