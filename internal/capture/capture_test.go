package capture

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktimer/internal/models"
	"worktimer/pkg/window/windowtest"
)

func newTestCapturer(t *testing.T, debounce time.Duration) (*Capturer, *windowtest.Fake) {
	t.Helper()
	fake := windowtest.NewFake()
	c := New(fake, Config{Debounce: debounce, SampleInterval: 2 * time.Millisecond}, zerolog.Nop())
	t.Cleanup(c.Close)
	return c, fake
}

// waitSamples blocks until the capture goroutine has sampled n more times.
func waitSamples(t *testing.T, fake *windowtest.Fake, n int) {
	t.Helper()
	start := fake.ForegroundCalls()
	require.Eventually(t, func() bool {
		return fake.ForegroundCalls() >= start+n
	}, time.Second, time.Millisecond)
}

func expectNoResult(t *testing.T, c *Capturer) {
	t.Helper()
	select {
	case r := <-c.Results():
		t.Fatalf("unexpected result %+v", r)
	default:
	}
}

func TestCaptureBindsFirstDistinctTitle(t *testing.T) {
	c, fake := newTestCapturer(t, 5*time.Millisecond)
	fake.SetForeground("A", 1, 10)

	gen, err := c.Start(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, c.Listening(2))

	// baseline recorded
	waitSamples(t, fake, 1)

	// same title keeps listening
	waitSamples(t, fake, 3)
	expectNoResult(t, c)

	// empty title keeps listening
	fake.SetForeground("", 2, 20)
	waitSamples(t, fake, 3)
	expectNoResult(t, c)

	fake.SetForeground("B", 3, 30)

	var r Result
	select {
	case r = <-c.Results():
	case <-time.After(time.Second):
		t.Fatal("capture did not complete")
	}

	assert.Equal(t, models.SlotKey(2), r.Slot)
	assert.Equal(t, 30, r.PID)
	assert.Equal(t, "B", r.DisplayName)
	assert.Equal(t, gen, r.Generation)

	require.True(t, c.Accept(r))
	assert.False(t, c.Listening(2))
	assert.False(t, c.Accept(r), "a result is accepted once")

	// the goroutine has exited; later focus changes produce nothing
	fake.SetForeground("C", 4, 40)
	time.Sleep(20 * time.Millisecond)
	expectNoResult(t, c)
}

func TestCaptureDebounceSkipsMenuFocus(t *testing.T) {
	c, fake := newTestCapturer(t, 30*time.Millisecond)
	fake.SetForeground("Menu", 1, 10)

	_, err := c.Start(context.Background(), 1)
	require.NoError(t, err)

	// focus returns to the previous window while the menu closes
	fake.SetForeground("Editor", 2, 20)
	waitSamples(t, fake, 4)
	expectNoResult(t, c)

	fake.SetForeground("Browser", 3, 30)
	select {
	case r := <-c.Results():
		assert.Equal(t, 30, r.PID)
		assert.Equal(t, "Browser", r.DisplayName)
	case <-time.After(time.Second):
		t.Fatal("capture did not complete")
	}
}

func TestCaptureKeepsListeningWithoutOwner(t *testing.T) {
	c, fake := newTestCapturer(t, time.Millisecond)
	fake.SetForeground("A", 1, 10)

	_, err := c.Start(context.Background(), 3)
	require.NoError(t, err)
	waitSamples(t, fake, 1)

	fake.SetForeground("Orphan", 9, 0) // no pid recorded for handle 9
	waitSamples(t, fake, 3)
	expectNoResult(t, c)
	assert.True(t, c.Listening(3))

	fake.SetForeground("Owned", 5, 50)
	select {
	case r := <-c.Results():
		assert.Equal(t, 50, r.PID)
	case <-time.After(time.Second):
		t.Fatal("capture did not complete")
	}
}

func TestRestartSupersedesPreviousCapture(t *testing.T) {
	c, fake := newTestCapturer(t, time.Millisecond)
	fake.SetForeground("A", 1, 10)

	first, err := c.Start(context.Background(), 1)
	require.NoError(t, err)
	second, err := c.Start(context.Background(), 1)
	require.NoError(t, err)
	assert.Greater(t, second, first)

	waitSamples(t, fake, 2)
	fake.SetForeground("B", 2, 20)

	for {
		select {
		case r := <-c.Results():
			if r.Generation == first {
				assert.False(t, c.Accept(r), "stale generation must be rejected")
				continue
			}
			assert.Equal(t, second, r.Generation)
			assert.True(t, c.Accept(r))
			assert.False(t, c.Accept(Result{Slot: 1, PID: 20, Generation: first}))
			return
		case <-time.After(time.Second):
			t.Fatal("capture did not complete")
		}
	}
}

func TestCancel(t *testing.T) {
	c, fake := newTestCapturer(t, time.Millisecond)
	fake.SetForeground("A", 1, 10)

	gen, err := c.Start(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, c.Cancel(1))
	assert.False(t, c.Cancel(1))
	assert.False(t, c.Listening(1))

	fake.SetForeground("B", 2, 20)
	time.Sleep(20 * time.Millisecond)
	expectNoResult(t, c)
	assert.False(t, c.Accept(Result{Slot: 1, PID: 20, Generation: gen}))
}

func TestStartRejectsUnknownSlot(t *testing.T) {
	c, _ := newTestCapturer(t, time.Millisecond)

	_, err := c.Start(context.Background(), 0)
	assert.ErrorIs(t, err, ErrUnknownSlot)
	_, err = c.Start(context.Background(), models.SlotCount+1)
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestStartAfterClose(t *testing.T) {
	c, _ := newTestCapturer(t, time.Millisecond)
	c.Close()

	_, err := c.Start(context.Background(), 1)
	assert.ErrorIs(t, err, ErrClosed)
}
