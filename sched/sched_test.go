package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualOnce(t *testing.T) {
	m := NewManual()
	fired := 0
	timer := m.Once(50*time.Millisecond, func() { fired++ })

	m.Advance(100 * time.Millisecond)
	assert.Equal(t, 0, fired, "a new timer is stopped")

	timer.Start()
	assert.True(t, timer.Active())
	m.Advance(49 * time.Millisecond)
	assert.Equal(t, 0, fired)
	m.Advance(1 * time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.False(t, timer.Active())

	m.Advance(time.Second)
	assert.Equal(t, 1, fired, "single-shot fires once")
}

func TestManualRestartPostponesFire(t *testing.T) {
	m := NewManual()
	fired := 0
	timer := m.Once(50*time.Millisecond, func() { fired++ })

	timer.Start()
	m.Advance(40 * time.Millisecond)
	timer.Start()
	m.Advance(40 * time.Millisecond)
	assert.Equal(t, 0, fired, "restart moves the deadline")
	m.Advance(10 * time.Millisecond)
	assert.Equal(t, 1, fired)
}

func TestManualEvery(t *testing.T) {
	m := NewManual()
	var at []time.Duration
	timer := m.Every(15*time.Millisecond, func() { at = append(at, m.Now()) })
	timer.Start()

	m.Advance(61 * time.Millisecond)
	assert.Equal(t, []time.Duration{15 * time.Millisecond, 30 * time.Millisecond, 45 * time.Millisecond, 60 * time.Millisecond}, at)

	timer.Stop()
	m.Advance(time.Second)
	assert.Len(t, at, 4)
}

func TestManualStopFromCallback(t *testing.T) {
	m := NewManual()
	count := 0
	var timer Timer
	timer = m.Every(5*time.Millisecond, func() {
		count++
		if count == 3 {
			timer.Stop()
		}
	})
	timer.Start()
	m.Advance(100 * time.Millisecond)
	assert.Equal(t, 3, count)
}

func TestManualOrdersTimersByDeadline(t *testing.T) {
	m := NewManual()
	var order []string
	a := m.Once(30*time.Millisecond, func() { order = append(order, "a") })
	b := m.Once(10*time.Millisecond, func() { order = append(order, "b") })
	c := m.Once(30*time.Millisecond, func() { order = append(order, "c") })
	a.Start()
	b.Start()
	c.Start()
	m.Advance(time.Second)
	assert.Equal(t, []string{"b", "a", "c"}, order)
}

func TestManualPostRunsOnAdvance(t *testing.T) {
	m := NewManual()
	ran := false
	m.Post(func() { ran = true })
	assert.False(t, ran)
	m.Advance(0)
	assert.True(t, ran)
}

func runLoop(t *testing.T) *Loop {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return l
}

func TestLoopRunsPostedWorkInOrder(t *testing.T) {
	l := runLoop(t)
	var mu sync.Mutex
	var got []int
	for i := range 100 {
		l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	require.NoError(t, l.Call(context.Background(), func() {}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoopSerialisesCallbacks(t *testing.T) {
	l := runLoop(t)
	var inside, overlaps int32
	var fires int32
	body := func() {
		if atomic.AddInt32(&inside, 1) > 1 {
			atomic.AddInt32(&overlaps, 1)
		}
		time.Sleep(100 * time.Microsecond)
		atomic.AddInt32(&inside, -1)
		atomic.AddInt32(&fires, 1)
	}
	t1 := l.Every(time.Millisecond, body)
	t2 := l.Every(time.Millisecond, body)
	t1.Start()
	t2.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&fires) > 20 }, 2*time.Second, 5*time.Millisecond)
	t1.Stop()
	t2.Stop()
	assert.Equal(t, int32(0), atomic.LoadInt32(&overlaps))
}

func TestLoopOnceAndStop(t *testing.T) {
	l := runLoop(t)
	var fired int32
	timer := l.Once(10*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })

	timer.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&fired) == 1 }, time.Second, time.Millisecond)
	assert.False(t, timer.Active())

	timer.Start()
	timer.Stop()
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, l.Call(context.Background(), func() {}))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired), "a stopped timer never fires")
}

func TestLoopCallHonoursContext(t *testing.T) {
	l := NewLoop() // not running
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.Call(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.Pending())
}
