package merge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	items []string
	done  bool
	err   error
}

// gated hands out one step per Next call, whenever the test releases it.
type gated struct {
	steps chan step
	calls atomic.Int32
}

func newGated() *gated { return &gated{steps: make(chan step)} }

func (g *gated) Next(ctx context.Context) ([]string, bool, error) {
	g.calls.Add(1)
	select {
	case s := <-g.steps:
		return s.items, s.done, s.err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// scripted replays a fixed list of steps, sleeping before each one.
type scripted struct {
	mu    sync.Mutex
	steps []step
	delay []time.Duration
}

func (s *scripted) Next(ctx context.Context) ([]string, bool, error) {
	s.mu.Lock()
	if len(s.steps) == 0 {
		s.mu.Unlock()
		return nil, true, nil
	}
	st, d := s.steps[0], s.delay[0]
	s.steps, s.delay = s.steps[1:], s.delay[1:]
	s.mu.Unlock()

	select {
	case <-time.After(d):
		return st.items, st.done, st.err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func receive(t *testing.T, ch <-chan Batch[string]) Batch[string] {
	t.Helper()
	select {
	case b, ok := <-ch:
		require.True(t, ok, "stream closed early")
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for batch")
	}
	return Batch[string]{}
}

func requireClosed(t *testing.T, ch <-chan Batch[string]) {
	t.Helper()
	select {
	case b, ok := <-ch:
		require.False(t, ok, "unexpected batch %v", b)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed")
	}
}

func collect(t *testing.T, ch <-chan Batch[string]) []Batch[string] {
	t.Helper()
	var out []Batch[string]
	timeout := time.After(5 * time.Second)
	for {
		select {
		case b, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, b)
		case <-timeout:
			t.Fatal("timed out collecting stream")
		}
	}
}

func TestMerger_EmitsInCompletionOrder(t *testing.T) {
	a, b := newGated(), newGated()
	out := New([]Producer[string]{a, b}).Stream(context.Background())

	a.steps <- step{items: []string{"a1"}}
	assert.Equal(t, Batch[string]{Producer: 0, Items: []string{"a1"}}, receive(t, out))

	b.steps <- step{items: []string{"b1"}}
	assert.Equal(t, Batch[string]{Producer: 1, Items: []string{"b1"}}, receive(t, out))

	a.steps <- step{items: []string{"a2", "a2b"}}
	assert.Equal(t, Batch[string]{Producer: 0, Items: []string{"a2", "a2b"}}, receive(t, out))

	b.steps <- step{done: true}
	a.steps <- step{done: true}
	requireClosed(t, out)

	assert.Equal(t, int32(3), a.calls.Load())
	assert.Equal(t, int32(2), b.calls.Load())
}

func TestMerger_TimedProducers(t *testing.T) {
	// A answers at ~20ms and ~80ms, B at ~50ms.
	a := &scripted{
		steps: []step{{items: []string{"A-batch1"}}, {items: []string{"A-batch2"}}, {done: true}},
		delay: []time.Duration{20 * time.Millisecond, 60 * time.Millisecond, 0},
	}
	b := &scripted{
		steps: []step{{items: []string{"B-batch1"}}, {done: true}},
		delay: []time.Duration{50 * time.Millisecond, 0},
	}

	got := collect(t, New([]Producer[string]{a, b}).Stream(context.Background()))

	var items []string
	for _, batch := range got {
		items = append(items, batch.Items...)
	}
	assert.Equal(t, []string{"A-batch1", "B-batch1", "A-batch2"}, items)
}

func TestMerger_SwallowsFailures(t *testing.T) {
	g := newGated()
	var hooked []int
	m := New([]Producer[string]{g}, WithFailureHook(func(p int, err error) {
		hooked = append(hooked, p)
	}))
	out := m.Stream(context.Background())

	g.steps <- step{items: []string{"page1"}}
	assert.Equal(t, []string{"page1"}, receive(t, out).Items)

	g.steps <- step{err: errors.New("503")}
	g.steps <- step{items: []string{"page3"}}
	assert.Equal(t, []string{"page3"}, receive(t, out).Items)

	g.steps <- step{done: true}
	requireClosed(t, out)

	assert.Equal(t, int64(1), m.Failures())
	assert.Equal(t, []int{0}, hooked)
	assert.Equal(t, int32(4), g.calls.Load())
}

func TestMerger_HardExhaustion(t *testing.T) {
	g := newGated()
	m := New([]Producer[string]{g})
	out := m.Stream(context.Background())

	g.steps <- step{err: fmt.Errorf("backend gone: %w", ErrExhausted)}
	requireClosed(t, out)

	assert.Equal(t, int64(0), m.Failures())
	assert.Equal(t, int32(1), g.calls.Load())
}

func TestMerger_MaxConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	failing := ProducerFunc[string](func(ctx context.Context) ([]string, bool, error) {
		calls.Add(1)
		return nil, false, errors.New("always down")
	})

	m := New([]Producer[string]{failing}, WithMaxConsecutiveFailures(3))
	got := collect(t, m.Stream(context.Background()))

	assert.Empty(t, got)
	assert.Equal(t, int64(3), m.Failures())
	assert.Equal(t, int32(3), calls.Load())
}

func TestMerger_SuccessResetsFailureStreak(t *testing.T) {
	g := newGated()
	m := New([]Producer[string]{g}, WithMaxConsecutiveFailures(2))
	out := m.Stream(context.Background())

	g.steps <- step{err: errors.New("x")}
	g.steps <- step{items: []string{"ok"}}
	assert.Equal(t, []string{"ok"}, receive(t, out).Items)
	g.steps <- step{err: errors.New("y")}
	g.steps <- step{items: []string{"still here"}}
	assert.Equal(t, []string{"still here"}, receive(t, out).Items)
	g.steps <- step{done: true}
	requireClosed(t, out)

	assert.Equal(t, int64(2), m.Failures())
}

func TestMerger_RecoversFromPanic(t *testing.T) {
	var calls atomic.Int32
	p := ProducerFunc[string](func(ctx context.Context) ([]string, bool, error) {
		switch calls.Add(1) {
		case 1:
			panic("boom")
		case 2:
			return []string{"after panic"}, false, nil
		default:
			return nil, true, nil
		}
	})

	m := New([]Producer[string]{p})
	got := collect(t, m.Stream(context.Background()))

	require.Len(t, got, 1)
	assert.Equal(t, []string{"after panic"}, got[0].Items)
	assert.Equal(t, int64(1), m.Failures())
}

func TestMerger_TerminalResponseWithItems(t *testing.T) {
	p := ProducerFunc[string](func(ctx context.Context) ([]string, bool, error) {
		return []string{"last"}, true, nil
	})
	got := collect(t, New([]Producer[string]{p}).Stream(context.Background()))
	assert.Equal(t, []Batch[string]{{Producer: 0, Items: []string{"last"}}}, got)
}

func TestMerger_NoProducers(t *testing.T) {
	requireClosed(t, New[string](nil).Stream(context.Background()))
}

func TestMerger_ContextCancelClosesStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := New([]Producer[string]{newGated(), newGated()}).Stream(ctx)
	cancel()
	requireClosed(t, out)
}

func TestDrainReady_OrdersTickByProducer(t *testing.T) {
	ch := make(chan completion[string], 3)
	ch <- completion[string]{index: 2}
	ch <- completion[string]{index: 0}

	tick := drainReady(ch, []completion[string]{{index: 1}})

	require.Len(t, tick, 3)
	assert.Equal(t, 0, tick[0].index)
	assert.Equal(t, 1, tick[1].index)
	assert.Equal(t, 2, tick[2].index)
	assert.Empty(t, ch)
}

func TestMerger_FailedFinalResponseRetiresProducer(t *testing.T) {
	var calls atomic.Int32
	p := ProducerFunc[string](func(ctx context.Context) ([]string, bool, error) {
		if calls.Add(1) == 1 {
			return []string{"lost"}, true, errors.New("boom")
		}
		return []string{"after-done"}, false, nil
	})
	other := &scripted{steps: []step{{items: []string{"b1"}}}, delay: []time.Duration{20 * time.Millisecond}}

	m := New([]Producer[string]{p, other})
	batches := collect(t, m.Stream(context.Background()))

	require.Len(t, batches, 1)
	assert.Equal(t, Batch[string]{Producer: 1, Items: []string{"b1"}}, batches[0])
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int64(1), m.Failures())
}
