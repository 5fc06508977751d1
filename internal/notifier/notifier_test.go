package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)

type fakeCounter struct {
	mu        sync.Mutex
	total     int
	available int
	err       error
	calls     int
}

func (f *fakeCounter) CountByDate(_ context.Context, _ time.Time) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.total, f.available, f.err
}

func (f *fakeCounter) set(total, available int) {
	f.mu.Lock()
	f.total, f.available = total, available
	f.mu.Unlock()
}

func received(sub *Subscription) (Notification, bool) {
	select {
	case n, ok := <-sub.C:
		return n, ok
	default:
		return Notification{}, false
	}
}

func TestUpdateResolvesBelowThreshold(t *testing.T) {
	seats := &fakeCounter{}
	n := New(seats, nil)
	sub := n.Subscribe(1, day, 50)

	seats.set(10, 7) // 70% available
	n.Update(context.Background(), 1, day)
	_, ok := received(sub)
	assert.False(t, ok)
	assert.Equal(t, 1, n.Pending(1))

	seats.set(10, 4) // 40% available
	n.Update(context.Background(), 1, day)
	got, ok := received(sub)
	require.True(t, ok)
	assert.Equal(t, 4, got.AvailableSeats)
	assert.Equal(t, 0, n.Pending(1))
}

func TestUpdateUsesTruncatingDivision(t *testing.T) {
	seats := &fakeCounter{}
	n := New(seats, nil)

	// 2*100/3 = 66 with truncation, so 67 resolves and 66 does not
	resolves := n.Subscribe(1, day, 67)
	stays := n.Subscribe(1, day, 66)

	seats.set(3, 2)
	n.Update(context.Background(), 1, day)

	_, ok := received(resolves)
	assert.True(t, ok)
	_, ok = received(stays)
	assert.False(t, ok)
}

func TestUpdateResolvesAtMostOnce(t *testing.T) {
	seats := &fakeCounter{}
	n := New(seats, nil)
	sub := n.Subscribe(1, day, 50)

	seats.set(10, 4)
	n.Update(context.Background(), 1, day)
	seats.set(10, 2)
	n.Update(context.Background(), 1, day)

	got, ok := received(sub)
	require.True(t, ok)
	assert.Equal(t, 4, got.AvailableSeats)
	_, ok = received(sub)
	assert.False(t, ok)
	assert.False(t, n.Cancel(sub), "resolved subscription must not cancel")
}

func TestUpdateMatchesConcertAndDate(t *testing.T) {
	seats := &fakeCounter{total: 10, available: 0}
	n := New(seats, nil)
	otherDate := n.Subscribe(1, day.Add(24*time.Hour), 100)
	otherConcert := n.Subscribe(2, day, 100)

	n.Update(context.Background(), 1, day)

	_, ok := received(otherDate)
	assert.False(t, ok)
	_, ok = received(otherConcert)
	assert.False(t, ok)
	assert.Equal(t, 1, n.Pending(1))
	assert.Equal(t, 1, n.Pending(2))
}

func TestUpdateSkipsCountWithoutSubscribers(t *testing.T) {
	seats := &fakeCounter{total: 10, available: 0}
	n := New(seats, nil)
	n.Update(context.Background(), 1, day)
	assert.Zero(t, seats.calls)
}

func TestUpdateIgnoresEmptyDateAndErrors(t *testing.T) {
	seats := &fakeCounter{total: 0}
	n := New(seats, nil)
	sub := n.Subscribe(1, day, 100)

	n.Update(context.Background(), 1, day)
	seats.err = errors.New("db down")
	seats.set(10, 0)
	n.Update(context.Background(), 1, day)

	_, ok := received(sub)
	assert.False(t, ok)
	assert.Equal(t, 1, n.Pending(1))
}

func TestZeroThresholdNeverResolves(t *testing.T) {
	seats := &fakeCounter{total: 10, available: 0}
	n := New(seats, nil)
	sub := n.Subscribe(1, day, 0)
	n.Update(context.Background(), 1, day)
	_, ok := received(sub)
	assert.False(t, ok)
}

func TestCancel(t *testing.T) {
	seats := &fakeCounter{total: 10, available: 0}
	n := New(seats, nil)
	sub := n.Subscribe(1, day, 100)

	assert.True(t, n.Cancel(sub))
	assert.False(t, n.Cancel(sub))

	n.Update(context.Background(), 1, day)
	_, ok := received(sub)
	assert.False(t, ok)
}

func TestCloseClosesPendingAndRejectsNew(t *testing.T) {
	n := New(&fakeCounter{}, nil)
	sub := n.Subscribe(1, day, 50)

	n.Close()
	n.Close()

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.False(t, n.Cancel(sub))

	late := n.Subscribe(1, day, 50)
	_, ok = <-late.C
	assert.False(t, ok)
	assert.Equal(t, 0, n.Pending(1))
}

func TestConcurrentUpdatesDeliverOnce(t *testing.T) {
	seats := &fakeCounter{total: 10, available: 1}
	n := New(seats, nil)
	subs := make([]*Subscription, 50)
	for i := range subs {
		subs[i] = n.Subscribe(1, day, 50)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.Update(context.Background(), 1, day)
		}()
	}
	for _, sub := range subs {
		wg.Add(1)
		go func(s *Subscription) {
			defer wg.Done()
			n.Cancel(s)
		}(sub)
	}
	wg.Wait()

	for _, sub := range subs {
		count := 0
		for {
			if _, ok := received(sub); !ok {
				break
			}
			count++
		}
		assert.LessOrEqual(t, count, 1)
	}
	assert.Equal(t, 0, n.Pending(1))
}
