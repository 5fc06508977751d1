// Package notifier resolves seat-availability subscriptions.  A
// subscription waits for the share of unbooked seats on one concert date
// to drop below a threshold and is resolved at most once.
package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/concert-booking/internal/logging"
)

// SeatCounter reports seat totals for a date.  The seat repository
// satisfies it.
type SeatCounter interface {
	CountByDate(ctx context.Context, date time.Time) (total, available int, err error)
}

// Notification is delivered once to a resolved subscription.
type Notification struct {
	AvailableSeats int
}

// Subscription is a pending interest in one concert date.  C receives
// exactly one Notification when the threshold is crossed, or is closed
// without a value when the notifier shuts down.
type Subscription struct {
	ID        uint64
	ConcertID uint64
	Date      time.Time
	Threshold int // percentage booked, 0..100

	C <-chan Notification
	c chan Notification
}

// Notifier keeps pending subscriptions keyed by concert.  One mutex
// guards the whole set; seat counting happens outside it.
type Notifier struct {
	seats SeatCounter
	log   *logging.Logger

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]map[uint64]*Subscription
	closed bool
}

func New(seats SeatCounter, log *logging.Logger) *Notifier {
	if log == nil {
		log = logging.Nop()
	}
	return &Notifier{
		seats: seats,
		log:   log.WithComponent("notifier"),
		subs:  make(map[uint64]map[uint64]*Subscription),
	}
}

// Subscribe registers interest in concertID on date.  The subscription
// resolves once available*100/total < threshold after some booking on
// that date.  After Close the returned channel is already closed.
func (n *Notifier) Subscribe(concertID uint64, date time.Time, threshold int) *Subscription {
	ch := make(chan Notification, 1)
	sub := &Subscription{ConcertID: concertID, Date: date.UTC(), Threshold: threshold, C: ch, c: ch}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		close(ch)
		return sub
	}
	n.nextID++
	sub.ID = n.nextID
	set, ok := n.subs[concertID]
	if !ok {
		set = make(map[uint64]*Subscription)
		n.subs[concertID] = set
	}
	set[sub.ID] = sub
	return sub
}

// Update recounts seats on date and resolves every pending subscription
// on concertID and date whose threshold is now crossed.
func (n *Notifier) Update(ctx context.Context, concertID uint64, date time.Time) {
	date = date.UTC()
	if n.Pending(concertID) == 0 {
		return
	}
	total, available, err := n.seats.CountByDate(ctx, date)
	if err != nil {
		n.log.Error().Err(err).Uint64("concert_id", concertID).Msg("count seats failed")
		return
	}
	if total == 0 {
		return
	}
	availablePct := available * 100 / total

	n.mu.Lock()
	defer n.mu.Unlock()
	set := n.subs[concertID]
	resolved := 0
	for id, sub := range set {
		if !sub.Date.Equal(date) || availablePct >= sub.Threshold {
			continue
		}
		delete(set, id)
		sub.c <- Notification{AvailableSeats: available}
		resolved++
	}
	if len(set) == 0 {
		delete(n.subs, concertID)
	}
	if resolved > 0 {
		n.log.Debug().
			Uint64("concert_id", concertID).
			Int("available", available).
			Int("total", total).
			Int("resolved", resolved).
			Msg("subscriptions resolved")
	}
}

// Cancel drops a pending subscription.  It reports false when sub was
// already resolved, cancelled or closed.
func (n *Notifier) Cancel(sub *Subscription) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	set, ok := n.subs[sub.ConcertID]
	if !ok {
		return false
	}
	if _, ok := set[sub.ID]; !ok {
		return false
	}
	delete(set, sub.ID)
	if len(set) == 0 {
		delete(n.subs, sub.ConcertID)
	}
	return true
}

// Pending returns the number of unresolved subscriptions on concertID.
func (n *Notifier) Pending(concertID uint64) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs[concertID])
}

// Close closes every pending subscription channel and rejects new ones.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for _, set := range n.subs {
		for _, sub := range set {
			close(sub.c)
		}
	}
	n.subs = make(map[uint64]map[uint64]*Subscription)
}
