package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

type Variant string

const (
	Success Variant = "success"
	Error   Variant = "error"
	Info    Variant = "info"
	Warning Variant = "warning"
)

const (
	DefaultDuration = 2600 * time.Millisecond
	LoadingDuration = 8000 * time.Millisecond
	ErrorDuration   = 4000 * time.Millisecond
)

type Notification struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Variant   Variant   `json:"variant"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Queue holds short-lived notifications. One goroutine removes expired entries.
type Queue struct {
	mu      sync.Mutex
	entries map[int64]Notification
	nextID  int64
	now     func() time.Time

	wake chan struct{}
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewQueue() *Queue {
	q := &Queue{
		entries: make(map[int64]Notification),
		now:     time.Now,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	q.wg.Add(1)
	go q.run()

	return q
}

// Push adds a notification; d <= 0 uses DefaultDuration.
func (q *Queue) Push(message string, variant Variant, d time.Duration) int64 {
	if d <= 0 {
		d = DefaultDuration
	}

	q.mu.Lock()
	q.nextID++
	id := q.nextID
	now := q.now()
	q.entries[id] = Notification{
		ID:        id,
		Message:   message,
		Variant:   variant,
		CreatedAt: now,
		ExpiresAt: now.Add(d),
	}
	q.mu.Unlock()

	q.signal()
	return id
}

func (q *Queue) Success(message string) int64 { return q.Push(message, Success, 0) }
func (q *Queue) Info(message string) int64    { return q.Push(message, Info, 0) }
func (q *Queue) Warning(message string) int64 { return q.Push(message, Warning, 0) }
func (q *Queue) Error(message string) int64   { return q.Push(message, Error, ErrorDuration) }

// Dismiss removes a notification before it expires.
func (q *Queue) Dismiss(id int64) bool {
	q.mu.Lock()
	_, ok := q.entries[id]
	delete(q.entries, id)
	q.mu.Unlock()

	if ok {
		q.signal()
	}
	return ok
}

// Active returns unexpired notifications, oldest first.
func (q *Queue) Active() []Notification {
	q.mu.Lock()
	now := q.now()
	active := lo.Filter(lo.Values(q.entries), func(n Notification, _ int) bool {
		return now.Before(n.ExpiresAt)
	})
	q.mu.Unlock()

	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active
}

// Track shows a loading notification while fn runs and replaces it with the outcome.
func (q *Queue) Track(ctx context.Context, loading, success, failure string, fn func(context.Context) error) error {
	id := q.Push(loading, Info, LoadingDuration)

	err := fn(ctx)
	q.Dismiss(id)

	if err != nil {
		msg := failure
		if msg == "" {
			msg = err.Error()
		}
		q.Error(msg)
		return err
	}

	q.Success(success)
	return nil
}

// Close stops the expiry goroutine. The queue must not be used afterwards.
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.done)
	})
	q.wg.Wait()
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) run() {
	defer q.wg.Done()

	for {
		wait, pending := q.sweep()

		var timer *time.Timer
		var fire <-chan time.Time
		if pending {
			timer = time.NewTimer(wait)
			fire = timer.C
		}

		select {
		case <-q.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-q.wake:
		case <-fire:
		}

		if timer != nil {
			timer.Stop()
		}
	}
}

// sweep drops expired entries and returns the wait until the next expiry.
func (q *Queue) sweep() (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var next time.Time
	for id, n := range q.entries {
		if !now.Before(n.ExpiresAt) {
			delete(q.entries, id)
			continue
		}
		if next.IsZero() || n.ExpiresAt.Before(next) {
			next = n.ExpiresAt
		}
	}

	if next.IsZero() {
		return 0, false
	}
	return next.Sub(now), true
}

// Len reports stored entries, including expired ones not yet swept.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
