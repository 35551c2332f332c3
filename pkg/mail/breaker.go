package mail

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSender stops calling the wrapped sender for a while after repeated failures.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerSender(name string, next Sender, openFor time.Duration) *BreakerSender {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &BreakerSender{next: next, cb: cb}
}

func (s *BreakerSender) Send(ctx context.Context, msg Message) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Send(ctx, msg)
	})
	return err
}

func (s *BreakerSender) State() gobreaker.State {
	return s.cb.State()
}
