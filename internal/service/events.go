package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/mykafka"
)

const (
	EventUserRegistered = "user_registered"
	EventUserVerified   = "user_verified"
	EventUserBanned     = "user_banned"
	EventUserUnbanned   = "user_unbanned"
	EventUserDeleted    = "user_deleted"

	EventProductCreated = "product_created"
	EventProductDeleted = "product_deleted"
	EventProductBanned  = "product_banned"
)

const publishTimeout = 5 * time.Second

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type Event struct {
	Type      string    `json:"type"`
	Username  string    `json:"username,omitempty"`
	ProductID uint      `json:"product_id,omitempty"`
	At        time.Time `json:"at"`
}

func publishUser(ctx context.Context, p Publisher, tasks *Tasks, typ, username string) {
	publish(ctx, p, tasks, mykafka.TopicUserEvents, username, Event{Type: typ, Username: username, At: time.Now().UTC()})
}

func publishProduct(ctx context.Context, p Publisher, tasks *Tasks, typ, owner string, id uint) {
	key := owner
	if key == "" {
		key = "product"
	}
	publish(ctx, p, tasks, mykafka.TopicProductEvents, key, Event{Type: typ, Username: owner, ProductID: id, At: time.Now().UTC()})
}

// publish sends ev in the background; failures are logged, never returned.
func publish(ctx context.Context, p Publisher, tasks *Tasks, topic, key string, ev Event) {
	if p == nil {
		return
	}
	l := logging.FromContext(ctx).With("svc", "events", "topic", topic, "type", ev.Type)
	bg := context.WithoutCancel(ctx)
	tasks.Go(func() {
		ctx, cancel := context.WithTimeout(bg, publishTimeout)
		defer cancel()
		if err := p.PublishEvent(ctx, topic, key, ev); err != nil {
			l.Warn("event_publish_failed", "error", err)
		}
	})
}
