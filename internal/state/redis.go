package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/cthai/internal/observability"
)

const maxUpdateAttempts = 5

// RedisConfig contains the state store's Redis settings. An empty address
// selects the in-memory store.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
}

// RedisStore keeps state in Redis and fans changes out over pub/sub, so every
// instance serving the same user sees the same sections.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sectionKey(userID string, section Section) string {
	return fmt.Sprintf("state:%s:%s", userID, section)
}

func eventsChannel(userID string) string {
	return fmt.Sprintf("state:%s:events", userID)
}

// Get returns the section, or its defaults when nothing was stored.
func (r *RedisStore) Get(ctx context.Context, userID string, section Section) (Snapshot, error) {
	if _, err := ParseSection(string(section)); err != nil {
		return nil, err
	}
	return r.load(ctx, r.client, userID, section)
}

// Update shallow-merges patch into the section under optimistic locking.
func (r *RedisStore) Update(ctx context.Context, userID string, section Section, patch Snapshot) (Snapshot, error) {
	if _, err := ParseSection(string(section)); err != nil {
		return nil, err
	}

	key := sectionKey(userID, section)
	var merged Snapshot

	txf := func(tx *redis.Tx) error {
		current, err := r.load(ctx, tx, userID, section)
		if err != nil {
			return err
		}

		merged, err = Merge(section, current, patch)
		if err != nil {
			return err
		}

		return r.write(ctx, tx, userID, section, merged)
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return merged, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
		observability.FromContext(ctx).Debug("state update conflict, retrying",
			observability.String("section", string(section)),
			observability.Int("attempt", attempt+1),
		)
	}

	return nil, fmt.Errorf("failed to update %s: too many concurrent writers", section)
}

// Reset restores the section's defaults.
func (r *RedisStore) Reset(ctx context.Context, userID string, section Section) (Snapshot, error) {
	snap, err := Defaults(section)
	if err != nil {
		return nil, err
	}

	key := sectionKey(userID, section)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		return r.write(ctx, tx, userID, section, snap)
	}, key)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Subscribe streams the user's changes until ctx ends. The subscription is
// confirmed before returning, so no change published afterwards is missed.
func (r *RedisStore) Subscribe(ctx context.Context, userID string) (<-chan Change, error) {
	sub := r.client.Subscribe(ctx, eventsChannel(userID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to state changes: %w", err)
	}

	out := make(chan Change, subscriberBuffer)
	go func() {
		defer close(out)
		defer sub.Close()

		logger := observability.FromContext(ctx)
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					logger.Warn("ignoring malformed state change", observability.Error(err))
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (r *RedisStore) load(ctx context.Context, c redis.Cmdable, userID string, section Section) (Snapshot, error) {
	raw, err := c.Get(ctx, sectionKey(userID, section)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Defaults(section)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", section, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", section, err)
	}
	return snap, nil
}

// write stores the snapshot and publishes the change in one transaction.
func (r *RedisStore) write(ctx context.Context, tx *redis.Tx, userID string, section Section, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", section, err)
	}
	event, err := json.Marshal(Change{Section: section, State: snap})
	if err != nil {
		return fmt.Errorf("failed to encode change: %w", err)
	}

	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sectionKey(userID, section), data, 0)
		pipe.Publish(ctx, eventsChannel(userID), event)
		return nil
	})
	return err
}
