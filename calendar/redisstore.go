package calendar

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a durable Store backed by Redis. Each event is stored as a
// JSON blob under a per-event key; an index set tracks all known ids so
// LoadAll does not require a key scan.
//
// Grounded on SPEC_FULL.md §6 ("the store MUST survive process restart; the
// event log is the durable source of truth, not the in-memory map") and §2b's
// choice of github.com/redis/go-redis/v9 over a second persistence driver.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	indexKey  string
}

// NewRedisStore constructs a RedisStore. keyPrefix namespaces this agent's
// events within a shared Redis instance (e.g. "cal:<agent-id>:").
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		indexKey:  keyPrefix + "index",
	}
}

var _ Store = (*RedisStore)(nil)

type redisEvent struct {
	ID        string `json:"id"`
	StartUnix int64  `json:"start_unix"`
	Duration  int64  `json:"duration_ns"`
	Partner   string `json:"partner"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at_unix"`
	UpdatedAt int64  `json:"updated_at_unix"`
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + "event:" + id
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, event Event) error {
	blob, err := json.Marshal(toRedisEvent(event))
	if err != nil {
		return fmt.Errorf("calendar: marshal event: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(event.ID), blob, 0)
	pipe.SAdd(ctx, s.indexKey, event.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("calendar: save event %s: %w", event.ID, err)
	}
	return nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, id string) (Event, bool, error) {
	blob, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return Event{}, false, nil
	}
	if err != nil {
		return Event{}, false, fmt.Errorf("calendar: load event %s: %w", id, err)
	}
	var re redisEvent
	if err := json.Unmarshal(blob, &re); err != nil {
		return Event{}, false, fmt.Errorf("calendar: unmarshal event %s: %w", id, err)
	}
	return fromRedisEvent(re), true, nil
}

// LoadAll implements Store.
func (s *RedisStore) LoadAll(ctx context.Context) ([]Event, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("calendar: list event ids: %w", err)
	}
	out := make([]Event, 0, len(ids))
	for _, id := range ids {
		event, ok, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue // index drifted from a deleted key; tolerate it
		}
		out = append(out, event)
	}
	return out, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.SRem(ctx, s.indexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("calendar: delete event %s: %w", id, err)
	}
	return nil
}

func toRedisEvent(e Event) redisEvent {
	return redisEvent{
		ID:        e.ID,
		StartUnix: e.Start.Unix(),
		Duration:  int64(e.Duration),
		Partner:   e.Partner,
		Title:     e.Title,
		Status:    string(e.Status),
		CreatedAt: e.CreatedAt.Unix(),
		UpdatedAt: e.UpdatedAt.Unix(),
	}
}

func fromRedisEvent(re redisEvent) Event {
	return Event{
		ID:        re.ID,
		Start:     unixToTime(re.StartUnix),
		Duration:  durationFromNanos(re.Duration),
		Partner:   re.Partner,
		Title:     re.Title,
		Status:    Status(re.Status),
		CreatedAt: unixToTime(re.CreatedAt),
		UpdatedAt: unixToTime(re.UpdatedAt),
	}
}
