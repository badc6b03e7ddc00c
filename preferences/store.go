package preferences

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists a single Preferences row (SPEC_FULL.md §6: "a single-row
// preferences slot with save(prefs), load() → prefs?").
type Store interface {
	Save(ctx context.Context, p Preferences) error
	Load(ctx context.Context) (p Preferences, ok bool, err error)
}

// InMemStore is an in-memory Store, for tests and local development.
type InMemStore struct {
	mu    sync.RWMutex
	value *Preferences
}

// NewInMemStore returns an empty InMemStore (no preferences saved yet).
func NewInMemStore() *InMemStore { return &InMemStore{} }

var _ Store = (*InMemStore)(nil)

// Save implements Store.
func (s *InMemStore) Save(_ context.Context, p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.value = &cp
	return nil
}

// Load implements Store.
func (s *InMemStore) Load(_ context.Context) (Preferences, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.value == nil {
		return Preferences{}, false, nil
	}
	return *s.value, true, nil
}

// RedisStore is a durable Store backed by a single Redis key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore constructs a RedisStore storing preferences under key.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

var _ Store = (*RedisStore)(nil)

type wireDuration struct {
	PreferredStartHour    int             `json:"preferred_start_hour"`
	PreferredEndHour      int             `json:"preferred_end_hour"`
	PreferredDays         map[int]bool    `json:"preferred_days"`
	PreferredDuration     string          `json:"preferred_duration"`
	MinDuration           string          `json:"min_duration"`
	MaxDuration           string          `json:"max_duration"`
	BufferBetweenMeetings int64           `json:"buffer_between_meetings_ns"`
	MaxMeetingsPerDay     int             `json:"max_meetings_per_day"`
	MaxMeetingsPerWeek    int             `json:"max_meetings_per_week"`
	AllowBackToBack       bool            `json:"allow_back_to_back"`
	PreferredPartners     []string        `json:"preferred_partners"`
	BlockedPartners       []string        `json:"blocked_partners"`
	AllowNewPartners      bool            `json:"allow_new_partners"`
	MinTrustScore         float64         `json:"min_trust_score"`
	Instructions          string          `json:"instructions"`
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, p Preferences) error {
	blob, err := json.Marshal(toWire(p))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, blob, 0).Err()
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context) (Preferences, bool, error) {
	blob, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return Preferences{}, false, nil
	}
	if err != nil {
		return Preferences{}, false, err
	}
	var w wireDuration
	if err := json.Unmarshal(blob, &w); err != nil {
		return Preferences{}, false, err
	}
	return fromWire(w), true, nil
}

func toWire(p Preferences) wireDuration {
	days := make(map[int]bool, len(p.PreferredDays))
	for d, ok := range p.PreferredDays {
		days[int(d)] = ok
	}
	return wireDuration{
		PreferredStartHour:    p.PreferredStartHour,
		PreferredEndHour:      p.PreferredEndHour,
		PreferredDays:         days,
		PreferredDuration:     p.PreferredDuration,
		MinDuration:           p.MinDuration,
		MaxDuration:           p.MaxDuration,
		BufferBetweenMeetings: int64(p.BufferBetweenMeetings),
		MaxMeetingsPerDay:     p.MaxMeetingsPerDay,
		MaxMeetingsPerWeek:    p.MaxMeetingsPerWeek,
		AllowBackToBack:       p.AllowBackToBack,
		PreferredPartners:     p.PreferredPartners,
		BlockedPartners:       p.BlockedPartners,
		AllowNewPartners:      p.AllowNewPartners,
		MinTrustScore:         p.MinTrustScore,
		Instructions:          p.Instructions,
	}
}

func fromWire(w wireDuration) Preferences {
	days := make(map[time.Weekday]bool, len(w.PreferredDays))
	for d, ok := range w.PreferredDays {
		days[time.Weekday(d)] = ok
	}
	return Preferences{
		PreferredStartHour:    w.PreferredStartHour,
		PreferredEndHour:      w.PreferredEndHour,
		PreferredDays:         days,
		PreferredDuration:     w.PreferredDuration,
		MinDuration:           w.MinDuration,
		MaxDuration:           w.MaxDuration,
		BufferBetweenMeetings: time.Duration(w.BufferBetweenMeetings),
		MaxMeetingsPerDay:     w.MaxMeetingsPerDay,
		MaxMeetingsPerWeek:    w.MaxMeetingsPerWeek,
		AllowBackToBack:       w.AllowBackToBack,
		PreferredPartners:     w.PreferredPartners,
		BlockedPartners:       w.BlockedPartners,
		AllowNewPartners:      w.AllowNewPartners,
		MinTrustScore:         w.MinTrustScore,
		Instructions:          w.Instructions,
	}
}
