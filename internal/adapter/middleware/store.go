package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// pendingTTL bounds how long a crashed handler can block retries of its request id.
const pendingTTL = 60 * time.Second

// receipt is what a request id maps to: pending while the handler runs,
// then the recorded response.
type receipt struct {
	Pending     bool      `json:"pending"`
	Status      int       `json:"status,omitempty"`
	Body        []byte    `json:"body,omitempty"`
	BodyDigest  string    `json:"body_digest"`
	Caller      string    `json:"caller"`
	RequestID   string    `json:"request_id"`
	RequestedAt time.Time `json:"requested_at"`
	StoredAt    time.Time `json:"stored_at"`
}

func (r receipt) replayable() bool { return !r.Pending && r.Status != 0 }

type replayStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// claim reserves key for the running request; false means someone holds it.
func (s replayStore) claim(ctx context.Context, key string, r receipt) (bool, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return false, errors.Wrap(err, "encode receipt")
	}
	ok, err := s.rdb.SetNX(ctx, key, payload, pendingTTL).Result()
	return ok, errors.Wrap(err, "claim request id")
}

func (s replayStore) load(ctx context.Context, key string) (receipt, error) {
	var r receipt
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return r, errors.Wrap(err, "load receipt")
	}
	return r, errors.Wrap(json.Unmarshal(raw, &r), "decode receipt")
}

func (s replayStore) finish(ctx context.Context, key string, r receipt) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode receipt")
	}
	return errors.Wrap(s.rdb.Set(ctx, key, payload, s.ttl).Err(), "store receipt")
}

// release frees key so the client may retry the same request id.
func (s replayStore) release(ctx context.Context, key string) error {
	return errors.Wrap(s.rdb.Del(ctx, key).Err(), "release request id")
}
