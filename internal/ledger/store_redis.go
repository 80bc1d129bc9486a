package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"loanflow/internal/models"
)

// DefaultSubmissionsKey is the Redis key holding the record set.
const DefaultSubmissionsKey = "loanflow:submissions"

// RedisStore keeps the record set as one JSON value under a single key.
// Update runs inside a WATCH transaction so a concurrent writer from
// another process aborts the write instead of losing it.
type RedisStore struct {
	client     *redis.Client
	key        string
	maxRetries int
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultSubmissionsKey
	}
	return &RedisStore{client: client, key: key, maxRetries: 5}
}

func (s *RedisStore) Load(ctx context.Context) ([]models.SubmissionRecord, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return decodeRecords(data)
}

func (s *RedisStore) Update(ctx context.Context, mutate func([]models.SubmissionRecord) ([]models.SubmissionRecord, error)) error {
	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, s.key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redis get %s: %w", s.key, err)
		}

		var records []models.SubmissionRecord
		if len(data) > 0 {
			if records, err = decodeRecords(data); err != nil {
				return err
			}
		}

		records, err = mutate(records)
		if err != nil {
			return err
		}
		if records == nil {
			records = []models.SubmissionRecord{}
		}

		encoded, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("encode submissions: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, encoded, 0)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < s.maxRetries; i++ {
		err = s.client.Watch(ctx, txn, s.key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("redis cas on %s exhausted after %d tries: %w", s.key, s.maxRetries, err)
}

func decodeRecords(data []byte) ([]models.SubmissionRecord, error) {
	var records []models.SubmissionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode submissions: %w", err)
	}
	return records, nil
}
