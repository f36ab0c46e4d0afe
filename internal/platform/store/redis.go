package store

import (
	"context"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"
)

// Redis stores each (company, collection) as a hash with one field per key.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing Redis client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func hashKey(companyID, collection string) string {
	return "finboard:" + companyID + ":" + collection
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, companyID, collection, key string) ([]byte, error) {
	doc, err := r.client.HGet(ctx, hashKey(companyID, collection), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Put implements Store.
func (r *Redis) Put(ctx context.Context, companyID, collection, key string, doc []byte) error {
	return r.client.HSet(ctx, hashKey(companyID, collection), key, doc).Err()
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, companyID, collection, key string) error {
	removed, err := r.client.HDel(ctx, hashKey(companyID, collection), key).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// List implements Store.
func (r *Redis) List(ctx context.Context, companyID, collection string) ([][]byte, error) {
	fields, err := r.client.HGetAll(ctx, hashKey(companyID, collection)).Result()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	docs := make([][]byte, 0, len(keys))
	for _, k := range keys {
		docs = append(docs, []byte(fields[k]))
	}
	return docs, nil
}

// Update implements Store via optimistic WATCH on the hash. Retries a bounded
// number of times before reporting ErrConflict.
func (r *Redis) Update(ctx context.Context, companyID, collection, key string, fn UpdateFunc) error {
	const attempts = 5
	hk := hashKey(companyID, collection)
	for i := 0; i < attempts; i++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.HGet(ctx, hk, key).Bytes()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if errors.Is(err, redis.Nil) {
				current = nil
			}
			next, err := fn(current)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, hk, key, next)
				return nil
			})
			return err
		}, hk)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return ErrConflict
}
