package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces job documents in the shared keyspace.
const redisKeyPrefix = "job:"

// Compile-time check that RedisRepository implements Repository.
var _ Repository = (*RedisRepository)(nil)

// RedisRepository persists each job as one JSON value in Redis. It
// serves multi-node deployments where the server and its workers do not
// share a filesystem.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a Redis-backed job repository over an
// existing client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func redisKey(jobID string) string {
	return redisKeyPrefix + jobID
}

// Save writes the job document. Jobs never expire; cleanup is an
// explicit Delete.
func (r *RedisRepository) Save(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job.Clone())
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}

	if err := r.client.Set(ctx, redisKey(job.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

// FindByID reads one job document.
func (r *RedisRepository) FindByID(ctx context.Context, jobID string) (*Job, error) {
	data, err := r.client.Get(ctx, redisKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("read job %s: %w", jobID, err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &job, nil
}

// List scans the job keyspace and reads every document, oldest first.
func (r *RedisRepository) List(ctx context.Context) ([]*Job, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan jobs: %w", err)
	}

	jobs := make([]*Job, 0, len(keys))
	if len(keys) == 0 {
		return jobs, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read jobs: %w", err)
	}

	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			// The key expired or was deleted between scan and read.
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(s), &job); err != nil {
			continue
		}
		jobs = append(jobs, &job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// Delete removes one job document.
func (r *RedisRepository) Delete(ctx context.Context, jobID string) error {
	n, err := r.client.Del(ctx, redisKey(jobID)).Result()
	if err != nil {
		return fmt.Errorf("delete job %s: %w", jobID, err)
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}
