/**
 * Redis File Cache
 *
 * Keeps original upload bytes for a bounded retention window so a
 * rescan can reprocess the same file without a second upload. Keys
 * expire on their own; a rescan past the window is a cache miss the
 * caller reports instead of silently re-uploading.
 */

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrFileNotCached is returned when the retention window has passed.
var ErrFileNotCached = errors.New("file not in cache or retention expired")

// FileCache stores original uploads in Redis with a TTL.
type FileCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFileCache connects to Redis and verifies the connection.
func NewFileCache(addr, password string, db int, ttl time.Duration) (*FileCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &FileCache{rdb: rdb, ttl: ttl}, nil
}

func fileKey(jobID string) string { return "docscan:file:" + jobID }
func nameKey(jobID string) string { return "docscan:filename:" + jobID }

// Put caches a file under its job ID for the retention window.
func (c *FileCache) Put(ctx context.Context, jobID, filename string, data []byte) error {
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, fileKey(jobID), data, c.ttl)
	pipe.Set(ctx, nameKey(jobID), filename, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache file for job %s: %w", jobID, err)
	}
	return nil
}

// Get returns the cached filename and bytes for a job.
func (c *FileCache) Get(ctx context.Context, jobID string) (string, []byte, error) {
	data, err := c.rdb.Get(ctx, fileKey(jobID)).Bytes()
	if err == redis.Nil {
		return "", nil, ErrFileNotCached
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to read cached file for job %s: %w", jobID, err)
	}

	filename, err := c.rdb.Get(ctx, nameKey(jobID)).Result()
	if err == redis.Nil {
		filename = "unknown"
	} else if err != nil {
		return "", nil, fmt.Errorf("failed to read cached filename for job %s: %w", jobID, err)
	}
	return filename, data, nil
}

// Delete drops a cached file before its TTL.
func (c *FileCache) Delete(ctx context.Context, jobID string) error {
	return c.rdb.Del(ctx, fileKey(jobID), nameKey(jobID)).Err()
}

// Ping checks Redis connectivity.
func (c *FileCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *FileCache) Close() error {
	return c.rdb.Close()
}
