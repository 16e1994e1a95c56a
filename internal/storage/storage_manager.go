/**
 * Storage Manager for the document scan worker
 *
 * Coordinates PostgreSQL (scan job rows and results) and the Redis
 * file cache (original bytes for rescans). The cache is best-effort:
 * a cache write failure never fails a scan, it only makes a later
 * rescan a miss.
 */

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/docuverify/docscan-worker/internal/logging"
)

// Manager coordinates PostgreSQL and the Redis file cache.
type Manager struct {
	postgres *PostgresClient
	cache    *FileCache
	logger   *logging.Logger
}

// ManagerConfig holds the storage wiring.
type ManagerConfig struct {
	PostgresURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	FileRetention time.Duration
}

// NewManager connects both stores.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	postgres, err := NewPostgresClient(cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL client: %w", err)
	}

	cache, err := NewFileCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.FileRetention)
	if err != nil {
		postgres.Close()
		return nil, fmt.Errorf("failed to initialize file cache: %w", err)
	}

	return &Manager{
		postgres: postgres,
		cache:    cache,
		logger:   logging.NewLogger("StorageManager"),
	}, nil
}

// SaveScan persists a scan job row.
func (m *Manager) SaveScan(ctx context.Context, rec *ScanRecord) error {
	return m.postgres.SaveScan(ctx, rec)
}

// GetScan retrieves a scan job row.
func (m *Manager) GetScan(ctx context.Context, jobID string) (*ScanRecord, error) {
	return m.postgres.GetScan(ctx, jobID)
}

// CacheFile stores the original upload for rescans. Failures are
// logged, not returned.
func (m *Manager) CacheFile(ctx context.Context, jobID, filename string, data []byte) {
	if err := m.cache.Put(ctx, jobID, filename, data); err != nil {
		m.logger.Warn("Failed to cache file for rescan",
			"jobId", jobID,
			"error", err)
	}
}

// FetchCachedFile returns the cached upload for a rescan.
func (m *Manager) FetchCachedFile(ctx context.Context, jobID string) (string, []byte, error) {
	return m.cache.Get(ctx, jobID)
}

// GetStats returns statistics from both systems.
func (m *Manager) GetStats(ctx context.Context) map[string]interface{} {
	pgStats := m.postgres.GetStats()

	cacheStatus := "ok"
	if err := m.cache.Ping(ctx); err != nil {
		cacheStatus = err.Error()
	}

	return map[string]interface{}{
		"postgres": map[string]interface{}{
			"max_open_connections": pgStats.MaxOpenConnections,
			"open_connections":     pgStats.OpenConnections,
			"in_use":               pgStats.InUse,
			"idle":                 pgStats.Idle,
			"wait_count":           pgStats.WaitCount,
			"wait_duration":        pgStats.WaitDuration.String(),
		},
		"file_cache": map[string]interface{}{
			"status": cacheStatus,
		},
	}
}

// Close closes all connections.
func (m *Manager) Close() error {
	var pgErr, cacheErr error

	if m.postgres != nil {
		pgErr = m.postgres.Close()
	}
	if m.cache != nil {
		cacheErr = m.cache.Close()
	}

	if pgErr != nil {
		return fmt.Errorf("failed to close PostgreSQL: %w", pgErr)
	}
	if cacheErr != nil {
		return fmt.Errorf("failed to close file cache: %w", cacheErr)
	}
	return nil
}
