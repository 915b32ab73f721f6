//go:build integration

package containers

import (
	"sync"
	"testing"
)

// Manager hands out one container per backend for the whole test binary so
// suites don't pay the startup cost repeatedly.
type Manager struct {
	pgOnce    sync.Once
	pg        *PostgresContainer
	redisOnce sync.Once
	redis     *RedisContainer
	rpOnce    sync.Once
	redpanda  *RedpandaContainer
}

var defaultManager = &Manager{}

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	return defaultManager
}

// GetPostgres starts Postgres on first use.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.pgOnce.Do(func() {
		m.pg = NewPostgresContainer(t)
	})
	return m.pg
}

// GetRedis starts Redis on first use.
func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	m.redisOnce.Do(func() {
		m.redis = NewRedisContainer(t)
	})
	return m.redis
}

// GetRedpanda starts a Kafka-compatible broker on first use.
func (m *Manager) GetRedpanda(t *testing.T) *RedpandaContainer {
	t.Helper()
	m.rpOnce.Do(func() {
		m.redpanda = NewRedpandaContainer(t)
	})
	return m.redpanda
}
