package backend

import (
	"context"
	"time"

	"payble/internal/amqp"
	"payble/internal/cache"
	"payble/internal/records"
	"payble/internal/settings"
)

// Backend is everything the HTTP layer and the workers need from a record
// store.
type Backend interface {
	records.Store
	records.SeenStore
	records.Pinger
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the wired stores and the cleanup for all of them.
type BackendResult struct {
	Backend  Backend
	Settings settings.Repository
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher *amqp.Client
	Caches    *cache.Manager
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type         BackendType
	SettingsType BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	DataDirectory string

	// Redis settings
	RedisURL  string
	RedisHash string

	SettingsCacheTTL time.Duration

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	Location *time.Location
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
	RedisBackend  BackendType = "redis"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid reports whether bt can hold obligation records.
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// IsValidSettings reports whether bt can hold preferences.
func (bt BackendType) IsValidSettings() bool {
	return bt.IsValid() || bt == RedisBackend
}
