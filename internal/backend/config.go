package backend

import (
	"fmt"
	"time"

	"payble/internal/config"
)

const DefaultRedisHash = "payble:settings"

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Type:             BackendType(appConfig.DataBackend),
		SettingsType:     BackendType(appConfig.SettingsBackend),
		SQLiteDBPath:     appConfig.SQLiteDBPath,
		DataDirectory:    appConfig.DataDirectory,
		RedisURL:         appConfig.RedisURL,
		RedisHash:        DefaultRedisHash,
		SettingsCacheTTL: appConfig.SettingsCacheTTL,
		AMQPURL:          appConfig.AMQPURL,
		AMQPExchange:     appConfig.AMQPExchange,
		AMQPQueue:        appConfig.AMQPQueue,
		Location:         appConfig.Location(),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if !c.SettingsType.IsValidSettings() {
		return fmt.Errorf("invalid settings backend type: %s", c.SettingsType)
	}
	if c.usesSQLite() && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	if c.SettingsType == RedisBackend && c.RedisURL == "" {
		return fmt.Errorf("redis URL is required for redis settings backend")
	}
	return nil
}

func (c Config) usesSQLite() bool {
	return c.Type == SQLiteBackend || c.SettingsType == SQLiteBackend
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// GetBackendTypes returns all valid record backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend}
}
