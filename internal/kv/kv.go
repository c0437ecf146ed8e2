// Package kv provides the string key-value stores that stand in for browser
// local storage. Values are opaque strings; absence is not an error.
package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Store is a get/set/delete key-value interface.
type Store interface {
	// Get returns the value and true, or "" and false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set overwrites the value stored under key.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendSQLite   Backend = "sqlite"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
)

// Config selects and parameterizes a backend.
type Config struct {
	Backend Backend
	// Path is the directory for BackendFile or the database file for BackendSQLite.
	Path string
	// RedisAddr is host:port for BackendRedis.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// PostgresDSN is the connection string for BackendPostgres.
	PostgresDSN string
}

// Open constructs the configured backend.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (Store, error) {
	switch Backend(strings.ToLower(string(cfg.Backend))) {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendFile:
		return NewFile(cfg.Path)
	case BackendSQLite:
		path, err := sqlitePath(cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewSQLite(path, logger)
	case BackendRedis:
		return NewRedis(ctx, RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	case BackendPostgres:
		return NewPostgres(ctx, cfg.PostgresDSN, logger)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// sqlitePath treats a path without a database extension as a directory and
// places the database file inside it.
func sqlitePath(p string) (string, error) {
	if p == "" || filepath.Ext(p) != "" {
		return p, nil
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return "", fmt.Errorf("creating sqlite directory: %w", err)
	}
	return filepath.Join(p, "taskflow.db"), nil
}
