package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr     string
	LogLevel string

	// BaseDir holds the SQLite stores, one {NAME}.db/{NAME}.db file each.
	BaseDir string
	// Manifest optionally points at a YAML store manifest that overrides
	// the defaults derived from BaseDir.
	Manifest string
	// ShardRanges uses the shard.ParseTables format. Empty means no store
	// is sharded.
	ShardRanges string

	Pool     PoolConfig
	Dossier  DossierConfig
	Redis    RedisConfig
	Audit    AuditConfig
	Shutdown time.Duration
}

type PoolConfig struct {
	Capacity       int
	AcquireTimeout time.Duration
}

type DossierConfig struct {
	OperationTimeout  time.Duration
	ReconnectInterval time.Duration
	FanOutLimit       int
}

// RedisConfig configures the record cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	TTL          time.Duration
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuditConfig selects the audit sink. Without brokers events are logged.
type AuditConfig struct {
	Brokers []string
	Topic   string
	Buffer  int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	e := &envReader{lookup: os.LookupEnv}
	cfg := Server{
		Addr:        e.str("DOSSIER_ADDR", ":8080"),
		LogLevel:    e.str("LOG_LEVEL", "info"),
		BaseDir:     e.str("DB_BASE_DIR", "./data"),
		Manifest:    e.str("STORE_MANIFEST", ""),
		ShardRanges: e.str("SHARD_RANGES", ""),
		Pool: PoolConfig{
			Capacity:       e.integer("POOL_CAPACITY", 10),
			AcquireTimeout: e.duration("POOL_ACQUIRE_TIMEOUT", 5*time.Second),
		},
		Dossier: DossierConfig{
			OperationTimeout:  e.duration("OPERATION_TIMEOUT", 30*time.Second),
			ReconnectInterval: e.duration("RECONNECT_INTERVAL", 0),
			FanOutLimit:       e.integer("FANOUT_LIMIT", 8),
		},
		Redis: RedisConfig{
			URL:          e.str("REDIS_URL", ""),
			TTL:          e.duration("CACHE_TTL", time.Hour),
			PoolSize:     e.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: e.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Audit: AuditConfig{
			Brokers: e.list("KAFKA_BROKERS"),
			Topic:   e.str("AUDIT_TOPIC", "dossier.audit"),
			Buffer:  e.integer("AUDIT_BUFFER", 10000),
		},
		Shutdown: e.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
	if cfg.Pool.Capacity <= 0 {
		e.errs = append(e.errs, fmt.Errorf("POOL_CAPACITY must be positive, got %d", cfg.Pool.Capacity))
	}
	if cfg.Dossier.FanOutLimit <= 0 {
		e.errs = append(e.errs, fmt.Errorf("FANOUT_LIMIT must be positive, got %d", cfg.Dossier.FanOutLimit))
	}
	return cfg, errors.Join(e.errs...)
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) str(key, def string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *envReader) integer(key string, def int) int {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (e *envReader) list(key string) []string {
	raw := e.str(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
