// Package config loads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cyberinferno/boggle-server/logger"
)

// Cache backends for board searches.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Addr         string
	PathPrefix   string
	LogLevel     string
	LogDir       string
	Dictionary   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int

	CacheBackend  string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:         ":60000",
		PathPrefix:   "/BoggleService",
		LogLevel:     "info",
		Dictionary:   "dictionary.txt",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
		MaxBodyBytes: 64 << 10,
		CacheBackend: CacheMemory,
		CacheTTL:     10 * time.Minute,
		RedisAddr:    "localhost:6379",
	}
}

// Load reads envFile into the process environment when it exists (a missing
// file is fine; variables already set win) and then builds a Config from the
// BOGGLE_* variables over Default. An empty envFile means ".env".
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup over Default.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	c := Default()
	r := envReader{lookup: lookup}

	r.str("BOGGLE_ADDR", &c.Addr)
	r.str("BOGGLE_PATH_PREFIX", &c.PathPrefix)
	r.str("BOGGLE_LOG_LEVEL", &c.LogLevel)
	r.str("BOGGLE_LOG_DIR", &c.LogDir)
	r.str("BOGGLE_DICTIONARY", &c.Dictionary)
	r.duration("BOGGLE_READ_TIMEOUT", &c.ReadTimeout)
	r.duration("BOGGLE_WRITE_TIMEOUT", &c.WriteTimeout)
	r.int("BOGGLE_MAX_BODY_BYTES", &c.MaxBodyBytes)
	r.str("BOGGLE_CACHE_BACKEND", &c.CacheBackend)
	r.duration("BOGGLE_CACHE_TTL", &c.CacheTTL)
	r.str("BOGGLE_REDIS_ADDR", &c.RedisAddr)
	r.str("BOGGLE_REDIS_PASSWORD", &c.RedisPassword)
	r.int("BOGGLE_REDIS_DB", &c.RedisDB)

	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}

	c.CacheBackend = strings.ToLower(c.CacheBackend)
	return &c, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("address must not be empty"))
	}

	if c.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("read timeout must be positive, got %s", c.ReadTimeout))
	}

	if c.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("write timeout must be positive, got %s", c.WriteTimeout))
	}

	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes))
	}

	switch c.CacheBackend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis address must not be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.CacheBackend))
	}

	if c.CacheBackend != CacheNone && c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive, got %s", c.CacheTTL))
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *envReader) get(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}

	return strings.TrimSpace(v), true
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.get(key); ok {
		*dst = v
	}
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v, ok := r.get(key)
	if !ok || v == "" {
		return
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid duration for %s: %w", key, err))
		return
	}

	*dst = d
}

func (r *envReader) int(key string, dst *int) {
	v, ok := r.get(key)
	if !ok || v == "" {
		return
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid integer for %s: %w", key, err))
		return
	}

	*dst = n
}
