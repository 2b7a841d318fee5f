package cli

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/paradigm/internal/adapters/file"
	"github.com/aretw0/paradigm/internal/adapters/sqlite"
	"github.com/aretw0/paradigm/pkg/adapters/memory"
	"github.com/aretw0/paradigm/pkg/adapters/redis"
	"github.com/aretw0/paradigm/pkg/persistence/middleware"
	"github.com/aretw0/paradigm/pkg/ports"
	"github.com/aretw0/paradigm/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// DefaultSQLitePath is the database file of the sqlite store when no path is given.
const DefaultSQLitePath = ".paradigm/trials.db"

// StoreOptions selects and configures a trial store.
type StoreOptions struct {
	// Kind is one of memory, file, sqlite or redis.
	Kind string
	// Path is the base directory of the file store, or the database file of the sqlite store.
	Path string
	// RedisURL is a redis:// URL for the redis store.
	RedisURL string
	// TTL expires redis sessions after inactivity. Zero keeps them forever.
	TTL time.Duration

	// MaskPatterns masks measured data whose keys match, before saving.
	MaskPatterns []string
	// EncryptionKey is a hex-encoded AES-256 key encrypting measured data at rest.
	EncryptionKey string
}

// OpenStore creates the store described by opts, wrapped with the requested privacy
// middleware. The returned func releases it.
func OpenStore(opts StoreOptions) (ports.TrialStore, func() error, error) {
	mws, err := privacyMiddleware(opts)
	if err != nil {
		return nil, nil, err
	}
	store, closeFn, err := openBackend(opts)
	if err != nil {
		return nil, nil, err
	}
	return middleware.Chain(store, mws...), closeFn, nil
}

// OpenSessions is OpenStore behind a session.Manager.
func OpenSessions(opts StoreOptions, mgrOpts ...session.Option) (*session.Manager, func() error, error) {
	store, closeFn, err := OpenStore(opts)
	if err != nil {
		return nil, nil, err
	}
	return session.NewManager(store, mgrOpts...), closeFn, nil
}

func privacyMiddleware(opts StoreOptions) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(opts.MaskPatterns) > 0 {
		mw, err := middleware.NewPIIMiddleware(opts.MaskPatterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if opts.EncryptionKey != "" {
		key, err := hex.DecodeString(opts.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("encryption key must be hex: %w", err)
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

func openBackend(opts StoreOptions) (ports.TrialStore, func() error, error) {
	noop := func() error { return nil }

	switch opts.Kind {
	case "", "memory":
		return memory.NewStore(), noop, nil
	case "file":
		return file.New(opts.Path), noop, nil
	case "sqlite":
		path := opts.Path
		if path == "" {
			path = DefaultSQLitePath
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "redis":
		if opts.RedisURL == "" {
			return nil, nil, fmt.Errorf("redis store requires a URL")
		}
		ropts, err := backend.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		var storeOpts []redis.Option
		if opts.TTL > 0 {
			storeOpts = append(storeOpts, redis.WithTTL(opts.TTL))
		}
		store := redis.NewFromClient(backend.NewClient(ropts), storeOpts...)
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q (want memory, file, sqlite or redis)", opts.Kind)
}
