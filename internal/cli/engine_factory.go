package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/seedbed"
	"github.com/aretw0/seedbed/internal/adapters/file"
	"github.com/aretw0/seedbed/internal/config"
	"github.com/aretw0/seedbed/pkg/adapters/memory"
	"github.com/aretw0/seedbed/pkg/adapters/redis"
	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/observability"
	"github.com/aretw0/seedbed/pkg/persistence/middleware"
	"github.com/aretw0/seedbed/pkg/ports"
)

// Storage is the session persistence chosen from configuration.
type Storage struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker
	Kind   string
	close  func() error
}

// Close releases the backing connection, if any.
func (s *Storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStorage picks Redis when an address is configured, a session
// directory when one is set, and memory otherwise. A session key wraps the
// store with encryption at rest.
func OpenStorage(cfg config.Config) (*Storage, error) {
	var storage *Storage
	switch {
	case cfg.RedisAddr != "":
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithTTL(cfg.SessionTTL))
		storage = &Storage{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), redis.DefaultPrefix),
			Kind:   "redis",
			close:  store.Close,
		}
	case cfg.SessionDir != "":
		storage = &Storage{Store: file.New(cfg.SessionDir), Kind: "file"}
	default:
		storage = &Storage{Store: memory.NewStore(), Kind: "memory"}
	}

	if cfg.SessionKey == "" {
		return storage, nil
	}
	keys, err := middleware.ParseKeys(cfg.SessionKey)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("SEEDBED_SESSION_KEY: %w", err)
	}
	mw, err := middleware.NewEncryptionMiddleware(keys)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("SEEDBED_SESSION_KEY: %w", err)
	}
	storage.Store = middleware.Chain(storage.Store, mw)
	storage.Kind += "+encrypted"
	return storage, nil
}

// EngineOptions are the per-invocation settings layered over Config.
type EngineOptions struct {
	Seed  int64
	Scope string
	Vars  map[string]any
	Debug bool
	Hooks domain.LifecycleHooks
}

// createEngine initializes a seedbed engine with standard CLI conventions.
// Flag values win over the environment.
func createEngine(cfg config.Config, storage *Storage, opts EngineOptions, logger *slog.Logger) (*seedbed.Engine, error) {
	seed := cfg.Seed
	if opts.Seed != 0 {
		seed = opts.Seed
	}
	scope := cfg.Scope()
	if opts.Scope != "" {
		s, err := domain.ParseJustOnceScope(opts.Scope)
		if err != nil {
			return nil, err
		}
		scope = s
	}

	engineOpts := []seedbed.Option{
		seedbed.WithLogger(logger),
		seedbed.WithSessionStore(storage.Store),
		seedbed.WithSeed(seed),
		seedbed.WithJustOnceScope(scope),
		seedbed.WithVars(opts.Vars),
		seedbed.WithLifecycleHooks(opts.Hooks),
	}
	if storage.Locker != nil {
		engineOpts = append(engineOpts, seedbed.WithLocker(storage.Locker))
	}
	if opts.Debug {
		engineOpts = append(engineOpts, seedbed.WithLifecycleHooks(observability.AuditHooks(logger)))
	}

	engine, err := seedbed.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
