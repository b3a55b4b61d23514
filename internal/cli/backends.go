package cli

import (
	"context"
	"fmt"
	"path/filepath"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/adapters/s3store"
	"github.com/aretw0/arbor/pkg/adapters/sqlite"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
)

// backends is the storage selected by configuration.
type backends struct {
	objects  ports.ObjectStore
	cache    ports.Cache
	sessions ports.StateStore
	locker   ports.DistributedLocker
	watcher  ports.Watcher
	closers  []func() error

	redisClient *goredis.Client
	sqliteDB    *sqlite.DB
}

func (b *backends) close() error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	b.closers = nil
	return first
}

func (b *backends) redisConn(cfg *config.Config) *goredis.Client {
	if b.redisClient == nil {
		b.redisClient = redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		b.closers = append(b.closers, b.redisClient.Close)
	}
	return b.redisClient
}

func (b *backends) sqliteConn(cfg *config.Config) (*sqlite.DB, error) {
	if b.sqliteDB == nil {
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		b.sqliteDB = db
		b.closers = append(b.closers, db.Close)
	}
	return b.sqliteDB, nil
}

// openBackends builds the document store, last-viewed cache, session store
// and, for redis sessions, the distributed locker.
func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{}
	if err := b.openDocuments(ctx, cfg); err != nil {
		b.close()
		return nil, err
	}
	if err := b.openSessions(cfg); err != nil {
		b.close()
		return nil, err
	}
	return b, nil
}

func (b *backends) openDocuments(ctx context.Context, cfg *config.Config) error {
	dir := cfg.Storage.Dir
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		b.objects = memory.NewObjectStore()
		b.cache = memory.NewCache()
	case config.BackendFile:
		objects := file.NewObjectStore(filepath.Join(dir, "documents"))
		b.objects = objects
		b.watcher = objects
		b.cache = file.NewCache(filepath.Join(dir, "cache"))
	case config.BackendRedis:
		client := b.redisConn(cfg)
		b.objects = redis.NewObjectStore(client, redis.WithPrefix(cfg.Redis.Prefix))
		b.cache = redis.NewCache(client, redis.WithPrefix(cfg.Redis.Prefix))
	case config.BackendS3:
		objects, err := s3store.New(ctx, s3store.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		})
		if err != nil {
			return err
		}
		b.objects = objects
		b.cache = file.NewCache(filepath.Join(dir, "cache"))
	case config.BackendSQLite:
		db, err := b.sqliteConn(cfg)
		if err != nil {
			return err
		}
		b.objects = sqlite.NewObjectStore(db)
		b.cache = file.NewCache(filepath.Join(dir, "cache"))
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return nil
}

func (b *backends) openSessions(cfg *config.Config) error {
	var store ports.StateStore
	switch backend := cfg.SessionBackend(); backend {
	case config.BackendMemory:
		store = memory.NewStore()
	case config.BackendFile:
		store = file.New(filepath.Join(cfg.Storage.Dir, "sessions"))
	case config.BackendRedis:
		client := b.redisConn(cfg)
		store = redis.NewStore(client, redis.WithPrefix(cfg.Redis.Prefix), redis.WithTTL(cfg.Redis.SessionTTL))
		b.locker = redis.NewLocker(client, redis.WithPrefix(cfg.Redis.Prefix))
	case config.BackendSQLite:
		db, err := b.sqliteConn(cfg)
		if err != nil {
			return err
		}
		store = sqlite.NewSessionStore(db)
	default:
		return fmt.Errorf("unsupported session backend %q", backend)
	}

	mws, err := sessionMiddleware(cfg.Sessions)
	if err != nil {
		return err
	}
	b.sessions = middleware.Chain(store, mws...)
	return nil
}

// sessionMiddleware redacts before it encrypts, so patterns match plaintext.
func sessionMiddleware(cfg config.SessionsConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mw, err := middleware.NewRedactionMiddleware(cfg.Redact)
		if err != nil {
			return nil, fmt.Errorf("sessions.redact: %w", err)
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != "" {
		active, err := middleware.DecodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("sessions.encryption_key: %w", err)
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range cfg.FallbackKeys {
			key, err := middleware.DecodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("sessions.fallback_keys[%d]: %w", i, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}
