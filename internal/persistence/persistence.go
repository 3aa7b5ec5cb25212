package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	_ "modernc.org/sqlite"
)

// Backend kinds accepted by Open.
const (
	KindMemory   = "memory"
	KindFile     = "file"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindRedis    = "redis"
	KindMongo    = "mongo"
	KindBadger   = "badger"
)

// Kinds lists every backend kind Open understands.
var Kinds = []string{KindMemory, KindFile, KindSQLite, KindPostgres, KindRedis, KindMongo, KindBadger}

// Options selects and configures a backend for Open.
type Options struct {
	Kind string
	// Path is the directory for file and badger backends and the database
	// file for sqlite. An empty path gives in-memory sqlite and badger.
	Path      string
	DSN       string
	RedisAddr string
	MongoURI  string
	// Retry wraps remote backends (postgres, redis, mongo) in a
	// RetryingBackend when MaxAttempts > 1.
	Retry RetryPolicy
}

// Persistence bundles an opened Backend with the resources behind it.
type Persistence struct {
	Kind    string
	Backend Backend
	closers []func() error
}

// Close releases the underlying connections. It is safe to call on a nil
// Persistence.
func (p *Persistence) Close() error {
	if p == nil {
		return nil
	}
	var first error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	p.closers = nil
	return first
}

// Open connects the backend described by opts.
func Open(ctx context.Context, opts Options) (*Persistence, error) {
	p := &Persistence{Kind: opts.Kind}
	remote := false

	switch opts.Kind {
	case "", KindMemory:
		p.Kind = KindMemory
		p.Backend = NewInMemoryBackend()

	case KindFile:
		b, err := NewFileBackend(opts.Path)
		if err != nil {
			return nil, err
		}
		p.Backend = b

	case KindSQLite:
		dsn := opts.Path
		if dsn == "" {
			dsn = ":memory:"
		}
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// A single connection keeps :memory: databases shared and serializes writers.
		db.SetMaxOpenConns(1)
		p.closers = append(p.closers, db.Close)
		b, err := NewSQLiteBackend(db)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		p.Backend = b

	case KindPostgres:
		db, err := sql.Open("pgx", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		p.closers = append(p.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		b, err := NewPostgresBackend(db)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		p.Backend = b
		remote = true

	case KindRedis:
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		p.closers = append(p.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		p.Backend = NewRedisBackend(client, "")
		remote = true

	case KindMongo:
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(cctx, options.Client().ApplyURI(opts.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		p.closers = append(p.closers, func() error {
			return client.Disconnect(context.Background())
		})
		if err := client.Ping(cctx, nil); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		p.Backend = NewMongoBackend(client, "", "")
		remote = true

	case KindBadger:
		db, err := OpenBadger(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("open badger: %w", err)
		}
		p.closers = append(p.closers, db.Close)
		p.Backend = NewBadgerBackend(db, "")

	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Kind)
	}

	if remote && opts.Retry.MaxAttempts > 1 {
		p.Backend = NewRetryingBackend(p.Backend, opts.Retry)
	}
	return p, nil
}
