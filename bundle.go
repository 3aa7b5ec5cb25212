package surveyflow

import (
	"context"
	"log/slog"

	"github.com/petrijr/surveyflow/internal/persistence"
	"github.com/petrijr/surveyflow/internal/session"
	"github.com/petrijr/surveyflow/pkg/api"
)

// SessionBundle wires together a catalog, an engine, a session store and a
// controller sharing one backend.
type SessionBundle struct {
	Catalog    *Catalog
	Engine     *Engine
	Store      *SessionStore
	Controller *Controller
	Metrics    *BasicMetrics

	// persistence is set when the bundle opened the backend itself and
	// must close it.
	persistence *persistence.Persistence
}

// BundleOptions configures NewBundle. Every field is optional.
type BundleOptions struct {
	// Catalog defaults to the embedded catalog.
	Catalog *Catalog
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Observer receives session events in addition to the bundle's logging
	// observer and metrics.
	Observer Observer
	Results  ResultsHandler

	Key           string
	SchemaVersion string
	EngineOptions []EngineOption
}

// NewBundle constructs an engine, store and controller over backend.
//
// Typical usage:
//
//	bundle, err := surveyflow.NewBundle(surveyflow.NewInMemoryBackend(), surveyflow.BundleOptions{
//		Results: surveyflow.ResultsHandlerFunc(recommend),
//	})
//	res, err := bundle.Controller.Start(ctx)
func NewBundle(backend Backend, opts BundleOptions) (*SessionBundle, error) {
	cat := opts.Catalog
	if cat == nil {
		var err error
		if cat, err = DefaultCatalog(); err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	eng, err := NewEngine(cat, opts.EngineOptions...)
	if err != nil {
		return nil, err
	}

	metrics := &api.BasicMetrics{}
	obs := api.NewCompositeObserver(api.NewLoggingObserver(logger), metrics, opts.Observer)

	store := persistence.NewSessionStore(backend,
		persistence.WithKey(opts.Key),
		persistence.WithSchemaVersion(opts.SchemaVersion),
		persistence.WithLogger(logger),
		persistence.WithErrorHandler(obs.OnStorageError),
	)

	ctrl := session.New(eng, store,
		session.WithObserver(obs),
		session.WithResultsHandler(opts.Results),
		session.WithLogger(logger),
	)

	return &SessionBundle{
		Catalog:    cat,
		Engine:     eng,
		Store:      store,
		Controller: ctrl,
		Metrics:    metrics,
	}, nil
}

// OpenBundle opens the backend described by cfg and builds a bundle on it.
// The catalog is loaded from cfg.Catalog.Path unless opts.Catalog is set.
// Close releases the backend.
func OpenBundle(ctx context.Context, cfg *Config, opts BundleOptions) (*SessionBundle, error) {
	if opts.Catalog == nil && cfg.Catalog.Path != "" {
		cat, err := LoadCatalogFile(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		opts.Catalog = cat
	}
	if opts.Key == "" {
		opts.Key = cfg.Storage.Key
	}
	if opts.SchemaVersion == "" {
		opts.SchemaVersion = cfg.Schema.Version
	}

	p, err := persistence.Open(ctx, cfg.Storage.PersistenceOptions())
	if err != nil {
		return nil, err
	}

	b, err := NewBundle(p.Backend, opts)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	b.persistence = p
	return b, nil
}

// Close releases resources opened by OpenBundle. It is a no-op for bundles
// built with NewBundle.
func (b *SessionBundle) Close() error {
	return b.persistence.Close()
}
