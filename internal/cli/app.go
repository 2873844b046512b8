package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/mpylon/internal/adapters/otel"
	"github.com/emiliopalmerini/mpylon/internal/adapters/prometheus"
	"github.com/emiliopalmerini/mpylon/internal/adapters/schema"
	"github.com/emiliopalmerini/mpylon/internal/adapters/storage"
	"github.com/emiliopalmerini/mpylon/internal/adapters/turso"
	"github.com/emiliopalmerini/mpylon/internal/infrastructure/config"
	"github.com/emiliopalmerini/mpylon/internal/ports"
	"github.com/emiliopalmerini/mpylon/internal/pylon"
)

var errNoDatabase = errors.New("no database configured: set MPYLON_DATABASE_URL")

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	Config      *config.Config
	Logger      logrus.FieldLogger
	DB          *sql.DB
	Schemas     ports.SchemaProvider
	SchemaRepo  ports.SchemaRepository
	DispatchLog ports.DispatchLogRepository
	Results     ports.ResultStorage
	Observer    ports.RequestObserver
	Client      *pylon.Client
}

// NewAppContext creates an AppContext with all dependencies initialized.
// Optional backends that are not configured are left nil.
func NewAppContext(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*AppContext, error) {
	a := &AppContext{Config: cfg, Logger: logger}

	dbCfg, err := turso.LoadConfig()
	if err != nil {
		return nil, err
	}
	if dbCfg.Enabled() {
		db, err := turso.NewDB(dbCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repos := turso.NewRepositories(db)
		a.DB = db
		a.SchemaRepo = repos.Schemas
		a.DispatchLog = repos.DispatchLog
	}

	switch {
	case cfg.SchemaFile != "":
		doc, err := schema.LoadFile(cfg.SchemaFile)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		a.Schemas = schema.NewProvider(doc)
	case a.SchemaRepo != nil:
		a.Schemas = a.SchemaRepo
	}

	results, err := storage.NewResultStorage()
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("failed to initialize result storage: %w", err)
	}
	a.Results = results

	a.Observer = newObserver(ctx, logger)

	opts := []pylon.Option{
		pylon.WithRequestObserver(a.Observer),
		pylon.WithClientLogger(logger),
	}
	if a.DispatchLog != nil {
		opts = append(opts, pylon.WithDispatchLog(a.DispatchLog))
	}
	a.Client = pylon.NewClient(cfg.ClientConfig(), opts...)

	return a, nil
}

// newObserver combines every enabled observer. Backends that fail to start
// are logged and skipped.
func newObserver(ctx context.Context, logger logrus.FieldLogger) ports.RequestObserver {
	var observers ports.MultiObserver

	if otelCfg, err := otel.LoadConfig(); err != nil {
		logger.WithError(err).Warn("otel observer disabled")
	} else if otelCfg.Enabled {
		obs, err := otel.NewObserver(ctx, otelCfg)
		if err != nil {
			logger.WithError(err).Warn("otel observer disabled")
		} else {
			observers = append(observers, obs)
		}
	}

	if promCfg, err := prometheus.LoadConfig(); err != nil {
		logger.WithError(err).Warn("prometheus observer disabled")
	} else if promCfg.Enabled {
		obs, err := prometheus.NewObserver(promCfg)
		if err != nil {
			logger.WithError(err).Warn("prometheus observer disabled")
		} else {
			observers = append(observers, obs)
		}
	}

	if len(observers) == 0 {
		return otel.NewNoOpObserver()
	}
	return observers
}

// RequireSchemas fails when no schema source is configured.
func (a *AppContext) RequireSchemas() error {
	if a.Schemas == nil {
		return errors.New("no schema configured: set MPYLON_SCHEMA_FILE or MPYLON_DATABASE_URL")
	}
	return nil
}

// Close releases all resources held by the AppContext.
func (a *AppContext) Close(ctx context.Context) error {
	var errs []error
	if a.Observer != nil {
		if err := a.Observer.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("closing observer: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// withApp runs fn with a fresh AppContext and closes it afterwards.
func withApp(ctx context.Context, st *state, fn func(*AppContext) error) (err error) {
	app, err := NewAppContext(ctx, st.cfg, st.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(ctx); cerr != nil {
			st.logger.WithError(cerr).Warn("failed to release resources")
		}
	}()
	return fn(app)
}
