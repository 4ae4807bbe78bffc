package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/config"
	"github.com/roach88/structure/internal/logging"
	"github.com/roach88/structure/internal/store"
	"github.com/roach88/structure/internal/structure"
	"github.com/roach88/structure/internal/telemetry"
	"github.com/roach88/structure/internal/validate"
)

const serviceName = "structure"

// session is the per-command runtime: config, logger, telemetry and an open
// store. Registry is nil unless the schema was provisioned.
type session struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *store.Store
	registry  *structure.Registry
	telemetry *telemetry.Providers
	logCloser io.Closer
}

// loadConfig reads the config file and environment, then applies the
// --driver, --db and --verbose overrides.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.Driver != "" {
		cfg.Storage.Driver = o.Driver
	}
	if o.DB != "" {
		cfg.Storage.DSN = o.DB
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openSession connects to the configured store. With provision set it also
// runs the schema initializer and loads a registry snapshot.
//
// Errors are already reported through out; callers return them as-is.
func (o *RootOptions) openSession(cmd *cobra.Command, out *OutputFormatter, provision bool) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := o.loadConfig()
	if err != nil {
		return nil, out.Usage("invalid configuration", err)
	}

	logger, logCloser, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, out.Usage("failed to set up logging", err)
	}
	s := &session{cfg: cfg, logger: logger, logCloser: logCloser}

	s.telemetry, err = telemetry.Init(ctx, cfg.Telemetry, serviceName, Version, cmd.ErrOrStderr())
	if err != nil {
		s.close(ctx)
		return nil, out.Usage("failed to set up telemetry", err)
	}

	out.VerboseLog("opening %s store", cfg.Storage.Driver)
	s.store, err = store.Connect(ctx, store.Options{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
		Logger: logger,
	})
	if err != nil {
		s.close(ctx)
		return nil, out.Fail(err)
	}

	if !provision {
		return s, nil
	}

	if err := s.store.Init(ctx); err != nil {
		s.close(ctx)
		return nil, out.Fail(err)
	}

	v, err := validate.New()
	if err != nil {
		s.close(ctx)
		return nil, out.Usage("failed to compile validation schema", err)
	}

	s.registry = structure.New(s.telemetry.Wrap(s.store),
		structure.WithLogger(logger),
		structure.WithPool(backend.NewPool(cfg.Pool.Workers, cfg.Pool.CallTimeout)),
		structure.WithValidator(v),
	)
	if err := s.registry.Refresh(ctx); err != nil {
		s.close(ctx)
		return nil, out.Fail(err)
	}
	return s, nil
}

// close releases everything the session opened. Errors are logged.
func (s *session) close(ctx context.Context) {
	var errs []error
	switch {
	case s.registry != nil:
		errs = append(errs, s.registry.Close())
	case s.store != nil:
		errs = append(errs, s.store.Close())
	}
	if s.telemetry != nil {
		errs = append(errs, s.telemetry.Shutdown(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("error closing session", "error", err)
	}
	if s.logCloser != nil {
		_ = s.logCloser.Close()
	}
}
