package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fentz26/labtrack/internal/api"
	"github.com/fentz26/labtrack/internal/audit"
	"github.com/fentz26/labtrack/internal/config"
	"github.com/fentz26/labtrack/internal/logging"
	"github.com/fentz26/labtrack/internal/models"
	"github.com/fentz26/labtrack/internal/reconcile"
	"github.com/fentz26/labtrack/internal/service"
	"github.com/fentz26/labtrack/internal/session"
	"github.com/fentz26/labtrack/internal/store"
	"go.uber.org/zap"
)

// env is everything a command needs, built from config and flags.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *store.Store
	session *session.Session
	client  *api.Client
}

func setup() (*env, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if apiAddr != "" {
		cfg.API.BaseURL = apiAddr
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	s, err := store.New(cfg.Store.Path)
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	return &env{
		cfg:     cfg,
		logger:  logger,
		store:   s,
		session: session.New(s, cfg.Credentials),
		client:  api.NewClient(cfg.API.BaseURL, cfg.API.Timeout),
	}, nil
}

func (rt *env) Close() {
	if err := rt.store.Close(); err != nil {
		rt.logger.Warn("database close error", zap.Error(err))
	}
	rt.logger.Sync()
}

// requireRole fails unless role is signed in on this machine.
func (rt *env) requireRole(role models.Role) error {
	if !rt.session.IsAuthenticated(role) {
		return fmt.Errorf("not signed in as %s; run: labtrack login --role %s", role.Label(), role)
	}
	return nil
}

// reconciler builds a reconciler for role. bell, if set, receives the
// audible cue for newly available results.
func (rt *env) reconciler(role models.Role, bell io.Writer, opts ...reconcile.Option) *reconcile.Reconciler {
	opts = append(opts, reconcile.WithLogger(rt.logger.Named("reconcile")))
	if bell != nil {
		opts = append(opts, reconcile.WithNotifier(reconcile.NewBell(bell)))
	}
	return reconcile.New(rt.client, role, opts...)
}

// loadOnce fetches the collection a single time for one-shot commands.
func (rt *env) loadOnce(ctx context.Context, role models.Role) (*reconcile.Reconciler, error) {
	rec := rt.reconciler(role, nil)
	ctx, cancel := context.WithTimeout(ctx, rt.cfg.API.Timeout+5*time.Second)
	defer cancel()
	if err := rec.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}
	return rec, nil
}

func (rt *env) service(lookup service.Lookup, refresh func(context.Context)) *service.Service {
	return service.New(rt.client, lookup, audit.NewWriter(rt.store), refresh, rt.logger.Named("service"))
}

// claimer is the default name recorded on ED claims.
func (rt *env) claimer() string {
	return rt.cfg.Credentials[models.RoleED].Username
}
