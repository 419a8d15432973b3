package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/milk9111/fieldroutes/events"
	"github.com/milk9111/fieldroutes/field"
	"github.com/milk9111/fieldroutes/hub"
	"github.com/milk9111/fieldroutes/logging"
	"github.com/milk9111/fieldroutes/pathfinder"
	"github.com/milk9111/fieldroutes/routing"
	"github.com/milk9111/fieldroutes/scripting"
	"github.com/milk9111/fieldroutes/specs"
	"golang.org/x/sync/errgroup"
)

const (
	statusInterval  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

type config struct {
	field          string
	addr           string
	watch          bool
	logLevel       string
	logFormat      string
	once           bool
	staleRejection bool
}

// service is everything run wires together.
type service struct {
	bus    *events.Bus
	field  *field.Field
	engine *pathfinder.Engine
	coord  *routing.Coordinator
	script *scripting.RerouteScript
	status *events.Queue
	logger logging.Logger

	closers []func()
}

func build(cfg config, logger logging.Logger) (*service, error) {
	spec, err := specs.LoadFieldSpec(cfg.field)
	if err != nil {
		return nil, err
	}

	s := &service{bus: events.NewBus(), status: &events.Queue{}, logger: logger}

	s.field, err = field.New(spec, s.bus, field.WithLogger(logging.With(logger, "component", "field")))
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, s.field.Close)

	engineOpts := []pathfinder.Option{pathfinder.WithLogger(logging.With(logger, "component", "pathfinder"))}
	if spec.Engine.MaxConcurrent > 0 {
		engineOpts = append(engineOpts, pathfinder.WithMaxConcurrent(spec.Engine.MaxConcurrent))
	}
	if spec.Engine.MaxNodes > 0 {
		engineOpts = append(engineOpts, pathfinder.WithMaxNodes(spec.Engine.MaxNodes))
	}
	s.engine = pathfinder.New(s.field.Grid(), engineOpts...)
	s.closers = append(s.closers, func() { _ = s.engine.Close() })

	coordOpts := []routing.Option{
		routing.WithLogger(logging.With(logger, "component", "routing")),
		routing.WithNotifier(routing.BusNotifier{Bus: s.bus}),
		routing.WithActivationGate(),
	}
	if cfg.staleRejection {
		coordOpts = append(coordOpts, routing.WithStaleRejection())
	}
	if spec.RerouteScript != "" {
		s.script, err = scripting.LoadRerouteScript(spec.RerouteScript)
		if err != nil {
			s.close()
			return nil, err
		}
		coordOpts = append(coordOpts, routing.WithRerouteHook(s.script))
	}
	s.coord = routing.NewCoordinator(s.field, s.engine, coordOpts...)
	s.closers = append(s.closers, s.coord.Bind(s.bus))

	for _, k := range []events.Kind{events.KindFieldReady, events.KindFieldReloaded, events.KindPathChanged} {
		s.closers = append(s.closers, s.bus.Subscribe(k, s.status.Push))
	}
	return s, nil
}

// close releases everything in reverse order of construction.
func (s *service) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// activate starts the field and returns a channel closed once every entrance
// has a path.
func (s *service) activate() (<-chan struct{}, error) {
	ready := make(chan struct{})
	start := time.Now()
	err := s.coord.Activate(func() {
		s.bus.Publish(events.Event{Type: events.KindFieldReady, Data: events.FieldReady{
			Entrances: s.field.EntranceCount(),
			Elapsed:   time.Since(start),
		}})
		close(ready)
	})
	if err != nil {
		return nil, err
	}
	return ready, nil
}

func (s *service) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.coord.Close(ctx); err != nil {
		s.logger.Warn("coordinator did not drain", "error", err)
	}
	s.close()
}

func run(ctx context.Context, cfg config, logger logging.Logger, out io.Writer) error {
	s, err := build(cfg, logger)
	if err != nil {
		return err
	}
	defer s.shutdown()

	ready, err := s.activate()
	if err != nil {
		return err
	}

	if cfg.once {
		select {
		case <-ready:
		case <-ctx.Done():
			return ctx.Err()
		}
		return printPaths(out, s.field, s.coord.GetAllPaths())
	}

	h := hub.New(s.coord, hub.WithLogger(logging.With(logger, "component", "hub")))
	unbindHub := h.Bind(s.bus)
	defer unbindHub()

	mux := http.NewServeMux()
	mux.Handle("/paths", h)
	srv := &http.Server{Addr: cfg.addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		h.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		reportStatus(gctx, s.status, statusInterval, logger)
		return nil
	})

	if cfg.watch {
		w, err := s.watcher(cfg.field)
		if err != nil {
			logger.Warn("watch disabled", "error", err)
		} else {
			g.Go(func() error {
				defer w.Close()
				s.watch(gctx, w, cfg.field)
				return nil
			})
		}
	}

	return g.Wait()
}

func (s *service) scriptPath() string {
	if s.script == nil {
		return ""
	}
	if _, ok := specs.ModTime(s.script.Name()); !ok {
		return ""
	}
	return filepath.Clean(s.script.Name())
}

func (s *service) watcher(fieldPath string) (*specs.Watcher, error) {
	if _, ok := specs.ModTime(fieldPath); !ok {
		return nil, fmt.Errorf("field %q is embedded, not a file", fieldPath)
	}
	paths := []string{fieldPath}
	if p := s.scriptPath(); p != "" {
		paths = append(paths, p)
	}
	return specs.NewWatcher(paths...)
}

// watch applies spec and script edits until ctx is done. A bad edit is logged
// and the running version kept.
func (s *service) watch(ctx context.Context, w *specs.Watcher, fieldPath string) {
	fieldPath = filepath.Clean(fieldPath)
	scriptPath := s.scriptPath()
	for {
		select {
		case <-ctx.Done():
			return
		case name, ok := <-w.Events:
			if !ok {
				return
			}
			switch name {
			case fieldPath:
				s.reloadField(name)
			case scriptPath:
				s.reloadScript(name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watch error", "error", err)
		}
	}
}

func (s *service) reloadField(path string) {
	spec, err := specs.LoadFieldSpec(path)
	if err != nil {
		s.logger.Warn("field reload rejected", "path", path, "error", err)
		return
	}
	if _, err := s.field.Apply(spec); err != nil {
		s.logger.Warn("field reload rejected", "path", path, "error", err)
	}
}

func (s *service) reloadScript(path string) {
	src, err := specs.LoadScript(path)
	if err == nil {
		err = s.script.Reload(src)
	}
	if err != nil {
		s.logger.Warn("reroute script reload rejected", "path", path, "error", err)
		return
	}
	s.logger.Info("reroute script reloaded", "path", path)
}

func printPaths(out io.Writer, f *field.Field, paths []routing.Path) error {
	for i, p := range paths {
		if _, err := fmt.Fprintf(out, "%-12s %-12s %d %s\n", f.EntranceName(i), p.Status, p.Len(), p); err != nil {
			return err
		}
	}
	return nil
}
