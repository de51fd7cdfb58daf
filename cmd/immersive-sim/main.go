// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command immersive-sim drives one playback session headlessly: it opens a
// source on the stub media engine, runs the scene loop against a synthetic
// head pose and prints a JSON report.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManuGH/openimmersive/internal/bus"
	"github.com/ManuGH/openimmersive/internal/config"
	"github.com/ManuGH/openimmersive/internal/engine"
	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/ManuGH/openimmersive/internal/log"
	"github.com/ManuGH/openimmersive/internal/media/stub"
	"github.com/ManuGH/openimmersive/internal/playback"
	"github.com/ManuGH/openimmersive/internal/stream"
	"github.com/ManuGH/openimmersive/internal/telemetry"
	"github.com/ManuGH/openimmersive/internal/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

// metricsHandler serves the Prometheus registry behind OpenTelemetry HTTP
// instrumentation.
func metricsHandler() http.Handler {
	return otelhttp.NewHandler(promhttp.Handler(), "metrics")
}

// options holds command-line flags.
type options struct {
	ConfigPath  string
	URL         string
	FieldOfView float64
	Force       bool
	Ticks       int
	MetricsAddr string
	Version     bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("immersive-sim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.ConfigPath, "config", "", "path to config file (YAML)")
	fs.StringVar(&o.URL, "url", "", "source URL or open-stream deep link (default: sample stream)")
	fs.Float64Var(&o.FieldOfView, "fov", 0, "request an equirectangular projection with this field of view")
	fs.BoolVar(&o.Force, "force", false, "force -fov over the field of view reported by the media")
	fs.IntVar(&o.Ticks, "ticks", 90, "scene ticks to play before stopping")
	fs.StringVar(&o.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	fs.BoolVar(&o.Version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.Ticks < 1 {
		return o, fmt.Errorf("-ticks must be positive, got %d", o.Ticks)
	}
	return o, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	if opts.Version {
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	}

	loader := config.NewLoader(opts.ConfigPath)
	cfg, err := loader.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	logCfg := cfg.Logging()
	logCfg.Output = zerolog.SyncWriter(stderr)
	logCfg.Version = version.Version
	log.Configure(logCfg)
	logger := log.WithComponent("sim")

	d, err := descriptor(opts)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "source: %v\n", err)
		return 1
	}

	tcfg := cfg.Telemetry
	tcfg.ServiceVersion = version.Version
	tp, err := telemetry.NewProvider(ctx, tcfg)
	if err != nil {
		logger.Warn().Err(err).Str(log.FieldEvent, "sim.telemetry_disabled").Msg("tracing unavailable")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	holder := config.NewHolder(cfg, loader)
	if err := holder.StartWatcher(gctx); err != nil {
		logger.Warn().Err(err).Str(log.FieldEvent, "sim.watcher_failed").Msg("config hot reload unavailable")
	}
	defer holder.Stop()
	reloads := make(chan config.Config, 1)
	holder.RegisterListener(reloads)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case next := <-reloads:
				if err := log.SetLevel(next.Log.Level); err != nil {
					logger.Warn().Err(err).Msg("ignoring log level from reload")
				}
			}
		}
	})

	if opts.MetricsAddr != "" {
		srv := &http.Server{Addr: opts.MetricsAddr, Handler: metricsHandler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	media := stub.New()
	eng := engine.New(cfg.Engine(), media, newOrbit(time.Now(), cfg.Scene.AnchorHeight))
	g.Go(func() error { return eng.Run(gctx) })

	report, simErr := simulate(gctx, eng, media, d, opts.Ticks, cfg.Loop.TickInterval)
	cancel()
	if err := g.Wait(); err != nil && simErr == nil {
		simErr = err
	}
	eng.Close()
	report.FinalState = string(eng.State())

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		_, _ = fmt.Fprintf(stderr, "report: %v\n", err)
		return 1
	}
	if simErr != nil {
		logger.Error().Err(simErr).Str(log.FieldEvent, "sim.failed").Msg("simulation failed")
		return 1
	}
	return 0
}

// descriptor builds the source from flags the way the host collaborators do.
func descriptor(o options) (stream.Descriptor, error) {
	var (
		d   stream.Descriptor
		err error
	)
	switch {
	case o.URL == "":
		d = stream.SampleStream()
	case isDeepLink(o.URL):
		d, err = stream.ParseDeepLink(o.URL)
	default:
		d, err = stream.FromURL(o.URL, "", "")
	}
	if err != nil {
		return d, err
	}
	if o.FieldOfView != 0 {
		d = d.WithProjection(stream.Equirectangular{FieldOfViewDegrees: o.FieldOfView, ForceField: o.Force})
	}
	return d, nil
}

func isDeepLink(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Host == stream.DeepLinkHost || u.Opaque == stream.DeepLinkHost
}

// simulate plays d for ticks scene ticks and tears the session down.
func simulate(ctx context.Context, eng *engine.Engine, media *stub.Engine, d stream.Descriptor, ticks int, interval time.Duration) (Report, error) {
	r := Report{
		Title:     d.Title,
		Source:    d.ID(),
		StartedAt: time.Now(),
	}
	sub, err := eng.Subscribe(ctx, playback.TopicState)
	if err != nil {
		return r, err
	}
	defer func() { _ = sub.Close() }()

	if err := eng.OpenSession(ctx, d); err != nil {
		r.Error = err.Error()
		r.Reason = playback.ReasonFor(err)
		return r, err
	}

	if err := waitSettled(ctx, sub, &r); err != nil {
		return r, err
	}
	if eng.State() != playback.StatePlaying {
		r.Error = errString(eng.LastError())
		r.Reason = playback.ReasonFor(eng.LastError())
		return r, nil
	}

	res, err := eng.Resolved(ctx)
	if err != nil {
		return r, err
	}
	r.Projection = &ProjectionReport{
		Kind:       string(res.Kind),
		Degrees:    res.Degrees,
		Horizontal: res.HorizontalExtentRadians,
		Vertical:   res.VerticalExtentRadians,
		Layout:     string(res.Layout),
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return r, ctx.Err()
		case <-ticker.C:
		}
		if m := media.Last(); m != nil {
			m.Advance(interval)
		}
	}

	anchor, err := eng.AnchorPosition(ctx)
	if err != nil {
		return r, err
	}
	r.Anchor = anchor
	target, err := eng.Tap(ctx, geom.Ray{Origin: anchor, Direction: geom.V3(0, 0, -1)})
	if err != nil {
		return r, err
	}
	r.TapTarget = string(target)
	r.PanelVisible = eng.PanelVisible()
	r.SceneNodes = eng.SceneNodes()

	// Progress is applied on the loop; give the last report a tick to land.
	deadline := time.Now().Add(time.Second)
	want := playback.At(time.Duration(ticks) * interval).String()
	for eng.CurrentTime().String() != want && time.Now().Before(deadline) {
		time.Sleep(interval)
	}
	r.Timecode = eng.CurrentTime().String()

	if err := eng.CloseSession(ctx); err != nil {
		return r, err
	}
	drain(sub, &r)
	r.EndedAt = time.Now()
	return r, nil
}

// waitSettled records transitions until the session plays or stops.
func waitSettled(ctx context.Context, sub bus.Subscriber, r *Report) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-sub.C():
			ev, ok := msg.(playback.StateChanged)
			if !ok {
				continue
			}
			r.Transitions = append(r.Transitions, string(ev.To))
			if ev.To == playback.StatePlaying || ev.To == playback.StateStopped {
				return nil
			}
		}
	}
}
