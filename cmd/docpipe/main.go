package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/docpipe/internal/config"
	"git.home.luguber.info/inful/docpipe/internal/daemon"
	"git.home.luguber.info/inful/docpipe/internal/events"
	"git.home.luguber.info/inful/docpipe/internal/extract"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"git.home.luguber.info/inful/docpipe/internal/metrics"
	"git.home.luguber.info/inful/docpipe/internal/pipeline"
	"git.home.luguber.info/inful/docpipe/internal/publish"
	"git.home.luguber.info/inful/docpipe/internal/render"
	"git.home.luguber.info/inful/docpipe/internal/runstore"
	"git.home.luguber.info/inful/docpipe/internal/workspace"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Run struct {
		Branch        string `short:"b" help:"Branch to build" default:"master"`
		Revision      string `short:"r" help:"Specific commit to build (defaults to branch tip)"`
		SkipProvision bool   `help:"Reuse the existing runtime environment instead of provisioning"`
	} `cmd:"" help:"Run the full build-and-publish pipeline once"`

	Extract struct {
		Source string `short:"s" help:"Path to an existing source checkout" required:""`
		Output string `short:"o" help:"Output directory for doc sources" default:"./docsrc"`
	} `cmd:"" help:"Extract documentation sources from a local checkout"`

	Render struct {
		Input  string `short:"i" help:"Directory of extracted doc sources" default:"./docsrc"`
		Output string `short:"o" help:"Output directory for the rendered site" default:"./site"`
	} `cmd:"" help:"Render extracted doc sources into an HTML site"`

	Publish struct {
		Site string `short:"s" help:"Directory of the rendered site" default:"./site"`
	} `cmd:"" help:"Publish a rendered site to the publication branch"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Daemon struct {
	} `cmd:"" help:"Start daemon mode for continuous documentation publishing"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	var err error
	switch ctx.Command() {
	case "run":
		err = withConfig(runOnce)
	case "extract":
		err = withConfig(runExtract)
	case "render":
		err = withConfig(runRender)
	case "publish":
		err = withConfig(runPublish)
	case "init":
		err = config.Init(CLI.Config, CLI.Init.Force)
	case "daemon":
		err = withConfig(runDaemon)
	}
	if err != nil {
		slog.Error("Command failed", logfields.Error(err))
		os.Exit(1)
	}
}

func withConfig(fn func(cfg *config.Config) error) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return fn(cfg)
}

func runOnce(cfg *config.Config) error {
	store, err := runstore.New(cfg.Artifact.Database)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer store.Close()

	bus := connectEvents(cfg)
	defer bus.Close()

	opts := []pipeline.Option{
		pipeline.WithStore(store),
		pipeline.WithEventBus(bus),
	}
	if CLI.Run.SkipProvision {
		opts = append(opts, pipeline.WithoutProvision())
	}
	runner := pipeline.NewRunner(cfg, opts...)

	report, err := runner.Execute(context.Background(), pipeline.Trigger{
		Branch:   CLI.Run.Branch,
		Revision: CLI.Run.Revision,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Run %s complete: %d modules, %d pages, publish %s\n",
		report.RunID, report.Modules, report.Pages, report.PublishOutcome)
	return nil
}

func runExtract(cfg *config.Config) error {
	packageRoot := filepath.Join(CLI.Extract.Source, cfg.Source.Package)
	modules, err := extract.NewScanner(cfg.Extract.Exclude).Scan(packageRoot)
	if err != nil {
		return err
	}

	files, err := extract.WriteDocSources(CLI.Extract.Output, modules)
	if err != nil {
		return err
	}

	slog.Info("Extraction complete",
		slog.Int("modules", len(modules)),
		slog.Int("files", len(files)),
		logfields.Path(CLI.Extract.Output))
	return nil
}

func runRender(cfg *config.Config) error {
	renderer := render.NewRenderer(cfg.Render.Title, cfg.Render.BaseURL)
	pages, err := renderer.RenderSite(CLI.Render.Input, CLI.Render.Output)
	if err != nil {
		return err
	}

	slog.Info("Render complete",
		slog.Int("pages", pages),
		logfields.Path(CLI.Render.Output))
	return nil
}

func runPublish(cfg *config.Config) error {
	ws := workspace.NewManager("")
	if err := ws.Create(); err != nil {
		return err
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup workspace", logfields.Error(err))
		}
	}()

	dir, err := ws.Subdir(workspace.PublishDir)
	if err != nil {
		return err
	}

	outcome, err := publish.NewPublisher(cfg.Publish).Publish(dir, CLI.Publish.Site, uuid.NewString())
	if err != nil {
		return err
	}

	slog.Info("Publish complete", logfields.Outcome(string(outcome)))
	return nil
}

func runDaemon(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := runstore.New(cfg.Artifact.Database)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer store.Close()

	bus := connectEvents(cfg)
	defer bus.Close()

	recorder := metrics.NewPrometheusRecorder()
	factory := func(cfg *config.Config) daemon.Executor {
		return pipeline.NewRunner(cfg,
			pipeline.WithRecorder(recorder),
			pipeline.WithStore(store),
			pipeline.WithEventBus(bus),
		)
	}

	d := daemon.New(cfg, CLI.Config, factory).WithMetricsHandler(recorder.Handler())

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("daemon error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := d.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	return nil
}

// connectEvents returns a nil publisher when NATS is not configured; the
// publisher is nil-safe so callers never have to check.
func connectEvents(cfg *config.Config) *events.Publisher {
	if cfg.Events.NATSURL == "" {
		return nil
	}
	bus, err := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject)
	if err != nil {
		slog.Warn("Failed to connect to NATS, run events disabled", logfields.Error(err))
		return nil
	}
	return bus
}
