package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docpipe/internal/artifact"
	"git.home.luguber.info/inful/docpipe/internal/config"
	"git.home.luguber.info/inful/docpipe/internal/events"
	"git.home.luguber.info/inful/docpipe/internal/extract"
	"git.home.luguber.info/inful/docpipe/internal/git"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"git.home.luguber.info/inful/docpipe/internal/metrics"
	"git.home.luguber.info/inful/docpipe/internal/provision"
	"git.home.luguber.info/inful/docpipe/internal/publish"
	"git.home.luguber.info/inful/docpipe/internal/render"
	"git.home.luguber.info/inful/docpipe/internal/runstore"
	"git.home.luguber.info/inful/docpipe/internal/workspace"
)

// Stage names as they appear in reports, metrics, and the run store.
const (
	StageCheckout  = "checkout"
	StageProvision = "provision"
	StageExtract   = "extract"
	StageRender    = "render"
	StageArtifact  = "artifact"
	StagePublish   = "publish"
)

// Runner executes full pipeline runs.
type Runner struct {
	cfg       *config.Config
	recorder  metrics.Recorder
	store     *runstore.Store   // optional
	bus       *events.Publisher // optional, nil-safe
	installer provision.Runner  // overridable for tests
	baseDir   string            // workspace base, os.TempDir() when empty

	// skipProvision disables the provision stage for runs that reuse an
	// already provisioned environment.
	skipProvision bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(rn *Runner) { rn.recorder = r } }

// WithStore injects the run store.
func WithStore(s *runstore.Store) Option { return func(rn *Runner) { rn.store = s } }

// WithEventBus injects the run event publisher.
func WithEventBus(b *events.Publisher) Option { return func(rn *Runner) { rn.bus = b } }

// WithInstallRunner overrides the command runner used by the provisioner.
func WithInstallRunner(r provision.Runner) Option { return func(rn *Runner) { rn.installer = r } }

// WithWorkspaceBase sets the directory workspaces are created under.
func WithWorkspaceBase(dir string) Option { return func(rn *Runner) { rn.baseDir = dir } }

// WithoutProvision skips the environment provisioning stage.
func WithoutProvision() Option { return func(rn *Runner) { rn.skipProvision = true } }

// NewRunner creates a pipeline runner.
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute performs one full run. The returned report is always non-nil; the
// error is the first fatal stage error, if any.
func (r *Runner) Execute(ctx context.Context, trigger Trigger) (*Report, error) {
	runID := uuid.NewString()
	slog.Info("Run started", logfields.RunID(runID), logfields.Branch(trigger.Branch))

	r.recorder.RunStarted(trigger.Branch)
	if r.store != nil {
		if err := r.store.BeginRun(ctx, runID, trigger.Branch, trigger.Revision); err != nil {
			slog.Warn("Failed to record run start", logfields.Error(err))
		}
	}
	r.bus.Publish(events.Event{Type: events.TypeRunStarted, RunID: runID, Branch: trigger.Branch})

	ws := workspace.NewManager(r.baseDir)
	if err := ws.Create(); err != nil {
		err = fmt.Errorf("failed to create workspace: %w", err)
		rs := newRunState(runID, trigger, nil)
		rs.Report.Errors = append(rs.Report.Errors, err)
		rs.Report.Finished = time.Now()
		r.finishRun(ctx, rs, "failed")
		slog.Error("Run failed", logfields.RunID(runID), logfields.Error(err))
		return rs.Report, err
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup workspace", logfields.Error(err))
		}
	}()

	rs := newRunState(runID, trigger, ws)
	stages := r.stages()

	err := runStages(ctx, rs, stages, func(stage, outcome string, duration time.Duration, stageErr error) {
		r.recorder.StageCompleted(stage, outcome, duration)
		detail := ""
		if stageErr != nil {
			detail = stageErr.Error()
		}
		if r.store != nil {
			if serr := r.store.AppendStageEvent(ctx, runID, stage, outcome, duration, detail); serr != nil {
				slog.Warn("Failed to record stage event", logfields.Error(serr))
			}
		}
		r.bus.Publish(events.Event{
			Type: events.TypeStageCompleted, RunID: runID,
			Stage: stage, Outcome: outcome, Detail: detail,
		})
	})

	rs.Report.Finished = time.Now()
	result := "success"
	if err != nil {
		result = "failed"
	}
	r.finishRun(ctx, rs, result)

	if err != nil {
		slog.Error("Run failed", logfields.RunID(runID), logfields.Error(err))
		return rs.Report, err
	}
	slog.Info("Run complete",
		logfields.RunID(runID),
		logfields.Revision(shortRevision(rs.Report.Revision)),
		logfields.Outcome(string(rs.Report.PublishOutcome)),
		slog.Int("modules", rs.Report.Modules),
		slog.Int("pages", rs.Report.Pages))
	return rs.Report, nil
}

func (r *Runner) finishRun(ctx context.Context, rs *RunState, result string) {
	r.recorder.RunCompleted(result, rs.Report.Finished.Sub(rs.Report.Started))
	if r.store != nil {
		if err := r.store.FinishRun(ctx, rs.RunID, result, rs.Report.Revision); err != nil {
			slog.Warn("Failed to record run finish", logfields.Error(err))
		}
	}
	r.bus.Publish(events.Event{
		Type: events.TypeRunCompleted, RunID: rs.RunID,
		Branch: rs.Trigger.Branch, Revision: rs.Report.Revision, Outcome: result,
	})
}

func (r *Runner) stages() []namedStage {
	stages := []namedStage{{StageCheckout, r.stageCheckout}}
	if !r.skipProvision {
		stages = append(stages, namedStage{StageProvision, r.stageProvision})
	}
	return append(stages,
		namedStage{StageExtract, r.stageExtract},
		namedStage{StageRender, r.stageRender},
		namedStage{StageArtifact, r.stageArtifact},
		namedStage{StagePublish, r.stagePublish},
	)
}

func (r *Runner) stageCheckout(_ context.Context, rs *RunState) error {
	dir, err := rs.Workspace.Subdir(workspace.SourceDir)
	if err != nil {
		return newFatalStageError(StageCheckout, err)
	}
	revision, err := git.CheckoutSource(dir, git.Checkout{
		URL:      r.cfg.Source.URL,
		Branch:   rs.Trigger.Branch,
		Revision: rs.Trigger.Revision,
		Auth:     r.cfg.Source.Auth,
	})
	if err != nil {
		return newFatalStageError(StageCheckout, err)
	}
	rs.CheckoutDir = dir
	rs.Report.Revision = revision
	return nil
}

func (r *Runner) stageProvision(ctx context.Context, rs *RunState) error {
	provisioner := provision.NewProvisioner(r.cfg.Environment.Installer, r.installer)
	count, err := provisioner.Provision(ctx, rs.CheckoutDir, r.cfg.Environment.Manifest)
	if err != nil {
		return newFatalStageError(StageProvision, err)
	}
	rs.Report.Requirements = count
	return nil
}

func (r *Runner) stageExtract(_ context.Context, rs *RunState) error {
	packageRoot := filepath.Join(rs.CheckoutDir, r.cfg.Source.Package)
	modules, err := extract.NewScanner(r.cfg.Extract.Exclude).Scan(packageRoot)
	if err != nil {
		return newFatalStageError(StageExtract, err)
	}

	docsrcDir := filepath.Join(rs.Workspace.Path(), workspace.DocSrcDir)
	if _, err := extract.WriteDocSources(docsrcDir, modules); err != nil {
		return newFatalStageError(StageExtract, err)
	}

	rs.Modules = modules
	rs.DocSrcDir = docsrcDir
	rs.Report.Modules = len(modules)
	return nil
}

func (r *Runner) stageRender(_ context.Context, rs *RunState) error {
	siteDir := filepath.Join(rs.Workspace.Path(), workspace.SiteDir)
	renderer := render.NewRenderer(r.cfg.Render.Title, r.cfg.Render.BaseURL)
	pages, err := renderer.RenderSite(rs.DocSrcDir, siteDir)
	if err != nil {
		return newFatalStageError(StageRender, err)
	}
	rs.SiteDir = siteDir
	rs.Report.Pages = pages
	return nil
}

// stageArtifact uploads the rendered site. Upload problems degrade
// auditability, not correctness, so they surface as warnings.
func (r *Runner) stageArtifact(ctx context.Context, rs *RunState) error {
	// Avoid wrapping a nil *runstore.Store in the Recorder interface: the
	// resulting non-nil interface would defeat the store's nil check.
	var rec artifact.Recorder
	if r.store != nil {
		rec = r.store
	}
	store := artifact.NewStore(r.cfg.Artifact.Directory, r.cfg.Artifact.Name, rec)
	path, err := store.Upload(ctx, rs.RunID, rs.SiteDir)
	if err != nil {
		return newWarnStageError(StageArtifact, fmt.Errorf("artifact upload: %w", err))
	}
	rs.Report.ArtifactPath = path
	return nil
}

func (r *Runner) stagePublish(_ context.Context, rs *RunState) error {
	dir, err := rs.Workspace.Subdir(workspace.PublishDir)
	if err != nil {
		return newFatalStageError(StagePublish, err)
	}
	publisher := publish.NewPublisher(r.cfg.Publish)
	outcome, err := publisher.Publish(dir, rs.SiteDir, rs.RunID)
	if err != nil {
		return newFatalStageError(StagePublish, err)
	}
	rs.Report.PublishOutcome = outcome
	r.recorder.PublishOutcome(string(outcome))
	return nil
}

func shortRevision(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}
