package core

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"time"

	"github.com/Fuabioo/gitdl/internal/errors"
	"github.com/Fuabioo/gitdl/internal/logging"
	"github.com/Fuabioo/gitdl/internal/metrics"
	"github.com/Fuabioo/gitdl/internal/security"
)

// Pipeline turns a project reference into a normalized zip archive and
// removes every artifact it created before Run returns. A Pipeline is safe
// for concurrent use; runs for the same reference serialize on a file lock.
type Pipeline struct {
	layout   Layout
	fetcher  *Fetcher
	resolve  ResolveOptions
	limits   security.Limits
	lockWait time.Duration
	lockPoll time.Duration
	log      *logging.Logger
	recorder metrics.Recorder
}

// Options carries the collaborators of a Pipeline. Zero values get defaults.
type Options struct {
	Logger   *logging.Logger
	Recorder metrics.Recorder
	Fetcher  *Fetcher
}

// RunOptions tunes a single Run.
type RunOptions struct {
	// Progress observes the download body, e.g. for a progress bar.
	Progress ProgressFunc
}

// NewPipeline validates cfg and creates the working root.
func NewPipeline(cfg *Config, opts Options) (*Pipeline, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.CodeConfiguration, "invalid configuration", err)
	}

	layout, err := NewLayout(cfg.WorkDir)
	if err != nil {
		return nil, errors.EnvironmentRestricted("resolving the working directory", err)
	}
	if err := layout.EnsureRoot(); err != nil {
		return nil, err
	}

	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Fetcher == nil {
		opts.Fetcher = NewFetcher(FetcherOptionsFromConfig(cfg))
	}

	return &Pipeline{
		layout:  layout,
		fetcher: opts.Fetcher,
		resolve: ResolveOptions{
			Branch:       cfg.Branch,
			AllowedHosts: cfg.AllowedHosts,
		},
		limits:   cfg.ToSecurityLimits(),
		lockWait: cfg.Lock.Wait,
		lockPoll: cfg.Lock.PollInterval,
		log:      opts.Logger.WithComponent("pipeline"),
		recorder: opts.Recorder,
	}, nil
}

// Layout returns the working layout.
func (p *Pipeline) Layout() Layout {
	return p.layout
}

// Resolve derives the identity of reference with the pipeline's settings.
func (p *Pipeline) Resolve(reference string) (*Identity, error) {
	return Resolve(reference, p.resolve)
}

// Run fetches reference, normalizes and repacks it, and hands the result to
// emit. All artifacts are removed before Run returns, whatever the outcome.
func (p *Pipeline) Run(ctx context.Context, reference string, emit Emitter, opts RunOptions) (err error) {
	start := time.Now()
	log := p.log

	defer func() {
		elapsed := time.Since(start)
		p.recorder.ObserveRunDuration(elapsed)
		p.recorder.IncRunOutcome(outcome(err))
		if err != nil {
			log.Warn().Err(err).Str("code", errors.Code(err)).Dur("elapsed", elapsed).Msg("run failed")
			return
		}
		log.Info().Dur("elapsed", elapsed).Msg("run complete")
	}()

	var id *Identity
	if err := p.timed(metrics.StageResolve, log, func() (err error) {
		id, err = p.Resolve(reference)
		return err
	}); err != nil {
		return err
	}
	log = log.WithProject(id.ProjectName, id.WorkID)

	cleanup := NewCleanupManager(log)
	defer func() {
		_ = p.timed(metrics.StageCleanup, log, cleanup.Execute)
	}()

	if err := p.timed(metrics.StageExists, log, func() error {
		return p.fetcher.Exists(ctx, id)
	}); err != nil {
		return err
	}

	raw := p.layout.RawArchivePath(id.WorkID)
	lock, err := AcquireExclusive(ctx, raw, LockOptions{
		Wait:         p.lockWait,
		PollInterval: p.lockPoll,
		OnWait: func() {
			p.recorder.IncLockWait()
			log.Info().Msg("waiting for identical request in flight")
		},
	})
	if err != nil {
		switch {
		case stderrors.Is(err, ErrLockHeld):
			return errors.Busy(id.ProjectName)
		case ctx.Err() != nil:
			return errors.TransferFailed(id.ProjectName, err)
		default:
			return errors.EnvironmentRestricted("writing to the working directory", err)
		}
	}

	work := p.layout.WorkDir(id.WorkID)
	repacked := p.layout.RepackedArchivePath(id.WorkID)

	// The raw archive is unlinked while still locked so a waiter never
	// locks a file that is about to disappear.
	cleanup.Add("release lock", lock.Release)
	cleanup.Add("remove raw archive", removeFunc(raw))
	cleanup.Add("remove repacked archive", removeFunc(repacked))
	cleanup.Add("remove work dir", removeFunc(work))

	// Leftovers from a crashed run with the same work ID.
	for _, stale := range []string{work, repacked} {
		if _, err := RemovePath(stale); err != nil {
			return errors.EnvironmentRestricted("clearing the working directory", err)
		}
	}

	var downloaded int64
	err = p.timed(metrics.StageDownload, log, func() (err error) {
		downloaded, err = p.fetcher.Download(ctx, id, lock.File(), opts.Progress)
		return err
	})
	p.recorder.AddDownloadedBytes(downloaded)
	if err != nil {
		return err
	}

	if err := os.Mkdir(work, 0o700); err != nil {
		return errors.EnvironmentRestricted("creating the work directory", err)
	}

	if err := p.timed(metrics.StageExtract, log, func() error {
		files, size, err := Extract(raw, work, p.limits)
		if err == nil {
			log.Debug().Int("files", files).Uint64("bytes", size).Msg("archive extracted")
		}
		return err
	}); err != nil {
		return err
	}

	if err := p.timed(metrics.StageNormalize, log, func() error {
		_, err := Normalize(work, id.ProjectName, id.Branch)
		return err
	}); err != nil {
		return err
	}

	if err := p.timed(metrics.StageRepack, log, func() error {
		return Repack(work, repacked)
	}); err != nil {
		return err
	}

	f, err := os.Open(repacked)
	if err != nil {
		return errors.Internal("repacked archive is missing", err)
	}
	cleanup.Add("close repacked archive", f.Close)

	info, err := f.Stat()
	if err != nil {
		return errors.Internal("repacked archive cannot be inspected", err)
	}

	body := &countingReader{r: f}
	err = p.timed(metrics.StageStream, log, func() error {
		return emit(ctx, &Artifact{
			ProjectName: id.ProjectName,
			Size:        info.Size(),
			Body:        body,
		})
	})
	p.recorder.AddStreamedBytes(body.n)
	if err != nil {
		if errors.Code(err) == "" {
			return errors.TransferFailed(id.ProjectName, err)
		}
		return err
	}

	return nil
}

func (p *Pipeline) timed(stage string, log *logging.Logger, fn func() error) error {
	start := time.Now()
	log.Debug().Str("stage", stage).Msg("stage started")
	err := fn()
	elapsed := time.Since(start)
	p.recorder.ObserveStageDuration(stage, elapsed)
	if err == nil {
		log.Debug().Str("stage", stage).Dur("elapsed", elapsed).Msg("stage done")
	}
	return err
}

func removeFunc(path string) func() error {
	return func() error {
		_, err := RemovePath(path)
		return err
	}
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	if code := errors.Code(err); code != "" {
		return code
	}
	return errors.CodeInternal
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.n += int64(n)
	return n, err
}
