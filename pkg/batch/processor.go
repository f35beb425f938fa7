package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jlrickert/cli-toolkit/clock"
	rlog "github.com/jlrickert/renderpath/pkg/log"
	"github.com/jlrickert/renderpath/pkg/pathchain"
	"github.com/jlrickert/renderpath/pkg/store"
	"github.com/jlrickert/renderpath/pkg/version"
)

// ProgressFunc is called before and after each source with the number of
// sources done so far.
type ProgressFunc func(current, total int, message string)

// Stats accumulates over every Process call since the last ResetStats.
type Stats struct {
	Operations int           `json:"total_operations"`
	Succeeded  int           `json:"successful_operations"`
	Failed     int           `json:"failed_operations"`
	Elapsed    time.Duration `json:"total_time"`
}

// SuccessRate is the percentage of successful items across all runs.
func (s Stats) SuccessRate() float64 {
	total := s.Succeeded + s.Failed
	if total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(total) * 100
}

// Average is the mean wall time per run.
func (s Stats) Average() time.Duration {
	if s.Operations == 0 {
		return 0
	}
	return s.Elapsed / time.Duration(s.Operations)
}

// Processor runs batch operations against a store and a version resolver.
type Processor struct {
	store    *store.Store
	resolver *version.Resolver
	base     pathchain.Context
	dirs     version.DirMaker
	logger   *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// Option configures a Processor.
type Option = func(*Processor)

// WithDirMaker sets where output directories are created. The default is the
// resolver's filesystem when it can create directories, otherwise the real
// filesystem.
func WithDirMaker(d version.DirMaker) Option {
	return func(p *Processor) {
		p.dirs = d
	}
}

func WithLogger(lg *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = lg
	}
}

// NewProcessor builds a processor. base seeds the context every source path
// is built with. A nil resolver reads the real filesystem.
func NewProcessor(s *store.Store, resolver *version.Resolver, base pathchain.Context, opts ...Option) *Processor {
	if resolver == nil {
		resolver = version.NewResolver(nil)
	}
	p := &Processor{
		store:    s,
		resolver: resolver,
		base:     base.Clone(),
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o(p)
	}
	if p.dirs == nil {
		if dm, ok := resolver.FS().(version.DirMaker); ok {
			p.dirs = dm
		} else {
			p.dirs = version.OSFS{}
		}
	}
	return p
}

// Stats returns a snapshot of the accumulated counters.
func (p *Processor) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Processor) ResetStats() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = Stats{}
}

// Process runs op over every source. Item failures are recorded on the
// result and never stop the run. progress may be nil.
func (p *Processor) Process(ctx context.Context, op Operation, progress ProgressFunc) *OperationResult {
	lg := rlog.GetLogger(ctx, p.logger)
	clk := clock.ClockFromContext(ctx)
	res := &OperationResult{
		ID:        uuid.NewString(),
		Operation: op,
		Start:     clk.Now(),
	}
	if progress == nil {
		progress = func(int, int, string) {}
	}
	lg.Debug("batch started", "id", res.ID, "type", op.Type, "sources", len(op.Sources))

	switch op.Type {
	case CreateWrite:
		p.createWrite(ctx, op, res, progress)
	case UpdateVersions:
		p.updateVersions(ctx, op, res, progress)
	default:
		p.failAll(op, res, fmt.Errorf("unknown operation type %q", op.Type))
	}

	res.End = clk.Now()
	for _, r := range res.Results {
		if !r.Success {
			lg.Warn("batch item failed", "id", res.ID, "source", r.SourceName, "errors", r.Errors)
		}
	}
	lg.Info("batch complete", "id", res.ID, "type", op.Type,
		"succeeded", res.SuccessCount(), "failed", res.FailedCount())

	p.mu.Lock()
	p.stats.Operations++
	p.stats.Succeeded += res.SuccessCount()
	p.stats.Failed += res.FailedCount()
	p.stats.Elapsed += res.Duration()
	p.mu.Unlock()
	return res
}

func (p *Processor) failAll(op Operation, res *OperationResult, err error) {
	for _, src := range op.Sources {
		r := Result{Source: src, SourceName: src.DisplayName()}
		r.fail(err)
		res.Results = append(res.Results, r)
	}
}

// template returns a function producing the unversioned output path for one
// source, chosen once per run, plus warnings that apply to every item.
func (p *Processor) template(ctx context.Context, op Operation) (func(Source) (string, error), []string, error) {
	format := op.Format
	if format == "" {
		format = pathchain.DefaultFormat
	}
	switch {
	case op.CustomPath != "":
		return func(src Source) (string, error) {
			return strings.ReplaceAll(op.CustomPath, "[read_name]", src.DisplayName()), nil
		}, nil, nil

	case op.PresetName != "":
		if p.store == nil {
			return nil, nil, fmt.Errorf("preset %q: no store configured", op.PresetName)
		}
		resolved, err := p.store.ResolvePreset(ctx, op.PresetName, op.Format)
		if err != nil {
			return nil, nil, err
		}
		var warnings []string
		if len(resolved.Missing) > 0 {
			warnings = append(warnings, fmt.Sprintf("preset %q references unknown tags: %s",
				op.PresetName, strings.Join(resolved.Missing, ", ")))
		}
		return func(src Source) (string, error) {
			c := p.base.Merge(pathchain.ContextFromReadPath(src.Path)).
				With(pathchain.KeyReadName, src.DisplayName())
			return pathchain.Build(resolved.Tags, c, false)
		}, warnings, nil
	}

	project, ok := p.base.Lookup(pathchain.KeyProjectPath)
	if !ok {
		return nil, nil, ErrNoBasePath
	}
	scene, ok := p.base.Lookup(pathchain.KeyScene)
	if !ok || strings.HasPrefix(strings.ToLower(scene), "untitled") {
		scene = "render"
	}
	return func(src Source) (string, error) {
		return fmt.Sprintf("%s/%s_%s_v01.%s.%s",
			strings.TrimRight(project, `/\`), scene, src.DisplayName(), pathchain.DefaultPadding, format), nil
	}, nil, nil
}

func (p *Processor) createWrite(ctx context.Context, op Operation, res *OperationResult, progress ProgressFunc) {
	pathFor, warnings, err := p.template(ctx, op)
	if err != nil {
		p.failAll(op, res, fmt.Errorf("generate base path: %w", err))
		return
	}
	clk := clock.ClockFromContext(ctx)
	claims := NewClaims()
	total := len(op.Sources)
	for i, src := range op.Sources {
		r := Result{Source: src, SourceName: src.DisplayName()}
		for _, w := range warnings {
			r.warn("%s", w)
		}
		progress(i, total, "Processing: "+r.SourceName)
		started := clk.Now()
		p.createOne(ctx, op, pathFor, claims, &r)
		r.Duration = clk.Now().Sub(started)
		res.Results = append(res.Results, r)
		progress(i+1, total, status(r, "Success")+": "+r.SourceName)
	}
}

func (p *Processor) createOne(ctx context.Context, op Operation, pathFor func(Source) (string, error), claims *Claims, r *Result) {
	if err := ctx.Err(); err != nil {
		r.fail(err)
		return
	}
	out, err := pathFor(r.Source)
	if err != nil {
		r.fail(fmt.Errorf("build path: %w", err))
		return
	}
	if out == "" {
		r.fail(errors.New("build path: empty result"))
		return
	}
	if op.AutoIncrement {
		next, err := p.resolver.NextAvailable(ctx, out)
		if err != nil {
			r.warn("version lookup degraded: %v", err)
		}
		out = next
	}
	out = p.claim(claims, out, r)

	if op.CreateDirectories && !op.DryRun {
		dir := filepath.Dir(out)
		if err := p.dirs.MkdirAll(ctx, dir); err != nil {
			r.fail(fmt.Errorf("create directory %s: %w", dir, err))
			return
		}
	}
	r.OutputPath = out
	r.Success = true
}

func (p *Processor) claim(claims *Claims, path string, r *Result) string {
	got, bumped := claims.Claim(path)
	if bumped {
		r.warn("%s already used in this run, using %s", filepath.Base(path), filepath.Base(got))
	}
	return got
}

func (p *Processor) updateVersions(ctx context.Context, op Operation, res *OperationResult, progress ProgressFunc) {
	clk := clock.ClockFromContext(ctx)
	claims := NewClaims()
	total := len(op.Sources)
	for i, src := range op.Sources {
		r := Result{Source: src, SourceName: src.DisplayName()}
		progress(i, total, "Updating: "+r.SourceName)
		started := clk.Now()
		p.updateOne(ctx, claims, &r)
		r.Duration = clk.Now().Sub(started)
		res.Results = append(res.Results, r)
		progress(i+1, total, status(r, "Updated")+": "+r.SourceName)
	}
}

func (p *Processor) updateOne(ctx context.Context, claims *Claims, r *Result) {
	if err := ctx.Err(); err != nil {
		r.fail(err)
		return
	}
	current := r.Source.Path
	if current == "" {
		r.fail(errors.New("no file path found"))
		return
	}
	next, err := p.resolver.NextAvailable(ctx, current)
	if err != nil {
		r.fail(fmt.Errorf("update version: %w", err))
		return
	}
	r.Success = true
	if next == current {
		claims.Claim(current)
		r.OutputPath = current
		r.warn("no version update needed")
		return
	}
	r.OutputPath = p.claim(claims, next, r)
}

func status(r Result, ok string) string {
	if r.Success {
		return ok
	}
	return "Failed"
}
