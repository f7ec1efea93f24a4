package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"imgsweep/internal/dedupe"
	"imgsweep/internal/normalize"
	"imgsweep/pkg/imgutil"
)

// DefaultOutputDir is the working directory used when Options.OutputDir is
// empty: a subdirectory of the input.
func DefaultOutputDir(input string) string {
	return filepath.Join(input, "output")
}

// Run executes the pipeline described by opts. Only setup problems are
// returned as errors; per-file failures are logged and counted in the summary.
// Reports are produced in ModeScan only.
func Run(ctx context.Context, opts Options, updates chan<- ProgressUpdate) (Summary, []Report, error) {
	summary := Summary{}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	info, err := os.Stat(opts.InputDir)
	if err != nil {
		return summary, nil, err
	}
	if !info.IsDir() {
		return summary, nil, fmt.Errorf("%s is not a directory", opts.InputDir)
	}

	p := &pipeline{ctx: ctx, opts: opts, log: log, updates: updates, summary: &summary}

	switch opts.Mode {
	case ModeScan:
		reports, err := p.scan()
		return summary, reports, err
	case ModeSweep:
		return summary, nil, p.sweep()
	default:
		return summary, nil, fmt.Errorf("unknown mode")
	}
}

type pipeline struct {
	ctx     context.Context
	opts    Options
	log     logrus.FieldLogger
	updates chan<- ProgressUpdate
	summary *Summary
}

func (p *pipeline) send(u ProgressUpdate) {
	if p.updates != nil {
		p.updates <- u
	}
}

func (p *pipeline) cancelled() bool {
	return p.ctx != nil && p.ctx.Err() != nil
}

func (p *pipeline) sweep() error {
	absIn, err := filepath.Abs(p.opts.InputDir)
	if err != nil {
		return err
	}
	outputDir := p.opts.OutputDir
	if outputDir == "" {
		outputDir = DefaultOutputDir(absIn)
	}
	absOut, err := filepath.Abs(outputDir)
	if err != nil {
		return err
	}
	if filepath.Clean(absOut) == filepath.Clean(absIn) {
		return errors.New("output directory must differ from the input directory")
	}
	if err := os.MkdirAll(absOut, 0o755); err != nil {
		return err
	}

	staged, err := p.stage(absIn, absOut)
	if err != nil {
		return err
	}
	p.warnLeftovers(absOut, staged)

	resolver := dedupe.NewResolver(p.log, dedupe.FileRemover{})
	resolver.KeepUnreadable = p.opts.KeepUnreadable
	p.resolve(resolver, staged)
	if p.cancelled() {
		return p.ctx.Err()
	}

	p.normalize(resolver.Registry.Paths())
	if p.cancelled() {
		return p.ctx.Err()
	}
	return nil
}

// stage copies every supported image of in into out, in listing order, and
// returns the copies that succeeded.
func (p *pipeline) stage(in, out string) ([]string, error) {
	sources, err := imgutil.ListImages(in)
	if err != nil {
		return nil, err
	}
	p.summary.Total = len(sources)
	p.send(ProgressUpdate{Stage: StageCopy, TotalDelta: len(sources)})

	staged := make([]string, 0, len(sources))
	for _, src := range sources {
		if p.cancelled() {
			return staged, p.ctx.Err()
		}
		dst := filepath.Join(out, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			p.log.WithField("file", filepath.Base(src)).WithError(err).Error("copy failed")
			p.summary.Errors++
			p.send(ProgressUpdate{Stage: StageCopy, ProcessedDelta: 1, ErrorDelta: 1})
			continue
		}
		staged = append(staged, dst)
		p.summary.Copied++
		p.send(ProgressUpdate{Stage: StageCopy, ProcessedDelta: 1})
	}
	return staged, nil
}

// warnLeftovers logs images already in out that this run did not stage.
// They are neither deduplicated nor normalized.
func (p *pipeline) warnLeftovers(out string, staged []string) {
	existing, err := imgutil.ListImages(out)
	if err != nil {
		p.log.WithError(err).Warn("could not list output directory")
		return
	}
	seen := make(map[string]bool, len(staged))
	for _, path := range staged {
		seen[path] = true
	}
	for _, path := range existing {
		if !seen[path] {
			p.log.WithField("file", filepath.Base(path)).Warn("not from this run, left unprocessed")
		}
	}
}

// resolve feeds candidates to the resolver strictly one after another; the
// outcome for each file depends on every decision before it.
func (p *pipeline) resolve(resolver *dedupe.Resolver, candidates []string) []dedupe.Decision {
	p.send(ProgressUpdate{Stage: StageDedupe, TotalDelta: len(candidates)})

	decisions := make([]dedupe.Decision, 0, len(candidates))
	for _, path := range candidates {
		if p.cancelled() {
			break
		}
		d := resolver.Resolve(path)
		decisions = append(decisions, d)

		u := ProgressUpdate{Stage: StageDedupe, ProcessedDelta: 1}
		if d.Removed() {
			u.DuplicateDelta = 1
		}
		switch d.Outcome {
		case dedupe.ExactDuplicate:
			p.summary.ExactDuplicates++
		case dedupe.NearDuplicateLoser, dedupe.NearDuplicateWinner:
			p.summary.NearDuplicates++
		case dedupe.Skipped:
			p.summary.Skipped++
		}
		if d.Err != nil {
			p.summary.Errors++
			u.ErrorDelta = 1
		}
		p.send(u)
	}

	p.summary.Unique = resolver.Registry.Len()
	return decisions
}

func (p *pipeline) normalize(survivors []string) {
	p.send(ProgressUpdate{Stage: StageNormalize, TotalDelta: len(survivors)})

	workers := p.opts.Workers
	if workers <= 0 {
		workers = 1
	}
	n := &normalize.Normalizer{
		Log:     p.log,
		Workers: workers,
		OnResult: func(res normalize.Result) {
			u := ProgressUpdate{Stage: StageNormalize, ProcessedDelta: 1}
			if res.Err != nil {
				u.ErrorDelta = 1
			} else {
				u.BytesSavedDelta = res.BytesSaved
				if res.Resized {
					u.ResizedDelta = 1
				}
			}
			p.send(u)
		},
	}

	for _, res := range n.Run(p.ctx, survivors) {
		if res.Err != nil {
			p.summary.Errors++
			continue
		}
		if res.Resized {
			p.summary.Resized++
		}
		p.summary.BytesSaved += res.BytesSaved
		p.summary.MetadataTags += res.MetadataTags
	}
}

// scan classifies the input directory in place. Nothing is copied, deleted
// or re-encoded.
func (p *pipeline) scan() ([]Report, error) {
	candidates, err := imgutil.ListImages(p.opts.InputDir)
	if err != nil {
		return nil, err
	}
	p.summary.Total = len(candidates)

	resolver := dedupe.NewResolver(p.log, &dedupe.DryRun{})
	resolver.KeepUnreadable = true
	decisions := p.resolve(resolver, candidates)

	reports := make([]Report, 0, len(decisions))
	for _, d := range decisions {
		reports = append(reports, Report{
			Path:       d.Path,
			Outcome:    d.Outcome,
			Match:      d.Match.Path,
			Similarity: d.Similarity,
			Err:        d.Err,
		})
	}
	if p.cancelled() {
		return reports, p.ctx.Err()
	}
	return reports, nil
}
