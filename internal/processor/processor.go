// SPDX-License-Identifier: AGPL-3.0-or-later

// Package processor runs the header checks over a list of files and rewrites
// the ones that need a header inserted, removed or flagged.
package processor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/bartekus/licensegate/internal/config"
	"github.com/bartekus/licensegate/internal/header"
	"github.com/bartekus/licensegate/internal/license"
	"github.com/bartekus/licensegate/internal/logging"
	"github.com/bartekus/licensegate/internal/similarity"
)

// Action is what happened to a file.
type Action string

const (
	ActionSkipped   Action = "skipped"
	ActionUnchanged Action = "unchanged"
	ActionInserted  Action = "inserted"
	ActionRemoved   Action = "removed"
	ActionAnnotated Action = "annotated"
)

// Result is the per-file outcome.
type Result struct {
	Path    string `json:"path"`
	Action  Action `json:"action"`
	Match   string `json:"match"`
	Index   int    `json:"index"`
	Score   int    `json:"score,omitempty"`
	Changed bool   `json:"changed"`
}

// FileError reports an I/O failure on one file. Any FileError aborts the run.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e *FileError) Unwrap() error { return e.Err }

// Processor applies one configuration to many files. It is safe for
// concurrent use as long as no two calls touch the same path.
type Processor struct {
	opts   config.Options
	header *license.Header
	scorer similarity.Scorer
	write  func(path string, data []byte) error
}

// Option customises a Processor.
type Option func(*Processor)

// WithScorer replaces the similarity scorer used for fuzzy matching.
func WithScorer(s similarity.Scorer) Option {
	return func(p *Processor) { p.scorer = s }
}

// WithWriter replaces how rewritten files are stored.
func WithWriter(write func(path string, data []byte) error) Option {
	return func(p *Processor) { p.write = write }
}

// New returns a Processor for opts and the rendered license header h.
func New(opts config.Options, h *license.Header, options ...Option) *Processor {
	p := &Processor{
		opts:   opts,
		header: h,
		scorer: similarity.Default,
		write:  writeAtomic,
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// writeAtomic replaces path through a temporary file in the same directory,
// so a failed write leaves the original untouched. Symlinks are resolved
// first and the link itself is kept.
func writeAtomic(path string, data []byte) error {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return err
	}
	return atomic.WriteFile(target, bytes.NewReader(data))
}

// Decide runs skip detection and matching on lines and returns the outcome
// together with the new content. The returned lines are nil when the file
// must stay as is.
func (p *Processor) Decide(lines []string) (Result, []string) {
	o := p.opts
	if header.ShouldSkip(lines, o.SkipComment, o.FuzzyTodoComment, o.FuzzyMatch, o.TopLines) {
		return Result{Action: ActionSkipped, Match: header.NotFound.String()}, nil
	}

	m := header.FindExact(lines, p.header, o.TopLines)
	if !m.Found() && o.FuzzyMatch {
		m = header.FindFuzzy(lines, p.header, header.FuzzyOptions{
			Window: o.TopLines,
			Cutoff: o.FuzzyCutoff,
			Scorer: p.scorer,
		})
	}
	res := Result{Action: ActionUnchanged, Match: m.Kind.String(), Index: m.Index, Score: m.Score}

	var out []string
	switch {
	case m.Kind == header.Exact && o.RemoveHeader:
		res.Action = ActionRemoved
		out = header.Remove(lines, m.Index, p.header.Len())
	case m.Kind == header.Fuzzy:
		// Flagged regardless of removal mode.
		res.Action = ActionAnnotated
		out = header.Annotate(lines, m.Index, p.header, o.FuzzyTodoComment)
	case m.Kind == header.NotFound && !o.RemoveHeader:
		res.Action = ActionInserted
		res.Index = header.PreambleLen(lines)
		out = header.Insert(lines, p.header)
	}
	res.Changed = out != nil
	return res, out
}

// ProcessFile reads path, decides on it and rewrites it when needed.
// In dry-run mode nothing is written but the result still reports the change.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Result, error) {
	log := logging.FromContext(ctx).With(slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, &FileError{Path: path, Err: err}
	}

	res, out := p.Decide(license.SplitLines(string(data)))
	res.Path = path
	log.Debug("checked", slog.String("match", res.Match), slog.Int("index", res.Index), slog.Int("score", res.Score), slog.String("action", string(res.Action)))

	if !res.Changed || p.opts.DryRun {
		return res, nil
	}
	if err := p.write(path, []byte(strings.Join(out, ""))); err != nil {
		return Result{}, &FileError{Path: path, Err: err}
	}
	log.Info("rewrote file", slog.String("action", string(res.Action)))
	return res, nil
}

// Run processes paths with at most opts.Workers() files in flight. Duplicate
// paths are processed once. Results keep the order of first appearance.
// The first I/O error cancels the remaining work and is returned.
func (p *Processor) Run(ctx context.Context, paths []string) ([]Result, error) {
	paths = dedupe(paths)
	results := make([]Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers())
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := p.ProcessFile(ctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Changed returns the paths of changed results, in order.
func Changed(results []Result) []string {
	var out []string
	for _, r := range results {
		if r.Changed {
			out = append(out, r.Path)
		}
	}
	return out
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		key := filepath.Clean(path)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, path)
	}
	return out
}
