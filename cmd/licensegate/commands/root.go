// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Licensegate - a pre-commit gate that keeps license headers in source files.
It inserts the project license as a comment block, flags drifted copies with a
TODO and can strip headers again.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bartekus/licensegate/cmd/licensegate/internal/clierr"
	"github.com/bartekus/licensegate/internal/config"
	"github.com/bartekus/licensegate/internal/logging"
	"github.com/bartekus/licensegate/internal/processor"
	"github.com/bartekus/licensegate/internal/report"
	"github.com/bartekus/licensegate/internal/scanner"
)

type rootFlags struct {
	opts       config.Options
	configPath string
	json       bool
	verbose    bool
	staged     bool
	allFiles   bool
}

// NewRootCmd constructs the licensegate root Cobra command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("LICENSEGATE_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	f := &rootFlags{opts: config.Default()}
	cmd := &cobra.Command{
		Use:   "licensegate [flags] [file...]",
		Short: "Insert, check or remove license headers in source files",
		Long: `licensegate makes sure every given file starts with the project license
rendered as a comment. Files that are modified make the command exit with 1 so
that a pre-commit hook aborts the commit.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args)
		},
	}

	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "enable verbose output")
	bindFlags(cmd.Flags(), f)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of licensegate",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "licensegate version %s\n", version)
		},
	})

	return cmd
}

func bindFlags(fs *pflag.FlagSet, f *rootFlags) {
	o := &f.opts
	fs.StringVar(&o.LicensePath, "license-filepath", o.LicensePath, "file holding the license text")
	fs.StringVar(&o.CommentStyle, "comment-style", o.CommentStyle, `comment prefix, or "start|prefix|end" for block comments`)
	fs.IntVar(&o.TopLines, "detect-license-in-X-top-lines", o.TopLines, "number of leading lines searched for an existing header")
	fs.BoolVar(&o.FuzzyMatch, "fuzzy-match-generates-todo", o.FuzzyMatch, "mark approximate headers with a TODO line")
	fs.IntVar(&o.FuzzyCutoff, "fuzzy-ratio-cut-off", o.FuzzyCutoff, "minimum similarity (0-100) for an approximate match")
	fs.StringVar(&o.FuzzyTodoComment, "fuzzy-match-todo-comment", o.FuzzyTodoComment, "text of the TODO line")
	fs.StringVar(&o.SkipComment, "skip-license-insertion-comment", o.SkipComment, "marker that opts a file out")
	fs.BoolVar(&o.RemoveHeader, "remove-header", o.RemoveHeader, "remove exact headers instead of inserting")
	fs.StringSliceVar(&o.Exclude, "exclude", nil, "glob of files to leave alone (repeatable)")
	fs.IntVarP(&o.Jobs, "jobs", "j", o.Jobs, "files processed concurrently (0 = GOMAXPROCS)")
	fs.BoolVar(&o.DryRun, "dry-run", false, "report what would change without writing")

	fs.StringVar(&f.configPath, "config", config.DefaultFile, "YAML file with default options")
	fs.BoolVar(&f.json, "json", false, "print the run summary as JSON")
	fs.BoolVar(&f.staged, "staged", false, "check the files staged in git")
	fs.BoolVar(&f.allFiles, "all-files", false, "check every file tracked by git")
}

// resolveOptions layers defaults, the config file and explicitly set flags,
// in that order.
func resolveOptions(fs *pflag.FlagSet, f *rootFlags) (config.Options, error) {
	opts := config.Default()
	if err := config.LoadFile(f.configPath, &opts, fs.Changed("config")); err != nil {
		return opts, err
	}

	set := f.opts
	fs.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "license-filepath":
			opts.LicensePath = set.LicensePath
		case "comment-style":
			opts.CommentStyle = set.CommentStyle
		case "detect-license-in-X-top-lines":
			opts.TopLines = set.TopLines
		case "fuzzy-match-generates-todo":
			opts.FuzzyMatch = set.FuzzyMatch
		case "fuzzy-ratio-cut-off":
			opts.FuzzyCutoff = set.FuzzyCutoff
		case "fuzzy-match-todo-comment":
			opts.FuzzyTodoComment = set.FuzzyTodoComment
		case "skip-license-insertion-comment":
			opts.SkipComment = set.SkipComment
		case "remove-header":
			opts.RemoveHeader = set.RemoveHeader
		case "exclude":
			opts.Exclude = append(opts.Exclude, set.Exclude...)
		case "jobs":
			opts.Jobs = set.Jobs
		}
	})
	opts.DryRun = set.DryRun

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	if err := scanner.ValidatePatterns(opts.Exclude); err != nil {
		return opts, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	return opts, nil
}

func run(cmd *cobra.Command, f *rootFlags, args []string) error {
	ctx := cmd.Context()
	log := logging.New(cmd.ErrOrStderr(), f.verbose)
	ctx = logging.Put(ctx, log)

	opts, err := resolveOptions(cmd.Flags(), f)
	if err != nil {
		return clierr.Wrap(clierr.ExitConfig, "configuration error", err)
	}
	if f.staged && f.allFiles {
		return clierr.New(clierr.ExitConfig, "--staged and --all-files are mutually exclusive")
	}
	if len(args) > 0 && (f.staged || f.allFiles) {
		return clierr.New(clierr.ExitConfig, "file arguments cannot be combined with --staged or --all-files")
	}

	h, err := opts.Header()
	if err != nil {
		return clierr.Wrap(clierr.ExitConfig, "configuration error", err)
	}

	paths := scanner.WithoutExcluded(args, opts.Exclude)
	if f.staged || f.allFiles {
		if paths, err = gitFiles(cmd, f, opts); err != nil {
			return clierr.Wrap(clierr.ExitIO, "listing files", err)
		}
	}
	log.Debug("resolved files", "count", len(paths), "workers", opts.Workers())

	results, err := processor.New(opts, h).Run(ctx, paths)
	if err != nil {
		// Exit 1 is reserved for modified sources.
		return clierr.Wrap(clierr.ExitIO, "processing failed", err)
	}

	summary := report.New(results, opts.DryRun)
	out := cmd.OutOrStdout()
	if f.json {
		err = report.WriteJSON(out, summary)
	} else {
		err = report.WriteText(out, summary)
	}
	if err != nil {
		return clierr.Wrap(clierr.ExitIO, "writing report", err)
	}
	if summary.Failed() {
		return clierr.New(clierr.ExitChanged, "sources were modified")
	}
	return nil
}

func gitFiles(cmd *cobra.Command, f *rootFlags, opts config.Options) ([]string, error) {
	ctx := cmd.Context()
	top, err := scanner.Toplevel(ctx, ".")
	if err != nil {
		return nil, err
	}
	s := scanner.New(top)
	list := s.TrackedFiles
	if f.staged {
		list = s.StagedFiles
	}
	rel, err := s.Filtered(ctx, list, scanner.FilterOptions{
		ExcludeDirs:       scanner.DefaultExcludeDirs(),
		Exclude:           opts.Exclude,
		IncludeExtensions: opts.Extensions,
	})
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(rel))
	for i, p := range rel {
		paths[i] = filepath.Join(top, filepath.FromSlash(p))
	}
	return paths, nil
}
