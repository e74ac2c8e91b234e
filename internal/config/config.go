// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config holds the options that drive a licensegate run and loads
// them from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/bartekus/licensegate/internal/header"
	"github.com/bartekus/licensegate/internal/license"
)

const (
	DefaultLicensePath      = "LICENSE.txt"
	DefaultCommentStyle     = "#"
	DefaultFuzzyCutoff      = 85
	DefaultFuzzyTodoComment = " TODO: This license is not consistent with license used in the project"
	DefaultSkipComment      = "SKIP LICENSE INSERTION"
	DefaultFile             = ".licensegate.yaml"
)

// ErrInvalidConfig wraps every configuration problem.
var ErrInvalidConfig = errors.New("invalid configuration")

// Options configures a run. The YAML keys follow the flag names.
type Options struct {
	LicensePath      string `yaml:"license_filepath"`
	CommentStyle     string `yaml:"comment_style"`
	TopLines         int    `yaml:"detect_license_in_top_lines"`
	FuzzyMatch       bool   `yaml:"fuzzy_match_generates_todo"`
	FuzzyCutoff      int    `yaml:"fuzzy_ratio_cut_off"`
	FuzzyTodoComment string `yaml:"fuzzy_match_todo_comment"`
	SkipComment      string `yaml:"skip_license_insertion_comment"`
	RemoveHeader     bool   `yaml:"remove_header"`

	// Exclude holds doublestar globs of files never processed.
	Exclude []string `yaml:"exclude"`
	// Extensions restricts git-resolved file lists; empty means all.
	Extensions []string `yaml:"extensions"`
	// Jobs bounds concurrent file workers; 0 means GOMAXPROCS.
	Jobs int `yaml:"jobs"`

	DryRun bool `yaml:"-"`
}

// Default returns the options used when nothing is configured.
func Default() Options {
	return Options{
		LicensePath:      DefaultLicensePath,
		CommentStyle:     DefaultCommentStyle,
		TopLines:         header.DefaultWindow,
		FuzzyCutoff:      DefaultFuzzyCutoff,
		FuzzyTodoComment: DefaultFuzzyTodoComment,
		SkipComment:      DefaultSkipComment,
	}
}

// LoadFile overlays the YAML file at path onto opts. A missing file is only
// an error when required is set.
func LoadFile(path string, opts *Options, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: failed to read config file: %w", ErrInvalidConfig, err)
	}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return fmt.Errorf("%w: failed to parse %s: %w", ErrInvalidConfig, path, err)
	}
	return nil
}

// Validate checks option ranges and the comment style.
func (o *Options) Validate() error {
	if o.LicensePath == "" {
		return fmt.Errorf("%w: license file path is empty", ErrInvalidConfig)
	}
	if _, err := license.ParseCommentStyle(o.CommentStyle); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if o.TopLines < 1 {
		return fmt.Errorf("%w: detect-license-in-X-top-lines must be at least 1, got %d", ErrInvalidConfig, o.TopLines)
	}
	if o.FuzzyCutoff < 0 || o.FuzzyCutoff > 100 {
		return fmt.Errorf("%w: fuzzy-ratio-cut-off must be within 0..100, got %d", ErrInvalidConfig, o.FuzzyCutoff)
	}
	if o.Jobs < 0 {
		return fmt.Errorf("%w: jobs must not be negative, got %d", ErrInvalidConfig, o.Jobs)
	}
	return nil
}

// Workers returns the effective worker count.
func (o *Options) Workers() int {
	if o.Jobs > 0 {
		return o.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

// Header loads the license and renders it in the configured comment style.
func (o *Options) Header() (*license.Header, error) {
	style, err := license.ParseCommentStyle(o.CommentStyle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	text, err := license.Load(o.LicensePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return license.Prefix(text, style), nil
}
