// SPDX-License-Identifier: AGPL-3.0-or-later

// Package report renders the outcome of a licensegate run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bartekus/licensegate/internal/processor"
)

const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// Summary is the outcome of one run.
type Summary struct {
	Status  string             `json:"status"` // "pass" or "fail"
	DryRun  bool               `json:"dry_run,omitempty"`
	Files   []processor.Result `json:"files"`
	Changed []string           `json:"changed"`
}

// New summarises results. The run fails when any file changed.
func New(results []processor.Result, dryRun bool) Summary {
	s := Summary{
		Status:  StatusPass,
		DryRun:  dryRun,
		Files:   results,
		Changed: processor.Changed(results),
	}
	if s.Files == nil {
		s.Files = []processor.Result{}
	}
	if s.Changed == nil {
		s.Changed = []string{}
	}
	if len(s.Changed) > 0 {
		s.Status = StatusFail
	}
	return s
}

// Failed reports whether the gate must reject the commit.
func (s Summary) Failed() bool { return s.Status == StatusFail }

// WriteJSON writes s as indented JSON.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteText writes the human readable banner. Nothing is written when the
// run passed.
func WriteText(w io.Writer, s Summary) error {
	if !s.Failed() {
		return nil
	}
	var b strings.Builder
	b.WriteString("\n")
	if s.DryRun {
		fmt.Fprintf(&b, "Some sources would be modified by the hook %s.\n", quotedList(s.Changed))
		b.WriteString("Run again without --dry-run to apply the changes.\n")
	} else {
		fmt.Fprintf(&b, "Some sources were modified by the hook %s. Now aborting the commit.\n", quotedList(s.Changed))
		b.WriteString("You can check the changes made. Then simply \"git add --update .\" and re-commit\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// quotedList renders paths as ['a', 'b'], the form the hook has always printed.
func quotedList(paths []string) string {
	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = "'" + p + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
