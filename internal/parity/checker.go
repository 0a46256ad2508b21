package parity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// Report holds the results of one parity run.
type Report struct {
	CheckedAt time.Time `json:"checked_at"`
	Results   []Result  `json:"results"`
}

// Match reports whether every dataset matched. An empty report matches.
func (r *Report) Match() bool {
	for _, res := range r.Results {
		if !res.Match() {
			return false
		}
	}
	return true
}

// Mismatches returns the results that did not match.
func (r *Report) Mismatches() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Match() {
			out = append(out, res)
		}
	}
	return out
}

// Checker compares datasets between a base and a working directory. Files
// are re-read on every Check so edits between runs are always seen.
type Checker struct {
	baseDir    string
	workingDir string
	logger     *slog.Logger
}

// NewChecker creates a checker over two directories.
func NewChecker(baseDir, workingDir string, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		baseDir:    baseDir,
		workingDir: workingDir,
		logger:     logger,
	}
}

// Datasets lists every dataset name found in either directory.
func (c *Checker) Datasets() ([]string, error) {
	base, err := Discover(c.baseDir)
	if err != nil {
		return nil, err
	}
	working, err := Discover(c.workingDir)
	if err != nil {
		return nil, err
	}
	names := append(base, working...)
	slices.Sort(names)
	return slices.Compact(names), nil
}

// Check compares the named datasets, or every discovered dataset when names
// is empty. A dataset missing from one side is a mismatch. An error is
// returned only when a file cannot be read or parsed.
func (c *Checker) Check(ctx context.Context, names ...string) (*Report, error) {
	if len(names) == 0 {
		var err error
		if names, err = c.Datasets(); err != nil {
			return nil, err
		}
	}

	report := &Report{CheckedAt: time.Now().UTC()}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := c.checkOne(name)
		if err != nil {
			return nil, err
		}
		if !res.Match() {
			c.logger.Debug("dataset mismatch", "dataset", name, "verdict", res.Verdict)
		}
		report.Results = append(report.Results, res)
	}

	c.logger.Info("parity check complete",
		"datasets", len(report.Results),
		"mismatches", len(report.Mismatches()),
	)
	return report, nil
}

func (c *Checker) checkOne(name string) (Result, error) {
	base, _, errB := Load(c.baseDir, name)
	working, _, errW := Load(c.workingDir, name)

	missingB := errors.Is(errB, ErrDatasetNotFound)
	missingW := errors.Is(errW, ErrDatasetNotFound)
	if errB != nil && !missingB {
		return Result{}, errB
	}
	if errW != nil && !missingW {
		return Result{}, errW
	}

	switch {
	case missingB && missingW:
		return Result{}, fmt.Errorf("dataset %q: %w in %s or %s", name, ErrDatasetNotFound, c.baseDir, c.workingDir)
	case missingB:
		return Result{Dataset: name, Verdict: VerdictMissing, MissingIn: "base"}, nil
	case missingW:
		return Result{Dataset: name, Verdict: VerdictMissing, MissingIn: "working"}, nil
	}

	return Compare(name, base, working)
}
