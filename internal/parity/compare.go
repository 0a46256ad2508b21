package parity

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Verdict classifies the outcome of comparing one dataset.
type Verdict string

const (
	VerdictMatch          Verdict = "match"
	VerdictMissing        Verdict = "missing"
	VerdictExportsDiffer  Verdict = "exports_differ"
	VerdictLengthMismatch Verdict = "length_mismatch"
	VerdictContentDiffers Verdict = "content_differs"
)

// Result is the comparison of one dataset between the two directories.
// Only the fields relevant to the verdict are populated.
type Result struct {
	Dataset string  `json:"dataset"`
	Verdict Verdict `json:"verdict"`

	// Missing: which side has no file.
	MissingIn string `json:"missing_in,omitempty"`

	// Exports present on one side only.
	OnlyInBase    []string `json:"only_in_base,omitempty"`
	OnlyInWorking []string `json:"only_in_working,omitempty"`

	// Export is the first export that differs, for length and content verdicts.
	Export     string `json:"export,omitempty"`
	BaseLen    int    `json:"base_len,omitempty"`
	WorkingLen int    `json:"working_len,omitempty"`

	// Line is the first differing 1-based line of the pretty-printed,
	// normalized dataset.
	Line        int    `json:"line,omitempty"`
	BaseText    string `json:"base_text,omitempty"`
	WorkingText string `json:"working_text,omitempty"`
}

// Match reports whether the dataset is identical on both sides.
func (r Result) Match() bool { return r.Verdict == VerdictMatch }

func (r Result) String() string {
	switch r.Verdict {
	case VerdictMatch:
		return fmt.Sprintf("%s: match", r.Dataset)
	case VerdictMissing:
		return fmt.Sprintf("%s: missing in %s", r.Dataset, r.MissingIn)
	case VerdictExportsDiffer:
		var parts []string
		if len(r.OnlyInBase) > 0 {
			parts = append(parts, "only in base: "+strings.Join(r.OnlyInBase, ", "))
		}
		if len(r.OnlyInWorking) > 0 {
			parts = append(parts, "only in working: "+strings.Join(r.OnlyInWorking, ", "))
		}
		return fmt.Sprintf("%s: exports differ (%s)", r.Dataset, strings.Join(parts, "; "))
	case VerdictLengthMismatch:
		return fmt.Sprintf("%s: export %q has %d entries in base and %d in working",
			r.Dataset, r.Export, r.BaseLen, r.WorkingLen)
	case VerdictContentDiffers:
		return fmt.Sprintf("%s: export %q differs at line %d\n  base:    %s\n  working: %s",
			r.Dataset, r.Export, r.Line, r.BaseText, r.WorkingText)
	default:
		return fmt.Sprintf("%s: %s", r.Dataset, r.Verdict)
	}
}

// Compare checks two loaded copies of a dataset. Export names are compared
// first, then array lengths, then full content.
func Compare(name string, base, working Dataset) (Result, error) {
	res := Result{Dataset: name}

	nb, err := Normalize(base)
	if err != nil {
		return res, fmt.Errorf("normalize base %s: %w", name, err)
	}
	nw, err := Normalize(working)
	if err != nil {
		return res, fmt.Errorf("normalize working %s: %w", name, err)
	}
	b, w := nb.(map[string]any), nw.(map[string]any)

	res.OnlyInBase, res.OnlyInWorking = keyDiff(b, w)
	if len(res.OnlyInBase) > 0 || len(res.OnlyInWorking) > 0 {
		res.Verdict = VerdictExportsDiffer
		return res, nil
	}

	exports := sortedKeys(b)

	for _, export := range exports {
		ba, okB := b[export].([]any)
		wa, okW := w[export].([]any)
		if okB && okW && len(ba) != len(wa) {
			res.Verdict = VerdictLengthMismatch
			res.Export = export
			res.BaseLen, res.WorkingLen = len(ba), len(wa)
			return res, nil
		}
	}

	for _, export := range exports {
		if reflect.DeepEqual(b[export], w[export]) {
			continue
		}
		res.Verdict = VerdictContentDiffers
		res.Export = export
		if err := firstDifferingLine(&res, b, w); err != nil {
			return res, err
		}
		return res, nil
	}

	res.Verdict = VerdictMatch
	return res, nil
}

// firstDifferingLine locates the first changed line between the
// pretty-printed forms. encoding/json sorts map keys, so the output is
// stable for equal data.
func firstDifferingLine(res *Result, base, working map[string]any) error {
	bl, err := prettyLines(base)
	if err != nil {
		return err
	}
	wl, err := prettyLines(working)
	if err != nil {
		return err
	}

	m := difflib.NewMatcher(bl, wl)
	for _, op := range m.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		res.Line = op.I1 + 1
		res.BaseText = lineAt(bl, op.I1, op.I2)
		res.WorkingText = lineAt(wl, op.J1, op.J2)
		return nil
	}
	return nil
}

func prettyLines(v map[string]any) ([]string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	return strings.Split(string(data), "\n"), nil
}

// lineAt returns the first line of lines[from:to], or "" when the range is
// empty (an insertion or deletion on the other side).
func lineAt(lines []string, from, to int) string {
	if from >= to || from >= len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[from])
}

func keyDiff(base, working map[string]any) (onlyBase, onlyWorking []string) {
	for k := range base {
		if _, ok := working[k]; !ok {
			onlyBase = append(onlyBase, k)
		}
	}
	for k := range working {
		if _, ok := base[k]; !ok {
			onlyWorking = append(onlyWorking, k)
		}
	}
	slices.Sort(onlyBase)
	slices.Sort(onlyWorking)
	return onlyBase, onlyWorking
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
