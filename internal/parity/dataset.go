// Package parity checks that two copies of seed data, a base and a working
// copy, describe the same entities. A dataset is one file per directory,
// <name>.json or <name>.toml, whose top-level keys are its exports.
package parity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultExport names the single export of a file whose top level is an
// array rather than an object.
const DefaultExport = "default"

// Supported dataset file extensions, in lookup order.
var extensions = []string{".json", ".toml"}

// ErrDatasetNotFound is returned by Load when neither file exists.
var ErrDatasetNotFound = errors.New("dataset not found")

// Dataset maps export names to their decoded values.
type Dataset map[string]any

// LoadError reports a dataset file that exists but cannot be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Discover lists the dataset names found in dir, sorted. A name present as
// both .json and .toml is listed once.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Err: err}
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || ignored(e.Name()) {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !slices.Contains(extensions, ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// Load reads dataset name from dir. It always goes to disk. Having both a
// .json and a .toml file for the same name is an error.
func Load(dir, name string) (Dataset, string, error) {
	var found []string
	for _, ext := range extensions {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			found = append(found, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, path, &LoadError{Path: path, Err: err}
		}
	}

	switch len(found) {
	case 0:
		return nil, filepath.Join(dir, name), ErrDatasetNotFound
	case 1:
	default:
		return nil, found[0], &LoadError{
			Path: found[0],
			Err:  fmt.Errorf("ambiguous dataset %q: both %s present", name, strings.Join(found, " and ")),
		}
	}

	path := found[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, &LoadError{Path: path, Err: err}
	}

	var ds Dataset
	if filepath.Ext(path) == ".toml" {
		ds, err = decodeTOML(data)
	} else {
		ds, err = decodeJSON(data)
	}
	if err != nil {
		return nil, path, &LoadError{Path: path, Err: err}
	}
	return ds, path, nil
}

func decodeJSON(data []byte) (Dataset, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var top any
	if err := dec.Decode(&top); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if dec.More() {
		return nil, errors.New("parse json: trailing data after top-level value")
	}

	switch v := top.(type) {
	case map[string]any:
		return Dataset(v), nil
	case []any:
		return Dataset{DefaultExport: v}, nil
	default:
		return nil, fmt.Errorf("top level must be an object or array, got %T", top)
	}
}

func decodeTOML(data []byte) (Dataset, error) {
	var top map[string]any
	if _, err := toml.Decode(string(data), &top); err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	if top == nil {
		top = map[string]any{}
	}
	return Dataset(top), nil
}

// ignored skips editor swap files and hidden files.
func ignored(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".tmp") ||
		strings.HasSuffix(name, ".swp")
}
