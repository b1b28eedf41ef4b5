package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/bryanwahyu/automaton-code/internal/application/normalize"
	"github.com/bryanwahyu/automaton-code/internal/infra/engine/sast"
	"github.com/bryanwahyu/automaton-code/internal/infra/engine/secrets"
	"github.com/bryanwahyu/automaton-code/internal/infra/storage"
)

// Object layout shared by the bucket and the local overlay directory.
const (
	sastDir          = "rules/sast"
	secretsDir       = "rules/secrets"
	remediationsFile = "remediations.yaml"
)

// ObjectSource is a read-only tree of YAML documents. *storage.Store
// satisfies it.
type ObjectSource interface {
	ListYAML(ctx context.Context, dir string) ([]string, error)
	Get(ctx context.Context, name string) ([]byte, error)
}

// Overlay collects startup additions to the built-in rules and catalog.
type Overlay struct {
	SAST         []sast.RawRule
	Secrets      []secrets.RawRule
	Remediations []map[string]string
}

// Load appends everything src holds. A missing remediations.yaml is fine.
func (o *Overlay) Load(ctx context.Context, src ObjectSource) error {
	err := eachYAML(ctx, src, sastDir, func(name string, data []byte) error {
		rules, err := sast.ParseRules(data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		o.SAST = append(o.SAST, rules...)
		return nil
	})
	if err != nil {
		return err
	}

	err = eachYAML(ctx, src, secretsDir, func(name string, data []byte) error {
		rules, err := secrets.ParseRules(data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		o.Secrets = append(o.Secrets, rules...)
		return nil
	})
	if err != nil {
		return err
	}

	data, err := src.Get(ctx, remediationsFile)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case err != nil:
		return err
	}
	sol, err := normalize.ParseCatalogYAML(data)
	if err != nil {
		return fmt.Errorf("%s: %w", remediationsFile, err)
	}
	o.Remediations = append(o.Remediations, sol)
	return nil
}

func eachYAML(ctx context.Context, src ObjectSource, dir string, fn func(name string, data []byte) error) error {
	names, err := src.ListYAML(ctx, dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}
	for _, name := range names {
		data, err := src.Get(ctx, name)
		if err != nil {
			return err
		}
		if err := fn(name, data); err != nil {
			return err
		}
	}
	return nil
}

// FSSource serves an fs.FS, usually os.DirFS of the overlay directory.
type FSSource struct {
	FS fs.FS
}

func (s FSSource) ListYAML(_ context.Context, dir string) ([]string, error) {
	var names []string
	err := fs.WalkDir(s.FS, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && storage.IsYAML(p) {
			names = append(names, p)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s FSSource) Get(_ context.Context, name string) ([]byte, error) {
	data, err := fs.ReadFile(s.FS, path.Clean(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, storage.ErrNotFound)
	}
	return data, err
}
