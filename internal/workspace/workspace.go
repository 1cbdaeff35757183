package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/fbkclanna/featlint/internal/logging"
	"github.com/fbkclanna/featlint/internal/manifest"
	"github.com/fbkclanna/featlint/internal/model"
	"github.com/fbkclanna/featlint/internal/rewrite"
)

// ErrNoWorkspace is returned when no workspace.yaml is found.
var ErrNoWorkspace = errors.New("no " + manifest.WorkspaceFile + " found")

// Context holds the resolved paths and loaded manifests of a workspace.
type Context struct {
	Root         string
	ManifestPath string
	Manifest     *manifest.Workspace
	// Packages in member discovery order.
	Packages []*manifest.Package

	byName map[string]*manifest.Package
}

// Options configures Load.
type Options struct {
	// Jobs bounds concurrent manifest reads. Zero or less means unbounded.
	Jobs   int
	Logger *slog.Logger
}

// Load resolves the workspace root and loads every member manifest.
func Load(ctx context.Context, root string, opts Options) (*Context, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}
	manifestPath := filepath.Join(root, manifest.WorkspaceFile)
	if _, err := os.Stat(manifestPath); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w in %s", ErrNoWorkspace, root)
	}
	ws, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	dirs, err := discoverMembers(os.DirFS(root), ws)
	if err != nil {
		return nil, err
	}
	log.Debug("discovered members", "count", len(dirs), "root", root)

	pkgs := make([]*manifest.Package, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Jobs > 0 {
		g.SetLimit(opts.Jobs)
	}
	for i, dir := range dirs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := manifest.LoadPackage(filepath.Join(root, filepath.FromSlash(dir), manifest.PackageFile))
			if err != nil {
				return err
			}
			pkgs[i] = p
			log.Debug("loaded package", "name", p.Name, "path", dir)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &Context{
		Root:         root,
		ManifestPath: manifestPath,
		Manifest:     ws,
		Packages:     pkgs,
		byName:       make(map[string]*manifest.Package, len(pkgs)),
	}
	for _, p := range pkgs {
		if prev, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("package %q declared twice: %s and %s", p.Name, c.RelPath(prev.Path), c.RelPath(p.Path))
		}
		c.byName[p.Name] = p
	}
	return c, nil
}

// discoverMembers expands the member globs into directories holding a
// package manifest. Matches of one pattern are sorted; patterns keep their
// order and a directory matched twice is kept at its first position.
func discoverMembers(fsys fs.FS, ws *manifest.Workspace) ([]string, error) {
	var dirs []string
	seen := map[string]bool{}
	for _, pattern := range ws.Members {
		matches, err := doublestar.Glob(fsys, path.Clean(filepath.ToSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("expanding member pattern %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, dir := range matches {
			if seen[dir] || excluded(dir, ws.Exclude) {
				continue
			}
			info, err := fs.Stat(fsys, path.Join(dir, manifest.PackageFile))
			if err != nil || info.IsDir() {
				continue
			}
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

func excluded(dir string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(path.Clean(filepath.ToSlash(p)), dir); ok {
			return true
		}
	}
	return false
}

// Package looks up a loaded member by name.
func (c *Context) Package(name string) (*manifest.Package, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// PackageNames returns member names in discovery order.
func (c *Context) PackageNames() []string {
	names := make([]string, len(c.Packages))
	for i, p := range c.Packages {
		names[i] = p.Name
	}
	return names
}

// RelPath returns p relative to the workspace root when possible.
func (c *Context) RelPath(p string) string {
	if rel, err := filepath.Rel(c.Root, p); err == nil {
		return rel
	}
	return p
}

// Snapshot normalizes the loaded manifests into the description the model
// consumes.
func (c *Context) Snapshot() model.Snapshot {
	var s model.Snapshot
	for _, p := range c.Packages {
		rp := model.RawPackage{Name: p.Name, ManifestPath: c.RelPath(p.Path), NoStd: p.NoStd}
		sections := []struct {
			kind model.DepKind
			deps []manifest.Dependency
		}{
			{model.Normal, p.Dependencies},
			{model.Dev, p.DevDependencies},
			{model.Build, p.BuildDependencies},
		}
		for _, sec := range sections {
			for _, d := range sec.deps {
				rp.Dependencies = append(rp.Dependencies, model.Dependency{
					Name:            d.Name,
					Rename:          d.Rename,
					Kind:            sec.kind,
					Optional:        d.Optional,
					DefaultFeatures: d.UsesDefaultFeatures(),
					Features:        d.Features,
				})
			}
		}
		for _, f := range p.Decls() {
			rp.Features = append(rp.Features, model.RawFeature{Name: f.Name, Activations: f.List.Values()})
		}
		s.Packages = append(s.Packages, rp)
	}
	for _, e := range c.Manifest.External {
		re := model.RawExternal{Name: e.Name, NoStd: e.NoStd}
		if !e.IsOpaque() {
			re.Features = append([]string{}, *e.Features...)
		}
		s.External = append(s.External, re)
	}
	return s
}

// Model builds the workspace model from the loaded manifests.
func (c *Context) Model() (*model.Workspace, error) {
	return model.New(c.Snapshot())
}

// FeatureList implements rewrite.Source.
func (c *Context) FeatureList(pkg, feature string) (rewrite.List, bool, error) {
	p, ok := c.byName[pkg]
	if !ok {
		return rewrite.List{}, false, fmt.Errorf("package %q is not a workspace member", pkg)
	}
	decl, ok := p.Feature(feature)
	if !ok {
		return rewrite.List{Indent: p.FeatureIndent()}, false, nil
	}
	return decl.List, true, nil
}

// FeatureNames implements rewrite.Source.
func (c *Context) FeatureNames(pkg string) ([]string, error) {
	p, ok := c.byName[pkg]
	if !ok {
		return nil, fmt.Errorf("package %q is not a workspace member", pkg)
	}
	return p.FeatureNames(), nil
}
