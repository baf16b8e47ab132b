package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"sloth.dev/pkg/sloth/internal/adapter"
	m "sloth.dev/pkg/sloth/internal/model"
)

// Corpus is a named source of seed programs.
type Corpus interface {
	Name() string
	Samples(ctx context.Context) ([]*m.Sample, error)
}

// DirCorpus loads every parseable .go file under a directory. Seed ids are
// "<name>/<slash-separated relative path>". Files whose content duplicates an
// earlier file are skipped.
type DirCorpus struct {
	name    string
	root    m.Path
	exclude []*regexp.Regexp

	fsAdapter adapter.SourceFSAdapter
	goFiles   adapter.GoFileAdapter

	mu      sync.Mutex
	samples []*m.Sample
	files   []m.File
}

// NewDirCorpus constructs a DirCorpus. exclude patterns are matched against
// the relative path of each file.
func NewDirCorpus(
	name string,
	root m.Path,
	exclude []string,
	fsAdapter adapter.SourceFSAdapter,
	goFiles adapter.GoFileAdapter,
) (*DirCorpus, error) {
	patterns := make([]*regexp.Regexp, 0, len(exclude))

	for _, e := range exclude {
		re, err := regexp.Compile(e)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", e, err)
		}

		patterns = append(patterns, re)
	}

	return &DirCorpus{
		name:      name,
		root:      root,
		exclude:   patterns,
		fsAdapter: fsAdapter,
		goFiles:   goFiles,
	}, nil
}

// Name implements Corpus.
func (c *DirCorpus) Name() string { return c.name }

// Root returns the directory the corpus is loaded from.
func (c *DirCorpus) Root() m.Path { return c.root }

// Samples implements Corpus. The directory is read once; later calls return
// the same samples.
func (c *DirCorpus) Samples(ctx context.Context) ([]*m.Sample, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.samples != nil {
		return c.samples, nil
	}

	var paths []string

	err := c.fsAdapter.Walk(ctx, c.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() || filepath.Ext(path) != ".go" {
			return nil
		}

		paths = append(paths, path)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus %s: %w", c.name, err)
	}

	sort.Strings(paths)

	samples := make([]*m.Sample, 0, len(paths))
	files := make([]m.File, 0, len(paths))
	hashes := make(map[string]string, len(paths))

	for _, path := range paths {
		file, sample, err := c.load(ctx, path, hashes)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			slog.Warn("Skipping seed", "corpus", c.name, "path", path, "error", err)

			continue
		}

		if sample != nil {
			samples = append(samples, sample)
			files = append(files, file)
		}
	}

	slog.Info("Loaded corpus", "corpus", c.name, "root", c.root, "seeds", len(samples))

	c.samples = samples
	c.files = files

	return samples, nil
}

// Files returns the files behind the loaded seeds, in seed order. It is
// empty until Samples has succeeded.
func (c *DirCorpus) Files() []m.File {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.files
}

func (c *DirCorpus) load(ctx context.Context, path string, hashes map[string]string) (m.File, *m.Sample, error) {
	rel, err := c.fsAdapter.RelPath(c.root, m.Path(path))
	if err != nil {
		return m.File{}, nil, err
	}

	for _, re := range c.exclude {
		if re.MatchString(string(rel)) {
			return m.File{}, nil, nil
		}
	}

	hash, err := c.fsAdapter.HashFile(m.Path(path))
	if err != nil {
		return m.File{}, nil, err
	}

	if first, dup := hashes[hash]; dup {
		slog.Debug("Skipping duplicate seed", "corpus", c.name, "path", rel, "duplicate_of", first)
		return m.File{}, nil, nil
	}

	src, err := c.fsAdapter.ReadFile(ctx, m.Path(path))
	if err != nil {
		return m.File{}, nil, err
	}

	if _, err := c.goFiles.Parse(ctx, src); err != nil {
		return m.File{}, nil, err
	}

	hashes[hash] = string(rel)

	file := m.File{Path: m.Path(path), ShortPath: rel, Hash: hash}

	return file, m.NewSample(c.name+"/"+string(rel), string(src), nil, nil), nil
}

type allCorpuses struct {
	corpora []Corpus

	mu      sync.Mutex
	samples []*m.Sample
}

// AllCorpuses concatenates corpora ordered by name. The combined list is
// built once.
func AllCorpuses(corpora ...Corpus) Corpus {
	sorted := append([]Corpus(nil), corpora...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name() < sorted[j].Name()
	})

	return &allCorpuses{corpora: sorted}
}

func (a *allCorpuses) Name() string { return "all" }

func (a *allCorpuses) Samples(ctx context.Context) ([]*m.Sample, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.samples != nil {
		return a.samples, nil
	}

	all := []*m.Sample{}

	for _, c := range a.corpora {
		samples, err := c.Samples(ctx)
		if err != nil {
			return nil, fmt.Errorf("load corpus %s: %w", c.Name(), err)
		}

		all = append(all, samples...)
	}

	a.samples = all

	return all, nil
}

// CorpusManifest lists corpora in a YAML file:
//
//	corpora:
//	  - name: seeds
//	    path: ./testdata/seeds
//	    exclude: ['_test\.go$']
type CorpusManifest struct {
	Corpora []CorpusEntry `yaml:"corpora"`
}

// CorpusEntry is one directory corpus. Relative paths are resolved against
// the manifest's directory.
type CorpusEntry struct {
	Name    string   `yaml:"name"`
	Path    string   `yaml:"path"`
	Exclude []string `yaml:"exclude"`
}

// LoadCorpusManifest reads and validates a manifest.
func LoadCorpusManifest(path string) (CorpusManifest, error) {
	// #nosec G304 - manifest path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return CorpusManifest{}, fmt.Errorf("read corpus manifest: %w", err)
	}

	var manifest CorpusManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return CorpusManifest{}, fmt.Errorf("parse corpus manifest: %w", err)
	}

	base := filepath.Dir(path)
	seen := make(map[string]struct{}, len(manifest.Corpora))

	for i, entry := range manifest.Corpora {
		if entry.Path == "" {
			return CorpusManifest{}, fmt.Errorf("corpus manifest entry %d has no path", i)
		}

		if !filepath.IsAbs(entry.Path) {
			manifest.Corpora[i].Path = filepath.Join(base, entry.Path)
		}

		if entry.Name == "" {
			manifest.Corpora[i].Name = filepath.Base(manifest.Corpora[i].Path)
		}

		name := manifest.Corpora[i].Name
		if _, dup := seen[name]; dup {
			return CorpusManifest{}, fmt.Errorf("duplicate corpus name %q", name)
		}

		seen[name] = struct{}{}
	}

	return manifest, nil
}

// CorpusOptions selects the corpora to load.
type CorpusOptions struct {
	Paths    []string
	Manifest string
	// Exclude applies to every corpus on top of per-entry patterns.
	Exclude []string
}

// ErrNoCorpus means neither corpus paths nor a manifest were configured.
var ErrNoCorpus = errors.New("no corpus configured")

// BuildCorpora creates directory corpora from plain paths and the manifest.
func BuildCorpora(opts CorpusOptions, fsAdapter adapter.SourceFSAdapter, goFiles adapter.GoFileAdapter) ([]Corpus, error) {
	entries := make([]CorpusEntry, 0, len(opts.Paths))

	for _, p := range opts.Paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		entries = append(entries, CorpusEntry{Name: filepath.Base(filepath.Clean(p)), Path: p})
	}

	if opts.Manifest != "" {
		manifest, err := LoadCorpusManifest(opts.Manifest)
		if err != nil {
			return nil, err
		}

		entries = append(entries, manifest.Corpora...)
	}

	if len(entries) == 0 {
		return nil, ErrNoCorpus
	}

	seen := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		if _, dup := seen[entry.Name]; dup {
			return nil, fmt.Errorf("duplicate corpus name %q", entry.Name)
		}

		seen[entry.Name] = struct{}{}
	}

	corpora := make([]Corpus, 0, len(entries))

	for _, entry := range entries {
		exclude := append(append([]string(nil), opts.Exclude...), entry.Exclude...)

		c, err := NewDirCorpus(entry.Name, m.Path(entry.Path), exclude, fsAdapter, goFiles)
		if err != nil {
			return nil, fmt.Errorf("corpus %s: %w", entry.Name, err)
		}

		corpora = append(corpora, c)
	}

	return corpora, nil
}

// CorpusSummary describes a loaded corpus.
type CorpusSummary struct {
	Name    string
	Seeds   int
	Mains   int
	Nodes   int
	Samples []*m.Sample
}

// SummarizeCorpus loads c and aggregates its seed summaries.
func SummarizeCorpus(ctx context.Context, c Corpus, goFiles adapter.GoFileAdapter) (CorpusSummary, error) {
	samples, err := c.Samples(ctx)
	if err != nil {
		return CorpusSummary{}, err
	}

	summary := CorpusSummary{Name: c.Name(), Seeds: len(samples), Samples: samples}

	for _, s := range samples {
		tree, err := s.Tree()
		if err != nil {
			continue
		}

		file := goFiles.Summarize(tree)
		summary.Nodes += file.Nodes

		if file.HasMain {
			summary.Mains++
		}
	}

	return summary, nil
}
