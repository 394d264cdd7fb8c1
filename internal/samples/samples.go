// Package samples serves the demo's sample XML documents. Built-in samples are
// embedded in the binary; a configured directory overrides them file by file.
package samples

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:embed data/*.xml
var builtin embed.FS

// BuiltinSource is the Source of samples read from the embedded defaults.
const BuiltinSource = "builtin"

// ErrUnknownSample is returned for names outside Names.
var ErrUnknownSample = errors.New("unknown sample")

var names = []string{"small", "medium", "large"}

// Names returns the sample names in display order.
func Names() []string {
	return append([]string(nil), names...)
}

// Sample is one loaded XML document.
type Sample struct {
	Name     string    `json:"name"`
	XML      string    `json:"-"`
	Source   string    `json:"source"`
	Size     int       `json:"size"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Library caches samples and reloads them when their files change.
type Library struct {
	dir     string
	logger  *zap.Logger
	mu      sync.RWMutex
	samples map[string]Sample
}

// Option configures a Library.
type Option func(*Library)

// WithDirectory reads <dir>/<name>.xml in preference to the built-in sample.
func WithDirectory(dir string) Option {
	return func(l *Library) { l.dir = dir }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLibrary returns an empty library; samples load lazily or through Preload.
func NewLibrary(opts ...Option) *Library {
	l := &Library{
		logger:  zap.NewNop(),
		samples: make(map[string]Sample),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the override directory, or "" when only built-in samples are used.
func (l *Library) Dir() string {
	return l.dir
}

// Normalize maps "small", "Small" or "small.xml" to the canonical sample name.
func Normalize(name string) (string, error) {
	n := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), ".xml"))
	for _, known := range names {
		if n == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSample, name)
}

// Preload reads every sample concurrently.
func (l *Library) Preload(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := l.read(name)
			if err != nil {
				return err
			}
			l.store(s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("preload samples: %w", err)
	}
	l.logger.Debug("samples preloaded", zap.String("dir", l.dir), zap.Int("count", len(names)))
	return nil
}

// Get returns the named sample, reading it on first use.
func (l *Library) Get(ctx context.Context, name string) (Sample, error) {
	canonical, err := Normalize(name)
	if err != nil {
		return Sample{}, err
	}
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	l.mu.RLock()
	s, ok := l.samples[canonical]
	l.mu.RUnlock()
	if ok {
		return s, nil
	}
	s, err = l.read(canonical)
	if err != nil {
		return Sample{}, err
	}
	l.store(s)
	return s, nil
}

// List returns the loaded samples in display order.
func (l *Library) List() []Sample {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Sample, 0, len(names))
	for _, name := range names {
		if s, ok := l.samples[name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Reload re-reads the sample stored at path. Paths that are not sample files are ignored.
// It is meant to be used as a file watcher callback.
func (l *Library) Reload(path string) {
	name, err := Normalize(filepath.Base(path))
	if err != nil {
		return
	}
	s, err := l.read(name)
	if err != nil {
		l.logger.Warn("sample reload failed", zap.String("path", path), zap.Error(err))
		return
	}
	l.store(s)
	l.logger.Info("sample reloaded", zap.String("name", name), zap.String("source", s.Source), zap.Int("size", s.Size))
}

// Forget drops the cached sample for path so the next Get falls back to the built-in copy.
func (l *Library) Forget(path string) {
	name, err := Normalize(filepath.Base(path))
	if err != nil {
		return
	}
	l.mu.Lock()
	delete(l.samples, name)
	l.mu.Unlock()
	l.logger.Info("sample file removed", zap.String("name", name), zap.String("path", path))
}

func (l *Library) store(s Sample) {
	l.mu.Lock()
	l.samples[s.Name] = s
	l.mu.Unlock()
}

func (l *Library) read(name string) (Sample, error) {
	if l.dir != "" {
		path := filepath.Join(l.dir, name+".xml")
		data, err := os.ReadFile(path)
		if err == nil {
			return newSample(name, path, data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return Sample{}, fmt.Errorf("read sample %s: %w", name, err)
		}
	}
	data, err := builtin.ReadFile("data/" + name + ".xml")
	if err != nil {
		return Sample{}, fmt.Errorf("read built-in sample %s: %w", name, err)
	}
	return newSample(name, BuiltinSource, data), nil
}

func newSample(name, source string, data []byte) Sample {
	return Sample{
		Name:     name,
		XML:      string(data),
		Source:   source,
		Size:     len(data),
		LoadedAt: time.Now(),
	}
}
