package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/nerrad567/graywire/internal/configtree"
	"github.com/nerrad567/graywire/internal/service"
)

// FileSource loads YAML or JSON configuration files from disk.
//
// Source identifiers are file paths. Relative paths are resolved against
// Root; an empty Root means the process working directory.
type FileSource struct {
	Root string
}

// supportedExtensions lists the file types FileSource reads.
var supportedExtensions = []string{".yaml", ".yml", ".json"}

// Load reads and decodes the file named by sourceID.
//
// Parameters:
//   - ctx: Unused; present to satisfy SourceLoader
//   - sourceID: Path to the file, absolute or relative to Root
//
// Returns:
//   - *configtree.Map: Decoded top-level mapping
//   - error: Wrapping service.ErrSourceNotFound if the file does not exist,
//     service.ErrTypeMismatch if the extension or document shape is wrong
//     or a number is infinite or NaN
func (s FileSource) Load(_ context.Context, sourceID string) (*configtree.Map, error) {
	path := s.path(sourceID)

	if !slices.Contains(supportedExtensions, strings.ToLower(filepath.Ext(path))) {
		return nil, fmt.Errorf("%w: unsupported config file type %q", service.ErrTypeMismatch, sourceID)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", service.ErrSourceNotFound, sourceID)
		}
		return nil, fmt.Errorf("reading config source %s: %w", sourceID, err)
	}

	tree, err := configtree.DecodeMap(data)
	if err != nil {
		if errors.Is(err, configtree.ErrNotMapping) || errors.Is(err, configtree.ErrNonFinite) {
			return nil, fmt.Errorf("%w: %s: %v", service.ErrTypeMismatch, sourceID, err)
		}
		return nil, fmt.Errorf("parsing config source %s: %w", sourceID, err)
	}
	return tree, nil
}

func (s FileSource) path(sourceID string) string {
	if filepath.IsAbs(sourceID) || s.Root == "" {
		return sourceID
	}
	return filepath.Join(s.Root, sourceID)
}

// MapSource serves configuration fragments held in memory.
type MapSource struct {
	mu      sync.RWMutex
	sources map[string]*configtree.Map
}

// NewMapSource creates a MapSource from id -> fragment pairs.
func NewMapSource(sources map[string]*configtree.Map) *MapSource {
	s := &MapSource{sources: make(map[string]*configtree.Map, len(sources))}
	for id, tree := range sources {
		s.sources[id] = tree.Clone()
	}
	return s
}

// Put adds or replaces a fragment.
func (s *MapSource) Put(sourceID string, tree *configtree.Map) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[sourceID] = tree.Clone()
}

// Load returns a copy of the fragment registered under sourceID.
func (s *MapSource) Load(_ context.Context, sourceID string) (*configtree.Map, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tree, ok := s.sources[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrSourceNotFound, sourceID)
	}
	return tree.Clone(), nil
}
