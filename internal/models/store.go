package models

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/murmur-dev/murmur/internal/settings"
)

// SelectedKey is the settings key holding the persisted model filename.
const SelectedKey = "models.selected"

// BundleRef is the subset of a resolved bundle the models layer reads.
// bundle.Handle satisfies it.
type BundleRef interface {
	ModelsDir() string
	DefaultModel() string
}

// Option is one selectable model presented to the user. Custom marks a
// .bin file found in the models directory that is not in the catalog.
type Option struct {
	ID        string
	Name      string
	Filename  string
	Available bool
	Custom    bool
}

// SelectionStore persists and validates the user's model choice through
// an injected settings collaborator. It has a single logical writer (the
// application control flow); option lists are recomputed from on-disk
// state and safe to read concurrently.
type SelectionStore struct {
	settings settings.Store
	logger   *slog.Logger

	mu      sync.Mutex
	warning string
}

// NewSelectionStore wires the store to its settings collaborator. logger
// may be nil.
func NewSelectionStore(store settings.Store, logger *slog.Logger) *SelectionStore {
	return &SelectionStore{settings: store, logger: logger}
}

// Snapshot builds the ordered option list for handle's models directory:
// one entry per catalog model with its availability, followed by unknown
// .bin files labeled as local. The second return is the index of the
// current selection, or -1 when it does not resolve to an option.
func (s *SelectionStore) Snapshot(handle BundleRef) ([]Option, int) {
	known := make(map[string]bool, len(catalog))
	opts := make([]Option, 0, len(catalog))
	for _, entry := range Catalog() {
		path := filepath.Join(handle.ModelsDir(), entry.Filename)
		info, err := os.Stat(path)
		opts = append(opts, Option{
			ID:        entry.ID,
			Name:      entry.Name,
			Filename:  entry.Filename,
			Available: err == nil && !info.IsDir(),
		})
		known[entry.Filename] = true
	}

	if entries, err := os.ReadDir(handle.ModelsDir()); err == nil {
		var local []string
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || known[name] || !strings.HasSuffix(name, ".bin") {
				continue
			}
			local = append(local, name)
		}
		sort.Strings(local)
		for _, name := range local {
			opts = append(opts, Option{
				ID:        "local:" + name,
				Name:      name + " (local)",
				Filename:  name,
				Available: true,
				Custom:    true,
			})
		}
	}

	current := filepath.Base(handle.DefaultModel())
	if selected, ok := s.settings.Get(SelectedKey); ok && selected != "" {
		current = selected
	}
	index := -1
	for i, opt := range opts {
		if opt.Filename == current {
			index = i
			break
		}
	}
	return opts, index
}

// ResolvePath returns the model file the recognizer should load. A
// persisted selection that fails validation is cleared, a one-shot
// warning is queued, and the bundle default is returned; callers never
// see a bad selection as an error.
func (s *SelectionStore) ResolvePath(handle BundleRef) string {
	selected, ok := s.settings.Get(SelectedKey)
	if !ok || selected == "" {
		return handle.DefaultModel()
	}

	path, err := ValidateSelection(selected, handle.ModelsDir())
	if err == nil {
		return path
	}

	_ = s.settings.Delete(SelectedKey)
	s.setWarning(fmt.Sprintf(
		"stored model %q is unusable (%v); falling back to %s",
		selected, err, filepath.Base(handle.DefaultModel()),
	))
	if s.logger != nil {
		s.logger.Warn("model selection rejected",
			"selection", selected,
			"reason", err.Error(),
			"fallback", handle.DefaultModel(),
		)
	}
	return handle.DefaultModel()
}

// Warning drains the pending one-shot warning: it is returned at most
// once and cleared on read.
func (s *SelectionStore) Warning() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.warning
	s.warning = ""
	return w, w != ""
}

func (s *SelectionStore) setWarning(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warning = message
}

// Apply persists opt as the active selection. Selecting the bundle
// default clears the stored value instead of writing it.
func (s *SelectionStore) Apply(handle BundleRef, opt Option) error {
	if opt.Filename == "" {
		return fmt.Errorf("models: option %q has no filename", opt.ID)
	}
	if opt.Filename == filepath.Base(handle.DefaultModel()) {
		return s.settings.Delete(SelectedKey)
	}
	return s.settings.Set(SelectedKey, opt.Filename)
}

// ElectDefault persists an initial selection when none is stored: the
// catalog base entry when present among opts, otherwise the first option
// with a filename. With zero options nothing is elected.
func (s *SelectionStore) ElectDefault(handle BundleRef, opts []Option) error {
	if selected, ok := s.settings.Get(SelectedKey); ok && selected != "" {
		return nil
	}
	for _, opt := range opts {
		if opt.ID == DefaultCatalogID {
			return s.Apply(handle, opt)
		}
	}
	for _, opt := range opts {
		if opt.Filename != "" {
			return s.Apply(handle, opt)
		}
	}
	return nil
}
