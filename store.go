package rtm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TemplateStore persists generic manifest text keyed by call name.
type TemplateStore interface {
	// Load returns the template stored under name. ok is false when there is
	// no entry; err is set when an entry exists but cannot be read.
	Load(name string) (text string, ok bool, err error)

	// Save stores text under name, replacing any previous entry.
	Save(name, text string) error
}

// TemplateExt is the file extension of templates written by DirStore.
const TemplateExt = ".rtm"

// DirStore keeps one <name>.rtm file per call name in a directory,
// conventionally the rtm/ directory of the package under test.
type DirStore struct {
	dir string
}

// NewDirStore creates a store rooted at dir, creating the directory if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("rtm: create template dir: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

// PackageDirStore creates a store in the rtm/ directory of a package.
func PackageDirStore(packageDir string) (*DirStore, error) {
	return NewDirStore(filepath.Join(packageDir, "rtm"))
}

// Dir returns the template directory.
func (s *DirStore) Dir() string {
	return s.dir
}

// Path returns the file that holds the template for name.
func (s *DirStore) Path(name string) string {
	return filepath.Join(s.dir, name+TemplateExt)
}

// Load implements TemplateStore. File existence is the hit test.
func (s *DirStore) Load(name string) (string, bool, error) {
	if err := checkTemplateName(name); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", true, &MalformedTemplateError{Name: name, Err: err}
	}
	return string(data), true, nil
}

// Save implements TemplateStore.
func (s *DirStore) Save(name, text string) error {
	if err := checkTemplateName(name); err != nil {
		return err
	}
	if err := os.WriteFile(s.Path(name), []byte(text), 0o644); err != nil {
		return fmt.Errorf("rtm: write template %q: %w", name, err)
	}
	return nil
}

// checkTemplateName rejects names that would escape the template directory.
func checkTemplateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("rtm: invalid template name %q", name)
	}
	return nil
}

// MemoryStore is a map-backed TemplateStore for tests.
type MemoryStore struct {
	templates map[string]string
	saves     int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: make(map[string]string)}
}

// Load implements TemplateStore.
func (s *MemoryStore) Load(name string) (string, bool, error) {
	text, ok := s.templates[name]
	return text, ok, nil
}

// Save implements TemplateStore.
func (s *MemoryStore) Save(name, text string) error {
	s.templates[name] = text
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *MemoryStore) Saves() int {
	return s.saves
}
