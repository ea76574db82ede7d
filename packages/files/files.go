package files

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File is a selected file that can be streamed into a request body.
type File interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// Element is anything a Resolver can return for an id.
type Element interface {
	ID() string
	IsFileInput() bool
	Files() []File
}

// Resolver resolves element ids.
type Resolver interface {
	Resolve(id string) (Element, bool)
}

// Registry is the default Resolver. The zero value is not usable; use NewRegistry.
type Registry struct {
	mu       sync.RWMutex
	elements map[string]Element
}

func NewRegistry(elements ...Element) *Registry {
	r := &Registry{elements: make(map[string]Element)}
	for _, el := range elements {
		r.Register(el)
	}
	return r
}

// Register adds el, replacing any element with the same id.
func (r *Registry) Register(el Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.elements[el.ID()] = el
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.elements, id)
}

func (r *Registry) Resolve(id string) (Element, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	el, ok := r.elements[id]
	return el, ok
}

// FileInput is a file-input element.
type FileInput struct {
	id string

	mu       sync.RWMutex
	selected []File
}

func NewFileInput(id string, selected ...File) *FileInput {
	return &FileInput{id: id, selected: selected}
}

func (f *FileInput) ID() string        { return f.id }
func (f *FileInput) IsFileInput() bool { return true }

func (f *FileInput) Files() []File {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]File, len(f.selected))
	copy(out, f.selected)
	return out
}

// Select replaces the current selection.
func (f *FileInput) Select(selected ...File) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = selected
}

// TextInput is a plain input element. It never carries files.
type TextInput struct {
	id    string
	Value string
}

func NewTextInput(id, value string) *TextInput {
	return &TextInput{id: id, Value: value}
}

func (t *TextInput) ID() string        { return t.id }
func (t *TextInput) IsFileInput() bool { return false }
func (t *TextInput) Files() []File     { return nil }

// OSFile is a file on the local filesystem.
type OSFile struct {
	path string
	size int64
}

// NewOSFile stats path and returns a File for it. When baseDir is set, a
// relative path is resolved against it and the result must stay inside it.
func NewOSFile(path, baseDir string) (*OSFile, error) {
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	if err := validatePathWithinBase(path, baseDir); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &OSFile{path: path, size: info.Size()}, nil
}

func (f *OSFile) Name() string { return filepath.Base(f.path) }
func (f *OSFile) Path() string { return f.path }
func (f *OSFile) Size() int64  { return f.size }

func (f *OSFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// MemFile is an in-memory file.
type MemFile struct {
	name string
	data []byte
}

func NewMemFile(name string, data []byte) *MemFile {
	return &MemFile{name: name, data: data}
}

func (f *MemFile) Name() string { return f.name }
func (f *MemFile) Size() int64  { return int64(len(f.data)) }

func (f *MemFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// validatePathWithinBase checks that the resolved path stays within the base directory
// to prevent path traversal attacks
func validatePathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}

	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %v", err)
	}

	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %v", err)
	}

	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}

	return nil
}
