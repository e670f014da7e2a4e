package drawing

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// StateStore persists the slot state and the current model keyword.
type StateStore interface {
	ReadState() (State, error)
	WriteState(State) error
	ReadModel() (string, error)
	WriteModel(string) error
}

const (
	stateFileName = "state.txt"
	modelFileName = "model.txt"
)

// FileStateStore keeps state.txt (one digit) and model.txt (one line) in a directory.
type FileStateStore struct {
	dir string
}

// NewFileStateStore creates a store rooted at dir. The directory is created
// on first write.
func NewFileStateStore(dir string) *FileStateStore {
	return &FileStateStore{dir: dir}
}

// ReadState returns StateFree when state.txt is absent or holds an unknown value.
func (fs *FileStateStore) ReadState() (State, error) {
	line, err := fs.readLine(stateFileName)
	if err != nil {
		return StateFree, err
	}
	st, ok := ParseState(line)
	if !ok && line != "" {
		slog.Warn("unknown draw state, treating as free", "value", line, "path", fs.path(stateFileName))
	}
	return st, nil
}

func (fs *FileStateStore) WriteState(s State) error {
	return fs.writeAtomic(stateFileName, string(s))
}

// ReadModel returns "" when model.txt is absent.
func (fs *FileStateStore) ReadModel() (string, error) {
	return fs.readLine(modelFileName)
}

func (fs *FileStateStore) WriteModel(keyword string) error {
	return fs.writeAtomic(modelFileName, keyword)
}

func (fs *FileStateStore) path(name string) string {
	return filepath.Join(fs.dir, name)
}

// readLine returns the first line of a file without its line ending.
func (fs *FileStateStore) readLine(name string) (string, error) {
	data, err := os.ReadFile(fs.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimRight(line, "\r"), nil
}

// writeAtomic writes through a temp file and rename.
func (fs *FileStateStore) writeAtomic(name, content string) error {
	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return fmt.Errorf("create draw dir: %w", err)
	}

	path := fs.path(name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s tmp: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// MemoryStateStore is an in-process StateStore.
type MemoryStateStore struct {
	mu    sync.RWMutex
	state State
	model string
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{state: StateFree}
}

func (m *MemoryStateStore) ReadState() (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, nil
}

func (m *MemoryStateStore) WriteState(s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	return nil
}

func (m *MemoryStateStore) ReadModel() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.model, nil
}

func (m *MemoryStateStore) WriteModel(keyword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = keyword
	return nil
}

// NewStateStore returns the store selected by kind ("file" or "memory").
func NewStateStore(kind, dir string) (StateStore, error) {
	switch kind {
	case "", "file":
		return NewFileStateStore(dir), nil
	case "memory":
		return NewMemoryStateStore(), nil
	default:
		return nil, fmt.Errorf("unsupported state store: %q", kind)
	}
}
