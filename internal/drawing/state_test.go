package drawing

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		in   string
		want State
		ok   bool
	}{
		{"0", StateFree, true},
		{"1", StateModelChanging, true},
		{"2\n", StateDrawing, true},
		{"", StateFree, false},
		{"7", StateFree, false},
	}
	for _, tt := range tests {
		got, ok := ParseState(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseState(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStateBusyText(t *testing.T) {
	if StateFree.Busy() {
		t.Error("free must not be busy")
	}
	if got := StateModelChanging.busyText(); got != "正在换模型中，等换完后再来吧" {
		t.Errorf("unexpected model-changing text %q", got)
	}
	if got := StateDrawing.busyText(); got != "正在跑图中，等跑完图后再来吧" {
		t.Errorf("unexpected drawing text %q", got)
	}
}

func TestFileStateStore_RoundTrip(t *testing.T) {
	fs := NewFileStateStore(filepath.Join(t.TempDir(), "draw"))

	for _, st := range []State{StateModelChanging, StateDrawing, StateFree} {
		if err := fs.WriteState(st); err != nil {
			t.Fatalf("WriteState(%v): %v", st, err)
		}
		got, err := fs.ReadState()
		if err != nil {
			t.Fatalf("ReadState: %v", err)
		}
		if got != st {
			t.Errorf("round trip: got %v, want %v", got, st)
		}
	}

	if err := fs.WriteModel("二次元"); err != nil {
		t.Fatal(err)
	}
	model, err := fs.ReadModel()
	if err != nil {
		t.Fatal(err)
	}
	if model != "二次元" {
		t.Errorf("model = %q, want %q", model, "二次元")
	}
}

func TestFileStateStore_AbsentFiles(t *testing.T) {
	fs := NewFileStateStore(t.TempDir())

	st, err := fs.ReadState()
	if err != nil {
		t.Fatalf("ReadState on absent file: %v", err)
	}
	if st != StateFree {
		t.Errorf("absent state file should read as free, got %v", st)
	}
	model, err := fs.ReadModel()
	if err != nil || model != "" {
		t.Errorf("absent model file should read as empty, got %q, %v", model, err)
	}
}

func TestFileStateStore_OnDiskFormat(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStateStore(dir)
	if err := fs.WriteState(StateDrawing); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "state.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "2" {
		t.Errorf("state.txt = %q, want %q", data, "2")
	}
	if _, err := os.Stat(filepath.Join(dir, "state.txt.tmp")); !os.IsNotExist(err) {
		t.Error("temp file should not survive a write")
	}
}

func TestFileStateStore_UnknownContent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "state.txt"), []byte("busy\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A model written by hand with a trailing newline.
	if err := os.WriteFile(filepath.Join(dir, "model.txt"), []byte("写实\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := NewFileStateStore(dir)
	st, err := fs.ReadState()
	if err != nil {
		t.Fatal(err)
	}
	if st != StateFree {
		t.Errorf("unknown content should read as free, got %v", st)
	}
	model, _ := fs.ReadModel()
	if model != "写实" {
		t.Errorf("model = %q, want %q", model, "写实")
	}
}

func TestMemoryStateStore(t *testing.T) {
	m := NewMemoryStateStore()
	st, _ := m.ReadState()
	if st != StateFree {
		t.Errorf("initial state = %v, want free", st)
	}
	_ = m.WriteState(StateDrawing)
	_ = m.WriteModel("anime")
	st, _ = m.ReadState()
	model, _ := m.ReadModel()
	if st != StateDrawing || model != "anime" {
		t.Errorf("got %v %q", st, model)
	}
}

func TestNewStateStore(t *testing.T) {
	if s, err := NewStateStore("", t.TempDir()); err != nil {
		t.Fatal(err)
	} else if _, ok := s.(*FileStateStore); !ok {
		t.Errorf("default store should be file-backed, got %T", s)
	}
	if s, err := NewStateStore("memory", ""); err != nil {
		t.Fatal(err)
	} else if _, ok := s.(*MemoryStateStore); !ok {
		t.Errorf("expected memory store, got %T", s)
	}
	if _, err := NewStateStore("redis", ""); err == nil {
		t.Error("expected error for unsupported store")
	}
}
