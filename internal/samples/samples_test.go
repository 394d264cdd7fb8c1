package samples

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"small", "small", false},
		{"Medium", "medium", false},
		{"large.xml", "large", false},
		{" small ", "small", false},
		{"huge", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Normalize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrUnknownSample) {
			t.Errorf("Normalize(%q) error = %v, want ErrUnknownSample", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLibrary_Builtin(t *testing.T) {
	lib := NewLibrary()
	if err := lib.Preload(context.Background()); err != nil {
		t.Fatal(err)
	}
	list := lib.List()
	if len(list) != len(Names()) {
		t.Fatalf("List() len = %d, want %d", len(list), len(Names()))
	}
	for i, s := range list {
		if s.Name != Names()[i] {
			t.Errorf("List()[%d] = %s, want %s", i, s.Name, Names()[i])
		}
		if s.Source != BuiltinSource || !strings.Contains(s.XML, "<p>") || s.Size != len(s.XML) {
			t.Errorf("sample %s: source=%s size=%d", s.Name, s.Source, s.Size)
		}
	}
}

func TestLibrary_DirectoryOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.xml")
	if err := os.WriteFile(path, []byte("<doc><p>custom</p></doc>"), 0600); err != nil {
		t.Fatal(err)
	}
	lib := NewLibrary(WithDirectory(dir))
	ctx := context.Background()

	small, err := lib.Get(ctx, "small")
	if err != nil {
		t.Fatal(err)
	}
	if small.Source != path || !strings.Contains(small.XML, "custom") {
		t.Errorf("small = %+v", small)
	}
	medium, err := lib.Get(ctx, "medium.xml")
	if err != nil {
		t.Fatal(err)
	}
	if medium.Source != BuiltinSource {
		t.Errorf("medium should fall back to built-in, got %s", medium.Source)
	}
}

func TestLibrary_ReloadAndForget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "large.xml")
	if err := os.WriteFile(path, []byte("<doc>v1</doc>"), 0600); err != nil {
		t.Fatal(err)
	}
	lib := NewLibrary(WithDirectory(dir))
	ctx := context.Background()
	if err := lib.Preload(ctx); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("<doc>v2</doc>"), 0600); err != nil {
		t.Fatal(err)
	}
	lib.Reload(path)
	got, _ := lib.Get(ctx, "large")
	if got.XML != "<doc>v2</doc>" {
		t.Errorf("after Reload XML = %q", got.XML)
	}

	lib.Reload(filepath.Join(dir, "unrelated.xml"))

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	lib.Forget(path)
	got, _ = lib.Get(ctx, "large")
	if got.Source != BuiltinSource {
		t.Errorf("after Forget source = %s, want built-in", got.Source)
	}
}

func TestLibrary_GetUnknown(t *testing.T) {
	_, err := NewLibrary().Get(context.Background(), "enormous")
	if !errors.Is(err, ErrUnknownSample) {
		t.Fatalf("Get(unknown) = %v, want ErrUnknownSample", err)
	}
}

func TestLibrary_PreloadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewLibrary().Preload(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Preload(cancelled) = %v, want context.Canceled", err)
	}
}
