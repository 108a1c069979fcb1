package filestore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocal_SaveOpen(t *testing.T) {
	store, err := NewLocal(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	stored, err := store.Save(context.Background(), "claims.csv", strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if stored.Size != 8 {
		t.Errorf("Size = %d, want 8", stored.Size)
	}
	if filepath.Dir(stored.Path) != store.Root() {
		t.Errorf("Path %q not under %q", stored.Path, store.Root())
	}
	if !strings.HasSuffix(stored.Path, "_claims.csv") {
		t.Errorf("Path %q should end with _claims.csv", stored.Path)
	}

	rc, err := store.Open(stored.Path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("content = %q", data)
	}
}

func TestLocal_SameNameTwice(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	a, err := store.Save(context.Background(), "claims.csv", strings.NewReader("1"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	b, err := store.Save(context.Background(), "claims.csv", strings.NewReader("2"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if a.Path == b.Path {
		t.Errorf("both uploads stored at %q", a.Path)
	}
}

func TestLocal_OutsideRoot(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	for _, p := range []string{"/etc/passwd", filepath.Join(store.Root(), "..", "x")} {
		if _, err := store.Open(p); !errors.Is(err, ErrOutsideRoot) {
			t.Errorf("Open(%q) error = %v, want ErrOutsideRoot", p, err)
		}
	}
}

func TestLocal_Remove(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	stored, err := store.Save(context.Background(), "x.csv", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Remove(stored.Path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(stored.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("file still present: %v", err)
	}
	if err := store.Remove(stored.Path); err != nil {
		t.Errorf("second Remove() error = %v", err)
	}
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"claims.csv":            "claims.csv",
		"../../etc/passwd":      "passwd",
		`C:\Users\me\march.csv`: "march.csv",
		"my claims?.csv":        "my_claims_.csv",
		"":                      "upload",
	}
	for in, want := range tests {
		if got := sanitize(in); got != want {
			t.Errorf("sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}
