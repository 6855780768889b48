package blobstore

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// stores returns both implementations so the suite runs against each.
func stores(t *testing.T) map[string]Store {
	t.Helper()

	fs, err := NewFileSystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemStore: %v", err)
	}
	return map[string]Store{
		"filesystem": fs,
		"memory":     NewMemoryStore(),
	}
}

func put(t *testing.T, s Store, key, content string) {
	t.Helper()

	staged, err := s.Stage(key, strings.NewReader(content))
	if err != nil {
		t.Fatalf("stage %s: %v", key, err)
	}
	if err := staged.Promote(); err != nil {
		t.Fatalf("promote %s: %v", key, err)
	}
}

func get(t *testing.T, s Store, key string) string {
	t.Helper()

	rc, err := s.Open(key)
	if err != nil {
		t.Fatalf("open %s: %v", key, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return string(data)
}

func TestStageAndPromote(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			staged, err := s.Stage("a/b.txt", strings.NewReader("hello"))
			if err != nil {
				t.Fatalf("stage: %v", err)
			}
			if staged.Size() != 5 {
				t.Errorf("Size = %d, want 5", staged.Size())
			}

			// Nothing visible until promote.
			if exists, _ := s.Exists("a/b.txt"); exists {
				t.Error("blob visible before promote")
			}

			if err := staged.Promote(); err != nil {
				t.Fatalf("promote: %v", err)
			}
			if got := get(t, s, "a/b.txt"); got != "hello" {
				t.Errorf("content = %q", got)
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			staged, err := s.Stage("x.txt", strings.NewReader("tossed"))
			if err != nil {
				t.Fatalf("stage: %v", err)
			}
			if err := staged.Discard(); err != nil {
				t.Fatalf("discard: %v", err)
			}
			if exists, _ := s.Exists("x.txt"); exists {
				t.Error("discarded blob became visible")
			}
			if err := staged.Promote(); err == nil {
				t.Error("promote after discard should fail")
			}
		})
	}
}

func TestCopyAndRemove(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			put(t, s, "src.txt", "payload")

			if err := s.Copy("src.txt", "deep/dst.txt"); err != nil {
				t.Fatalf("copy: %v", err)
			}
			if got := get(t, s, "deep/dst.txt"); got != "payload" {
				t.Errorf("copied content = %q", got)
			}

			if err := s.Copy("absent.txt", "y.txt"); !errors.Is(err, ErrBlobNotFound) {
				t.Errorf("copy of missing blob: got %v, want ErrBlobNotFound", err)
			}

			if err := s.Remove("src.txt"); err != nil {
				t.Fatalf("remove: %v", err)
			}
			if exists, _ := s.Exists("src.txt"); exists {
				t.Error("removed blob still present")
			}
			// Removing twice is fine.
			if err := s.Remove("src.txt"); err != nil {
				t.Errorf("second remove: %v", err)
			}
		})
	}
}

func TestRemoveAll(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			put(t, s, "tree/a.txt", "1")
			put(t, s, "tree/sub/b.txt", "2")
			put(t, s, "treeish/c.txt", "3")

			if err := s.RemoveAll("tree"); err != nil {
				t.Fatalf("remove all: %v", err)
			}
			for _, key := range []string{"tree/a.txt", "tree/sub/b.txt"} {
				if exists, _ := s.Exists(key); exists {
					t.Errorf("%s survived RemoveAll", key)
				}
			}
			// A sibling sharing the prefix text is untouched.
			if exists, _ := s.Exists("treeish/c.txt"); !exists {
				t.Error("RemoveAll removed a non-descendant")
			}
		})
	}
}

func TestOpenMissing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Open("nope.txt"); !errors.Is(err, ErrBlobNotFound) {
				t.Errorf("got %v, want ErrBlobNotFound", err)
			}
		})
	}
}

func TestFileSystemRejectsEscapingKeys(t *testing.T) {
	fs, err := NewFileSystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemStore: %v", err)
	}

	for _, key := range []string{"../outside.txt", "/etc/passwd", "a/../../b"} {
		if _, err := fs.Open(key); err == nil {
			t.Errorf("Open(%q) accepted an escaping key", key)
		}
	}
}
