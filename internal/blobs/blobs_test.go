package blobs

import (
	"os"
	"strings"
	"testing"
)

func TestNew_RequiresDir(t *testing.T) {
	_, err := New("")
	if err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestNew_CreatesDir(t *testing.T) {
	dir := t.TempDir() + "/nested/motivation"
	if _, err := New(dir); err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("dir not created: %v", err)
	}
}

func TestSave_And_ListAll(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	path, err := s.Save(KindPhoto, 42, []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.Contains(path, "photo") {
		t.Errorf("path = %q, want kind subdirectory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("content = %q, want %q", data, "jpeg-bytes")
	}

	refs, err := s.ListAll(KindPhoto)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("len = %d, want 1", len(refs))
	}
	if refs[0].Kind != KindPhoto || refs[0].Path != path {
		t.Errorf("ref = %+v, want kind=photo path=%q", refs[0], path)
	}
}

func TestSave_UnsupportedKind(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save("document", 1, []byte("x")); err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}

func TestSave_EmptyPayload(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(KindVideo, 1, nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestListAll_EmptyKind(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	refs, err := s.ListAll(KindAnimation)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("len = %d, want 0", len(refs))
	}
}

func TestPickRandom_Empty(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.PickRandom(); ok {
		t.Error("ok = true for empty store, want false")
	}
}

func TestPickRandom_AcrossKinds(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(KindPhoto, 1, []byte("p")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(KindVideo, 1, []byte("v")); err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ref, ok := s.PickRandom()
		if !ok {
			t.Fatal("ok = false, want true")
		}
		seen[ref.Kind] = true
	}
	if !seen[KindPhoto] || !seen[KindVideo] {
		t.Errorf("100 picks never hit both kinds: %v", seen)
	}
}
