package dirstore

import (
	"errors"
	"testing"
)

type testMeta struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type testLine struct {
	Seq int `json:"seq"`
}

func TestMetaRoundTrip(t *testing.T) {
	ds := New(t.TempDir(), "widget")

	if err := ds.EnsureDir("w1"); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := ds.WriteMeta("w1", testMeta{Name: "alpha", Count: 3}); err != nil {
		t.Fatalf("WriteMeta: %v", err)
	}

	var got testMeta
	if err := ds.ReadMeta("w1", &got); err != nil {
		t.Fatalf("ReadMeta: %v", err)
	}
	if got.Name != "alpha" || got.Count != 3 {
		t.Errorf("got %+v, want {alpha 3}", got)
	}
}

func TestReadMetaNotFound(t *testing.T) {
	ds := New(t.TempDir(), "widget")

	var got testMeta
	err := ds.ReadMeta("missing", &got)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListDirs(t *testing.T) {
	ds := New(t.TempDir(), "widget")

	for _, id := range []string{"a", "b", "c"} {
		if err := ds.EnsureDir(id); err != nil {
			t.Fatalf("EnsureDir %s: %v", id, err)
		}
	}

	names, err := ds.ListDirs()
	if err != nil {
		t.Fatalf("ListDirs: %v", err)
	}
	if len(names) != 3 {
		t.Errorf("ListDirs returned %d names, want 3", len(names))
	}
}

func TestListDirsMissingBase(t *testing.T) {
	ds := New(t.TempDir()+"/nope", "widget")

	names, err := ds.ListDirs()
	if err != nil {
		t.Fatalf("ListDirs: %v", err)
	}
	if names != nil {
		t.Errorf("expected nil for missing base dir, got %v", names)
	}
}

func TestJSONLAppendLoad(t *testing.T) {
	ds := New(t.TempDir(), "widget")
	if err := ds.EnsureDir("w1"); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}

	for i := 1; i <= 3; i++ {
		if err := ds.AppendJSONL("w1", "log.jsonl", testLine{Seq: i}); err != nil {
			t.Fatalf("AppendJSONL: %v", err)
		}
	}

	lines, err := LoadJSONL[testLine](ds, "w1", "log.jsonl")
	if err != nil {
		t.Fatalf("LoadJSONL: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("loaded %d lines, want 3", len(lines))
	}
	if lines[2].Seq != 3 {
		t.Errorf("last seq = %d, want 3", lines[2].Seq)
	}
}

func TestLoadJSONLMissingFile(t *testing.T) {
	ds := New(t.TempDir(), "widget")

	lines, err := LoadJSONL[testLine](ds, "w1", "log.jsonl")
	if err != nil {
		t.Fatalf("LoadJSONL: %v", err)
	}
	if lines != nil {
		t.Errorf("expected nil for missing file, got %v", lines)
	}
}

func TestRemoveDir(t *testing.T) {
	ds := New(t.TempDir(), "widget")
	if err := ds.EnsureDir("w1"); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := ds.RemoveDir("w1"); err != nil {
		t.Fatalf("RemoveDir: %v", err)
	}

	var got testMeta
	if err := ds.ReadMeta("w1", &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("err after remove = %v, want ErrNotFound", err)
	}
}

func TestReadFileContentMissing(t *testing.T) {
	ds := New(t.TempDir(), "widget")

	data, err := ds.ReadFileContent("w1", "notes.md")
	if err != nil {
		t.Fatalf("ReadFileContent: %v", err)
	}
	if data != nil {
		t.Errorf("expected nil content, got %q", data)
	}
}
