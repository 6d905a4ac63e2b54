package manifest_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/JaimeStill/docriver/internal/manifest"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		opts  manifest.Options
		files int
		want  error
	}{
		{"ok", manifest.Options{ResourceType: "claim", ResourceID: "C1"}, 2, nil},
		{"no files", manifest.Options{}, 0, manifest.ErrNoFiles},
		{"id without type", manifest.Options{ResourceID: "C1"}, 1, manifest.ErrResourceType},
		{"replaces many", manifest.Options{Replaces: "D0"}, 2, manifest.ErrReplaces},
		{"replaces one", manifest.Options{Replaces: "D0"}, 1, nil},
		{"manifest with flags", manifest.Options{Manifest: "m.json", ResourceType: "claim"}, 1, manifest.ErrManifestFlags},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate(tt.files)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCollect(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"b.pdf":   "b",
		"a.pdf":   "a",
		"x-a.pdf": "x",
		"c.txt":   "c",
	})
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		source string
		filter string
		want   []string
	}{
		{"all", dir, "", []string{"a.pdf", "b.pdf", "c.txt", "x-a.pdf"}},
		{"anchored filter", dir, `a\.`, []string{"a.pdf"}},
		{"extension", dir, `.*\.pdf`, []string{"a.pdf", "b.pdf", "x-a.pdf"}},
		{"single file", filepath.Join(dir, "c.txt"), "", []string{"c.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := manifest.Options{Source: tt.source, Filter: tt.filter}
			base, files, err := o.Collect()
			if err != nil {
				t.Fatalf("collect: %v", err)
			}
			if base != dir {
				t.Errorf("base: got %q, want %q", base, dir)
			}
			if !slices.Equal(files, tt.want) {
				t.Errorf("files: got %v, want %v", files, tt.want)
			}
		})
	}

	bad := manifest.Options{Source: dir, Filter: "("}
	if _, _, err := bad.Collect(); !errors.Is(err, manifest.ErrFilter) {
		t.Errorf("bad filter: got %v", err)
	}
}

func TestBuild(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"scan.pdf":  "not really a pdf",
		"notes.txt": "hello",
	})
	opts := &manifest.Options{
		Prefix:              "p-",
		ResourceType:        "claim",
		ResourceID:          "C1",
		ResourceDescription: "intake",
		Now:                 func() time.Time { return time.Unix(1700000000, 0) },
	}

	m, err := manifest.Build(context.Background(), dir, []string{"notes.txt", "scan.pdf"}, opts)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	sum := sha256.Sum256([]byte("hello"))

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"tx set", m.Tx != "", true},
		{"document count", len(m.Documents), 2},
		{"name", m.Documents[0].Document, "p-notes.txt-1700000000"},
		{"type from extension", m.Documents[0].Type, "txt"},
		{"path", m.Documents[0].Content.Path, "notes.txt"},
		{"filename", m.Documents[0].Properties.Filename, "notes.txt"},
		{"size", m.Documents[0].Properties.Size, int64(5)},
		{"sha256", m.Documents[0].Properties.SHA256, hex.EncodeToString(sum[:])},
		{"unreadable pdf has no page count", m.Documents[1].Properties.PageCount == nil, true},
		{"reference", m.References[0], manifest.Reference{ResourceType: "claim", ResourceID: "C1", ResourceDescription: "intake"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}

	if _, err := manifest.Build(context.Background(), dir, []string{"missing.pdf"}, opts); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadWrite(t *testing.T) {
	m := &manifest.Manifest{
		Tx: "T1",
		Documents: []manifest.Document{{
			Document:   "a-1",
			Type:       "pdf",
			Content:    manifest.Content{Path: "a.pdf"},
			Properties: manifest.Properties{Filename: "a.pdf"},
			Replaces:   "a-0",
		}},
	}

	for _, name := range []string{"manifest.json", "manifest.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := manifest.Write(path, m); err != nil {
				t.Fatalf("write: %v", err)
			}
			got, err := manifest.Read(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if got.Tx != "T1" || got.Documents[0].Replaces != "a-0" || got.Documents[0].Content.Path != "a.pdf" {
				t.Errorf("got %+v", got)
			}
		})
	}

	yml := filepath.Join(t.TempDir(), "hand.yml")
	os.WriteFile(yml, []byte("tx: T2\ndocuments:\n  - document: d1\n    type: pdf\n    content:\n      path: d1.pdf\n"), 0o644)
	got, err := manifest.Read(yml)
	if err != nil {
		t.Fatalf("read yaml: %v", err)
	}
	if got.Tx != "T2" || got.Documents[0].Content.Path != "d1.pdf" {
		t.Errorf("yaml: got %+v", got)
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	os.WriteFile(empty, []byte(`{"tx":"T3","documents":[]}`), 0o644)
	if _, err := manifest.Read(empty); !errors.Is(err, manifest.ErrInvalidManifest) {
		t.Errorf("empty: got %v", err)
	}
}

func TestPrepare(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.txt": "a", "b.txt": "bb"})

	m, attachments, err := manifest.Prepare(context.Background(), &manifest.Options{Source: dir})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if len(m.Documents) != 2 || len(attachments) != 3 {
		t.Fatalf("got %d documents, %d attachments", len(m.Documents), len(attachments))
	}

	names := []string{attachments[0].Filename, attachments[1].Filename, attachments[2].Filename}
	if !slices.Equal(names, []string{manifest.Filename, "a.txt", "b.txt"}) {
		t.Errorf("order: got %v", names)
	}
	if attachments[0].ContentType != "application/json" {
		t.Errorf("manifest content type: got %q", attachments[0].ContentType)
	}

	rc, err := attachments[2].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	if b, _ := io.ReadAll(rc); string(b) != "bb" {
		t.Errorf("file body: got %q", b)
	}

	_, _, err = manifest.Prepare(context.Background(), &manifest.Options{Source: dir, Replaces: "D0"})
	if !errors.Is(err, manifest.ErrReplaces) {
		t.Errorf("replaces many: got %v", err)
	}
}
