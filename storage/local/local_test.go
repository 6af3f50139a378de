package local

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/abcompare/errors"
	"github.com/kbukum/abcompare/logger"
	"github.com/kbukum/abcompare/storage"
)

func TestStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st, err := NewStorage(filepath.Join(t.TempDir(), "root"))
	if err != nil {
		t.Fatal(err)
	}

	if err := storage.PutBytes(ctx, st, "ab-1/comparison-result.json", []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	data, err := storage.GetBytes(ctx, st, "ab-1/comparison-result.json")
	if err != nil || !bytes.Equal(data, []byte(`{"ok":true}`)) {
		t.Fatalf("download: %q %v", data, err)
	}

	if ok, _ := st.Exists(ctx, "ab-1/comparison-result.json"); !ok {
		t.Error("expected file to exist")
	}
	if ok, _ := st.Exists(ctx, "ab-1"); ok {
		t.Error("a directory is not an object")
	}

	files, err := st.List(ctx, "ab-")
	if err != nil || len(files) != 1 || files[0].Path != "ab-1/comparison-result.json" {
		t.Fatalf("unexpected list %v %v", files, err)
	}

	if err := st.Delete(ctx, "ab-1/comparison-result.json"); err != nil {
		t.Fatal(err)
	}
	if err := st.Delete(ctx, "ab-1/comparison-result.json"); err != nil {
		t.Errorf("deleting a missing file should succeed: %v", err)
	}
	if _, err := st.Download(ctx, "ab-1/comparison-result.json"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestStorage_PathsStayInRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	st, err := NewStorage(filepath.Join(root, "inner"))
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.PutBytes(ctx, st, "../outside.json", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "outside.json")); err == nil {
		t.Error("upload escaped the storage root")
	}
	if _, err := os.Stat(filepath.Join(root, "inner", "outside.json")); err != nil {
		t.Errorf("expected file inside root: %v", err)
	}
}

func TestFactoryRegistered(t *testing.T) {
	base := t.TempDir()
	st, err := storage.New(context.Background(), storage.Config{Provider: storage.ProviderLocal, BasePath: base, Prefix: "runs"}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.PutBytes(context.Background(), st, "x.json", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(base, "runs", "x.json")); err != nil {
		t.Errorf("expected prefixed file: %v", err)
	}
}
