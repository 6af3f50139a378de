package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/kbukum/abcompare/errors"
	"github.com/kbukum/abcompare/logger"
)

// memStorage implements Storage for testing.
type memStorage struct {
	data map[string][]byte
}

func newMemStorage() *memStorage { return &memStorage{data: make(map[string][]byte)} }

func (m *memStorage) Upload(_ context.Context, p string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.data[p] = data
	return nil
}

func (m *memStorage) Download(_ context.Context, p string) (io.ReadCloser, error) {
	data, ok := m.data[p]
	if !ok {
		return nil, errors.NotFound("object", p)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Delete(_ context.Context, p string) error {
	delete(m.data, p)
	return nil
}

func (m *memStorage) Exists(_ context.Context, p string) (bool, error) {
	_, ok := m.data[p]
	return ok, nil
}

func (m *memStorage) List(_ context.Context, prefix string) ([]FileInfo, error) {
	var out []FileInfo
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, FileInfo{Path: k, Size: int64(len(v))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	st := newMemStorage()

	in := map[string]any{"status": "succeeded", "n": 2.0}
	if err := PutJSON(ctx, st, "r.json", in); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(st.data["r.json"], []byte("}\n")) {
		t.Errorf("expected indented JSON with trailing newline, got %q", st.data["r.json"])
	}

	var out map[string]any
	if err := GetJSON(ctx, st, "r.json", &out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "succeeded" || out["n"] != 2.0 {
		t.Errorf("unexpected round trip %v", out)
	}

	if _, err := GetBytes(ctx, st, "missing"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestWithPrefix(t *testing.T) {
	ctx := context.Background()
	inner := newMemStorage()
	st := WithPrefix(inner, "/nightly/")

	if err := PutBytes(ctx, st, "ab-1/comparison-result.json", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if _, ok := inner.data["nightly/ab-1/comparison-result.json"]; !ok {
		t.Fatalf("expected prefixed key, got %v", inner.data)
	}
	if ok, _ := st.Exists(ctx, "ab-1/comparison-result.json"); !ok {
		t.Error("expected object to exist through prefix")
	}
	files, err := st.List(ctx, "ab-1")
	if err != nil || len(files) != 1 || files[0].Path != "ab-1/comparison-result.json" {
		t.Errorf("unexpected list %v %v", files, err)
	}
	if err := st.Delete(ctx, "ab-1/comparison-result.json"); err != nil || len(inner.data) != 0 {
		t.Errorf("expected delete through prefix, got %v", inner.data)
	}

	if WithPrefix(inner, "") != Storage(inner) {
		t.Error("empty prefix should return the store unchanged")
	}
}

func TestConfig(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	if c.Provider != ProviderLocal || c.BasePath != DefaultBasePath {
		t.Errorf("unexpected defaults %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}

	s3 := Config{Provider: ProviderS3, Prefix: "/a/b/"}
	s3.ApplyDefaults()
	if s3.Region != DefaultRegion || s3.Prefix != "a/b" {
		t.Errorf("unexpected s3 defaults %+v", s3)
	}
	if err := s3.Validate(); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected missing bucket error, got %v", err)
	}

	bad := Config{Provider: "ftp"}
	if err := bad.Validate(); err == nil {
		t.Error("expected unsupported provider error")
	}
}

func TestNew_Registry(t *testing.T) {
	mem := newMemStorage()
	RegisterFactory("mem-test", func(context.Context, Config, *logger.Logger) (Storage, error) { return mem, nil })
	defer func() {
		factoriesMu.Lock()
		delete(factories, "mem-test")
		factoriesMu.Unlock()
	}()

	found := false
	for _, p := range Providers() {
		if p == "mem-test" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected mem-test in %v", Providers())
	}

	if _, err := New(context.Background(), Config{Provider: "mem-test"}, logger.NewNop()); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("only local and s3 are valid providers, got %v", err)
	}
	// local is not imported by this package's tests.
	if _, err := New(context.Background(), Config{}, logger.NewNop()); err == nil {
		t.Error("expected unregistered provider error")
	}
}
