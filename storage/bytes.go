package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"
	"strings"
)

// PutBytes uploads data to p.
func PutBytes(ctx context.Context, s Storage, p string, data []byte) error {
	return s.Upload(ctx, p, bytes.NewReader(data))
}

// GetBytes downloads the object at p.
func GetBytes(ctx context.Context, s Storage, p string) ([]byte, error) {
	rc, err := s.Download(ctx, p)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck // read-only
	return io.ReadAll(rc)
}

// PutJSON uploads v as indented JSON.
func PutJSON(ctx context.Context, s Storage, p string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return PutBytes(ctx, s, p, append(data, '\n'))
}

// GetJSON downloads p and decodes it into v.
func GetJSON(ctx context.Context, s Storage, p string, v any) error {
	data, err := GetBytes(ctx, s, p)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// WithPrefix returns s with prefix joined in front of every path. An empty
// prefix returns s unchanged.
func WithPrefix(s Storage, prefix string) Storage {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return s
	}
	return &prefixed{inner: s, prefix: prefix}
}

type prefixed struct {
	inner  Storage
	prefix string
}

func (p *prefixed) key(name string) string { return path.Join(p.prefix, name) }

func (p *prefixed) Upload(ctx context.Context, name string, r io.Reader) error {
	return p.inner.Upload(ctx, p.key(name), r)
}

func (p *prefixed) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	return p.inner.Download(ctx, p.key(name))
}

func (p *prefixed) Delete(ctx context.Context, name string) error {
	return p.inner.Delete(ctx, p.key(name))
}

func (p *prefixed) Exists(ctx context.Context, name string) (bool, error) {
	return p.inner.Exists(ctx, p.key(name))
}

func (p *prefixed) List(ctx context.Context, prefix string) ([]FileInfo, error) {
	files, err := p.inner.List(ctx, p.key(prefix))
	if err != nil {
		return nil, err
	}
	for i := range files {
		files[i].Path = strings.TrimPrefix(strings.TrimPrefix(files[i].Path, p.prefix), "/")
	}
	return files, nil
}
