package importer_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"voter-canvass-backend/internal/importer"
)

type fakeRegistry struct {
	entries      []string
	deregistered []string
}

func (f *fakeRegistry) ExpiredUploads(ctx context.Context, now time.Time) ([]string, error) {
	return f.entries, nil
}

func (f *fakeRegistry) Deregister(ctx context.Context, id, objectKey string) {
	f.deregistered = append(f.deregistered, id+"|"+objectKey)
}

type janitorStorage struct {
	gone    map[string]bool
	deleted []string
}

func (f *janitorStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (f *janitorStorage) Upload(ctx context.Context, key string, data io.Reader) error { return nil }

func (f *janitorStorage) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *janitorStorage) Exists(ctx context.Context, key string) (bool, error) {
	return !f.gone[key], nil
}

func TestJanitorSweep(t *testing.T) {
	t.Parallel()

	registry := &fakeRegistry{entries: []string{
		"sess-1|imports/sess-1.csv",
		"sess-2|imports/sess-2.csv", // object already gone
		"malformed-entry",
	}}
	st := &janitorStorage{gone: map[string]bool{"imports/sess-2.csv": true}}

	janitor := importer.NewJanitor(registry, st, testConfig())
	janitor.Sweep(context.Background())

	if len(st.deleted) != 1 || st.deleted[0] != "imports/sess-1.csv" {
		t.Errorf("expected only the live object deleted, got %v", st.deleted)
	}

	want := []string{"sess-1|imports/sess-1.csv", "sess-2|imports/sess-2.csv"}
	if len(registry.deregistered) != len(want) {
		t.Fatalf("deregistered = %v, want %v", registry.deregistered, want)
	}
	for i, entry := range want {
		if registry.deregistered[i] != entry {
			t.Errorf("deregistered %d = %q, want %q", i, registry.deregistered[i], entry)
		}
	}
}
