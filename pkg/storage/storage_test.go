package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/scanforge/scanforge/pkg/model"
)

func TestRedact_BearerToken(t *testing.T) {
	body := []byte("GET /api HTTP/1.1\r\nAuthorization: Bearer abc123\r\n\r\n{}")

	got := Redact(body)

	if bytes.Contains(got, []byte("abc123")) {
		t.Errorf("redacted body still contains the token: %q", got)
	}
	if !bytes.Contains(got, []byte("[redacted]")) {
		t.Errorf("redacted body missing the mask: %q", got)
	}
}

func TestRedact_TokenParam(t *testing.T) {
	got := Redact([]byte("https://x/api?token=s3cr3t&page=2"))

	if bytes.Contains(got, []byte("s3cr3t")) {
		t.Errorf("token= value survived redaction: %q", got)
	}
	if !bytes.Contains(got, []byte("page=2")) {
		t.Errorf("redaction clobbered unrelated params: %q", got)
	}
}

func TestRedact_NoSensitiveContent(t *testing.T) {
	body := []byte("plain response body")
	if got := Redact(body); !bytes.Equal(got, body) {
		t.Errorf("Redact changed a clean body: %q", got)
	}
}

func TestSample_Truncates(t *testing.T) {
	body := bytes.Repeat([]byte("x"), 10000)

	got := Sample(body)
	if len(got) != MaxSampleBytes {
		t.Errorf("len(Sample(10000 bytes)) = %d, want %d", len(got), MaxSampleBytes)
	}

	short := []byte("short")
	if got := Sample(short); !bytes.Equal(got, short) {
		t.Error("Sample must not touch bodies under the cap")
	}
}

func TestLocal_StoreBody_None(t *testing.T) {
	l := &Local{BasePath: t.TempDir()}

	art, err := l.StoreBody(context.Background(), "scan1", "fetch1", bytes.Repeat([]byte("y"), 100), model.StorageNone)
	if err != nil {
		t.Fatalf("StoreBody: %v", err)
	}
	if art != nil {
		t.Errorf("none mode must not produce an artifact, got %+v", art)
	}

	entries, _ := os.ReadDir(l.BasePath)
	if len(entries) != 0 {
		t.Errorf("none mode wrote %d files", len(entries))
	}
}

func TestLocal_StoreBody_Sampled(t *testing.T) {
	l := &Local{BasePath: t.TempDir()}

	art, err := l.StoreBody(context.Background(), "scan1", "fetch1", bytes.Repeat([]byte("z"), 10000), model.StorageSampled)
	if err != nil {
		t.Fatalf("StoreBody: %v", err)
	}
	if art == nil {
		t.Fatal("sampled mode should produce an artifact")
	}

	data, err := os.ReadFile(art.Path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if len(data) != MaxSampleBytes {
		t.Errorf("stored artifact = %d bytes, want exactly %d", len(data), MaxSampleBytes)
	}
	if art.Hash == "" {
		t.Error("artifact hash should be set")
	}
}

func TestLocal_StoreBody_FullIsRedactedNotTruncated(t *testing.T) {
	l := &Local{BasePath: t.TempDir()}

	body := append([]byte("Authorization: Bearer abc123\n"), bytes.Repeat([]byte("a"), 9000)...)
	art, err := l.StoreBody(context.Background(), "scan1", "fetch1", body, model.StorageFull)
	if err != nil {
		t.Fatalf("StoreBody: %v", err)
	}

	data, err := os.ReadFile(art.Path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if len(data) <= MaxSampleBytes {
		t.Errorf("full mode truncated: %d bytes", len(data))
	}
	if bytes.Contains(data, []byte("abc123")) {
		t.Error("full mode skipped redaction")
	}
}

func TestLocal_StoreBody_DeterministicOverwrite(t *testing.T) {
	l := &Local{BasePath: t.TempDir()}
	ctx := context.Background()

	a, err := l.StoreBody(ctx, "scan1", "fetch1", []byte("first"), model.StorageFull)
	if err != nil {
		t.Fatal(err)
	}
	b, err := l.StoreBody(ctx, "scan1", "fetch1", []byte("second"), model.StorageFull)
	if err != nil {
		t.Fatal(err)
	}

	if a.Path != b.Path {
		t.Errorf("paths differ: %q vs %q", a.Path, b.Path)
	}
	if a.Path != filepath.Join(l.BasePath, "scan1_fetch1.bin") {
		t.Errorf("unexpected artifact name: %q", a.Path)
	}

	entries, _ := os.ReadDir(l.BasePath)
	if len(entries) != 1 {
		t.Errorf("repeated writes accumulated %d files, want 1", len(entries))
	}

	data, _ := os.ReadFile(b.Path)
	if string(data) != "second" {
		t.Errorf("overwrite lost: %q", data)
	}
}

func TestLocal_StoreBody_EmptyBody(t *testing.T) {
	l := &Local{BasePath: t.TempDir()}

	art, err := l.StoreBody(context.Background(), "s", "f", nil, model.StorageFull)
	if err != nil || art != nil {
		t.Errorf("empty body: art=%v err=%v, want nil/nil", art, err)
	}
}

func TestOpen(t *testing.T) {
	b, err := Open("file:///tmp/scanforge-artifacts")
	if err != nil {
		t.Fatalf("Open(file://): %v", err)
	}
	if l, ok := b.(*Local); !ok || l.BasePath != "/tmp/scanforge-artifacts" {
		t.Errorf("Open(file://) = %#v", b)
	}

	if _, err := Open("/tmp/plain-path"); err != nil {
		t.Errorf("Open(bare path): %v", err)
	}

	_, err = Open("s3://bucket/prefix")
	if !errors.Is(err, ErrScheme) {
		t.Errorf("Open(s3://) err = %v, want ErrScheme", err)
	}
}
