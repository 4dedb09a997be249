package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStorePutReturnsPublicURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	url, err := store.Put(context.Background(), "designs/d1/design-1.png", []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "http://localhost:8080/static/designs/d1/design-1.png" {
		t.Fatalf("unexpected URL: %s", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "designs", "d1", "design-1.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("content mismatch: %q", data)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	for _, key := range []string{"", "../escape.png", "a/../../escape.png"} {
		if _, err := store.Put(context.Background(), key, []byte("x"), ""); err == nil {
			t.Errorf("key %q: expected error", key)
		}
	}
}

func TestHTTPStorePut(t *testing.T) {
	var gotPath, gotAuth, gotType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	store, err := NewHTTPStore(HTTPStoreOptions{
		UploadBaseURL: ts.URL + "/storage/v1/object/designs",
		PublicBaseURL: "https://cdn.example.com/designs",
		Token:         "service-key",
		HTTPClient:    ts.Client(),
	})
	if err != nil {
		t.Fatalf("NewHTTPStore: %v", err)
	}

	url, err := store.Put(context.Background(), "designs/d1/design-2.png", []byte("bytes"), "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://cdn.example.com/designs/designs/d1/design-2.png" {
		t.Fatalf("unexpected URL: %s", url)
	}
	if gotPath != "/storage/v1/object/designs/designs/d1/design-2.png" {
		t.Fatalf("unexpected upload path: %s", gotPath)
	}
	if gotAuth != "Bearer service-key" || gotType != "image/png" {
		t.Fatalf("headers not set: auth=%q type=%q", gotAuth, gotType)
	}
}

func TestHTTPStorePutUpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("invalid token"))
	}))
	defer ts.Close()

	store, err := NewHTTPStore(HTTPStoreOptions{UploadBaseURL: ts.URL, HTTPClient: ts.Client()})
	if err != nil {
		t.Fatalf("NewHTTPStore: %v", err)
	}
	if _, err := store.Put(context.Background(), "k.png", []byte("x"), "image/png"); err == nil {
		t.Fatal("expected upload failure")
	}
}
