package api

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStaticCache_GetAndCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := NewStaticCache(dir, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	data, err := c.Get("page.html")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(data) != "v1" {
		t.Errorf("Get() = %q, want %q", data, "v1")
	}

	// Without watching, the cached copy survives a rewrite.
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err = c.Get("page.html")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v1" {
		t.Errorf("Get() after rewrite = %q, want cached %q", data, "v1")
	}
}

func TestStaticCache_MissingFile(t *testing.T) {
	c, err := NewStaticCache(t.TempDir(), false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Get("nope.html"); err == nil {
		t.Error("Get(missing) returned no error")
	}
}

func TestStaticCache_NameSanitization(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "page.html"), []byte("ok"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A secret outside the static dir must not be reachable.
	outside := filepath.Join(filepath.Dir(dir), "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := NewStaticCache(dir, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	data, err := c.Get("../page.html")
	if err != nil {
		t.Fatalf("Get(../page.html) error: %v", err)
	}
	if string(data) != "ok" {
		t.Errorf("Get(../page.html) = %q, want base-name lookup", data)
	}

	if data, err := c.Get("../secret.txt"); err == nil {
		t.Errorf("Get(../secret.txt) = %q, want error", data)
	}
}

func TestStaticCache_WatchInvalidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := NewStaticCache(dir, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Get("page.html"); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}

	// The watcher delivers asynchronously; poll until the fresh copy shows up.
	deadline := time.Now().Add(2 * time.Second)
	for {
		data, err := c.Get("page.html")
		if err != nil {
			t.Fatal(err)
		}
		if string(data) == "v2" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("cache still serves %q after rewrite", data)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
