package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/intelbench/internal/model"
)

func TestKey(t *testing.T) {
	a := Key("text", "evil.com")
	b := Key("html", "evil.com")
	c := Key("text", "evil.com")

	if a == b {
		t.Error("Expected different keys for different kinds")
	}
	if a != c {
		t.Error("Expected identical keys for identical input")
	}
	if !strings.HasPrefix(a, "intelbench_v1_text_") {
		t.Errorf("Unexpected key prefix: %s", a)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	value := []byte("payload")
	if err := c.Set("k", value, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value[0] = 'X'

	got, ok := c.Get("k")
	if !ok || string(got) != "payload" {
		t.Errorf("Expected stored copy, got %q (%v)", got, ok)
	}

	got[0] = 'Y'
	again, _ := c.Get("k")
	if string(again) != "payload" {
		t.Errorf("Expected Get to return a copy, got %q", again)
	}

	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected entry deleted")
	}
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := Key("text", "1.2.3.4")
	if err := c.Set(key, []byte(`{"iocs":[]}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get(key)
	if !ok || string(got) != `{"iocs":[]}` {
		t.Fatalf("Expected hit, got %q (%v)", got, ok)
	}

	now = now.Add(2 * time.Hour)
	if _, ok := c.Get(key); ok {
		t.Error("Expected expired entry to miss")
	}
	if _, err := os.Stat(c.path(key)); !os.IsNotExist(err) {
		t.Error("Expected expired entry file removed")
	}
}

func TestDiskCache_PathIsFilesystemSafe(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	name := filepath.Base(c.path("a:b/c\\d"))
	if name != "a_b_c_d.cache" {
		t.Errorf("Unexpected file name %q", name)
	}
}

func TestDiskCache_Prune(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set("short", []byte("a"), time.Minute)
	_ = c.Set("long", []byte("b"), 24*time.Hour)
	if err := os.WriteFile(filepath.Join(dir, "broken.cache"), []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}

	now = now.Add(time.Hour)
	removed, err := c.Prune()
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 removed, got %d", removed)
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("Expected live entry kept")
	}
}

func TestDiskCache_DeleteMissing(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if err := c.Delete("nothing"); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	layered := NewLayeredCache(time.Minute, dir, time.Hour)

	if err := layered.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A fresh layered cache over the same directory has an empty memory layer
	fresh := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := fresh.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("Expected disk hit, got %q (%v)", got, ok)
	}
	if _, ok := fresh.memory.Get("k"); !ok {
		t.Error("Expected disk hit promoted to memory")
	}

	if err := fresh.Clear(); err != nil {
		t.Errorf("Clear failed: %v", err)
	}
	if _, ok := fresh.Get("k"); ok {
		t.Error("Expected miss after clear")
	}
}

func TestNew(t *testing.T) {
	if _, ok := New(model.CacheConfig{Enabled: false}).(Noop); !ok {
		t.Error("Expected Noop cache when disabled")
	}

	c := New(model.CacheConfig{Enabled: true, Dir: t.TempDir(), MemoryTTL: time.Minute, DiskTTL: time.Hour})
	if _, ok := c.(*LayeredCache); !ok {
		t.Errorf("Expected layered cache, got %T", c)
	}

	var noop Noop
	_ = noop.Set("k", []byte("v"), 0)
	if _, ok := noop.Get("k"); ok {
		t.Error("Expected Noop to never hit")
	}
}
