package scraper

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"crowdpulse/internal/models"
)

const itemsFixture = `[
  {"source": {"url": "", "platform": "x", "item_id": "1001"}, "author": "someone", "body": "honestly this product launch is a disaster"},
  {"source": {"url": "", "platform": "x", "item_id": ""}, "author": "other", "body": "love the new direction, great move by the team"},
  {"source": {"url": "", "platform": "x", "item_id": "1003"}, "author": "terse", "body": "ok"},
  {"source": {"url": "", "platform": "reddit", "item_id": "r1"}, "author": "lurker", "body": "this belongs to a different platform entirely"}
]`

func TestFileSourceFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	if err := os.WriteFile(path, []byte(itemsFixture), 0o644); err != nil {
		t.Fatalf("fixture write failed: %v", err)
	}

	source := NewFileSource(models.PlatformX, path)
	items, err := source.Fetch(context.Background(), "https://x.com/u/status/1001")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// Short bodies and other platforms are dropped.
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	for _, item := range items {
		if item.Source.Platform != models.PlatformX {
			t.Errorf("item %q has platform %q", item.Source.ItemID, item.Source.Platform)
		}
		if item.Source.URL != "https://x.com/u/status/1001" {
			t.Errorf("empty source url not backfilled: %q", item.Source.URL)
		}
		if item.Source.ItemID == "" {
			t.Error("missing item id not synthesized")
		}
	}

	// Synthesized ids are stable across loads.
	again, err := source.Fetch(context.Background(), "https://x.com/u/status/1001")
	if err != nil {
		t.Fatalf("second Fetch failed: %v", err)
	}
	if items[1].Source.ItemID != again[1].Source.ItemID {
		t.Errorf("synthetic id changed between loads: %q vs %q",
			items[1].Source.ItemID, again[1].Source.ItemID)
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	source := NewFileSource(models.PlatformX, filepath.Join(t.TempDir(), "absent.json"))
	if _, err := source.Fetch(context.Background(), "url"); err == nil {
		t.Fatal("Fetch of missing file succeeded, want error")
	}
}
