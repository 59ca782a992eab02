package scraper

import (
	"context"

	"crowdpulse/internal/clients"
	"crowdpulse/internal/models"
)

// Dedup filters out items already analyzed by an earlier run, backed by the
// per-platform Valkey sets. A nil *Dedup is a no-op, so the pipeline treats
// cross-run dedup as optional.
type Dedup struct {
	vc *clients.ValkeyClient
}

func NewDedup() *Dedup {
	return &Dedup{vc: clients.GetValkeyClient()}
}

// Seen reports whether the item was marked by an earlier run.
func (d *Dedup) Seen(ctx context.Context, source models.SourceRef) bool {
	if d == nil {
		return false
	}
	return d.vc.IsItemAnalyzed(ctx, string(source.Platform), source.ItemID)
}

// Mark records the item for later runs to skip.
func (d *Dedup) Mark(ctx context.Context, source models.SourceRef) error {
	if d == nil {
		return nil
	}
	return d.vc.MarkAnalyzed(ctx, string(source.Platform), source.ItemID)
}
