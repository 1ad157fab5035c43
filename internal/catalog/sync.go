// Package catalog exports tagged products from the e-commerce platform to a
// local JSON snapshot.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imanix/b2b-storefront/internal/shopify"
	"github.com/rs/zerolog/log"
)

// ProductSource lists products carrying a tag.
type ProductSource interface {
	ProductsByTag(ctx context.Context, tag string) ([]shopify.Product, error)
}

// Snapshot is the file format written by Sync.
type Snapshot struct {
	SyncedAt time.Time         `json:"syncedAt"`
	Tag      string            `json:"tag"`
	Count    int               `json:"count"`
	Products []shopify.Product `json:"products"`
}

// Syncer writes product snapshots.
type Syncer struct {
	source ProductSource
	now    func() time.Time
}

func NewSyncer(source ProductSource) *Syncer {
	return &Syncer{source: source, now: time.Now}
}

// Sync fetches every product tagged tag and replaces out with a snapshot.
// out is either fully replaced or left untouched.
func (s *Syncer) Sync(ctx context.Context, tag, out string) (*Snapshot, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, errors.New("catalog: tag is required")
	}
	if out == "" {
		return nil, errors.New("catalog: output path is required")
	}

	products, err := s.source.ProductsByTag(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch products tagged %q: %w", tag, err)
	}

	if products == nil {
		products = []shopify.Product{}
	}

	snap := &Snapshot{
		SyncedAt: s.now().UTC(),
		Tag:      tag,
		Count:    len(products),
		Products: products,
	}
	if err := writeAtomic(out, snap); err != nil {
		return nil, err
	}

	log.Info().Str("tag", tag).Int("count", snap.Count).Str("out", out).Msg("Catalog snapshot written")
	return snap, nil
}

// writeAtomic writes v as indented JSON next to path and renames it into place.
func writeAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("catalog: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("catalog: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("catalog: encode snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("catalog: sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("catalog: close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("catalog: replace %s: %w", path, err)
	}
	return nil
}
