package imagegen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"promptpix/internal/domain"
	"promptpix/internal/storage"
	"promptpix/pkg/zip"
)

// BlobResolver dereferences blob URLs produced by the binary-response adapter.
type BlobResolver interface {
	Resolve(ctx context.Context, ref string) (storage.Blob, bool)
}

// BuildArchive packs the records into a zip. Embedded and stored images are
// written as files; remote images become .url shortcuts. Records that cannot
// be represented are skipped and counted.
func BuildArchive(ctx context.Context, records []domain.ImageRecord, blobs BlobResolver) ([]byte, int, error) {
	assets := make([]zip.Asset, 0, len(records))
	skipped := 0
	for _, rec := range records {
		asset, ok := archiveAsset(ctx, rec, blobs)
		if !ok {
			skipped++
			continue
		}
		assets = append(assets, asset)
	}
	data, err := zip.ArchiveAssets(assets)
	if err != nil {
		return nil, skipped, fmt.Errorf("build archive: %w", err)
	}
	return data, skipped, nil
}

func archiveAsset(ctx context.Context, rec domain.ImageRecord, blobs BlobResolver) (zip.Asset, bool) {
	base := fmt.Sprintf("image-%d", rec.ID)
	modified := time.UnixMilli(rec.ID)

	if strings.HasPrefix(rec.URL, "data:") {
		data, mediaType, err := zip.DecodeDataURL(rec.URL)
		if err != nil {
			return zip.Asset{}, false
		}
		return zip.Asset{Filename: base + zip.Extension(mediaType), MIME: mediaType, Data: data, Modified: modified}, true
	}
	if blobs != nil {
		if blob, ok := blobs.Resolve(ctx, rec.URL); ok {
			return zip.Asset{Filename: base + zip.Extension(blob.MIME), MIME: blob.MIME, Data: blob.Data, Modified: modified}, true
		}
	}
	shortcut, err := zip.Shortcut(rec.URL)
	if err != nil {
		return zip.Asset{}, false
	}
	return zip.Asset{Filename: base + ".url", MIME: "text/plain", Data: shortcut, Modified: modified}, true
}

// Archive packs the session gallery.
func (s *Studio) Archive(ctx context.Context, blobs BlobResolver) ([]byte, int, error) {
	return BuildArchive(ctx, s.Images(), blobs)
}
