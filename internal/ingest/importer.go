// Package ingest imports media files from a local directory into the
// library: object upload, metadata extraction, catalog insert, and the
// change notification that triggers reconciliation.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"github.com/your-org/mediascan/internal/library"
	"github.com/your-org/mediascan/internal/models"
	"github.com/your-org/mediascan/internal/queue"
)

var imageExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

var videoExts = map[string]string{
	".mp4": "video/mp4",
	".mov": "video/quicktime",
	".mkv": "video/x-matroska",
	".avi": "video/x-msvideo",
}

// Importer walks a directory tree and imports every supported media file.
type Importer struct {
	lib      *library.MediaLibrary
	objects  *library.ObjectStore
	producer *queue.Producer
}

func NewImporter(lib *library.MediaLibrary, objects *library.ObjectStore, producer *queue.Producer) *Importer {
	return &Importer{lib: lib, objects: objects, producer: producer}
}

// ImportDir imports all supported files under root. Inserted asset IDs
// are announced in one change event after the walk, so downstream
// invalidation runs once per import rather than once per file.
func (i *Importer) ImportDir(ctx context.Context, root string) (int, error) {
	var inserted []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		id, err := i.importFile(ctx, path)
		if err != nil {
			slog.Warn("import failed", "path", path, "error", err)
			return nil
		}
		if id != "" {
			inserted = append(inserted, id)
		}
		return nil
	})
	if err != nil {
		return len(inserted), err
	}

	if len(inserted) > 0 {
		ev := models.ChangeEvent{Type: models.ChangeInserted, AssetIDs: inserted, Timestamp: time.Now()}
		if err := i.producer.PublishChange(ctx, ev); err != nil {
			slog.Warn("publish insert event", "error", err)
		}
	}
	return len(inserted), nil
}

// importFile imports one file and returns the new asset ID, or "" for
// unsupported extensions.
func (i *Importer) importFile(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	contentType, isImage := imageExts[ext]
	if !isImage {
		var isVideo bool
		contentType, isVideo = videoExts[ext]
		if !isVideo {
			return "", nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}

	ref := models.AssetRef{
		ID:        uuid.NewString(),
		CreatedAt: info.ModTime(),
		SizeBytes: info.Size(),
		Kind:      models.MediaKindVideo,
	}
	ref.ObjectKey = "media/" + ref.ID + ext

	if isImage {
		ref.Kind = models.MediaKindImage
		meta, err := ExtractMetadata(data)
		if err != nil {
			slog.Debug("no usable metadata", "path", path, "error", err)
		}
		if !meta.CapturedAt.IsZero() {
			ref.CreatedAt = meta.CapturedAt
		}
		ref.Latitude = meta.Latitude
		ref.Longitude = meta.Longitude
		ref.Width = meta.Width
		ref.Height = meta.Height
		ref.IsScreenshot = meta.IsScreenshot

		if ref.Width == 0 || ref.Height == 0 {
			if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
				ref.Width = cfg.Width
				ref.Height = cfg.Height
			}
		}
	}

	if err := i.objects.PutObject(ctx, ref.ObjectKey, data, contentType); err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	if err := i.lib.Insert(ctx, ref); err != nil {
		return "", fmt.Errorf("insert asset: %w", err)
	}

	slog.Info("imported", "path", path, "asset", ref.ID, "kind", ref.Kind)
	return ref.ID, nil
}
