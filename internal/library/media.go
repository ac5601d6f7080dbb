package library

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/your-org/mediascan/internal/config"
	"github.com/your-org/mediascan/internal/models"
	"github.com/your-org/mediascan/internal/queue"
)

// MediaLibrary is the production Library: asset metadata in Postgres,
// binaries in MinIO, change notifications over NATS.
type MediaLibrary struct {
	pool     *pgxpool.Pool
	objects  *ObjectStore
	producer *queue.Producer
}

func NewMediaLibrary(cfg config.DatabaseConfig, objects *ObjectStore, producer *queue.Producer) (*MediaLibrary, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &MediaLibrary{pool: pool, objects: objects, producer: producer}, nil
}

// Pool exposes the underlying pool so the decision store can share it.
func (l *MediaLibrary) Pool() *pgxpool.Pool {
	return l.pool
}

func (l *MediaLibrary) Close() {
	l.pool.Close()
}

func (l *MediaLibrary) Ping(ctx context.Context) error {
	return l.pool.Ping(ctx)
}

// EnsureSchema creates the assets table if it does not exist.
func (l *MediaLibrary) EnsureSchema(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS assets (
			id            TEXT PRIMARY KEY,
			created_at    TIMESTAMPTZ NOT NULL,
			latitude      DOUBLE PRECISION,
			longitude     DOUBLE PRECISION,
			width         INTEGER NOT NULL DEFAULT 0,
			height        INTEGER NOT NULL DEFAULT 0,
			kind          TEXT NOT NULL,
			is_screenshot BOOLEAN NOT NULL DEFAULT false,
			size_bytes    BIGINT NOT NULL DEFAULT 0,
			object_key    TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure assets schema: %w", err)
	}
	return nil
}

// Assets enumerates the current snapshot of one media kind, newest first.
func (l *MediaLibrary) Assets(ctx context.Context, kind models.MediaKind) ([]models.AssetRef, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, created_at, latitude, longitude, width, height, kind, is_screenshot, size_bytes, object_key
		 FROM assets WHERE kind = $1 ORDER BY created_at DESC`, kind)
	if err != nil {
		return nil, fmt.Errorf("enumerate assets: %w", err)
	}
	defer rows.Close()

	var assets []models.AssetRef
	for rows.Next() {
		var a models.AssetRef
		if err := rows.Scan(&a.ID, &a.CreatedAt, &a.Latitude, &a.Longitude,
			&a.Width, &a.Height, &a.Kind, &a.IsScreenshot, &a.SizeBytes, &a.ObjectKey); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		a.Index = len(assets)
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// Get returns a single asset by id, nil when absent.
func (l *MediaLibrary) Get(ctx context.Context, id string) (*models.AssetRef, error) {
	a := &models.AssetRef{}
	err := l.pool.QueryRow(ctx,
		`SELECT id, created_at, latitude, longitude, width, height, kind, is_screenshot, size_bytes, object_key
		 FROM assets WHERE id = $1`, id,
	).Scan(&a.ID, &a.CreatedAt, &a.Latitude, &a.Longitude,
		&a.Width, &a.Height, &a.Kind, &a.IsScreenshot, &a.SizeBytes, &a.ObjectKey)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

// Insert stores a new asset row. The caller uploads the binary first.
func (l *MediaLibrary) Insert(ctx context.Context, a models.AssetRef) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO assets (id, created_at, latitude, longitude, width, height, kind, is_screenshot, size_bytes, object_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO NOTHING`,
		a.ID, a.CreatedAt, a.Latitude, a.Longitude, a.Width, a.Height,
		a.Kind, a.IsScreenshot, a.SizeBytes, a.ObjectKey)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// Render fetches the stored artifact and scales it so its longest edge is
// maxEdge pixels. For videos the artifact is the stored poster frame.
func (l *MediaLibrary) Render(ctx context.Context, id string, maxEdge int) (image.Image, error) {
	a, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("asset %s not found", id)
	}

	data, err := l.objects.GetObject(ctx, a.ObjectKey)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode asset %s: %w", id, err)
	}

	return Scale(img, maxEdge), nil
}

// SizeOf returns the asset's byte-size estimate.
func (l *MediaLibrary) SizeOf(ctx context.Context, id string) (int64, error) {
	var size int64
	err := l.pool.QueryRow(ctx, `SELECT size_bytes FROM assets WHERE id = $1`, id).Scan(&size)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, fmt.Errorf("asset %s not found", id)
		}
		return 0, fmt.Errorf("size of asset: %w", err)
	}
	return size, nil
}

// Delete removes a batch of assets (rows + objects) and publishes a
// removal notification so reconciliation can follow.
func (l *MediaLibrary) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	rows, err := l.pool.Query(ctx,
		`SELECT object_key FROM assets WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("lookup asset objects: %w", err)
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return fmt.Errorf("scan object key: %w", err)
		}
		keys = append(keys, key)
	}
	rows.Close()

	if _, err := l.pool.Exec(ctx, `DELETE FROM assets WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete assets: %w", err)
	}

	if len(keys) > 0 {
		if err := l.objects.DeleteObjects(ctx, keys); err != nil {
			return err
		}
	}

	if l.producer != nil {
		ev := models.ChangeEvent{Type: models.ChangeRemoved, AssetIDs: ids, Timestamp: time.Now()}
		if err := l.producer.PublishChange(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// Scale downscales img so the longest edge is maxEdge pixels. Images
// already small enough are returned unchanged.
func Scale(img image.Image, maxEdge int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}

	var tw, th int
	if w >= h {
		tw = maxEdge
		th = h * maxEdge / w
	} else {
		th = maxEdge
		tw = w * maxEdge / h
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}
