package services

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/playgrid/playgrid-server/internal/config"
	"github.com/playgrid/playgrid-server/internal/logger"
	"github.com/playgrid/playgrid-server/internal/models"
	"github.com/playgrid/playgrid-server/internal/repositories"
)

// sentinelFile marks a completed extraction. Bundles are committed by
// renaming a fully extracted temp directory into place, so a root that
// exists but lacks the sentinel is stale and gets re-extracted.
const sentinelFile = "index.html"

// Extractor is the lazy unpack cache for main-game build archives. A
// bundle is extracted at most once per (game, asset); concurrent first
// requests are collapsed onto a single extraction.
type Extractor struct {
	db            *gorm.DB
	blobs         repositories.BlobStore
	contentRoot   string
	publicBaseURL string
	limits        config.ExtractionConfig
	flight        singleflight.Group
	log           *logger.Logger

	// Number of archives actually unpacked, as opposed to cache hits.
	extractCount atomic.Int64
}

func NewExtractor(db *gorm.DB, blobs repositories.BlobStore, contentRoot, publicBaseURL string, limits config.ExtractionConfig, log *logger.Logger) *Extractor {
	return &Extractor{
		db:            db,
		blobs:         blobs,
		contentRoot:   contentRoot,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		limits:        limits,
		log:           log.With("service", "Extractor"),
	}
}

// PrepareTest makes the asset's bundle servable and returns its entry URL.
// Cache hit when the sentinel already exists; otherwise the archive is
// fetched from the blob store and unpacked.
func (e *Extractor) PrepareTest(ctx context.Context, developerID uuid.UUID, gameID, assetID uint) (string, error) {
	asset, err := e.ownedAsset(developerID, gameID, assetID)
	if err != nil {
		return "", err
	}

	root := e.BundleRoot(gameID, assetID)
	if bundleReady(root) {
		return e.testURL(gameID, assetID), nil
	}

	flightKey := fmt.Sprintf("%d/%d", gameID, assetID)
	_, err, _ = e.flight.Do(flightKey, func() (interface{}, error) {
		// Losers of the race land here after the winner finished;
		// re-check before doing the work again.
		if bundleReady(root) {
			return nil, nil
		}
		return nil, e.extract(ctx, asset, root)
	})
	if err != nil {
		return "", err
	}
	return e.testURL(gameID, assetID), nil
}

// BundleRoot is the extraction root for one (game, asset) pair.
func (e *Extractor) BundleRoot(gameID, assetID uint) string {
	return filepath.Join(e.contentRoot, "games", fmt.Sprint(gameID), "assets", fmt.Sprint(assetID))
}

// ResolveFile maps a request-relative path to a file inside the bundle,
// rejecting anything that escapes the extraction root.
func (e *Extractor) ResolveFile(gameID, assetID uint, rel string) (string, error) {
	if rel == "" {
		rel = sentinelFile
	}
	root := e.BundleRoot(gameID, assetID)

	clean := path.Clean("/" + rel)
	full := filepath.Join(root, filepath.FromSlash(clean))
	if full != root && !strings.HasPrefix(full, root+string(os.PathSeparator)) {
		return "", ErrFileNotFound
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", ErrFileNotFound
	}
	return full, nil
}

// ExtractCount reports how many archives were actually unpacked.
func (e *Extractor) ExtractCount() int64 {
	return e.extractCount.Load()
}

func (e *Extractor) testURL(gameID, assetID uint) string {
	return fmt.Sprintf("%s/game-test/%d/%d/index.html", e.publicBaseURL, gameID, assetID)
}

func bundleReady(root string) bool {
	info, err := os.Stat(filepath.Join(root, sentinelFile))
	return err == nil && !info.IsDir()
}

func (e *Extractor) ownedAsset(developerID uuid.UUID, gameID, assetID uint) (*models.GameAsset, error) {
	var game models.Game
	if err := e.db.First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	if game.DeveloperID != developerID {
		return nil, ErrForbidden
	}
	var asset models.GameAsset
	if err := e.db.Where("game_id = ?", gameID).First(&asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}
	return &asset, nil
}

// extract unpacks the asset's archive into root via a temp directory and
// an atomic rename, so a partially written bundle is never visible.
func (e *Extractor) extract(ctx context.Context, asset *models.GameAsset, root string) error {
	ctx, cancel := context.WithTimeout(ctx, e.limits.Timeout)
	defer cancel()

	src := normalizeStoragePath(asset.FilePath)
	exists, err := e.blobs.Exists(ctx, src)
	if err != nil {
		return fmt.Errorf("check archive blob: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrAssetMissing, src)
	}

	// The staged archive and the bundle both live under the content
	// root; create the tree before fetching, since a remote blob
	// backend never touches the local disk on its own.
	if err := os.MkdirAll(filepath.Dir(root), 0o755); err != nil {
		return fmt.Errorf("create bundle parent: %w", err)
	}

	archivePath, cleanup, err := e.fetchArchive(ctx, src)
	if err != nil {
		return err
	}
	defer cleanup()

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: open archive: %v", ErrExtractionFailed, err)
	}
	defer reader.Close()

	tmpDir, err := os.MkdirTemp(filepath.Dir(root), ".extract-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := e.unpack(ctx, &reader.Reader, tmpDir); err != nil {
		return err
	}

	if !bundleReady(tmpDir) {
		return fmt.Errorf("%w: archive has no %s at its root", ErrExtractionFailed, sentinelFile)
	}

	// Overwrite any stale partial state from before the rename pattern
	// existed, then commit.
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("clear stale bundle: %w", err)
	}
	if err := os.Rename(tmpDir, root); err != nil {
		// A concurrent instance on another host may have renamed first.
		if bundleReady(root) {
			return nil
		}
		return fmt.Errorf("commit bundle: %w", err)
	}

	e.extractCount.Add(1)
	e.log.Info("bundle extracted",
		"game_id", asset.GameID,
		"asset_id", asset.ID,
		"archive", src,
	)
	return nil
}

// fetchArchive stages the archive blob into a local temp file; zip needs
// random access, which a store stream cannot give directly.
func (e *Extractor) fetchArchive(ctx context.Context, key string) (string, func(), error) {
	blob, err := e.blobs.Open(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrBlobNotFound) {
			return "", nil, fmt.Errorf("%w: %s", ErrAssetMissing, key)
		}
		return "", nil, fmt.Errorf("open archive blob: %w", err)
	}
	defer blob.Close()

	tmp, err := os.CreateTemp(e.contentRoot, "archive-*.zip")
	if err != nil {
		return "", nil, fmt.Errorf("stage archive: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, blob); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("stage archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("stage archive: %w", err)
	}
	return tmp.Name(), cleanup, nil
}

func (e *Extractor) unpack(ctx context.Context, r *zip.Reader, dst string) error {
	if len(r.File) > e.limits.MaxEntries {
		return fmt.Errorf("%w: archive has %d entries, limit is %d",
			ErrExtractionFailed, len(r.File), e.limits.MaxEntries)
	}

	var written int64
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
		}

		name := path.Clean(strings.ReplaceAll(f.Name, `\`, "/"))
		if name == "." || name == "" {
			continue
		}
		if strings.HasPrefix(name, "../") || path.IsAbs(name) {
			return fmt.Errorf("%w: entry %q escapes extraction root", ErrExtractionFailed, f.Name)
		}
		target := filepath.Join(dst, filepath.FromSlash(name))
		if !strings.HasPrefix(target, dst+string(os.PathSeparator)) {
			return fmt.Errorf("%w: entry %q escapes extraction root", ErrExtractionFailed, f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
		}

		remaining := e.limits.MaxDecompressedBytes - written
		if remaining <= 0 {
			return fmt.Errorf("%w: decompressed size exceeds %d bytes",
				ErrExtractionFailed, e.limits.MaxDecompressedBytes)
		}

		n, err := e.writeEntry(f, target, remaining)
		written += n
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Extractor) writeEntry(f *zip.File, target string, remaining int64) (int64, error) {
	src, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	// +1 so an entry lying about its size still trips the ceiling.
	n, err := io.Copy(dst, io.LimitReader(src, remaining+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if n > remaining {
		return n, fmt.Errorf("%w: decompressed size exceeds %d bytes",
			ErrExtractionFailed, e.limits.MaxDecompressedBytes)
	}
	return n, nil
}

// normalizeStoragePath strips the public-URL-style /storage/ prefix some
// historic rows carry, leaving the bare blob-store path.
func normalizeStoragePath(p string) string {
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, "storage/")
	return p
}
