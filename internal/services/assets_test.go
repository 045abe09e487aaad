package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/playgrid/playgrid-server/internal/logger"
	"github.com/playgrid/playgrid-server/internal/models"
	"github.com/playgrid/playgrid-server/internal/repositories"
	"github.com/playgrid/playgrid-server/internal/testutil"
)

func newAssetService(t *testing.T, db *gorm.DB) (*AssetService, *repositories.LocalBlobStore) {
	t.Helper()
	blobs, err := repositories.NewLocalBlobStore(t.TempDir(), "http://localhost:8080")
	if err != nil {
		t.Fatalf("local blob store: %v", err)
	}
	svc := NewAssetService(db, blobs, repositories.NewSettingsRepo(db), logger.NewNop())
	return svc, blobs
}

func TestUploadFreshMainGame(t *testing.T) {
	db := testutil.DB(t)
	dev := testutil.SeedDeveloper(t, db, "alice")
	game := testutil.SeedGame(t, db, dev.ID, "Star Hopper")
	svc, _ := newAssetService(t, db)

	archive := testutil.MakeZip(t, map[string]string{"index.html": "<html></html>"})
	asset, err := svc.Upload(context.Background(), UploadInput{
		DeveloperID: dev.ID,
		GameID:      game.ID,
		AssetType:   models.AssetTypeMainGame,
		FileName:    "game.zip",
		Size:        int64(len(archive)),
		MimeType:    "application/zip",
		Version:     "1.0.3",
		Body:        bytes.NewReader(archive),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if !asset.IsActive {
		t.Error("fresh main_game upload should be active")
	}
	if asset.Checksum == "" {
		t.Error("checksum not computed")
	}
	if !asset.IsCompressed {
		t.Error("zip upload should be flagged compressed")
	}
	if want := fmt.Sprintf("games/%d/assets/", game.ID); !strings.HasPrefix(asset.FilePath, want) {
		t.Errorf("file path %q does not start with %q", asset.FilePath, want)
	}

	var got models.Game
	if err := db.First(&got, game.ID).Error; err != nil {
		t.Fatalf("reload game: %v", err)
	}
	if got.Version != "1.0.3" {
		t.Errorf("game version = %q, want 1.0.3", got.Version)
	}
}

func TestUploadSupersedesPreviousBuild(t *testing.T) {
	db := testutil.DB(t)
	dev := testutil.SeedDeveloper(t, db, "alice")
	game := testutil.SeedGame(t, db, dev.ID, "Star Hopper")
	svc, _ := newAssetService(t, db)

	upload := func(version string) *models.GameAsset {
		archive := testutil.MakeZip(t, map[string]string{"index.html": version})
		asset, err := svc.Upload(context.Background(), UploadInput{
			DeveloperID: dev.ID,
			GameID:      game.ID,
			AssetType:   models.AssetTypeMainGame,
			FileName:    "game.zip",
			Size:        int64(len(archive)),
			Version:     version,
			Body:        bytes.NewReader(archive),
		})
		if err != nil {
			t.Fatalf("upload %s: %v", version, err)
		}
		return asset
	}

	first := upload("1.0.3")
	second := upload("1.0.4")

	var reloaded models.GameAsset
	if err := db.First(&reloaded, first.ID).Error; err != nil {
		t.Fatalf("reload first asset: %v", err)
	}
	if reloaded.IsActive {
		t.Error("superseded build still active")
	}
	if !second.IsActive {
		t.Error("new build not active")
	}

	var game2 models.Game
	if err := db.First(&game2, game.ID).Error; err != nil {
		t.Fatalf("reload game: %v", err)
	}
	if game2.Version != "1.0.4" {
		t.Errorf("game version = %q, want 1.0.4", game2.Version)
	}
}

func TestUploadAtMostOneActiveUnderConcurrency(t *testing.T) {
	db := testutil.DB(t)
	dev := testutil.SeedDeveloper(t, db, "alice")
	game := testutil.SeedGame(t, db, dev.ID, "Star Hopper")
	svc, _ := newAssetService(t, db)

	archive := testutil.MakeZip(t, map[string]string{"index.html": "<html></html>"})

	const uploads = 100
	var wg sync.WaitGroup
	errs := make([]error, uploads)
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Upload(context.Background(), UploadInput{
				DeveloperID: dev.ID,
				GameID:      game.ID,
				AssetType:   models.AssetTypeMainGame,
				FileName:    "game.zip",
				Size:        int64(len(archive)),
				Version:     fmt.Sprintf("1.0.%d", i),
				Body:        bytes.NewReader(archive),
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
	}

	var active int64
	err := db.Model(&models.GameAsset{}).
		Where("game_id = ? AND asset_type = ? AND is_active = ?", game.ID, models.AssetTypeMainGame, true).
		Count(&active).Error
	if err != nil {
		t.Fatalf("count active: %v", err)
	}
	if active != 1 {
		t.Errorf("active main_game rows = %d, want exactly 1", active)
	}
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	db := testutil.DB(t)
	dev := testutil.SeedDeveloper(t, db, "alice")
	game := testutil.SeedGame(t, db, dev.ID, "Star Hopper")
	svc, _ := newAssetService(t, db)

	_, err := svc.Upload(context.Background(), UploadInput{
		DeveloperID: dev.ID,
		GameID:      game.ID,
		AssetType:   models.AssetTypeScript,
		FileName:    "cheat.exe",
		Size:        10,
		Body:        strings.NewReader("0123456789"),
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if vErr.Rule != "file_extension" {
		t.Errorf("rule = %q, want file_extension", vErr.Rule)
	}
}

func TestUploadEnforcesConfiguredSizeCeiling(t *testing.T) {
	db := testutil.DB(t)
	dev := testutil.SeedDeveloper(t, db, "alice")
	game := testutil.SeedGame(t, db, dev.ID, "Star Hopper")
	testutil.SeedSetting(t, db, "game", "max_game_file_size_mb", "1")
	svc, _ := newAssetService(t, db)

	_, err := svc.Upload(context.Background(), UploadInput{
		DeveloperID: dev.ID,
		GameID:      game.ID,
		AssetType:   models.AssetTypeTexture,
		FileName:    "huge.png",
		Size:        2 << 20,
		Body:        strings.NewReader("tiny"),
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if vErr.Rule != "file_size" {
		t.Errorf("rule = %q, want file_size", vErr.Rule)
	}
}

func TestUploadMainGameBypassesConfiguredCeiling(t *testing.T) {
	db := testutil.DB(t)
	dev := testutil.SeedDeveloper(t, db, "alice")
	game := testutil.SeedGame(t, db, dev.ID, "Star Hopper")
	testutil.SeedSetting(t, db, "game", "max_game_file_size_mb", "1")
	svc, _ := newAssetService(t, db)

	archive := testutil.MakeZip(t, map[string]string{"index.html": "<html></html>"})

	// Declared size just under the fixed main_game ceiling passes even
	// though the general setting is 1 MB.
	_, err := svc.Upload(context.Background(), UploadInput{
		DeveloperID: dev.ID,
		GameID:      game.ID,
		AssetType:   models.AssetTypeMainGame,
		FileName:    "game.zip",
		Size:        2047 << 20,
		Body:        bytes.NewReader(archive),
	})
	if err != nil {
		t.Fatalf("2047 MB main_game upload rejected: %v", err)
	}

	_, err = svc.Upload(context.Background(), UploadInput{
		DeveloperID: dev.ID,
		GameID:      game.ID,
		AssetType:   models.AssetTypeMainGame,
		FileName:    "game.zip",
		Size:        2049 << 20,
		Body:        bytes.NewReader(archive),
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("2049 MB main_game upload: err = %v, want ValidationError", err)
	}
}

func TestUploadRejectsStreamBeyondDeclaredSize(t *testing.T) {
	db := testutil.DB(t)
	dev := testutil.SeedDeveloper(t, db, "alice")
	game := testutil.SeedGame(t, db, dev.ID, "Star Hopper")
	svc, blobs := newAssetService(t, db)

	// Declared size is 4 bytes; the stream carries far more.
	_, err := svc.Upload(context.Background(), UploadInput{
		DeveloperID: dev.ID,
		GameID:      game.ID,
		AssetType:   models.AssetTypeScript,
		FileName:    "a.js",
		Size:        4,
		Body:        strings.NewReader(strings.Repeat("x", 4096)),
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if vErr.Rule != "file_size" {
		t.Errorf("rule = %q, want file_size", vErr.Rule)
	}

	var rows int64
	if err := db.Model(&models.GameAsset{}).Count(&rows).Error; err != nil {
		t.Fatalf("count assets: %v", err)
	}
	if rows != 0 {
		t.Errorf("asset rows = %d, want 0 after rejected upload", rows)
	}

	var stored []string
	err = filepath.WalkDir(blobs.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			stored = append(stored, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk blob root: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("partial blob left behind: %v", stored)
	}
}

func TestUploadChecksumDeterminism(t *testing.T) {
	db := testutil.DB(t)
	dev := testutil.SeedDeveloper(t, db, "alice")
	game := testutil.SeedGame(t, db, dev.ID, "Star Hopper")
	svc, _ := newAssetService(t, db)

	upload := func(name, content string) *models.GameAsset {
		asset, err := svc.Upload(context.Background(), UploadInput{
			DeveloperID: dev.ID,
			GameID:      game.ID,
			AssetType:   models.AssetTypeScript,
			FileName:    name,
			Size:        int64(len(content)),
			Body:        strings.NewReader(content),
		})
		if err != nil {
			t.Fatalf("upload %s: %v", name, err)
		}
		return asset
	}

	a := upload("a.js", "console.log(1)")
	b := upload("b.js", "console.log(1)")
	c := upload("c.js", "console.log(2)")

	if a.Checksum != b.Checksum {
		t.Errorf("identical content, differing checksums: %s vs %s", a.Checksum, b.Checksum)
	}
	if a.Checksum == c.Checksum {
		t.Errorf("differing content, identical checksum %s", a.Checksum)
	}
}

func TestUploadForbiddenForNonOwner(t *testing.T) {
	db := testutil.DB(t)
	owner := testutil.SeedDeveloper(t, db, "alice")
	other := testutil.SeedDeveloper(t, db, "mallory")
	game := testutil.SeedGame(t, db, owner.ID, "Star Hopper")
	svc, _ := newAssetService(t, db)

	_, err := svc.Upload(context.Background(), UploadInput{
		DeveloperID: other.ID,
		GameID:      game.ID,
		AssetType:   models.AssetTypeScript,
		FileName:    "a.js",
		Size:        1,
		Body:        strings.NewReader("x"),
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestListAssetsNewestFirst(t *testing.T) {
	db := testutil.DB(t)
	dev := testutil.SeedDeveloper(t, db, "alice")
	game := testutil.SeedGame(t, db, dev.ID, "Star Hopper")
	svc, _ := newAssetService(t, db)

	for _, name := range []string{"a.js", "b.js"} {
		if _, err := svc.Upload(context.Background(), UploadInput{
			DeveloperID: dev.ID,
			GameID:      game.ID,
			AssetType:   models.AssetTypeScript,
			FileName:    name,
			Size:        1,
			Body:        strings.NewReader("x"),
		}); err != nil {
			t.Fatalf("upload %s: %v", name, err)
		}
	}

	assets, err := svc.ListAssets(context.Background(), dev.ID, game.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("len(assets) = %d, want 2", len(assets))
	}
	if assets[0].FileName != "b.js" {
		t.Errorf("first asset = %q, want newest (b.js)", assets[0].FileName)
	}
}
