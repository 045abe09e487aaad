package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/playgrid/playgrid-server/internal/config"
	"github.com/playgrid/playgrid-server/internal/logger"
	"github.com/playgrid/playgrid-server/internal/repositories"
	"github.com/playgrid/playgrid-server/internal/services"
	"github.com/playgrid/playgrid-server/internal/testutil"
)

// serveFixture wires a GameFilesHandler over a bundle laid out on disk,
// mounted the way the router mounts it.
func serveFixture(t *testing.T) (http.Handler, *GameFilesHandler) {
	t.Helper()
	db := testutil.DB(t)
	root := t.TempDir()
	blobs, err := repositories.NewLocalBlobStore(root, "http://localhost:8080")
	if err != nil {
		t.Fatalf("local blob store: %v", err)
	}
	limits := config.ExtractionConfig{MaxEntries: 100, MaxDecompressedBytes: 1 << 20, Timeout: time.Minute}
	extractor := services.NewExtractor(db, blobs, blobs.Root(), "http://localhost:8080", limits, logger.NewNop())
	h := NewGameFilesHandler(extractor, logger.NewNop())

	bundle := extractor.BundleRoot(7, 9)
	if err := os.MkdirAll(filepath.Join(bundle, "Build"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"index.html":      "<html>play</html>",
		"style.css":       "body{}",
		"Build/app.js.gz": "\x1f\x8b-not-really-gzip",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(bundle, filepath.FromSlash(name)), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// A file outside the bundle that traversal must never reach.
	if err := os.WriteFile(filepath.Join(filepath.Dir(bundle), "secret.txt"), []byte("hidden"), 0o644); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /game-test/{gameID}/{assetID}", h.ServeFile)
	mux.HandleFunc("GET /game-test/{gameID}/{assetID}/{path...}", h.ServeFile)
	return mux, h
}

func TestServeFileDefaultsToEntryPoint(t *testing.T) {
	mux, _ := serveFixture(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/game-test/7/9", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "<html>play</html>" {
		t.Errorf("body = %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("content type = %q, want text/html", ct)
	}
}

func TestServeFileNestedAsset(t *testing.T) {
	mux, _ := serveFixture(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/game-test/7/9/style.css", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/css") {
		t.Errorf("content type = %q, want text/css", ct)
	}
}

func TestServeFileGzipCompanion(t *testing.T) {
	mux, _ := serveFixture(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/game-test/7/9/Build/app.js.gz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if enc := rec.Header().Get("Content-Encoding"); enc != "gzip" {
		t.Errorf("content encoding = %q, want gzip", enc)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "javascript") {
		t.Errorf("content type = %q, want a javascript type (from the inner name)", ct)
	}
}

func TestServeFileMissing(t *testing.T) {
	mux, _ := serveFixture(t)

	for _, target := range []string{
		"/game-test/7/9/nope.js",
		"/game-test/7/999",
		"/game-test/x/9",
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", target, rec.Code)
		}
	}
}

// Traversal paths are fed straight to the handler here: the mux cleans
// dot segments out of request paths before routing, but the handler must
// hold on its own for any caller that bypasses that.
func TestServeFileRejectsTraversal(t *testing.T) {
	_, h := serveFixture(t)

	for _, rel := range []string{"../secret.txt", "../../9/secret.txt", "a/../../secret.txt"} {
		req := httptest.NewRequest(http.MethodGet, "/game-test/7/9/x", nil)
		req.SetPathValue("gameID", "7")
		req.SetPathValue("assetID", "9")
		req.SetPathValue("path", rel)

		rec := httptest.NewRecorder()
		h.ServeFile(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("path %q status = %d, want 404", rel, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "hidden") {
			t.Errorf("path %q leaked file contents", rel)
		}
	}
}
