package services

import (
	"sort"
	"strconv"
	"strings"

	"github.com/playgrid/playgrid-server/internal/models"
)

const (
	settingsCategory       = "game"
	settingMaxFileSizeMB   = "max_game_file_size_mb"
	settingAllowedFileExts = "allowed_game_file_types"

	// Main build archives bypass the general ceiling; a full export of a
	// web build can run well past typical texture/audio sizes.
	mainGameMaxBytes = int64(2048) << 20

	// Fallbacks when the settings rows are unset.
	defaultMaxFileSizeMB   = 100
	defaultAllowedFileExts = "js,json,wasm,bin,data,unity3d,mem,jpg,png,mp3,ogg,wav,zip,gz,html,css"
)

// PolicySource supplies raw setting values by (category, name).
type PolicySource interface {
	Get(category, name string) (string, bool)
}

// TypePolicy is the per-upload size ceiling and extension allow-list for
// one asset type, computed from a settings snapshot. It has no state of
// its own; recompute it per request.
type TypePolicy struct {
	MaxSizeBytes int64
	allowedExts  map[string]struct{}
}

// PolicyFor resolves the policy for assetType against the settings store.
func PolicyFor(assetType string, settings PolicySource) TypePolicy {
	maxMB := int64(defaultMaxFileSizeMB)
	if raw, ok := settings.Get(settingsCategory, settingMaxFileSizeMB); ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && n > 0 {
			maxMB = n
		}
	}
	maxBytes := maxMB << 20
	if assetType == models.AssetTypeMainGame {
		maxBytes = mainGameMaxBytes
	}

	rawExts := defaultAllowedFileExts
	if v, ok := settings.Get(settingsCategory, settingAllowedFileExts); ok && strings.TrimSpace(v) != "" {
		rawExts = v
	}
	allowed := make(map[string]struct{})
	for _, ext := range strings.Split(rawExts, ",") {
		ext = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(ext, ".")))
		if ext != "" {
			allowed[ext] = struct{}{}
		}
	}

	return TypePolicy{MaxSizeBytes: maxBytes, allowedExts: allowed}
}

func (p TypePolicy) AllowsExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	_, ok := p.allowedExts[ext]
	return ok
}

// Extensions returns the allow-list sorted, for error messages.
func (p TypePolicy) Extensions() []string {
	out := make([]string, 0, len(p.allowedExts))
	for ext := range p.allowedExts {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
