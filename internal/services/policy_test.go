package services

import (
	"testing"

	"github.com/playgrid/playgrid-server/internal/models"
)

type stubSettings map[string]string

func (s stubSettings) Get(category, name string) (string, bool) {
	v, ok := s[category+"/"+name]
	return v, ok
}

func TestPolicyDefaults(t *testing.T) {
	p := PolicyFor(models.AssetTypeTexture, stubSettings{})

	if want := int64(100) << 20; p.MaxSizeBytes != want {
		t.Errorf("default ceiling = %d, want %d", p.MaxSizeBytes, want)
	}
	for _, ext := range []string{"js", "wasm", "png", "zip", "ZIP", ".ogg"} {
		if !p.AllowsExtension(ext) {
			t.Errorf("default policy rejects %q", ext)
		}
	}
	if p.AllowsExtension("exe") {
		t.Error("default policy allows exe")
	}
}

func TestPolicyReadsSettings(t *testing.T) {
	settings := stubSettings{
		"game/max_game_file_size_mb":   "25",
		"game/allowed_game_file_types": " js, .PNG ,wav",
	}
	p := PolicyFor(models.AssetTypeSound, settings)

	if want := int64(25) << 20; p.MaxSizeBytes != want {
		t.Errorf("ceiling = %d, want %d", p.MaxSizeBytes, want)
	}
	if !p.AllowsExtension("png") || !p.AllowsExtension("js") || !p.AllowsExtension("wav") {
		t.Errorf("configured extensions not honored: %v", p.Extensions())
	}
	if p.AllowsExtension("zip") {
		t.Error("zip allowed despite being absent from the configured list")
	}
}

func TestPolicyMainGameOverridesCeiling(t *testing.T) {
	settings := stubSettings{"game/max_game_file_size_mb": "1"}
	p := PolicyFor(models.AssetTypeMainGame, settings)

	if want := int64(2048) << 20; p.MaxSizeBytes != want {
		t.Errorf("main_game ceiling = %d, want %d", p.MaxSizeBytes, want)
	}
}

func TestPolicyIgnoresMalformedSizeSetting(t *testing.T) {
	settings := stubSettings{"game/max_game_file_size_mb": "a lot"}
	p := PolicyFor(models.AssetTypeOther, settings)

	if want := int64(100) << 20; p.MaxSizeBytes != want {
		t.Errorf("ceiling = %d, want default %d", p.MaxSizeBytes, want)
	}
}
