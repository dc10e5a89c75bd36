package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Alignment.WindowSize != 5 || cfg.Alignment.SimilarityThreshold != 0.60 {
		t.Fatalf("unexpected alignment defaults %+v", cfg.Alignment)
	}
	if cfg.Server.Addr != "127.0.0.1:8000" || cfg.Embedder.Type != "tfidf" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "embedder:\n  type: openai\nalignment:\n  similarity_threshold: 0.4\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Alignment.WindowSize != 5 || cfg.Alignment.SimilarityThreshold != 0.4 {
		t.Fatalf("unexpected alignment %+v", cfg.Alignment)
	}
	if cfg.Embedder.OpenAI == nil || cfg.Embedder.OpenAI.APIKeyEnv != "OPENAI_API_KEY" {
		t.Fatalf("openai defaults not applied: %+v", cfg.Embedder.OpenAI)
	}
	if len(cfg.Transcript.Fillers) == 0 || cfg.Transcript.MinLength != 5 {
		t.Fatalf("transcript defaults not applied: %+v", cfg.Transcript)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"negative window": "alignment:\n  window_size: -1\n",
		"unknown type":    "embedder:\n  type: word2vec\n",
		"onnx no paths":   "embedder:\n  type: onnx\n",
		"bad yaml":        "alignment: [",
		"NaN threshold":   "alignment:\n  similarity_threshold: .nan\n",
		"inf threshold":   "alignment:\n  similarity_threshold: .inf\n",
		"-inf threshold":  "alignment:\n  similarity_threshold: -.inf\n",
	}
	for name, data := range cases {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Alignment.WindowSize = 7
	cfg.Store.Enabled = true
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Alignment.WindowSize != 7 || !got.Store.Enabled {
		t.Fatalf("unexpected config after reload %+v", got)
	}
}

func TestLoadDefaultPrefersWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	if err := os.WriteFile("config.yaml", []byte("alignment:\n  window_size: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, path, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if path != "config.yaml" || cfg.Alignment.WindowSize != 3 {
		t.Fatalf("expected ./config.yaml to win, got %s %+v", path, cfg.Alignment)
	}
}

func TestLoadDefaultWritesUserConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	home := t.TempDir()
	t.Setenv("HOME", home)
	_, path, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if !strings.HasPrefix(path, home) {
		t.Fatalf("expected config under %s, got %s", home, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
}

func TestLoadKeepsExplicitZeroThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("alignment:\n  similarity_threshold: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Alignment.SimilarityThreshold != 0 || cfg.Alignment.WindowSize != 5 {
		t.Fatalf("unexpected alignment %+v", cfg.Alignment)
	}
}
