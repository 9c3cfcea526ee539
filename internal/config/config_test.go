package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

// newFlagBinder creates a FlagSet with all config flags registered at their defaults.
func newFlagBinder(defaults Config) *fakeBinder {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	return &fakeBinder{fs: fs}
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Paths.DataDir != "data" {
		t.Errorf("Paths.DataDir = %q; want %q", cfg.Paths.DataDir, "data")
	}

	if cfg.Dataset.VocabSize != 10000 {
		t.Errorf("Dataset.VocabSize = %d; want 10000", cfg.Dataset.VocabSize)
	}

	if cfg.Tokenizer.Kind != "social" {
		t.Errorf("Tokenizer.Kind = %q; want %q", cfg.Tokenizer.Kind, "social")
	}

	if !cfg.Tokenizer.Lowercase {
		t.Error("Tokenizer.Lowercase = false; want true")
	}

	if cfg.BOW.Enabled {
		t.Error("BOW.Enabled = true; want false")
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}

	want := []string{"us_train", "us_trial", "us_test"}
	if len(cfg.Dataset.Splits) != len(want) {
		t.Fatalf("len(Splits) = %d; want %d", len(cfg.Dataset.Splits), len(want))
	}

	for i, s := range cfg.Dataset.Splits {
		if s.Prefix != want[i] {
			t.Errorf("Splits[%d].Prefix = %q; want %q", i, s.Prefix, want[i])
		}
	}
}

// --- Paths ---

func TestSplitDirAndArtifactPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Paths.DataDir = "/corpus"
	split := SplitConfig{Name: "train", Dir: "train", Prefix: "us_train"}

	if got := cfg.SplitDir(split); got != filepath.Join("/corpus", "train") {
		t.Errorf("SplitDir = %q", got)
	}

	if got := cfg.ArtifactPath(split, ".set"); got != filepath.Join("/corpus", "train", "us_train.set") {
		t.Errorf("ArtifactPath = %q", got)
	}

	cfg.Paths.OutDir = "/out"
	if got := cfg.ArtifactPath(split, ".set"); got != filepath.Join("/out", "train", "us_train.set") {
		t.Errorf("ArtifactPath with out dir = %q", got)
	}

	abs := SplitConfig{Dir: "/elsewhere", Prefix: "p"}
	if got := cfg.SplitDir(abs); got != "/elsewhere" {
		t.Errorf("SplitDir(abs) = %q; want /elsewhere", got)
	}
}

// --- RegisterFlags ---

func TestRegisterFlags(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	checks := []struct {
		flag string
		want string
	}{
		{"paths-data-dir", "data"},
		{"paths-mapping-file", "data/mapping/us_mapping.txt"},
		{"dataset-vocab-size", "10000"},
		{"tokenizer-kind", "social"},
		{"bow-enabled", "false"},
		{"log-level", "info"},
	}

	for _, c := range checks {
		f := fs.Lookup(c.flag)
		if f == nil {
			t.Errorf("flag %q not registered", c.flag)
			continue
		}

		if f.DefValue != c.want {
			t.Errorf("flag %q default = %q; want %q", c.flag, f.DefValue, c.want)
		}
	}

	for _, name := range flagKeys {
		if fs.Lookup(name) == nil {
			t.Errorf("flag %q bound in flagKeys but not registered", name)
		}
	}
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	defaults := DefaultConfig()
	binder := newFlagBinder(defaults)

	cfg, err := Load(LoadOptions{
		Cmd:      binder,
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Paths.DataDir != defaults.Paths.DataDir {
		t.Errorf("DataDir = %q; want %q", cfg.Paths.DataDir, defaults.Paths.DataDir)
	}

	if cfg.Dataset.VocabSize != defaults.Dataset.VocabSize {
		t.Errorf("VocabSize = %d; want %d", cfg.Dataset.VocabSize, defaults.Dataset.VocabSize)
	}

	if cfg.Tokenizer.Kind != defaults.Tokenizer.Kind {
		t.Errorf("Tokenizer.Kind = %q; want %q", cfg.Tokenizer.Kind, defaults.Tokenizer.Kind)
	}

	if len(cfg.Dataset.Splits) != 3 {
		t.Errorf("len(Splits) = %d; want 3", len(cfg.Dataset.Splits))
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	err := fs.Parse([]string{
		"--tokenizer-kind=whitespace",
		"--dataset-vocab-size=500",
		"--bow-enabled",
		"--log-level=debug",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(LoadOptions{
		Cmd:      &fakeBinder{fs: fs},
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Tokenizer.Kind != "whitespace" {
		t.Errorf("Tokenizer.Kind = %q; want %q", cfg.Tokenizer.Kind, "whitespace")
	}

	if cfg.Dataset.VocabSize != 500 {
		t.Errorf("Dataset.VocabSize = %d; want 500", cfg.Dataset.VocabSize)
	}

	if !cfg.BOW.Enabled {
		t.Error("BOW.Enabled = false; want true")
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("EMOJISET_LOG_LEVEL", "warn")
	t.Setenv("EMOJISET_PATHS_DATA_DIR", "/env/data")
	t.Setenv("EMOJISET_DATASET_VOCAB_SIZE", "42")

	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:      newFlagBinder(defaults),
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "warn")
	}

	if cfg.Paths.DataDir != "/env/data" {
		t.Errorf("Paths.DataDir = %q; want %q", cfg.Paths.DataDir, "/env/data")
	}

	if cfg.Dataset.VocabSize != 42 {
		t.Errorf("Dataset.VocabSize = %d; want 42", cfg.Dataset.VocabSize)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "emojiset.yaml")

	content := `
log_level: error
paths:
  data_dir: /srv/semeval
tokenizer:
  kind: whitespace
dataset:
  vocab_size: 2000
  splits:
    - name: train
      dir: es_train
      prefix: es_train
    - name: test
      dir: es_test
      prefix: es_test
`

	err := os.WriteFile(cfgFile, []byte(content), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:        newFlagBinder(defaults),
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "error")
	}

	if cfg.Paths.DataDir != "/srv/semeval" {
		t.Errorf("Paths.DataDir = %q; want %q", cfg.Paths.DataDir, "/srv/semeval")
	}

	if cfg.Tokenizer.Kind != "whitespace" {
		t.Errorf("Tokenizer.Kind = %q; want %q", cfg.Tokenizer.Kind, "whitespace")
	}

	if cfg.Dataset.VocabSize != 2000 {
		t.Errorf("Dataset.VocabSize = %d; want 2000", cfg.Dataset.VocabSize)
	}

	if len(cfg.Dataset.Splits) != 2 {
		t.Fatalf("len(Splits) = %d; want 2", len(cfg.Dataset.Splits))
	}

	if cfg.Dataset.Splits[1].Prefix != "es_test" {
		t.Errorf("Splits[1].Prefix = %q; want %q", cfg.Dataset.Splits[1].Prefix, "es_test")
	}
}

func TestLoad_FlagBeatsConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "emojiset.yaml")

	if err := os.WriteFile(cfgFile, []byte("tokenizer:\n  kind: whitespace\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := DefaultConfig()
	binder := newFlagBinder(defaults)

	if err := binder.fs.Parse([]string{"--tokenizer-kind=sentencepiece"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, ConfigFile: cfgFile, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Tokenizer.Kind != "sentencepiece" {
		t.Errorf("Tokenizer.Kind = %q; want %q", cfg.Tokenizer.Kind, "sentencepiece")
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "bad.yaml")
	// Write invalid YAML
	err := os.WriteFile(cfgFile, []byte(":\t:bad yaml:::"), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = Load(LoadOptions{
		ConfigFile: cfgFile,
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for invalid config file")
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: "/nonexistent/path/emojiset.yaml",
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for missing explicit config file")
	}
}

func TestLoad_NilCmd(t *testing.T) {
	cfg, err := Load(LoadOptions{
		Cmd:      nil,
		Defaults: DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Tokenizer.Kind != "social" {
		t.Errorf("Tokenizer.Kind = %q; want %q", cfg.Tokenizer.Kind, "social")
	}
}
