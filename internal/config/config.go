package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	Paths     PathsConfig     `mapstructure:"paths"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	BOW       BOWConfig       `mapstructure:"bow"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type PathsConfig struct {
	DataDir            string `mapstructure:"data_dir"`
	OutDir             string `mapstructure:"out_dir"`
	MappingFile        string `mapstructure:"mapping_file"`
	SentencePieceModel string `mapstructure:"sentencepiece_model"`
}

type DatasetConfig struct {
	VocabSize      int           `mapstructure:"vocab_size"`
	CheckAlignment bool          `mapstructure:"check_alignment"`
	Splits         []SplitConfig `mapstructure:"splits"`
}

// SplitConfig names one corpus split. Dir is relative to paths.data_dir.
// The first split builds the vocabulary.
type SplitConfig struct {
	Name   string `mapstructure:"name"`
	Dir    string `mapstructure:"dir"`
	Prefix string `mapstructure:"prefix"`
}

type TokenizerConfig struct {
	Kind      string `mapstructure:"kind"`
	Lowercase bool   `mapstructure:"lowercase"`
}

type BOWConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	SublinearTF      bool `mapstructure:"sublinear_tf"`
	DisableSmoothing bool `mapstructure:"disable_smoothing"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Paths: PathsConfig{
			DataDir:            "data",
			OutDir:             "",
			MappingFile:        "data/mapping/us_mapping.txt",
			SentencePieceModel: "",
		},
		Dataset: DatasetConfig{
			VocabSize:      10000,
			CheckAlignment: false,
			Splits:         DefaultSplits(),
		},
		Tokenizer: TokenizerConfig{
			Kind:      "social",
			Lowercase: true,
		},
		BOW: BOWConfig{
			Enabled: false,
		},
	}
}

// DefaultSplits is the SemEval 2018 emoji prediction layout.
func DefaultSplits() []SplitConfig {
	return []SplitConfig{
		{Name: "train", Dir: "train", Prefix: "us_train"},
		{Name: "dev", Dir: "dev", Prefix: "us_trial"},
		{Name: "test", Dir: "test", Prefix: "us_test"},
	}
}

// SplitDir resolves a split's directory against the data directory.
func (c Config) SplitDir(s SplitConfig) string {
	if filepath.IsAbs(s.Dir) {
		return s.Dir
	}

	return filepath.Join(c.Paths.DataDir, s.Dir)
}

// ArtifactPath returns where a split's artifact with the given extension
// is written: next to the split files unless paths.out_dir is set.
func (c Config) ArtifactPath(s SplitConfig, ext string) string {
	dir := c.SplitDir(s)
	if c.Paths.OutDir != "" {
		dir = filepath.Join(c.Paths.OutDir, s.Dir)
	}

	return filepath.Join(dir, s.Prefix+ext)
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("paths-data-dir", defaults.Paths.DataDir, "Directory holding the split directories")
	fs.String("paths-out-dir", defaults.Paths.OutDir, "Directory for persisted artifacts (default: next to each split)")
	fs.String("paths-mapping-file", defaults.Paths.MappingFile, "Emoji id to character mapping file")
	fs.String("paths-sentencepiece-model", defaults.Paths.SentencePieceModel, "SentencePiece model for --tokenizer-kind sentencepiece")
	fs.Int("dataset-vocab-size", defaults.Dataset.VocabSize, "Maximum number of content tokens in the vocabulary")
	fs.Bool("dataset-check-alignment", defaults.Dataset.CheckAlignment, "Reject splits whose text and label line counts differ")
	fs.String("tokenizer-kind", defaults.Tokenizer.Kind, "Tokenizer (whitespace|social|sentencepiece)")
	fs.Bool("tokenizer-lowercase", defaults.Tokenizer.Lowercase, "Lowercase tokens")
	fs.Bool("bow-enabled", defaults.BOW.Enabled, "Also write TF-IDF bag-of-words matrices")
	fs.Bool("bow-sublinear-tf", defaults.BOW.SublinearTF, "Use 1+ln(tf) term frequency")
	fs.Bool("bow-disable-smoothing", defaults.BOW.DisableSmoothing, "Use unsmoothed idf")
	fs.String("metrics-textfile", defaults.Metrics.Textfile, "Write pipeline metrics to this Prometheus textfile")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("EMOJISET")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("emojiset")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if len(cfg.Dataset.Splits) == 0 {
		cfg.Dataset.Splits = opts.Defaults.Dataset.Splits
	}

	return cfg, nil
}

// flagKeys maps config keys to the flag names RegisterFlags defines.
var flagKeys = map[string]string{
	"log_level":                 "log-level",
	"paths.data_dir":            "paths-data-dir",
	"paths.out_dir":             "paths-out-dir",
	"paths.mapping_file":        "paths-mapping-file",
	"paths.sentencepiece_model": "paths-sentencepiece-model",
	"dataset.vocab_size":        "dataset-vocab-size",
	"dataset.check_alignment":   "dataset-check-alignment",
	"tokenizer.kind":            "tokenizer-kind",
	"tokenizer.lowercase":       "tokenizer-lowercase",
	"bow.enabled":               "bow-enabled",
	"bow.sublinear_tf":          "bow-sublinear-tf",
	"bow.disable_smoothing":     "bow-disable-smoothing",
	"metrics.textfile":          "metrics-textfile",
}

// bindFlags binds each known flag to its nested key. Flags the set does
// not define are skipped so commands may register a subset.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("paths.data_dir", c.Paths.DataDir)
	v.SetDefault("paths.out_dir", c.Paths.OutDir)
	v.SetDefault("paths.mapping_file", c.Paths.MappingFile)
	v.SetDefault("paths.sentencepiece_model", c.Paths.SentencePieceModel)
	v.SetDefault("dataset.vocab_size", c.Dataset.VocabSize)
	v.SetDefault("dataset.check_alignment", c.Dataset.CheckAlignment)
	v.SetDefault("tokenizer.kind", c.Tokenizer.Kind)
	v.SetDefault("tokenizer.lowercase", c.Tokenizer.Lowercase)
	v.SetDefault("bow.enabled", c.BOW.Enabled)
	v.SetDefault("bow.sublinear_tf", c.BOW.SublinearTF)
	v.SetDefault("bow.disable_smoothing", c.BOW.DisableSmoothing)
	v.SetDefault("metrics.textfile", c.Metrics.Textfile)
}
