// Package testutil provides corpus fixtures and skip helpers for tests.
//
// Skip helpers call t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    model := testutil.RequireSentencePieceModel(t)
//	    ...
//	}
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SentencePieceModelEnv names the variable pointing at a SentencePiece model
// for integration tests. It matches the config key paths.sentencepiece_model.
const SentencePieceModelEnv = "EMOJISET_PATHS_SENTENCEPIECE_MODEL"

// RequireSentencePieceModel returns the model path from SentencePieceModelEnv,
// skipping the test when it is unset or the file does not exist.
func RequireSentencePieceModel(tb testing.TB) string {
	tb.Helper()

	path := os.Getenv(SentencePieceModelEnv)
	if path == "" {
		tb.Skipf("sentencepiece model not configured; set %s", SentencePieceModelEnv)
		return ""
	}

	if _, err := os.Stat(path); err != nil {
		tb.Skipf("sentencepiece model not found at %s=%q", SentencePieceModelEnv, path)
		return ""
	}

	return path
}

// WriteFile writes content to path, creating parent directories, and
// returns path.
func WriteFile(tb testing.TB, path, content string) string {
	tb.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("MkdirAll: %v", err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("WriteFile: %v", err)
	}

	return path
}

// WriteSplit writes dir/prefix.text and dir/prefix.labels, one entry per
// line with a trailing newline.
func WriteSplit(tb testing.TB, dir, prefix string, lines, labels []string) {
	tb.Helper()

	WriteFile(tb, filepath.Join(dir, prefix+".text"), joinLines(lines))
	WriteFile(tb, filepath.Join(dir, prefix+".labels"), joinLines(labels))
}

// Corpus lays out the default three-split tree (train/us_train,
// dev/us_trial, test/us_test) under a temp dir with a small mapping file,
// and returns the data dir and the mapping path.
func Corpus(tb testing.TB) (dataDir, mappingFile string) {
	tb.Helper()

	root := tb.TempDir()
	dataDir = filepath.Join(root, "data")

	WriteSplit(tb, filepath.Join(dataDir, "train"), "us_train",
		[]string{"love this", "love that so much", "hate this"},
		[]string{"0", "1", "2"})
	WriteSplit(tb, filepath.Join(dataDir, "dev"), "us_trial",
		[]string{"love it"},
		[]string{"1"})
	WriteSplit(tb, filepath.Join(dataDir, "test"), "us_test",
		[]string{"hate that"},
		[]string{"2"})

	mappingFile = WriteFile(tb, filepath.Join(root, "us_mapping.txt"), "0\t❤\n1\t😍\n2\t😂\n")

	return dataDir, mappingFile
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n") + "\n"
}
