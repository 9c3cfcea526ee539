// Package doctor provides corpus preflight checks for emojiset.
package doctor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/example/go-emoji-dataset/internal/mapping"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Split names the two files of one corpus split.
type Split struct {
	Name       string
	TextPath   string
	LabelsPath string
}

// LabelScanFunc reports the line count of a labels file and the 1-based
// numbers of lines that are not integers.
type LabelScanFunc func(path string) (lines int, malformed []int, err error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	Splits []Split
	// MappingFile is parsed when set.
	MappingFile string
	// SentencePieceModel is checked for existence when set.
	SentencePieceModel string
	// CountLines defaults to CountLines.
	CountLines func(path string) (int, error)
	// ScanLabels defaults to ScanLabels.
	ScanLabels LabelScanFunc
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	countLines := cfg.CountLines
	if countLines == nil {
		countLines = CountLines
	}

	scanLabels := cfg.ScanLabels
	if scanLabels == nil {
		scanLabels = ScanLabels
	}

	// ---- splits -----------------------------------------------------------
	for _, split := range cfg.Splits {
		checkSplit(&res, w, split, countLines, scanLabels)
	}

	// ---- mapping ----------------------------------------------------------
	if cfg.MappingFile != "" {
		m, err := mapping.Load(cfg.MappingFile)
		if err != nil {
			res.fail(fmt.Sprintf("mapping %q: %v", cfg.MappingFile, err))
			fmt.Fprintf(w, "%s mapping %s: %v\n", FailMark, cfg.MappingFile, err)
		} else {
			fmt.Fprintf(w, "%s mapping: %d emoji\n", PassMark, m.Len())
		}
	}

	// ---- sentencepiece model ----------------------------------------------
	if cfg.SentencePieceModel != "" {
		if _, err := os.Stat(cfg.SentencePieceModel); err != nil {
			res.fail(fmt.Sprintf("sentencepiece model %q: %v", cfg.SentencePieceModel, err))
			fmt.Fprintf(w, "%s sentencepiece model %s: not found\n", FailMark, cfg.SentencePieceModel)
		} else {
			fmt.Fprintf(w, "%s sentencepiece model: %s\n", PassMark, cfg.SentencePieceModel)
		}
	}

	return res
}

func checkSplit(res *Result, w io.Writer, split Split, countLines func(string) (int, error), scanLabels LabelScanFunc) {
	docs, err := countLines(split.TextPath)
	if err != nil {
		res.fail(fmt.Sprintf("%s text %q: %v", split.Name, split.TextPath, err))
		fmt.Fprintf(w, "%s %s text %s: %v\n", FailMark, split.Name, split.TextPath, err)

		return
	}

	labels, malformed, err := scanLabels(split.LabelsPath)
	if err != nil {
		res.fail(fmt.Sprintf("%s labels %q: %v", split.Name, split.LabelsPath, err))
		fmt.Fprintf(w, "%s %s labels %s: %v\n", FailMark, split.Name, split.LabelsPath, err)

		return
	}

	if len(malformed) > 0 {
		res.fail(fmt.Sprintf("%s labels: %d malformed lines, first at line %d", split.Name, len(malformed), malformed[0]))
		fmt.Fprintf(w, "%s %s labels: malformed line %d\n", FailMark, split.Name, malformed[0])

		return
	}

	if docs != labels {
		res.fail(fmt.Sprintf("%s: %d documents but %d labels", split.Name, docs, labels))
		fmt.Fprintf(w, "%s %s: %d documents, %d labels\n", FailMark, split.Name, docs, labels)

		return
	}

	fmt.Fprintf(w, "%s %s: %d documents\n", PassMark, split.Name, docs)
}

// CountLines counts lines the way the dataset loader reads them: a final
// line without a trailing newline still counts.
func CountLines(path string) (int, error) {
	n := 0
	err := scanFile(path, func(string) { n++ })

	return n, err
}

// ScanLabels counts the lines of a labels file and records the lines that
// do not parse as integers.
func ScanLabels(path string) (int, []int, error) {
	var (
		n         int
		malformed []int
	)

	err := scanFile(path, func(line string) {
		n++
		if _, err := strconv.Atoi(strings.TrimSpace(line)); err != nil {
			malformed = append(malformed, n)
		}
	})

	return n, malformed, err
}

func scanFile(path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			fn(strings.TrimSuffix(line, "\r"))
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
