// Package metrics defines the Prometheus collectors for a preparation run
// and writes them to a node-exporter textfile when the run completes.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for one run. Each instance owns a private
// registry, so several runs in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsTotal      *prometheus.CounterVec
	TokensTotal         *prometheus.CounterVec
	UnknownTokensTotal  *prometheus.CounterVec
	VocabularySize      prometheus.Gauge
	SplitDuration       *prometheus.GaugeVec
	ArtifactsWritten    *prometheus.CounterVec
	LastSuccessUnixTime prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emojiset_documents_total",
				Help: "Documents loaded per split.",
			},
			[]string{"split"},
		),
		TokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emojiset_tokens_total",
				Help: "Encoded tokens per split.",
			},
			[]string{"split"},
		),
		UnknownTokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emojiset_unknown_tokens_total",
				Help: "Tokens encoded as <UNK> per split.",
			},
			[]string{"split"},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "emojiset_vocabulary_size",
				Help: "Number of entries in the shared vocabulary, reserved symbols included.",
			},
		),
		SplitDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "emojiset_split_duration_seconds",
				Help: "Wall time spent loading and persisting a split.",
			},
			[]string{"split"},
		),
		ArtifactsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emojiset_artifacts_written_total",
				Help: "Artifacts persisted by kind (dataset, tfidf).",
			},
			[]string{"kind"},
		),
		LastSuccessUnixTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "emojiset_last_success_timestamp_seconds",
				Help: "Unix time of the last successful preparation run.",
			},
		),
	}

	m.registry.MustRegister(
		m.DocumentsTotal,
		m.TokensTotal,
		m.UnknownTokensTotal,
		m.VocabularySize,
		m.SplitDuration,
		m.ArtifactsWritten,
		m.LastSuccessUnixTime,
	)

	return m
}

// Registry exposes the private registry, mainly for tests and embedding.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSplit records the document and token counts of one loaded split.
func (m *Metrics) ObserveSplit(split string, documents, tokens, unknown int) {
	m.DocumentsTotal.WithLabelValues(split).Add(float64(documents))
	m.TokensTotal.WithLabelValues(split).Add(float64(tokens))
	m.UnknownTokensTotal.WithLabelValues(split).Add(float64(unknown))
}

// WriteTextfile writes the registry in the text exposition format. The
// parent directory is created if needed.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}

	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}
