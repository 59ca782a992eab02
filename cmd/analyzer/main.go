package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"crowdpulse/config"
	"crowdpulse/internal/classifier"
	"crowdpulse/internal/clients"
	"crowdpulse/internal/evidence"
	"crowdpulse/internal/logging"
	"crowdpulse/internal/models"
	"crowdpulse/internal/monitoring"
	"crowdpulse/internal/pipeline"
	"crowdpulse/internal/report"
	"crowdpulse/internal/scraper"
)

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: analyzer <thread-or-post-url>")
		os.Exit(2)
	}
	sourceURL := os.Args[1]

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	platform, err := scraper.DetectPlatform(sourceURL)
	if err != nil {
		slog.Error("[Analyzer] Unsupported source URL",
			slog.String("url", sourceURL),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	var source scraper.Source
	switch platform {
	case models.PlatformReddit:
		source = scraper.NewRedditSource()
	case models.PlatformX:
		itemsFile := os.Getenv("ITEMS_FILE")
		if itemsFile == "" {
			slog.Error("[Analyzer] X posts arrive pre-scraped; set ITEMS_FILE to the exported items JSON")
			os.Exit(1)
		}
		source = scraper.NewFileSource(models.PlatformX, itemsFile)
	}

	clf, fallback, err := classifier.FromEnv()
	if err != nil {
		slog.Error("[Analyzer] Failed to build classifier", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if fallback != nil {
		go monitoring.MonitorClassifierHealth(ctx, fallback)
	}

	var dedup *scraper.Dedup
	if os.Getenv("DEDUP_ENABLED") == "true" {
		clients.InitValkey()
		defer clients.CloseValkey()
		dedup = scraper.NewDedup()
	}

	var archive pipeline.Archiver
	if os.Getenv("ARCHIVE_ENABLED") == "true" {
		archive = pipeline.NewDynamoArchiver()
	}

	concurrency, err := strconv.Atoi(getEnv("CLASSIFIER_CONCURRENCY", "1"))
	if err != nil {
		concurrency = classifier.DEFAULT_CONCURRENCY
	}

	p := &pipeline.Pipeline{
		Aggregator:  evidence.NewAggregator(),
		Classifier:  clf,
		Dedup:       dedup,
		Archive:     archive,
		Concurrency: concurrency,
	}

	analysisID := getEnv("ANALYSIS_ID", uuid.NewString())

	outcome, err := p.Analyze(ctx, analysisID, sourceURL, source)
	if err != nil {
		slog.Error("[Analyzer] Analysis failed",
			slog.String("analysis_id", analysisID),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	dir, err := report.EvidenceDir(getEnv("EVIDENCE_DIR", "."), time.Now())
	if err != nil {
		slog.Error("[Analyzer] Evidence dir unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := report.WriteRunArtifacts(p.Aggregator, outcome.Run, dir); err != nil {
		slog.Error("[Analyzer] Failed to write artifacts", slog.String("error", err.Error()))
		os.Exit(1)
	}

	summary := outcome.Summary
	slog.Info("[Analyzer] Done",
		slog.String("analysis_id", summary.AnalysisID),
		slog.Int("total_items", summary.TotalItems),
		slog.Int("failed", outcome.Failed),
		slog.Int("duplicates", outcome.Duplicates),
		slog.Duration("processing_time", summary.Duration),
		slog.String("evidence_dir", dir))
}
