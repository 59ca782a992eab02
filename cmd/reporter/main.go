package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"crowdpulse/config"
	"crowdpulse/internal/classifier"
	"crowdpulse/internal/clients"
	"crowdpulse/internal/clients/kafka_client"
	"crowdpulse/internal/db"
	"crowdpulse/internal/evidence"
	"crowdpulse/internal/logging"
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

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	publishSummaries := os.Getenv("PUBLISH_SUMMARIES") == "true"
	if publishSummaries {
		cfg := kafka_client.GetKafkaConfig()
		for {
			err := kafka_client.InitKafkaProducer(cfg)
			if err == nil {
				break
			}

			slog.Warn("Kafka init failed, retrying...", slog.String("error", err.Error()))
			time.Sleep(5 * time.Second)
		}
		defer kafka_client.CloseKafkaProducer()
	}

	clf, fallback, err := classifier.FromEnv()
	if err != nil {
		slog.Error("[Reporter] Failed to build classifier", slog.String("error", err.Error()))
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

	archiveEnabled := os.Getenv("ARCHIVE_ENABLED") == "true"
	var archive pipeline.Archiver
	if archiveEnabled {
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

	today := time.Now().UTC()
	dir, err := report.EvidenceDir(getEnv("EVIDENCE_DIR", "."), today)
	if err != nil {
		slog.Error("[Reporter] Evidence dir unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Runs already archived earlier today enter the report alongside the
	// fresh ones.
	var runs []report.RunEvidence
	if archiveEnabled {
		runs = loadArchivedRuns(ctx, today)
	}

	source := scraper.NewRedditSource()
	subreddits := strings.Split(getEnv("REDDIT_TRENDING_SUBREDDITS", "news,technology"), ",")
	threadsPerSubreddit, err := strconv.Atoi(getEnv("THREADS_PER_SUBREDDIT", "5"))
	if err != nil {
		threadsPerSubreddit = 5
	}

	for _, subreddit := range subreddits {
		subreddit = strings.TrimSpace(subreddit)
		if subreddit == "" {
			continue
		}

		threads, err := source.TrendingThreads(ctx, subreddit, threadsPerSubreddit)
		if err != nil {
			slog.Error("[Reporter] Trending discovery failed",
				slog.String("subreddit", subreddit),
				slog.String("error", err.Error()))
			continue
		}

		for _, threadURL := range threads {
			if ctx.Err() != nil {
				slog.Warn("[Reporter] Shutting down before all threads were analyzed")
				break
			}

			outcome, err := p.Analyze(ctx, uuid.NewString(), threadURL, source)
			if err != nil {
				slog.Error("[Reporter] Thread analysis failed",
					slog.String("url", threadURL),
					slog.String("error", err.Error()))
				continue
			}

			if err := report.WriteRunArtifacts(p.Aggregator, outcome.Run, dir); err != nil {
				slog.Error("[Reporter] Failed to write run artifacts",
					slog.String("analysis_id", outcome.Summary.AnalysisID),
					slog.String("error", err.Error()))
			}

			if publishSummaries {
				if err := kafka_client.PublishToKafka(kafka_client.KAFKA_TOPIC_RUN_SUMMARIES,
					outcome.Summary.AnalysisID, outcome.Summary); err != nil {
					slog.Error("[Reporter] Failed to publish run summary",
						slog.String("analysis_id", outcome.Summary.AnalysisID),
						slog.String("error", err.Error()))
				}
			}

			runs = append(runs, report.RunEvidence{
				Summary: outcome.Summary,
				Records: outcome.Run.Records(),
			})
		}
	}

	dailyReport := report.BuildDailyReport(today, runs)

	reportPath, err := report.WriteDailyReport(dir, dailyReport)
	if err != nil {
		slog.Error("[Reporter] Failed to write daily report", slog.String("error", err.Error()))
		os.Exit(1)
	}

	postPath, err := report.WriteSocialPost(dir, report.ComposeSocialPost(dailyReport))
	if err != nil {
		slog.Error("[Reporter] Failed to write social post", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("[Reporter] Daily report complete",
		slog.Int("runs", dailyReport.Summary.Runs),
		slog.Int("total_items", dailyReport.Summary.TotalItems),
		slog.String("report", reportPath),
		slog.String("post", postPath))
}

func loadArchivedRuns(ctx context.Context, today time.Time) []report.RunEvidence {
	summaries, err := db.GetRunSummariesByDate(ctx, today.Format("2006-01-02"))
	if err != nil {
		slog.Error("[Reporter] Failed to load archived summaries",
			slog.String("error", err.Error()))
		return nil
	}

	var runs []report.RunEvidence
	for _, summary := range summaries {
		records, err := db.GetEvidenceRecordsByRun(ctx, summary.AnalysisID)
		if err != nil {
			slog.Error("[Reporter] Failed to load archived records",
				slog.String("analysis_id", summary.AnalysisID),
				slog.String("error", err.Error()))
			continue
		}
		runs = append(runs, report.RunEvidence{Summary: summary, Records: records})
	}

	slog.Info("[Reporter] Folded in archived runs", slog.Int("count", len(runs)))
	return runs
}
