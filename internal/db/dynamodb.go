package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"crowdpulse/internal/clients"
	"crowdpulse/internal/models"
)

const (
	EVIDENCE_TABLE_NAME  = "EvidenceRecords"
	SUMMARIES_TABLE_NAME = "RunSummaries"

	DYNAMODB_BATCH_SIZE = 25
)

var dbClient *dynamodb.Client

func InitDynamoDB() {
	dbClient = clients.GetDynamoDBClient()
}

// BatchInsertEvidenceRecords archives a run's records in BatchWriteItem
// chunks, retrying unprocessed items with exponential backoff. Evidence rows
// carry no TTL: they are the audit trail.
func BatchInsertEvidenceRecords(ctx context.Context, analysisID string, records []models.EvidenceRecord) error {
	if dbClient == nil {
		dbClient = clients.GetDynamoDBClient()
	}

	for i := 0; i < len(records); i += DYNAMODB_BATCH_SIZE {
		select {
		case <-ctx.Done():
			slog.Warn("[DynamoDB] context canceled")
			return ctx.Err()
		default:
		}

		end := i + DYNAMODB_BATCH_SIZE
		if end > len(records) {
			end = len(records)
		}

		writeRequests := make([]types.WriteRequest, 0, DYNAMODB_BATCH_SIZE)
		for _, record := range records[i:end] {
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{
					Item: recordToDynamoDBItem(analysisID, record),
				},
			})
		}

		out, err := dbClient.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				EVIDENCE_TABLE_NAME: writeRequests,
			},
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Failed to batch write evidence records: %w", err)
		}

		retryCount := 0
		backoff := 500 * time.Millisecond
		for len(out.UnprocessedItems) > 0 && retryCount < 3 {
			time.Sleep(backoff)
			backoff *= 2

			slog.Warn("[DynamoDB] Retrying unprocessed evidence records...",
				slog.Int("attempt", retryCount+1),
				slog.Int("remaining", len(out.UnprocessedItems[EVIDENCE_TABLE_NAME])))

			out, err = dbClient.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: out.UnprocessedItems,
			})
			if err != nil {
				return fmt.Errorf("[DynamoDB] Retry error %w", err)
			}

			retryCount++
		}

		if remaining := len(out.UnprocessedItems[EVIDENCE_TABLE_NAME]); remaining > 0 {
			// The caller must not commit offsets for records that never
			// landed; surface the shortfall instead of swallowing it.
			return fmt.Errorf("[DynamoDB] %d evidence records still unprocessed after retries", remaining)
		}
	}

	slog.Info("[DynamoDB] Successfully stored evidence records",
		slog.String("analysis_id", analysisID),
		slog.Int("count", len(records)))
	return nil
}

func recordToDynamoDBItem(analysisID string, record models.EvidenceRecord) map[string]types.AttributeValue {
	item := make(map[string]types.AttributeValue)

	item["analysis_id"] = &types.AttributeValueMemberS{Value: analysisID}
	item["item_key"] = &types.AttributeValueMemberS{
		Value: fmt.Sprintf("%s/%s", record.Item.Source.Platform, record.Item.Source.ItemID),
	}
	item["platform"] = &types.AttributeValueMemberS{Value: string(record.Item.Source.Platform)}
	item["source_url"] = &types.AttributeValueMemberS{Value: record.Item.Source.URL}
	item["body"] = &types.AttributeValueMemberS{Value: record.Item.Body}
	item["label"] = &types.AttributeValueMemberS{Value: string(record.Result.Label)}
	item["confidence"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%f", record.Result.Confidence)}
	item["analyzed_at"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", record.AnalyzedAt.Unix())}

	if record.Item.Author != "" {
		item["author"] = &types.AttributeValueMemberS{Value: record.Item.Author}
	}
	if record.Result.Rationale != "" {
		item["rationale"] = &types.AttributeValueMemberS{Value: record.Result.Rationale}
	}
	if !record.Item.CollectedAt.IsZero() {
		item["collected_at"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", record.Item.CollectedAt.Unix())}
	}

	return item
}

// storedRecord mirrors the attribute names recordToDynamoDBItem writes.
type storedRecord struct {
	AnalysisID  string  `dynamodbav:"analysis_id"`
	ItemKey     string  `dynamodbav:"item_key"`
	Platform    string  `dynamodbav:"platform"`
	SourceURL   string  `dynamodbav:"source_url"`
	Author      string  `dynamodbav:"author,omitempty"`
	Body        string  `dynamodbav:"body"`
	Label       string  `dynamodbav:"label"`
	Confidence  float64 `dynamodbav:"confidence"`
	Rationale   string  `dynamodbav:"rationale,omitempty"`
	AnalyzedAt  int64   `dynamodbav:"analyzed_at"`
	CollectedAt int64   `dynamodbav:"collected_at,omitempty"`
}

// GetEvidenceRecordsByRun reloads one run's archived records, letting the
// daily reporter fold in runs finished by an earlier invocation.
func GetEvidenceRecordsByRun(ctx context.Context, analysisID string) ([]models.EvidenceRecord, error) {
	if dbClient == nil {
		dbClient = clients.GetDynamoDBClient()
	}

	input := &dynamodb.ScanInput{
		TableName:        aws.String(EVIDENCE_TABLE_NAME),
		FilterExpression: aws.String("analysis_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: analysisID},
		},
	}

	var records []models.EvidenceRecord
	paginator := dynamodb.NewScanPaginator(dbClient, input)

	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Scan for evidence records failed: %w", err)
		}

		var page []storedRecord
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			slog.Error("[DynamoDB] Unable to unmarshal evidence page", slog.String("error", err.Error()))
			return nil, err
		}

		for _, stored := range page {
			records = append(records, recordFromStored(stored))
		}
	}

	return records, nil
}

func recordFromStored(stored storedRecord) models.EvidenceRecord {
	itemID := stored.ItemKey
	if idx := strings.Index(itemID, "/"); idx >= 0 {
		itemID = itemID[idx+1:]
	}

	record := models.EvidenceRecord{
		Item: models.TextItem{
			Source: models.SourceRef{
				URL:      stored.SourceURL,
				Platform: models.Platform(stored.Platform),
				ItemID:   itemID,
			},
			Author: stored.Author,
			Body:   stored.Body,
		},
		Result: models.SentimentResult{
			Label:      models.SentimentLabel(stored.Label),
			Confidence: stored.Confidence,
			Rationale:  stored.Rationale,
		},
		AnalyzedAt: time.Unix(stored.AnalyzedAt, 0).UTC(),
	}
	if stored.CollectedAt > 0 {
		record.Item.CollectedAt = time.Unix(stored.CollectedAt, 0).UTC()
	}
	return record
}

// storedSummary is the table shape of a run summary; report_date keys the
// daily merge.
type storedSummary struct {
	AnalysisID       string             `dynamodbav:"analysis_id"`
	ReportDate       string             `dynamodbav:"report_date"`
	SourceURL        string             `dynamodbav:"source_url"`
	TotalItems       int                `dynamodbav:"total_items"`
	SentimentSummary map[string]float64 `dynamodbav:"sentiment_summary"`
	StartedAt        int64              `dynamodbav:"started_at"`
	FinishedAt       int64              `dynamodbav:"finished_at"`
	DurationMillis   int64              `dynamodbav:"duration_ms"`
	Warning          string             `dynamodbav:"warning,omitempty"`
}

func StoreRunSummary(ctx context.Context, summary models.Summary) error {
	if dbClient == nil {
		dbClient = clients.GetDynamoDBClient()
	}

	stored := storedSummary{
		AnalysisID:       summary.AnalysisID,
		ReportDate:       summary.FinishedAt.UTC().Format("2006-01-02"),
		SourceURL:        summary.SourceURL,
		TotalItems:       summary.TotalItems,
		SentimentSummary: make(map[string]float64, len(summary.SentimentSummary)),
		StartedAt:        summary.StartedAt.Unix(),
		FinishedAt:       summary.FinishedAt.Unix(),
		DurationMillis:   summary.Duration.Milliseconds(),
		Warning:          summary.Warning,
	}
	for label, pct := range summary.SentimentSummary {
		stored.SentimentSummary[string(label)] = pct
	}

	item, err := attributevalue.MarshalMap(stored)
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to marshal run summary: %w", err)
	}

	_, err = dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(SUMMARIES_TABLE_NAME),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to store run summary: %w", err)
	}

	slog.Info("[DynamoDB] Successfully stored run summary",
		slog.String("analysis_id", summary.AnalysisID))
	return nil
}

// GetRunSummariesByDate returns every summary stored for a report date, so a
// later reporter invocation the same day can fold in earlier runs.
func GetRunSummariesByDate(ctx context.Context, reportDate string) ([]models.Summary, error) {
	if dbClient == nil {
		dbClient = clients.GetDynamoDBClient()
	}

	input := &dynamodb.ScanInput{
		TableName:        aws.String(SUMMARIES_TABLE_NAME),
		FilterExpression: aws.String("report_date = :d"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d": &types.AttributeValueMemberS{Value: reportDate},
		},
	}

	var summaries []models.Summary
	paginator := dynamodb.NewScanPaginator(dbClient, input)

	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Scan for run summaries failed: %w", err)
		}

		var page []storedSummary
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			slog.Error("[DynamoDB] Unable to unmarshal summary page", slog.String("error", err.Error()))
			return nil, err
		}

		for _, stored := range page {
			summaries = append(summaries, summaryFromStored(stored))
		}
	}

	slog.Info("[DynamoDB] Successfully retrieved run summaries",
		slog.String("report_date", reportDate),
		slog.Int("count", len(summaries)))
	return summaries, nil
}

func summaryFromStored(stored storedSummary) models.Summary {
	summary := models.Summary{
		AnalysisID:       stored.AnalysisID,
		SourceURL:        stored.SourceURL,
		TotalItems:       stored.TotalItems,
		SentimentSummary: make(map[models.SentimentLabel]float64, len(stored.SentimentSummary)),
		StartedAt:        time.Unix(stored.StartedAt, 0).UTC(),
		FinishedAt:       time.Unix(stored.FinishedAt, 0).UTC(),
		Duration:         time.Duration(stored.DurationMillis) * time.Millisecond,
		Warning:          stored.Warning,
	}
	for label, pct := range stored.SentimentSummary {
		summary.SentimentSummary[models.SentimentLabel(label)] = pct
	}
	return summary
}
