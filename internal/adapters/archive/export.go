// Package archive exports composite score rows to S3 on a nightly
// schedule. Export is one-way: nothing in idxscope ever reads an object
// back out of the bucket, so there is no import counterpart here.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/idxscope/core/internal/config"
	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/repository"
	"github.com/rs/zerolog"
)

// Exporter writes a day's composite score rows to S3 as one newline-delimited
// JSON object per day, keyed by date.
type Exporter struct {
	client *s3.Client
	bucket string
	scores *repository.CompositeScoreRepository
	log    zerolog.Logger
}

// NewExporter builds an Exporter from cfg's archive bucket/region, loading
// AWS credentials the default SDK way (environment, shared config, or an
// attached role). It returns ok=false when no bucket is configured, in
// which case the caller should skip scheduling nightly exports entirely.
func NewExporter(ctx context.Context, cfg *config.Config, scores *repository.CompositeScoreRepository, log zerolog.Logger) (*Exporter, bool, error) {
	if cfg.ArchiveBucket == "" {
		return nil, false, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.ArchiveRegion))
	if err != nil {
		return nil, false, fmt.Errorf("archive: load aws config: %w", err)
	}

	return &Exporter{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.ArchiveBucket,
		scores: scores,
		log:    log.With().Str("component", "archive_exporter").Logger(),
	}, true, nil
}

// ExportDay exports every composite score row from [day 00:00, day+1 00:00)
// to s3://bucket/composite_scores/YYYY-MM-DD.jsonl, returning the row count
// written. Zero rows is not an error; the object is still written so a
// missing key unambiguously means the export itself never ran.
func (e *Exporter) ExportDay(ctx context.Context, day time.Time) (int, error) {
	from := day.UTC().Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)

	rows, err := e.scores.Range(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("archive: fetch composite scores for %s: %w", from.Format("2006-01-02"), err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := enc.Encode(archiveRecord(row)); err != nil {
			return 0, fmt.Errorf("archive: encode composite score: %w", err)
		}
	}

	key := fmt.Sprintf("composite_scores/%s.jsonl", from.Format("2006-01-02"))
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(e.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return 0, fmt.Errorf("archive: put object %s: %w", key, err)
	}

	e.log.Info().Str("key", key).Int("rows", len(rows)).Msg("exported composite scores to archive")
	return len(rows), nil
}

// archiveRow is the flattened shape written to S3: the four scores are
// top-level fields, and the four breakdowns are nested under "breakdowns",
// each serialized from its domain.Breakdown.
type archiveRow struct {
	Symbol      string          `json:"symbol"`
	Time        time.Time       `json:"time"`
	Composite   float64         `json:"composite"`
	Technical   float64         `json:"technical"`
	Fundamental float64         `json:"fundamental"`
	Sentiment   float64         `json:"sentiment"`
	ML          float64         `json:"ml"`
	Breakdowns  archiveBreakdowns `json:"breakdowns"`
}

type archiveBreakdowns struct {
	Technical   domain.Breakdown `json:"technical"`
	Fundamental domain.Breakdown `json:"fundamental"`
	Sentiment   domain.Breakdown `json:"sentiment"`
	ML          domain.Breakdown `json:"ml"`
}

func archiveRecord(s domain.CompositeScore) archiveRow {
	return archiveRow{
		Symbol:      s.Symbol,
		Time:        s.Time,
		Composite:   s.Composite,
		Technical:   s.Technical,
		Fundamental: s.Fundamental,
		Sentiment:   s.Sentiment,
		ML:          s.ML,
		Breakdowns: archiveBreakdowns{
			Technical:   s.TechnicalBreakdown,
			Fundamental: s.FundamentalBreakdown,
			Sentiment:   s.SentimentBreakdown,
			ML:          s.MLBreakdown,
		},
	}
}
