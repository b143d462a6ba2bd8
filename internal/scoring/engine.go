package scoring

import (
	"context"
	"errors"
	"time"

	"github.com/idxscope/core/internal/config"
	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/flow"
	"github.com/idxscope/core/internal/repository"
	"github.com/rs/zerolog"
)

const (
	priceLookbackBars = 60
	brokerShortWindow = 5 * 24 * time.Hour
	brokerLongWindow  = 20 * 24 * time.Hour
)

// Engine computes and persists a CompositeScore for one symbol at a time,
// pulling each input from its own repository so a missing dependency
// degrades a single component rather than failing the whole run.
type Engine struct {
	prices      *repository.PriceBarRepository
	financials  *repository.FinancialRecordRepository
	trades      *repository.BrokerTradeRepository
	sentiment   *repository.SentimentRepository
	predictions *repository.MLPredictionRepository
	scores      *repository.CompositeScoreRepository
	analyzer    *flow.Analyzer

	weightTechnical   float64
	weightFundamental float64
	weightSentiment   float64
	weightML          float64

	log zerolog.Logger
}

// NewEngine builds an Engine wired to the core's repositories and a flow
// Analyzer, using cfg's configured composite weights.
func NewEngine(
	prices *repository.PriceBarRepository,
	financials *repository.FinancialRecordRepository,
	trades *repository.BrokerTradeRepository,
	sentiment *repository.SentimentRepository,
	predictions *repository.MLPredictionRepository,
	scores *repository.CompositeScoreRepository,
	analyzer *flow.Analyzer,
	cfg *config.Config,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		prices:            prices,
		financials:        financials,
		trades:            trades,
		sentiment:         sentiment,
		predictions:       predictions,
		scores:            scores,
		analyzer:          analyzer,
		weightTechnical:   cfg.WeightTechnical,
		weightFundamental: cfg.WeightFundamental,
		weightSentiment:   cfg.WeightSentiment,
		weightML:          cfg.WeightML,
		log:               log.With().Str("component", "scoring_engine").Logger(),
	}
}

// Run computes a CompositeScore for symbol as of asOf and persists it. It
// returns an InsufficientData error, producing no row, only when the
// technical component cannot be computed at all (no price history). Every
// other component missing its input falls back to its own neutral
// baseline, and the composite weights are applied exactly as configured —
// they are never redistributed on a component default, since a default is
// a neutral value, not an absent one.
func (e *Engine) Run(ctx context.Context, symbol string, asOf time.Time) (domain.CompositeScore, error) {
	bars, err := e.prices.Latest(ctx, symbol, priceLookbackBars)
	if err != nil {
		return domain.CompositeScore{}, err
	}

	shortTrades, err := e.trades.Window(ctx, symbol, asOf.Add(-brokerShortWindow), asOf)
	if err != nil {
		return domain.CompositeScore{}, err
	}
	longTrades, err := e.trades.Window(ctx, symbol, asOf.Add(-brokerLongWindow), asOf)
	if err != nil {
		return domain.CompositeScore{}, err
	}
	flowAnalysis := e.analyzer.Analyze(shortTrades, longTrades)

	technicalScore, technicalBreakdown, ok := Technical(bars, flowAnalysis)
	if !ok {
		return domain.CompositeScore{}, domain.NewError(domain.ErrKindInsufficientData, "no price history for "+symbol, nil)
	}

	rec, err := e.financials.Latest(ctx, symbol)
	var financialRecord *domain.FinancialRecord
	switch {
	case err == nil:
		financialRecord = &rec
	case errors.Is(err, domain.ErrNotFound):
		financialRecord = nil
	default:
		return domain.CompositeScore{}, err
	}
	fundamentalScore, fundamentalBreakdown := Fundamental(financialRecord)

	observations, err := e.sentiment.Window(ctx, symbol, asOf.Add(-sentimentWindow), asOf)
	if err != nil {
		return domain.CompositeScore{}, err
	}
	sentimentScore, sentimentBreakdown := Sentiment(observations, asOf)

	pred, err := e.predictions.Latest(ctx, symbol)
	var prediction *domain.MLPrediction
	switch {
	case err == nil:
		prediction = &pred
	case errors.Is(err, domain.ErrNotFound):
		prediction = nil
	default:
		return domain.CompositeScore{}, err
	}
	mlScore, mlBreakdown := ML(prediction, asOf)

	composite := clamp100(
		e.weightTechnical*technicalScore +
			e.weightFundamental*fundamentalScore +
			e.weightSentiment*sentimentScore +
			e.weightML*mlScore,
	)

	result := domain.CompositeScore{
		Symbol:               symbol,
		Time:                 asOf,
		Composite:            round2(composite),
		Technical:            technicalScore,
		Fundamental:          fundamentalScore,
		Sentiment:            sentimentScore,
		ML:                   mlScore,
		TechnicalBreakdown:   technicalBreakdown,
		FundamentalBreakdown: fundamentalBreakdown,
		SentimentBreakdown:   sentimentBreakdown,
		MLBreakdown:          mlBreakdown,
	}

	if err := e.scores.Insert(ctx, result); err != nil {
		return domain.CompositeScore{}, err
	}

	e.log.Info().Str("symbol", symbol).Float64("composite", result.Composite).Msg("scoring run complete")
	return result, nil
}
