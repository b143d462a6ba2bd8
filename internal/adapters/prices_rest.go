package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/idxscope/core/internal/config"
	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/repository"
	"github.com/idxscope/core/pkg/decimalx"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// PricesRESTAdapter pulls the latest OHLCV bars for every listed stock
// from a REST price feed and upserts them through PriceBarRepository.
type PricesRESTAdapter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	stocks     *repository.StockRepository
	prices     *repository.PriceBarRepository
	retry      RetryPolicy
	limiter    *RateLimiter
	breaker    *gobreaker.CircuitBreaker
	log        zerolog.Logger
}

// NewPricesRESTAdapter builds a PricesRESTAdapter from cfg's credentials.
func NewPricesRESTAdapter(cfg *config.Config, baseURL string, stocks *repository.StockRepository, prices *repository.PriceBarRepository, log zerolog.Logger) *PricesRESTAdapter {
	return &PricesRESTAdapter{
		baseURL:    baseURL,
		apiKey:     cfg.PricesAPIKey,
		httpClient: &http.Client{Timeout: defaultRunTimeout},
		stocks:     stocks,
		prices:     prices,
		retry:      DefaultRetryPolicy,
		limiter:    NewRateLimiter(5, 10),
		breaker:    NewCircuitBreaker("prices_rest"),
		log:        log.With().Str("adapter", "prices_rest").Logger(),
	}
}

func (a *PricesRESTAdapter) Name() string                   { return "prices_rest" }
func (a *PricesRESTAdapter) Category() domain.SourceCategory { return domain.SourcePrices }

func (a *PricesRESTAdapter) ConfigStatus() ConfigStatus {
	if a.apiKey == "" {
		return ConfigStatus{IsConfigured: false, MissingFields: []string{"IDXSCOPE_PRICES_API_KEY"}}
	}
	return ConfigStatus{IsConfigured: true}
}

type priceBarDTO struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type priceFeedResponse struct {
	Bars []priceBarDTO `json:"bars"`
}

// Run fetches the latest bars for every listed symbol and upserts them.
// One symbol's transient failure does not abort the others; it is
// reflected in the returned Result's message.
func (a *PricesRESTAdapter) Run(rc RunContext) (Result, error) {
	symbols, err := a.stocks.List(rc.Context)
	if err != nil {
		return Result{}, err
	}

	var written int
	var failures []string
	for _, stock := range symbols {
		if err := rc.Context.Err(); err != nil {
			return Result{RowsWritten: written}, domain.NewError(domain.ErrKindCancelled, "prices run cancelled", err)
		}

		var bars []domain.PriceBar
		fetchErr := a.retry.Do(rc.Context, func() error {
			if err := a.limiter.Wait(rc.Context); err != nil {
				return err
			}
			fetched, err := a.fetch(rc.Context, stock.Symbol)
			bars = fetched
			return err
		})
		if fetchErr != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", stock.Symbol, fetchErr))
			continue
		}
		if len(bars) == 0 {
			continue
		}
		if err := a.prices.UpsertBatch(rc.Context, bars); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", stock.Symbol, err))
			continue
		}
		written += len(bars)
		rc.Report(fmt.Sprintf("upserted %d bars for %s", len(bars), stock.Symbol))
	}

	if len(failures) > 0 {
		return Result{RowsWritten: written, Message: fmt.Sprintf("%d symbol(s) failed: %v", len(failures), failures)}, nil
	}
	return Result{RowsWritten: written, Message: "ok"}, nil
}

func (a *PricesRESTAdapter) fetch(ctx context.Context, symbol string) ([]domain.PriceBar, error) {
	result, err := a.breaker.Execute(func() (interface{}, error) {
		url := fmt.Sprintf("%s/v1/prices/%s?apikey=%s", a.baseURL, symbol, a.apiKey)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, domain.NewError(domain.ErrKindBackend, "build prices request", err)
		}

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, domain.NewError(domain.ErrKindTransient, "prices request failed", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, domain.NewError(domain.ErrKindNotConfigured, "prices API rejected credentials", nil)
		}
		if resp.StatusCode >= 500 {
			return nil, domain.NewError(domain.ErrKindTransient, fmt.Sprintf("prices API status %d", resp.StatusCode), nil)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, domain.NewError(domain.ErrKindBackend, fmt.Sprintf("prices API status %d", resp.StatusCode), nil)
		}

		var parsed priceFeedResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, domain.NewError(domain.ErrKindBackend, "decode prices response", err)
		}
		return parsed, nil
	})
	if err != nil {
		return nil, err
	}

	parsed := result.(priceFeedResponse)
	bars := make([]domain.PriceBar, 0, len(parsed.Bars))
	for _, b := range parsed.Bars {
		bars = append(bars, domain.PriceBar{
			Symbol: symbol,
			Time:   time.Unix(b.Time, 0).UTC(),
			Open:   decimalx.NewFromFloat(b.Open),
			High:   decimalx.NewFromFloat(b.High),
			Low:    decimalx.NewFromFloat(b.Low),
			Close:  decimalx.NewFromFloat(b.Close),
			Volume: b.Volume,
			Value:  decimalx.NewFromFloat(b.Close * float64(b.Volume)),
		})
	}
	return bars, nil
}
