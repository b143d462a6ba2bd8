package adapters

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/idxscope/core/internal/config"
	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/repository"
	"github.com/idxscope/core/pkg/decimalx"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// BrokerFlowScrapeAdapter scrapes a broker-summary page per symbol and
// upserts the per-broker buy/sell rows it finds. Unlike the REST adapters
// there is no JSON contract here: the page is parsed with goquery, the
// same HTML traversal library the research pack reaches for when a source
// offers no API, and rows that don't match the expected table shape are
// skipped rather than failing the whole page.
type BrokerFlowScrapeAdapter struct {
	baseURL    string
	httpClient *http.Client
	stocks     *repository.StockRepository
	trades     *repository.BrokerTradeRepository
	retry      RetryPolicy
	limiter    *RateLimiter
	breaker    *gobreaker.CircuitBreaker
	configured bool
	log        zerolog.Logger
}

// NewBrokerFlowScrapeAdapter builds a BrokerFlowScrapeAdapter. It is
// "configured" whenever a broker flow API key is present in cfg, used here
// only as an opt-in gate since the page itself needs no credentials.
func NewBrokerFlowScrapeAdapter(cfg *config.Config, baseURL string, stocks *repository.StockRepository, trades *repository.BrokerTradeRepository, log zerolog.Logger) *BrokerFlowScrapeAdapter {
	return &BrokerFlowScrapeAdapter{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultRunTimeout},
		stocks:     stocks,
		trades:     trades,
		retry:      DefaultRetryPolicy,
		limiter:    NewRateLimiter(1, 2),
		breaker:    NewCircuitBreaker("broker_flow_scrape"),
		configured: cfg.BrokerFlowAPIKey != "",
		log:        log.With().Str("adapter", "broker_flow_scrape").Logger(),
	}
}

func (a *BrokerFlowScrapeAdapter) Name() string                   { return "broker_flow_scrape" }
func (a *BrokerFlowScrapeAdapter) Category() domain.SourceCategory { return domain.SourceBrokerFlow }

func (a *BrokerFlowScrapeAdapter) ConfigStatus() ConfigStatus {
	if !a.configured {
		return ConfigStatus{IsConfigured: false, MissingFields: []string{"IDXSCOPE_BROKER_FLOW_API_KEY"}}
	}
	return ConfigStatus{IsConfigured: true}
}

// Run scrapes today's broker-summary page for every listed symbol.
func (a *BrokerFlowScrapeAdapter) Run(rc RunContext) (Result, error) {
	symbols, err := a.stocks.List(rc.Context)
	if err != nil {
		return Result{}, err
	}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	var written int
	var failures []string
	for _, stock := range symbols {
		if err := rc.Context.Err(); err != nil {
			return Result{RowsWritten: written}, domain.NewError(domain.ErrKindCancelled, "broker flow run cancelled", err)
		}

		var rows []domain.BrokerTrade
		fetchErr := a.retry.Do(rc.Context, func() error {
			if err := a.limiter.Wait(rc.Context); err != nil {
				return err
			}
			fetched, err := a.scrape(rc.Context, stock.Symbol, asOf)
			rows = fetched
			return err
		})
		if fetchErr != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", stock.Symbol, fetchErr))
			continue
		}
		if len(rows) == 0 {
			continue
		}
		if err := a.trades.UpsertBatch(rc.Context, rows); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", stock.Symbol, err))
			continue
		}
		written += len(rows)
		rc.Report(fmt.Sprintf("upserted %d broker rows for %s", len(rows), stock.Symbol))
	}

	if len(failures) > 0 {
		return Result{RowsWritten: written, Message: fmt.Sprintf("%d symbol(s) failed: %v", len(failures), failures)}, nil
	}
	return Result{RowsWritten: written, Message: "ok"}, nil
}

func (a *BrokerFlowScrapeAdapter) scrape(ctx context.Context, symbol string, asOf time.Time) ([]domain.BrokerTrade, error) {
	result, err := a.breaker.Execute(func() (interface{}, error) {
		url := fmt.Sprintf("%s/broker-summary/%s", a.baseURL, symbol)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, domain.NewError(domain.ErrKindBackend, "build broker flow request", err)
		}

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, domain.NewError(domain.ErrKindTransient, "broker flow page request failed", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return nil, domain.NewError(domain.ErrKindTransient, fmt.Sprintf("broker flow page status %d", resp.StatusCode), nil)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, domain.NewError(domain.ErrKindBackend, fmt.Sprintf("broker flow page status %d", resp.StatusCode), nil)
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return nil, domain.NewError(domain.ErrKindBackend, "parse broker flow page", err)
		}
		return parseBrokerSummary(doc, symbol, asOf), nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.BrokerTrade), nil
}

// parseBrokerSummary walks the page's "broker-row" table. It tolerates
// malformed individual rows by skipping them rather than aborting.
func parseBrokerSummary(doc *goquery.Document, symbol string, asOf time.Time) []domain.BrokerTrade {
	var rows []domain.BrokerTrade
	doc.Find("table.broker-summary tr.broker-row").Each(func(_ int, sel *goquery.Selection) {
		code := strings.TrimSpace(sel.Find(".broker-code").First().Text())
		if code == "" {
			return
		}
		buyVol, okBuy := parseInt(sel.Find(".buy-volume").First().Text())
		sellVol, okSell := parseInt(sel.Find(".sell-volume").First().Text())
		buyVal, okBuyVal := parseFloat(sel.Find(".buy-value").First().Text())
		sellVal, okSellVal := parseFloat(sel.Find(".sell-value").First().Text())
		if !okBuy || !okSell || !okBuyVal || !okSellVal {
			return
		}
		rows = append(rows, domain.BrokerTrade{
			Symbol:     symbol,
			Time:       asOf,
			BrokerCode: code,
			BuyVolume:  buyVol,
			SellVolume: sellVol,
			BuyValue:   decimalx.NewFromFloat(buyVal),
			SellValue:  decimalx.NewFromFloat(sellVal),
		})
	})
	return rows
}

func parseInt(raw string) (int64, bool) {
	clean := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if clean == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(clean, 10, 64)
	return n, err == nil
}

func parseFloat(raw string) (float64, bool) {
	clean := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if clean == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(clean, 64)
	return f, err == nil
}
