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

// FundamentalsRESTAdapter pulls the latest quarterly financial statement
// for every listed stock and upserts it through FinancialRecordRepository.
type FundamentalsRESTAdapter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	stocks     *repository.StockRepository
	records    *repository.FinancialRecordRepository
	retry      RetryPolicy
	limiter    *RateLimiter
	breaker    *gobreaker.CircuitBreaker
	log        zerolog.Logger
}

// NewFundamentalsRESTAdapter builds a FundamentalsRESTAdapter from cfg's credentials.
func NewFundamentalsRESTAdapter(cfg *config.Config, baseURL string, stocks *repository.StockRepository, records *repository.FinancialRecordRepository, log zerolog.Logger) *FundamentalsRESTAdapter {
	return &FundamentalsRESTAdapter{
		baseURL:    baseURL,
		apiKey:     cfg.FundamentalsAPIKey,
		httpClient: &http.Client{Timeout: defaultRunTimeout},
		stocks:     stocks,
		records:    records,
		retry:      DefaultRetryPolicy,
		limiter:    NewRateLimiter(2, 5),
		breaker:    NewCircuitBreaker("fundamentals_rest"),
		log:        log.With().Str("adapter", "fundamentals_rest").Logger(),
	}
}

func (a *FundamentalsRESTAdapter) Name() string                   { return "fundamentals_rest" }
func (a *FundamentalsRESTAdapter) Category() domain.SourceCategory { return domain.SourceFundamentals }

func (a *FundamentalsRESTAdapter) ConfigStatus() ConfigStatus {
	if a.apiKey == "" {
		return ConfigStatus{IsConfigured: false, MissingFields: []string{"IDXSCOPE_FUNDAMENTALS_API_KEY"}}
	}
	return ConfigStatus{IsConfigured: true}
}

type financialStatementDTO struct {
	PeriodEnd         string   `json:"period_end"`
	Revenue           *float64 `json:"revenue"`
	NetIncome         *float64 `json:"net_income"`
	TotalAssets       *float64 `json:"total_assets"`
	TotalEquity       *float64 `json:"total_equity"`
	TotalDebt         *float64 `json:"total_debt"`
	EBITDA            *float64 `json:"ebitda"`
	FCF               *float64 `json:"fcf"`
	EPS               *float64 `json:"eps"`
	BookValuePerShare *float64 `json:"book_value_per_share"`
	PE                *float64 `json:"pe"`
	PB                *float64 `json:"pb"`
	EVEBITDA          *float64 `json:"ev_ebitda"`
	ROE               *float64 `json:"roe"`
	ROA               *float64 `json:"roa"`
}

// Run fetches and upserts the latest financial statement for every listed
// symbol. A symbol with no published statement yet is skipped, not an error.
func (a *FundamentalsRESTAdapter) Run(rc RunContext) (Result, error) {
	symbols, err := a.stocks.List(rc.Context)
	if err != nil {
		return Result{}, err
	}

	var written int
	var failures []string
	for _, stock := range symbols {
		if err := rc.Context.Err(); err != nil {
			return Result{RowsWritten: written}, domain.NewError(domain.ErrKindCancelled, "fundamentals run cancelled", err)
		}

		var dto *financialStatementDTO
		fetchErr := a.retry.Do(rc.Context, func() error {
			if err := a.limiter.Wait(rc.Context); err != nil {
				return err
			}
			fetched, err := a.fetch(rc.Context, stock.Symbol)
			dto = fetched
			return err
		})
		if fetchErr != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", stock.Symbol, fetchErr))
			continue
		}
		if dto == nil {
			continue
		}

		rec, err := toFinancialRecord(stock.Symbol, *dto)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", stock.Symbol, err))
			continue
		}
		if err := a.records.Upsert(rc.Context, rec); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", stock.Symbol, err))
			continue
		}
		written++
		rc.Report(fmt.Sprintf("upserted financial record for %s period %s", stock.Symbol, rec.PeriodEnd.Format("2006-01-02")))
	}

	if len(failures) > 0 {
		return Result{RowsWritten: written, Message: fmt.Sprintf("%d symbol(s) failed: %v", len(failures), failures)}, nil
	}
	return Result{RowsWritten: written, Message: "ok"}, nil
}

func (a *FundamentalsRESTAdapter) fetch(ctx context.Context, symbol string) (*financialStatementDTO, error) {
	result, err := a.breaker.Execute(func() (interface{}, error) {
		url := fmt.Sprintf("%s/v1/fundamentals/%s?apikey=%s", a.baseURL, symbol, a.apiKey)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, domain.NewError(domain.ErrKindBackend, "build fundamentals request", err)
		}

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, domain.NewError(domain.ErrKindTransient, "fundamentals request failed", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, domain.NewError(domain.ErrKindNotConfigured, "fundamentals API rejected credentials", nil)
		}
		if resp.StatusCode == http.StatusNotFound {
			return (*financialStatementDTO)(nil), nil
		}
		if resp.StatusCode >= 500 {
			return nil, domain.NewError(domain.ErrKindTransient, fmt.Sprintf("fundamentals API status %d", resp.StatusCode), nil)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, domain.NewError(domain.ErrKindBackend, fmt.Sprintf("fundamentals API status %d", resp.StatusCode), nil)
		}

		var dto financialStatementDTO
		if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
			return nil, domain.NewError(domain.ErrKindBackend, "decode fundamentals response", err)
		}
		return &dto, nil
	})
	if err != nil {
		return nil, err
	}
	dto, _ := result.(*financialStatementDTO)
	return dto, nil
}

func toFinancialRecord(symbol string, dto financialStatementDTO) (domain.FinancialRecord, error) {
	periodEnd, err := time.Parse("2006-01-02", dto.PeriodEnd)
	if err != nil {
		return domain.FinancialRecord{}, domain.NewError(domain.ErrKindBackend, "invalid period_end in fundamentals response", err)
	}
	return domain.FinancialRecord{
		Symbol:            symbol,
		PeriodEnd:         periodEnd,
		Revenue:           optionalDecimal(dto.Revenue),
		NetIncome:         optionalDecimal(dto.NetIncome),
		TotalAssets:       optionalDecimal(dto.TotalAssets),
		TotalEquity:       optionalDecimal(dto.TotalEquity),
		TotalDebt:         optionalDecimal(dto.TotalDebt),
		EBITDA:            optionalDecimal(dto.EBITDA),
		FCF:               optionalDecimal(dto.FCF),
		EPS:               optionalDecimal(dto.EPS),
		BookValuePerShare: optionalDecimal(dto.BookValuePerShare),
		PE:                optionalDecimal(dto.PE),
		PB:                optionalDecimal(dto.PB),
		EVEBITDA:          optionalDecimal(dto.EVEBITDA),
		ROE:               optionalDecimal(dto.ROE),
		ROA:               optionalDecimal(dto.ROA),
	}, nil
}

func optionalDecimal(f *float64) *decimalx.Decimal {
	if f == nil {
		return nil
	}
	d := decimalx.NewFromFloat(*f)
	return &d
}
