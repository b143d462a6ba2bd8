package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/idxscope/core/internal/config"
	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestFundamentalsRESTAdapterUpsertsLatestStatement(t *testing.T) {
	ctx := context.Background()
	db := newAdapterTestDB(t)
	stocks := repository.NewStockRepository(db, zerolog.Nop())
	require.NoError(t, stocks.Upsert(ctx, domain.Stock{Symbol: "BBCA", Name: "BBCA", Listed: true}))
	records := repository.NewFinancialRecordRepository(db, zerolog.Nop())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"period_end":"2026-03-31","pe":15.2,"pb":3.1,"roe":0.21}`)
	}))
	defer server.Close()

	adapter := NewFundamentalsRESTAdapter(&config.Config{FundamentalsAPIKey: "k"}, server.URL, stocks, records, zerolog.Nop())
	result, err := adapter.Run(RunContext{Context: ctx})
	require.NoError(t, err)
	require.Equal(t, 1, result.RowsWritten)

	rec, err := records.Latest(ctx, "BBCA")
	require.NoError(t, err)
	require.NotNil(t, rec.PE)
}

func TestFundamentalsRESTAdapterSkipsSymbolWithNoStatement(t *testing.T) {
	ctx := context.Background()
	db := newAdapterTestDB(t)
	stocks := repository.NewStockRepository(db, zerolog.Nop())
	require.NoError(t, stocks.Upsert(ctx, domain.Stock{Symbol: "BBCA", Name: "BBCA", Listed: true}))
	records := repository.NewFinancialRecordRepository(db, zerolog.Nop())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	adapter := NewFundamentalsRESTAdapter(&config.Config{FundamentalsAPIKey: "k"}, server.URL, stocks, records, zerolog.Nop())
	result, err := adapter.Run(RunContext{Context: ctx})
	require.NoError(t, err)
	require.Equal(t, 0, result.RowsWritten)
	require.Equal(t, "ok", result.Message)
}
