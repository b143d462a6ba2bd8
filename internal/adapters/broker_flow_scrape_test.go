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

const brokerSummaryHTML = `
<html><body>
<table class="broker-summary">
  <tr class="broker-row">
    <td class="broker-code">YP</td>
    <td class="buy-volume">1,200,000</td>
    <td class="sell-volume">900,000</td>
    <td class="buy-value">10,500,000,000</td>
    <td class="sell-value">7,800,000,000</td>
  </tr>
  <tr class="broker-row">
    <td class="broker-code">MALFORMED</td>
    <td class="buy-volume">not-a-number</td>
    <td class="sell-volume">900,000</td>
    <td class="buy-value">1</td>
    <td class="sell-value">1</td>
  </tr>
</table>
</body></html>`

func TestBrokerFlowScrapeAdapterParsesRowsAndSkipsMalformed(t *testing.T) {
	ctx := context.Background()
	db := newAdapterTestDB(t)
	stocks := repository.NewStockRepository(db, zerolog.Nop())
	require.NoError(t, stocks.Upsert(ctx, domain.Stock{Symbol: "BBCA", Name: "BBCA", Listed: true}))
	trades := repository.NewBrokerTradeRepository(db, zerolog.Nop())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, brokerSummaryHTML)
	}))
	defer server.Close()

	adapter := NewBrokerFlowScrapeAdapter(&config.Config{BrokerFlowAPIKey: "k"}, server.URL, stocks, trades, zerolog.Nop())
	result, err := adapter.Run(RunContext{Context: ctx})
	require.NoError(t, err)
	require.Equal(t, 1, result.RowsWritten)
}

func TestBrokerFlowScrapeAdapterNotConfiguredWithoutAPIKey(t *testing.T) {
	adapter := NewBrokerFlowScrapeAdapter(&config.Config{}, "http://unused", nil, nil, zerolog.Nop())
	status := adapter.ConfigStatus()
	require.False(t, status.IsConfigured)
}
