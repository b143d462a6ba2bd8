package domain

import (
	"errors"
	"testing"

	"github.com/idxscope/core/pkg/decimalx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerTradeNetFields(t *testing.T) {
	trade := BrokerTrade{
		BuyVolume:  1000,
		SellVolume: 400,
		BuyValue:   decimalx.NewFromInt(5_000_000),
		SellValue:  decimalx.NewFromInt(1_500_000),
	}

	assert.Equal(t, int64(600), trade.NetVolume())
	assert.True(t, trade.NetValue().Equal(decimalx.NewFromInt(3_500_000)), "net value should be buy - sell")
}

func TestBrokerCategoryIsInstitutional(t *testing.T) {
	assert.True(t, BrokerForeignInstitutional.IsInstitutional())
	assert.True(t, BrokerLocalInstitutional.IsInstitutional())
	assert.False(t, BrokerRetail.IsInstitutional())
}

func TestRegressedRejectsBackwardTransitions(t *testing.T) {
	assert.False(t, Regressed(JobPending, JobRunning))
	assert.False(t, Regressed(JobRunning, JobCompleted))
	assert.True(t, Regressed(JobCompleted, JobRunning))
	assert.True(t, Regressed(JobRunning, JobPending))
}

func TestCoreErrorIsMatchesOnKind(t *testing.T) {
	err := NewError(ErrKindNotFound, "symbol BBCA", nil)
	require.True(t, errors.Is(err, ErrNotFound))
	require.False(t, errors.Is(err, ErrConflict))
	require.Equal(t, ErrKindNotFound, KindOf(err))
}
