// Package domain holds the entity types, closed enums and error taxonomy
// shared by every component of the core.
package domain

import (
	"time"

	"github.com/idxscope/core/pkg/decimalx"
)

// Stock is the master catalog record a Symbol must exist in before any
// referencing record can be inserted.
type Stock struct {
	Symbol string
	Name   string
	Sector string
	Listed bool
}

// Broker is a static, read-only-after-seeding catalog entry.
type Broker struct {
	Code     string
	Name     string
	Category BrokerCategory
	Weight   float64 // in [0,1]
}

// PriceBar is a single OHLCV observation.
type PriceBar struct {
	Symbol string
	Time   time.Time
	Open   decimalx.Decimal
	High   decimalx.Decimal
	Low    decimalx.Decimal
	Close  decimalx.Decimal
	Volume int64
	Value  decimalx.Decimal
}

// BrokerTrade is a per-broker buy/sell aggregate for a symbol and day.
// NetVolume/NetValue are always recomputed from the buy/sell fields,
// never persisted independently, so they stay consistent on read.
type BrokerTrade struct {
	Symbol     string
	Time       time.Time
	BrokerCode string
	BuyVolume  int64
	SellVolume int64
	BuyValue   decimalx.Decimal
	SellValue  decimalx.Decimal
}

// NetVolume returns BuyVolume - SellVolume.
func (t BrokerTrade) NetVolume() int64 { return t.BuyVolume - t.SellVolume }

// NetValue returns BuyValue - SellValue.
func (t BrokerTrade) NetValue() decimalx.Decimal { return t.BuyValue.Sub(t.SellValue) }

// FinancialRecord is a quarterly (or annual) fundamentals snapshot.
// Every numeric field is a pointer: any may be absent.
type FinancialRecord struct {
	Symbol            string
	PeriodEnd         time.Time
	Revenue           *decimalx.Decimal
	NetIncome         *decimalx.Decimal
	TotalAssets       *decimalx.Decimal
	TotalEquity       *decimalx.Decimal
	TotalDebt         *decimalx.Decimal
	EBITDA            *decimalx.Decimal
	FCF               *decimalx.Decimal
	EPS               *decimalx.Decimal
	BookValuePerShare *decimalx.Decimal
	PE                *decimalx.Decimal
	PB                *decimalx.Decimal
	EVEBITDA          *decimalx.Decimal
	ROE               *decimalx.Decimal
	ROA               *decimalx.Decimal
}

// Shareholding is a point-in-time ownership snapshot.
type Shareholding struct {
	Symbol           string
	ReportedDate     time.Time
	HolderName       string
	HolderType       HolderType
	SharesHeld       int64
	Percentage       float64
	ChangeShares     int64
	ChangePercentage float64
}

// SentimentObservation is a single text-derived sentiment reading.
type SentimentObservation struct {
	Symbol      string
	Time        time.Time
	Source      string
	TextSnippet string
	Sentiment   Sentiment
	Confidence  float64 // in [0,1]
}

// MLPrediction is a single ML model output for a symbol.
type MLPrediction struct {
	Symbol       string
	Time         time.Time
	Direction    Direction
	Confidence   float64 // in [0,1]
	HorizonDays  int
	ModelVersion string
}

// CompositeScore is the single output row of a scoring run. All bounded
// scores are in [0,100]. Breakdowns are the authoritative audit record:
// display labels are derived from them, not the reverse.
type CompositeScore struct {
	Symbol               string
	Time                 time.Time
	Composite            float64
	Technical            float64
	Fundamental          float64
	Sentiment            float64
	ML                    float64
	TechnicalBreakdown   Breakdown
	FundamentalBreakdown Breakdown
	SentimentBreakdown   Breakdown
	MLBreakdown          Breakdown
}

// Breakdown is the structured audit record attached to one component of a
// CompositeScore. SubScores and Weights share key sets; Weights always
// sums to 1 within 1e-6 after any redistribution.
type Breakdown struct {
	SubScores map[string]float64 `json:"sub_scores"`
	Weights   map[string]float64 `json:"weights"`
	Signals   []string           `json:"signals"`
}

// ValuationBand is a small derived artifact pairing a qualitative label
// with a numeric score for one fundamental ratio.
type ValuationBand struct {
	Label string
	Score float64
}

// InstitutionalFlowAnalysis is the output of the flow analyzer.
type InstitutionalFlowAnalysis struct {
	AccumulationScore    float64
	IsAccumulating       bool
	CoordinatedBuying    bool
	DaysAccumulated      int
	Net5D                decimalx.Decimal
	Net20D               decimalx.Decimal
	InstitutionalNet5D   decimalx.Decimal
	InstitutionalNet20D  decimalx.Decimal
	ForeignNet5D         decimalx.Decimal
	ForeignNet20D        decimalx.Decimal
	TopAccumulators      []BrokerContribution
	SignalStrength       SignalStrength
	SignalDescription    string
}

// BrokerContribution is one broker's net contribution within a flow window.
type BrokerContribution struct {
	BrokerCode string
	Category   BrokerCategory
	NetValue   decimalx.Decimal
	NetVolume  int64
}

// FreshnessRecord is the derived per-(symbol, aspect) staleness record.
type FreshnessRecord struct {
	Symbol string
	Aspect Aspect
	AsOf   *time.Time
	Status FreshnessStatus
}

// FreshnessRollup is the aggregate per-category view returned when no
// symbol is specified.
type FreshnessRollup struct {
	Aspect       Aspect
	Fresh        int
	Stale        int
	Outdated     int
	NotConfigured int
	Overall      RollupStatus
	OldestAsOf   *time.Time
	NewestAsOf   *time.Time
}

// SourceJob tracks one execution of an external source adapter through its
// state machine.
type SourceJob struct {
	ID         string
	SourceID   string
	Status     JobStatus
	StartedAt  time.Time
	FinishedAt *time.Time
	Command    string
	Message    string
	Output     string
	Duration   time.Duration
}

// OrderBookSnapshot is a reserved shape for a future L2 depth source; no
// adapter populates it yet (see internal/adapters.L2Provider).
type OrderBookSnapshot struct {
	Symbol string
	Time   time.Time
	Bids   []PriceLevel
	Asks   []PriceLevel
}

// PriceLevel is one price/size rung of an order book.
type PriceLevel struct {
	Price decimalx.Decimal
	Size  int64
}
