package flow

import (
	"math"
	"sort"

	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/pkg/decimalx"
)

// coordinationThresholdFraction is the fraction of a window's total traded
// value above which a broker's net counts toward "coordinated" activity.
// Default: 0.5%.
const coordinationThresholdFraction = 0.005

// coordinationMinBrokers is the minimum count of qualifying institutional
// brokers for coordinated buying to be flagged.
const coordinationMinBrokers = 3

// Analyzer computes institutional flow analyses from broker trade windows
// against a broker Catalog.
type Analyzer struct {
	catalog *Catalog
}

// NewAnalyzer builds an Analyzer over catalog.
func NewAnalyzer(catalog *Catalog) *Analyzer {
	return &Analyzer{catalog: catalog}
}

// brokerAgg accumulates net value/volume for one broker within a window.
type brokerAgg struct {
	code   string
	broker domain.Broker
	value  decimalx.Decimal
	volume int64
}

// Analyze computes the institutional flow analysis over a 5-day and a
// 20-day broker trade window. trades5D must be a subset of, or coincide
// with, trades20D's time range.
func (a *Analyzer) Analyze(trades5D, trades20D []domain.BrokerTrade) domain.InstitutionalFlowAnalysis {
	if len(trades5D) == 0 && len(trades20D) == 0 {
		return domain.InstitutionalFlowAnalysis{
			AccumulationScore: 50,
			SignalStrength:    domain.SignalNeutral,
			SignalDescription: "no broker flow data in window",
			Net5D:             decimalx.Zero,
			Net20D:            decimalx.Zero,
		}
	}

	agg5D := a.groupByBroker(trades5D)
	net5D := sumNetValue(trades5D)
	net20D := sumNetValue(trades20D)

	instNet5D := a.weightedInstitutionalNet(agg5D)
	agg20D := a.groupByBroker(trades20D)
	instNet20D := a.weightedInstitutionalNet(agg20D)

	foreignNet5D := a.categoryNet(agg5D, domain.BrokerForeignInstitutional)
	foreignNet20D := a.categoryNet(agg20D, domain.BrokerForeignInstitutional)

	daysAccumulated := a.daysAccumulated(trades5D)
	totalTraded5D := totalTradedValue(trades5D)
	coordinated := a.coordinatedBuying(agg5D, totalTraded5D)

	score := a.accumulationScore(instNet5D, totalTraded5D, daysAccumulated, coordinated, foreignNet5D, foreignNet20D)
	strength := classifySignal(score, instNet5D, daysAccumulated)

	top := a.topAccumulators(agg5D)

	return domain.InstitutionalFlowAnalysis{
		AccumulationScore:   score,
		IsAccumulating:      instNet5D.IsPositive(),
		CoordinatedBuying:   coordinated,
		DaysAccumulated:     daysAccumulated,
		Net5D:               net5D,
		Net20D:              net20D,
		InstitutionalNet5D:  instNet5D,
		InstitutionalNet20D: instNet20D,
		ForeignNet5D:        foreignNet5D,
		ForeignNet20D:       foreignNet20D,
		TopAccumulators:     top,
		SignalStrength:      strength,
		SignalDescription:   describeSignal(strength, score, daysAccumulated, coordinated),
	}
}

// groupByBroker sums net value/volume per broker within a window.
func (a *Analyzer) groupByBroker(trades []domain.BrokerTrade) map[string]*brokerAgg {
	out := make(map[string]*brokerAgg)
	for _, t := range trades {
		agg, ok := out[t.BrokerCode]
		if !ok {
			agg = &brokerAgg{code: t.BrokerCode, broker: a.catalog.Lookup(t.BrokerCode)}
			out[t.BrokerCode] = agg
		}
		agg.value = agg.value.Add(t.NetValue())
		agg.volume += t.NetVolume()
	}
	return out
}

// weightedInstitutionalNet computes Σ(net_value × broker.weight) restricted
// to institutional categories.
func (a *Analyzer) weightedInstitutionalNet(aggs map[string]*brokerAgg) decimalx.Decimal {
	total := decimalx.Zero
	for _, agg := range aggs {
		if !agg.broker.Category.IsInstitutional() {
			continue
		}
		weighted := agg.value.Mul(decimalx.NewFromFloat(agg.broker.Weight))
		total = total.Add(weighted)
	}
	return total
}

func (a *Analyzer) categoryNet(aggs map[string]*brokerAgg, category domain.BrokerCategory) decimalx.Decimal {
	total := decimalx.Zero
	for _, agg := range aggs {
		if agg.broker.Category == category {
			total = total.Add(agg.value)
		}
	}
	return total
}

// daysAccumulated counts distinct trading days within the 5-day window on
// which the symbol-level net across all institutional brokers is positive.
func (a *Analyzer) daysAccumulated(trades5D []domain.BrokerTrade) int {
	byDay := make(map[string]decimalx.Decimal)
	order := make([]string, 0)
	for _, t := range trades5D {
		if !a.catalog.Lookup(t.BrokerCode).Category.IsInstitutional() {
			continue
		}
		key := t.Time.Format("2006-01-02")
		if _, ok := byDay[key]; !ok {
			order = append(order, key)
		}
		byDay[key] = byDay[key].Add(t.NetValue())
	}

	count := 0
	for _, key := range order {
		if byDay[key].IsPositive() {
			count++
		}
	}
	return count
}

// coordinatedBuying reports whether at least coordinationMinBrokers
// institutional brokers each exceed the coordination threshold within the
// window.
func (a *Analyzer) coordinatedBuying(aggs map[string]*brokerAgg, totalTraded decimalx.Decimal) bool {
	if totalTraded.IsZero() {
		return false
	}
	threshold := totalTraded.Mul(decimalx.NewFromFloat(coordinationThresholdFraction))

	qualifying := 0
	for _, agg := range aggs {
		if !agg.broker.Category.IsInstitutional() {
			continue
		}
		if agg.value.GreaterThan(threshold) {
			qualifying++
		}
	}
	return qualifying >= coordinationMinBrokers
}

// accumulationScore computes a bounded weighted sum of normalized
// sub-signals: institutional net direction and magnitude (40%),
// persistence (20%), coordination (20%), foreign 5d-vs-20d trend (20%).
// Each sub-signal is pre-clipped to [0,100] before combination.
func (a *Analyzer) accumulationScore(
	instNet5D, totalTraded5D decimalx.Decimal,
	daysAccumulated int,
	coordinated bool,
	foreignNet5D, foreignNet20D decimalx.Decimal,
) float64 {
	magnitude := normalizeToScoreBand(instNet5D, totalTraded5D)
	persistence := clampScore(100 * float64(daysAccumulated) / 5)

	coordination := 0.0
	if coordinated {
		coordination = 100
	}

	dailyRate5D := foreignNet5D.Float64() / 5
	dailyRate20D := foreignNet20D.Float64() / 20
	trendDelta := dailyRate5D - dailyRate20D
	trend := normalizeToScoreBand(decimalx.NewFromFloat(trendDelta), totalTraded5D)

	return clampScore(0.4*magnitude + 0.2*persistence + 0.2*coordination + 0.2*trend)
}

// normalizeToScoreBand maps a signed value relative to a scale into
// [0,100], centered at 50 for zero, saturating toward 0/100 as the ratio
// approaches ±1.
func normalizeToScoreBand(value, scale decimalx.Decimal) float64 {
	if scale.IsZero() {
		return 50
	}
	ratio := value.Float64() / scale.Float64()
	if ratio > 1 {
		ratio = 1
	}
	if ratio < -1 {
		ratio = -1
	}
	return 50 + 50*ratio
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 50
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// classifySignal derives signal_strength from threshold bands on
// accumulation_score, with the distribution override.
func classifySignal(score float64, instNet5D decimalx.Decimal, daysAccumulated int) domain.SignalStrength {
	if instNet5D.IsNegative() && daysAccumulated == 0 {
		return domain.SignalDistribution
	}
	switch {
	case score >= 75:
		return domain.SignalStrong
	case score >= 60:
		return domain.SignalModerate
	case score >= 40:
		return domain.SignalWeak
	default:
		return domain.SignalNeutral
	}
}

func describeSignal(strength domain.SignalStrength, score float64, days int, coordinated bool) string {
	switch strength {
	case domain.SignalStrong:
		return "strong institutional accumulation across multiple brokers"
	case domain.SignalModerate:
		return "moderate institutional accumulation"
	case domain.SignalWeak:
		return "weak accumulation signal"
	case domain.SignalDistribution:
		return "net institutional selling with no accumulation days"
	default:
		if coordinated {
			return "coordinated activity detected but net flow inconclusive"
		}
		return "no clear accumulation or distribution signal"
	}
}

// topAccumulators returns brokers with positive net value in the 5-day
// window, ordered by net value descending; ties broken by net volume
// descending, then by broker code lexicographically.
func (a *Analyzer) topAccumulators(aggs map[string]*brokerAgg) []domain.BrokerContribution {
	var out []domain.BrokerContribution
	for _, agg := range aggs {
		if !agg.value.IsPositive() {
			continue
		}
		out = append(out, domain.BrokerContribution{
			BrokerCode: agg.code,
			Category:   agg.broker.Category,
			NetValue:   agg.value,
			NetVolume:  agg.volume,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].NetValue.Equal(out[j].NetValue) {
			return out[i].NetValue.GreaterThan(out[j].NetValue)
		}
		if out[i].NetVolume != out[j].NetVolume {
			return out[i].NetVolume > out[j].NetVolume
		}
		return out[i].BrokerCode < out[j].BrokerCode
	})

	return out
}

func sumNetValue(trades []domain.BrokerTrade) decimalx.Decimal {
	total := decimalx.Zero
	for _, t := range trades {
		total = total.Add(t.NetValue())
	}
	return total
}

func totalTradedValue(trades []domain.BrokerTrade) decimalx.Decimal {
	total := decimalx.Zero
	for _, t := range trades {
		total = total.Add(t.BuyValue).Add(t.SellValue)
	}
	return total
}
