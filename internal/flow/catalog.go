// Package flow implements the broker classification model and the
// institutional accumulation/distribution analyzer.
package flow

import "github.com/idxscope/core/internal/domain"

// Catalog is a static, read-only-after-construction broker lookup. It may
// be shared across goroutines without locking once built.
type Catalog struct {
	brokers map[string]domain.Broker
}

// defaultBroker is returned for any code absent from the catalog: treated
// as retail with weight 0.5, so it never counts toward coordinated
// institutional activity.
var defaultBroker = domain.Broker{Category: domain.BrokerRetail, Weight: 0.5}

// NewCatalog builds a Catalog from a seed list, typically loaded once at
// startup from a static table.
func NewCatalog(seed []domain.Broker) *Catalog {
	c := &Catalog{brokers: make(map[string]domain.Broker, len(seed))}
	for _, b := range seed {
		c.brokers[b.Code] = b
	}
	return c
}

// Lookup returns the broker for code, or the default retail broker if code
// is unknown to the catalog.
func (c *Catalog) Lookup(code string) domain.Broker {
	if b, ok := c.brokers[code]; ok {
		return b
	}
	return domain.Broker{Code: code, Name: code, Category: defaultBroker.Category, Weight: defaultBroker.Weight}
}

// DefaultSeed is the baseline broker catalog shipped with the core:
// a representative set of IDX member firms classified by ownership.
// The server builds its catalog from this seed once at startup through
// NewCatalog; the catalog is not mutated afterwards, and no other seeding
// path exists.
var DefaultSeed = []domain.Broker{
	{Code: "YP", Name: "Mirae Asset Sekuritas", Category: domain.BrokerForeignInstitutional, Weight: 0.9},
	{Code: "CS", Name: "Credit Suisse Sekuritas Indonesia", Category: domain.BrokerForeignInstitutional, Weight: 0.9},
	{Code: "ML", Name: "Merrill Lynch Sekuritas Indonesia", Category: domain.BrokerForeignInstitutional, Weight: 0.9},
	{Code: "UBS", Name: "UBS Sekuritas Indonesia", Category: domain.BrokerForeignInstitutional, Weight: 0.85},
	{Code: "BK", Name: "JP Morgan Sekuritas Indonesia", Category: domain.BrokerForeignInstitutional, Weight: 0.85},
	{Code: "AK", Name: "UOB Kay Hian Sekuritas", Category: domain.BrokerForeignInstitutional, Weight: 0.8},
	{Code: "MG", Name: "Semesta Indovest Sekuritas", Category: domain.BrokerLocalInstitutional, Weight: 0.7},
	{Code: "NI", Name: "BNI Sekuritas", Category: domain.BrokerLocalInstitutional, Weight: 0.75},
	{Code: "CC", Name: "Mandiri Sekuritas", Category: domain.BrokerLocalInstitutional, Weight: 0.8},
	{Code: "PD", Name: "Indo Premier Sekuritas", Category: domain.BrokerLocalInstitutional, Weight: 0.7},
	{Code: "YU", Name: "CGS-CIMB Sekuritas Indonesia", Category: domain.BrokerLocalInstitutional, Weight: 0.7},
	{Code: "GR", Name: "Panin Sekuritas", Category: domain.BrokerRetail, Weight: 0.4},
	{Code: "KK", Name: "Phillip Sekuritas Indonesia", Category: domain.BrokerRetail, Weight: 0.4},
	{Code: "XL", Name: "Mirae Asset Retail Desk", Category: domain.BrokerRetail, Weight: 0.4},
}
