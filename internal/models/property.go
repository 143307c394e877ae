package models

import "sync"

// PropertyRecord is one row of an uploaded registry extract. Description
// is the free-text legal description (Marathi and/or English);
// ConsiderationValue is the declared monetary amount; ProjectName groups
// rows for the summary table. Society and Locality are only used by the
// enrichment layer to build a geocodable address.
type PropertyRecord struct {
	RowNumber          int     `json:"row_number"`
	Description        string  `json:"description"`
	ConsiderationValue float64 `json:"consideration_value"`
	ProjectName        string  `json:"project_name"`
	Society            string  `json:"society"`
	Locality           string  `json:"locality"`
}

// PropertyResult is a PropertyRecord augmented with the derived area,
// pricing and configuration values, plus optional enrichment fields.
type PropertyResult struct {
	PropertyRecord

	CarpetAreaSqm  float64 `json:"carpet_area_sqm"`
	CarpetAreaSqft float64 `json:"carpet_area_sqft"`
	SaleableArea   float64 `json:"saleable_area"`
	APR            float64 `json:"apr"`
	Configuration  string  `json:"configuration"`

	// Enrichment output, left zero/empty when enrichment is skipped.
	// OutOfMarket is set when the row resolved beyond the selected
	// metro's sanity radius, which usually means a bad geocode.
	DistanceKm           *float64 `json:"distance_km,omitempty"`
	OutOfMarket          bool     `json:"out_of_market,omitempty"`
	TicketSize           string   `json:"ticket_size,omitempty"`
	MarketConfigurations string   `json:"market_configurations,omitempty"`
}

// SummaryRow is one group of the aggregated output, keyed by project,
// configuration and carpet area, with APR statistics over the group.
type SummaryRow struct {
	ProjectName    string  `json:"project_name"`
	Configuration  string  `json:"configuration"`
	CarpetAreaSqft float64 `json:"carpet_area_sqft"`
	Count          int     `json:"count"`
	MinAPR         float64 `json:"min_apr"`
	MaxAPR         float64 `json:"max_apr"`
	MeanAPR        float64 `json:"mean_apr"`
	MedianAPR      float64 `json:"median_apr"`
	ModeAPR        float64 `json:"mode_apr"`
}

// MarketInfo is the scraped market signal for one society/locality pair.
type MarketInfo struct {
	TicketSize     string `json:"ticket_size"`
	Configurations string `json:"configurations"`
}

// EnrichmentBatch is one unit of work on the enrichment queue: a slice
// of rows to annotate with distance and market data, relative to an
// already-resolved project origin. Done is signalled once per batch so
// the submitter can wait for a whole run.
type EnrichmentBatch struct {
	Rows            []*PropertyResult
	OriginLatitude  float64
	OriginLongitude float64
	AddressSuffix   string
	SanityRadiusKm  float64
	Done            *sync.WaitGroup
}
