package aggregation

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"propdash/server/internal/classification"
	"propdash/server/internal/extraction"
	"propdash/server/internal/models"
	"propdash/server/internal/units"
)

// Aggregator runs the per-record area/price computation and the grouped
// APR summary over one batch of records.
type Aggregator struct {
	extractor     *extraction.Extractor
	thresholds    classification.Thresholds
	loadingFactor float64
	workerCount   int
	logger        *logrus.Logger
}

// NewAggregator validates the run configuration and returns an
// aggregator. Thresholds that are not strictly ascending, or a loading
// factor below 1.0, are rejected up front rather than silently
// misclassifying the whole batch.
func NewAggregator(extractor *extraction.Extractor, thresholds classification.Thresholds, loadingFactor float64, workerCount int, logger *logrus.Logger) (*Aggregator, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	if loadingFactor < 1.0 {
		return nil, fmt.Errorf("%w: loading factor must be >= 1.0, got %.2f",
			classification.ErrInvalidConfiguration, loadingFactor)
	}
	if workerCount < 1 {
		workerCount = 1
	}
	return &Aggregator{
		extractor:     extractor,
		thresholds:    thresholds,
		loadingFactor: loadingFactor,
		workerCount:   workerCount,
		logger:        logger,
	}, nil
}

// Run computes the augmented per-record table and the grouped summary.
// Records are independent, so extraction fans out over workers; the
// result slice is indexed by input position, which keeps the output
// order stable regardless of scheduling.
func (a *Aggregator) Run(records []models.PropertyRecord) ([]models.PropertyResult, []models.SummaryRow) {
	results := make([]models.PropertyResult, len(records))

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < a.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = a.computeRecord(records[i])
			}
		}()
	}
	for i := range records {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	summary := a.summarize(results)

	a.logger.WithFields(logrus.Fields{
		"records": len(results),
		"groups":  len(summary),
	}).Info("Aggregated batch")

	return results, summary
}

// computeRecord derives area, saleable area, APR and configuration for
// one record. A record with no extractable area keeps its row with the
// zero/"N/A" sentinels; nothing here fails.
func (a *Aggregator) computeRecord(record models.PropertyRecord) models.PropertyResult {
	carpetSqm := a.extractor.Extract(record.Description)
	carpetSqft := units.SqmToSqft(carpetSqm)
	saleable := carpetSqft * a.loadingFactor

	var apr float64
	if saleable > 0 {
		apr = record.ConsiderationValue / saleable
	}

	return models.PropertyResult{
		PropertyRecord: record,
		CarpetAreaSqm:  round2(carpetSqm),
		CarpetAreaSqft: round2(carpetSqft),
		SaleableArea:   round2(saleable),
		APR:            round2(apr),
		Configuration:  classification.Classify(carpetSqft, a.thresholds),
	}
}

type groupKey struct {
	project        string
	configuration  string
	carpetAreaSqft float64
}

// summarize groups rows with a known area by (project, configuration,
// carpet area) and computes APR statistics per group. Zero-area rows
// stay in the per-record output but carry no price-per-area signal, so
// they are left out here.
func (a *Aggregator) summarize(results []models.PropertyResult) []models.SummaryRow {
	groups := make(map[groupKey][]float64)
	for _, r := range results {
		if r.CarpetAreaSqft == 0 {
			continue
		}
		key := groupKey{r.ProjectName, r.Configuration, r.CarpetAreaSqft}
		groups[key] = append(groups[key], r.APR)
	}

	rows := make([]models.SummaryRow, 0, len(groups))
	for key, aprs := range groups {
		rows = append(rows, models.SummaryRow{
			ProjectName:    key.project,
			Configuration:  key.configuration,
			CarpetAreaSqft: key.carpetAreaSqft,
			Count:          len(aprs),
			MinAPR:         round2(minOf(aprs)),
			MaxAPR:         round2(maxOf(aprs)),
			MeanAPR:        round2(meanOf(aprs)),
			MedianAPR:      round2(medianOf(aprs)),
			ModeAPR:        round2(modeOf(aprs)),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ProjectName != rows[j].ProjectName {
			return rows[i].ProjectName < rows[j].ProjectName
		}
		if rows[i].Configuration != rows[j].Configuration {
			return rows[i].Configuration < rows[j].Configuration
		}
		return rows[i].CarpetAreaSqft < rows[j].CarpetAreaSqft
	})
	return rows
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func meanOf(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func medianOf(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// modeOf returns the most frequent value; ties go to the smallest so
// the result is deterministic.
func modeOf(vals []float64) float64 {
	counts := make(map[float64]int)
	for _, v := range vals {
		counts[v]++
	}
	mode, best := vals[0], 0
	for v, n := range counts {
		if n > best || (n == best && v < mode) {
			mode, best = v, n
		}
	}
	return mode
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
