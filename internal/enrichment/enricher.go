package enrichment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"propdash/server/config"
	"propdash/server/internal/geocoding"
	"propdash/server/internal/market"
	"propdash/server/internal/models"
	"propdash/server/internal/queue"
)

// Enricher annotates aggregated rows with road distance from the
// reference project and scraped market data. It is strictly additive:
// rows that cannot be resolved keep their sentinels and the batch
// continues.
type Enricher struct {
	geocoder  *geocoding.Geocoder
	market    *market.Client
	queue     *queue.BatchQueue
	config    *config.Config
	logger    *logrus.Logger
	waitGroup sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewEnricher creates a new enricher consuming from the given queue.
func NewEnricher(geocoder *geocoding.Geocoder, marketClient *market.Client, batchQueue *queue.BatchQueue, cfg *config.Config, logger *logrus.Logger) *Enricher {
	if logger == nil {
		logger = logrus.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Enricher{
		geocoder: geocoder,
		market:   marketClient,
		queue:    batchQueue,
		config:   cfg,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start registers the batch handler and spins up the queue consumers.
func (e *Enricher) Start() {
	e.queue.Subscribe(func(batch *models.EnrichmentBatch) error {
		return e.processBatch(batch)
	})
	for i := 0; i < e.config.Enrichment.WorkerCount; i++ {
		e.queue.Start()
	}
}

// Stop cancels in-flight work and waits for running batches.
func (e *Enricher) Stop() {
	e.cancel()
	e.waitGroup.Wait()
}

// EnrichAll resolves the reference project once, slices the rows into
// queue batches and blocks until every batch has been handled.
func (e *Enricher) EnrichAll(rows []*models.PropertyResult, projectAddress, cityName string) error {
	suffix := cityName
	city := config.GetCityByName(strings.ToLower(cityName))
	if city != nil {
		suffix = city.AddressSuffix
	}

	originLat, originLon, err := e.geocoder.GeocodeAddress(joinAddress(projectAddress, suffix))
	if err != nil {
		return fmt.Errorf("failed to locate reference project %q: %w", projectAddress, err)
	}

	var sanityRadius float64
	if city != nil && city.SanityRadiusKm > 0 {
		sanityRadius = city.SanityRadiusKm
		offset := e.geocoder.GeodesicDistanceKm(city.Center[0], city.Center[1], originLat, originLon)
		if offset > sanityRadius {
			e.logger.WithFields(logrus.Fields{
				"project": projectAddress,
				"city":    city.Name,
				"km":      offset,
			}).Warn("Reference project resolved outside the selected metro")
		}
	}

	var done sync.WaitGroup
	size := e.config.Enrichment.MaxBatchSize
	if size < 1 {
		size = len(rows)
	}
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		batch := &models.EnrichmentBatch{
			Rows:            rows[start:end],
			OriginLatitude:  originLat,
			OriginLongitude: originLon,
			AddressSuffix:   suffix,
			SanityRadiusKm:  sanityRadius,
			Done:            &done,
		}
		done.Add(1)
		if err := e.queue.Push(batch); err != nil {
			// Queue saturated or closed: handle inline rather than
			// dropping rows.
			e.logger.WithError(err).Warn("Enrichment queue unavailable, processing batch inline")
			e.processBatch(batch)
		}
	}
	done.Wait()
	return nil
}

// processBatch handles one batch with retry. A batch only counts as
// failed when every row lookup failed, which points at an upstream
// outage rather than bad rows.
func (e *Enricher) processBatch(batch *models.EnrichmentBatch) error {
	e.waitGroup.Add(1)
	defer e.waitGroup.Done()
	if batch.Done != nil {
		defer batch.Done.Done()
	}

	var err error
	for attempt := 0; attempt <= e.config.Enrichment.MaxRetries; attempt++ {
		if attempt > 0 {
			e.logger.Infof("Retrying enrichment batch, attempt %d of %d", attempt, e.config.Enrichment.MaxRetries)
			select {
			case <-e.ctx.Done():
				return e.ctx.Err()
			case <-time.After(time.Duration(e.config.Enrichment.RetryDelay) * time.Second):
			}
		}

		err = e.enrichRows(batch)
		if err == nil {
			e.logger.Infof("Successfully enriched batch of %d rows", len(batch.Rows))
			return nil
		}
		e.logger.Errorf("Enrichment batch failed: %v", err)
	}
	return fmt.Errorf("failed to enrich batch after %d attempts: %w", e.config.Enrichment.MaxRetries, err)
}

func (e *Enricher) enrichRows(batch *models.EnrichmentBatch) error {
	failures := 0
	for _, row := range batch.Rows {
		select {
		case <-e.ctx.Done():
			return e.ctx.Err()
		default:
		}

		if !e.enrichRow(row, batch) {
			failures++
		}

		// Courtesy delay so the free upstreams do not block us.
		time.Sleep(time.Duration(e.config.Enrichment.RequestDelayMs) * time.Millisecond)
	}
	if len(batch.Rows) > 0 && failures == len(batch.Rows) {
		return fmt.Errorf("all %d rows in batch failed enrichment", failures)
	}
	return nil
}

// enrichRow fills distance and market fields for one row. Reports
// whether the geocode step succeeded.
func (e *Enricher) enrichRow(row *models.PropertyResult, batch *models.EnrichmentBatch) bool {
	info := e.market.FetchMarketInfo(row.Society, row.Locality, batch.AddressSuffix)
	row.TicketSize = info.TicketSize
	row.MarketConfigurations = info.Configurations

	if row.Society == "" && row.Locality == "" {
		return true
	}

	address := joinAddress(row.Society, row.Locality, batch.AddressSuffix)
	lat, lon, err := e.geocoder.GeocodeAddress(address)
	if err != nil {
		e.logger.WithError(err).WithField("address", address).Debug("Could not geocode row")
		return false
	}

	km := e.geocoder.DistanceKm(batch.OriginLatitude, batch.OriginLongitude, lat, lon)
	row.DistanceKm = &km
	if batch.SanityRadiusKm > 0 && km > batch.SanityRadiusKm {
		row.OutOfMarket = true
		e.logger.WithFields(logrus.Fields{
			"address": address,
			"km":      km,
		}).Warn("Row resolved outside the metro sanity radius")
	}
	return true
}

func joinAddress(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
