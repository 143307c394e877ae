package config

import (
	"github.com/caarlos0/env/v6"

	"propdash/server/internal/classification"
	"propdash/server/internal/extraction"
)

type Config struct {
	Server struct {
		// Port the API listens on
		Port string `env:"SERVER_PORT" envDefault:"5250"`

		// Directory for the geocode cache database
		CacheDir string `env:"CACHE_DIR" envDefault:""`
	}

	// Analysis configuration: the knobs that were copy-pasted constants
	// across the legacy dashboard scripts
	Analysis struct {
		// Multiplier from carpet area to saleable area
		LoadingFactor float64 `env:"LOADING_FACTOR" envDefault:"1.35"`

		// Ascending BHK band cutoffs in square feet
		ThresholdOneToTwo   float64 `env:"BHK_THRESHOLD_1" envDefault:"600"`
		ThresholdTwoToThree float64 `env:"BHK_THRESHOLD_2" envDefault:"850"`
		ThresholdThreeToTop float64 `env:"BHK_THRESHOLD_3" envDefault:"1100"`

		// Number of concurrent extraction workers
		WorkerCount int `env:"ANALYSIS_WORKER_COUNT" envDefault:"4"`
	}

	// Extraction tunables (see extraction.Options)
	Extraction struct {
		MinPlausibleSqm    float64 `env:"AREA_MIN_SQM" envDefault:"1"`
		MaxPlausibleSqm    float64 `env:"AREA_MAX_SQM" envDefault:"650"`
		TotalToleranceSqm  float64 `env:"AREA_TOTAL_TOLERANCE_SQM" envDefault:"1"`
		ParkingWindowRunes int     `env:"AREA_PARKING_WINDOW" envDefault:"40"`
	}

	// Enrichment (geocoding + market lookup) configuration
	Enrichment struct {
		// Maximum rows per enrichment batch on the queue
		MaxBatchSize int `env:"ENRICH_MAX_BATCH_SIZE" envDefault:"25"`

		// Number of concurrent enrichment workers
		WorkerCount int `env:"ENRICH_WORKER_COUNT" envDefault:"2"`

		// Maximum number of retries for a failed batch
		MaxRetries int `env:"ENRICH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"ENRICH_RETRY_DELAY" envDefault:"5"`

		// Courtesy delay between upstream lookups in milliseconds
		RequestDelayMs int `env:"ENRICH_REQUEST_DELAY_MS" envDefault:"1000"`

		NominatimURL string `env:"NOMINATIM_URL" envDefault:"https://nominatim.openstreetmap.org/search"`
		OSRMURL      string `env:"OSRM_URL" envDefault:"http://router.project-osrm.org"`
		SearchURL    string `env:"SEARCH_URL" envDefault:"https://html.duckduckgo.com/html/"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Thresholds returns the configured BHK band cutoffs.
func (c *Config) Thresholds() classification.Thresholds {
	return classification.Thresholds{
		OneToTwo:   c.Analysis.ThresholdOneToTwo,
		TwoToThree: c.Analysis.ThresholdTwoToThree,
		ThreeToTop: c.Analysis.ThresholdThreeToTop,
	}
}

// ExtractionOptions returns the configured extractor tunables.
func (c *Config) ExtractionOptions() extraction.Options {
	return extraction.Options{
		MinPlausibleSqm:    c.Extraction.MinPlausibleSqm,
		MaxPlausibleSqm:    c.Extraction.MaxPlausibleSqm,
		TotalToleranceSqm:  c.Extraction.TotalToleranceSqm,
		ParkingWindowRunes: c.Extraction.ParkingWindowRunes,
	}
}
