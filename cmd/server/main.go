package main

import (
	"os"
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"propdash/server/config"
	"propdash/server/internal/api"
	"propdash/server/internal/enrichment"
	"propdash/server/internal/extraction"
	"propdash/server/internal/geocoding"
	"propdash/server/internal/market"
	"propdash/server/internal/queue"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	cacheDir := cfg.Server.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "propdash", "geocode_cache")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		logger.WithError(err).Fatal("Failed to create cache directory")
	}

	geocoder, err := geocoding.NewGeocoder(logger, filepath.Join(cacheDir, "geocode.db"),
		cfg.Enrichment.NominatimURL, cfg.Enrichment.OSRMURL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize geocoder")
	}

	marketClient := market.NewClient(logger, cfg.Enrichment.SearchURL)

	batchQueue := queue.NewBatchQueue(16, logger)
	enricher := enrichment.NewEnricher(geocoder, marketClient, batchQueue, cfg, logger)
	enricher.Start()
	defer func() {
		enricher.Stop()
		batchQueue.Close()
	}()

	extractor := extraction.NewExtractor(extraction.DefaultVocabulary(), cfg.ExtractionOptions())

	handler := api.NewHandler(cfg, extractor, enricher, logger)

	router := gin.Default()
	router.Use(cors.Default())
	api.SetupRoutes(router, handler)

	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
