package geocoding

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrAddressNotFound is returned when the geocoder has no result for an
// address.
var ErrAddressNotFound = errors.New("address not found")

// CachedAddress is one resolved address in the sqlite cache. Only
// coordinates are cached; batch results are never persisted.
type CachedAddress struct {
	Address    string  `gorm:"primaryKey"`
	Latitude   float64 `gorm:"not null"`
	Longitude  float64 `gorm:"not null"`
	ResolvedAt time.Time
}

func (CachedAddress) TableName() string {
	return "geocode_cache"
}

// Geocoder resolves addresses via Nominatim and measures road distance
// via OSRM, with a geodesic fallback when routing is unavailable.
type Geocoder struct {
	logger       *logrus.Logger
	db           *gorm.DB
	client       *http.Client
	nominatimURL string
	osrmURL      string
}

// NewGeocoder opens (and migrates) the cache database at cachePath.
func NewGeocoder(logger *logrus.Logger, cachePath, nominatimURL, osrmURL string) (*Geocoder, error) {
	if logger == nil {
		logger = logrus.New()
	}

	db, err := gorm.Open(sqlite.Open(cachePath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open geocode cache: %w", err)
	}
	if err := db.AutoMigrate(&CachedAddress{}); err != nil {
		return nil, fmt.Errorf("failed to migrate geocode cache: %w", err)
	}

	return &Geocoder{
		logger:       logger,
		db:           db,
		client:       &http.Client{Timeout: 10 * time.Second},
		nominatimURL: nominatimURL,
		osrmURL:      osrmURL,
	}, nil
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// GeocodeAddress returns the coordinates for an address, from cache
// when possible.
func (g *Geocoder) GeocodeAddress(address string) (float64, float64, error) {
	var cached CachedAddress
	if err := g.db.Where("address = ?", address).First(&cached).Error; err == nil {
		g.logger.WithFields(logrus.Fields{
			"address": address,
			"source":  "cache",
		}).Debug("Found coordinates in cache")
		return cached.Latitude, cached.Longitude, nil
	}

	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", "in")

	req, err := http.NewRequest(http.MethodGet, g.nominatimURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("User-Agent", "propdash-server/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, err
	}

	var results nominatimResponse
	if err := json.Unmarshal(body, &results); err != nil {
		return 0, 0, fmt.Errorf("failed to parse nominatim response: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrAddressNotFound, address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, err
	}

	if err := g.db.Save(&CachedAddress{
		Address:    address,
		Latitude:   lat,
		Longitude:  lon,
		ResolvedAt: time.Now(),
	}).Error; err != nil {
		g.logger.WithError(err).Warn("Failed to cache geocoded address")
	}

	g.logger.WithFields(logrus.Fields{
		"address":   address,
		"latitude":  lat,
		"longitude": lon,
		"source":    "nominatim",
	}).Info("Geocoded address")

	return lat, lon, nil
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

// RoadDistanceKm returns the driving distance between two coordinates
// in kilometers, rounded to two decimals.
func (g *Geocoder) RoadDistanceKm(originLat, originLon, destLat, destLon float64) (float64, error) {
	endpoint := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		g.osrmURL, originLon, originLat, destLon, destLat)

	resp, err := g.client.Get(endpoint)
	if err != nil {
		return 0, fmt.Errorf("osrm request failed: %w", err)
	}
	defer resp.Body.Close()

	var route osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		return 0, fmt.Errorf("failed to parse osrm response: %w", err)
	}
	if route.Code != "Ok" || len(route.Routes) == 0 {
		return 0, fmt.Errorf("osrm returned no route (code %q)", route.Code)
	}

	return math.Round(route.Routes[0].Distance/1000*100) / 100, nil
}

// GeodesicDistanceKm is the straight-line fallback distance.
func (g *Geocoder) GeodesicDistanceKm(originLat, originLon, destLat, destLon float64) float64 {
	meters := geo.Distance(orb.Point{originLon, originLat}, orb.Point{destLon, destLat})
	return math.Round(meters/1000*100) / 100
}

// DistanceKm prefers the road distance and silently falls back to the
// geodesic one when routing fails.
func (g *Geocoder) DistanceKm(originLat, originLon, destLat, destLon float64) float64 {
	if km, err := g.RoadDistanceKm(originLat, originLon, destLat, destLon); err == nil {
		return km
	} else {
		g.logger.WithError(err).Debug("Falling back to geodesic distance")
	}
	return g.GeodesicDistanceKm(originLat, originLon, destLat, destLon)
}
