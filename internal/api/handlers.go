package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"propdash/server/config"
	"propdash/server/internal/aggregation"
	"propdash/server/internal/classification"
	"propdash/server/internal/enrichment"
	"propdash/server/internal/extraction"
	"propdash/server/internal/models"
	"propdash/server/internal/workbook"
)

type Handler struct {
	config    *config.Config
	logger    *logrus.Logger
	extractor *extraction.Extractor
	enricher  *enrichment.Enricher
}

// BatchParams are the per-run overrides accepted alongside the upload.
// Zero values fall back to the configured defaults.
type BatchParams struct {
	ProjectAddress string  `form:"project_address"`
	City           string  `form:"city"`
	LoadingFactor  float64 `form:"loading_factor"`
	Threshold1     float64 `form:"threshold_1"`
	Threshold2     float64 `form:"threshold_2"`
	Threshold3     float64 `form:"threshold_3"`
}

type batchResponse struct {
	Records []models.PropertyResult `json:"records"`
	Summary []models.SummaryRow     `json:"summary"`
	Warning string                  `json:"warning,omitempty"`
}

func NewHandler(cfg *config.Config, extractor *extraction.Extractor, enricher *enrichment.Enricher, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Handler{
		config:    cfg,
		logger:    logger,
		extractor: extractor,
		enricher:  enricher,
	}
}

// ProcessBatch ingests an uploaded registry sheet, runs the area/APR
// aggregation and optional enrichment, and returns both tables as JSON.
func (h *Handler) ProcessBatch(c *gin.Context) {
	resp, ok := h.runBatch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportBatch runs the same pipeline and streams the result workbook.
func (h *Handler) ExportBatch(c *gin.Context) {
	resp, ok := h.runBatch(c)
	if !ok {
		return
	}

	f, err := workbook.WriteWorkbook(resp.Records, resp.Summary)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build export workbook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build export workbook"})
		return
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		h.logger.WithError(err).Error("Failed to serialize export workbook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to serialize export workbook"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="project_data.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// runBatch is the shared ingest → aggregate → enrich pipeline. On
// failure it has already written the error response.
func (h *Handler) runBatch(c *gin.Context) (*batchResponse, bool) {
	var params BatchParams
	if err := c.ShouldBind(&params); err != nil {
		h.logger.WithError(err).Error("Failed to parse batch parameters")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch parameters"})
		return nil, false
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing upload, expected multipart field 'file'"})
		return nil, false
	}
	defer file.Close()

	records, err := workbook.ReadRecords(file, header.Filename)
	if err != nil {
		h.logger.WithError(err).WithField("filename", header.Filename).Error("Failed to read uploaded sheet")
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Could not read %s: %v", header.Filename, err)})
		return nil, false
	}

	// Per-field overrides, so a single adjusted cutoff keeps the
	// configured defaults for the others. The merged triple is still
	// validated by the aggregator.
	thresholds := h.config.Thresholds()
	if params.Threshold1 > 0 {
		thresholds.OneToTwo = params.Threshold1
	}
	if params.Threshold2 > 0 {
		thresholds.TwoToThree = params.Threshold2
	}
	if params.Threshold3 > 0 {
		thresholds.ThreeToTop = params.Threshold3
	}
	loadingFactor := h.config.Analysis.LoadingFactor
	if params.LoadingFactor > 0 {
		loadingFactor = params.LoadingFactor
	}

	aggregator, err := aggregation.NewAggregator(h.extractor, thresholds, loadingFactor, h.config.Analysis.WorkerCount, h.logger)
	if err != nil {
		if errors.Is(err, classification.ErrInvalidConfiguration) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			h.logger.WithError(err).Error("Failed to build aggregator")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process batch"})
		}
		return nil, false
	}

	results, summary := aggregator.Run(records)
	resp := &batchResponse{Records: results, Summary: summary}

	if params.ProjectAddress != "" && h.enricher != nil {
		rows := make([]*models.PropertyResult, len(results))
		for i := range results {
			rows[i] = &results[i]
		}
		if err := h.enricher.EnrichAll(rows, params.ProjectAddress, params.City); err != nil {
			// Enrichment is a soft signal; report it, don't fail the batch.
			h.logger.WithError(err).Warn("Enrichment incomplete")
			resp.Warning = err.Error()
		}
	}

	return resp, true
}

// GetCities lists the supported metro presets.
func (h *Handler) GetCities(c *gin.Context) {
	c.JSON(http.StatusOK, config.SupportedCities)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
